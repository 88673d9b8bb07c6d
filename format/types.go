package format

type (
	// DataType identifies a primitive, set-defined or container type on the wire.
	DataType uint8
	// EntryAction describes how a receiver applies a container entry to its cached state.
	EntryAction uint8
	// CompressionType identifies a snapshot compression algorithm.
	CompressionType uint8
)

// Wire format versions understood by the codec.
const (
	MajorVersion  uint8 = 14
	MinorVersion0 uint8 = 0 // RWF 14.0: millisecond time precision, local set definitions only.
	MinorVersion1 uint8 = 1 // RWF 14.1: adds micro/nanosecond times and global set definitions.

	DefaultMinorVersion = MinorVersion1
)

// Primitive types.
const (
	Unknown     DataType = 0
	Int         DataType = 3
	UInt        DataType = 4
	Float       DataType = 5
	Double      DataType = 6
	Real        DataType = 8
	Date        DataType = 9
	Time        DataType = 10
	DateTime    DataType = 11
	Qos         DataType = 12
	State       DataType = 13
	Enum        DataType = 14
	Array       DataType = 15
	Buffer      DataType = 16
	AsciiString DataType = 17
	Utf8String  DataType = 18
	RmtesString DataType = 19
)

// Set-defined primitive types. These only appear in set definitions; each maps to a
// base primitive type and has a fixed (or self-describing) width on the wire.
const (
	Int1       DataType = 64
	UInt1      DataType = 65
	Int2       DataType = 66
	UInt2      DataType = 67
	Int4       DataType = 68
	UInt4      DataType = 69
	Int8       DataType = 70
	UInt8      DataType = 71
	Float4     DataType = 72
	Double8    DataType = 73
	Real4RB    DataType = 74
	Real8RB    DataType = 75
	Date4      DataType = 76
	Time3      DataType = 77
	Time5      DataType = 78
	DateTime7  DataType = 79
	DateTime9  DataType = 80
	DateTime11 DataType = 81
	DateTime12 DataType = 82
	Time7      DataType = 83
	Time8      DataType = 84
)

// Container types.
const (
	NoData      DataType = 128
	Opaque      DataType = 130
	XML         DataType = 131
	FieldList   DataType = 132
	ElementList DataType = 133
	AnsiPage    DataType = 134
	FilterList  DataType = 135
	Vector      DataType = 136
	Map         DataType = 137
	Series      DataType = 138
	Msg         DataType = 141
	JSON        DataType = 142

	// ContainerTypeMin is subtracted from container types written in one-byte header fields.
	ContainerTypeMin DataType = 128
)

// Entry actions. Wire values differ per container kind and are mapped by the codec.
const (
	ActionNone EntryAction = iota
	ActionAdd
	ActionUpdate
	ActionDelete
	ActionSet
	ActionClear
	ActionInsert
)

const (
	CompressionNone CompressionType = 0x1 // CompressionNone represents no compression.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.
)

// IsPrimitive reports whether d is a standard primitive type handled by the codec.
// Array counts as a primitive; Qos and State are not supported.
func (d DataType) IsPrimitive() bool {
	return d >= Int && d <= RmtesString && d != 7 && d != Qos && d != State
}

// IsSetDefined reports whether d is a set-defined primitive type.
func (d DataType) IsSetDefined() bool {
	return d >= Int1 && d <= Time8
}

// IsContainer reports whether d is a container type.
func (d DataType) IsContainer() bool {
	return d >= NoData && d <= JSON
}

// IsStructured reports whether d is one of the structured containers this codec encodes entry by entry.
func (d DataType) IsStructured() bool {
	switch d { //nolint: exhaustive
	case FieldList, ElementList, FilterList, Vector, Map, Series:
		return true
	default:
		return false
	}
}

// BaseType returns the standard primitive type a set-defined type encodes.
// Standard types are returned unchanged.
func (d DataType) BaseType() DataType {
	switch d { //nolint: exhaustive
	case Int1, Int2, Int4, Int8:
		return Int
	case UInt1, UInt2, UInt4, UInt8:
		return UInt
	case Float4:
		return Float
	case Double8:
		return Double
	case Real4RB, Real8RB:
		return Real
	case Date4:
		return Date
	case Time3, Time5, Time7, Time8:
		return Time
	case DateTime7, DateTime9, DateTime11, DateTime12:
		return DateTime
	default:
		return d
	}
}

// FixedSize returns the wire width of a fixed-width set-defined type, or 0 when the
// width is variable (Real4RB, Real8RB and every standard type).
func (d DataType) FixedSize() int {
	switch d { //nolint: exhaustive
	case Int1, UInt1:
		return 1
	case Int2, UInt2:
		return 2
	case Time3:
		return 3
	case Int4, UInt4, Float4, Date4:
		return 4
	case Time5:
		return 5
	case DateTime7, Time7:
		return 7
	case Int8, UInt8, Double8, Time8:
		return 8
	case DateTime9:
		return 9
	case DateTime11:
		return 11
	case DateTime12:
		return 12
	default:
		return 0
	}
}

func (d DataType) String() string {
	switch d {
	case Unknown:
		return "Unknown"
	case Int:
		return "Int"
	case UInt:
		return "UInt"
	case Float:
		return "Float"
	case Double:
		return "Double"
	case Real:
		return "Real"
	case Date:
		return "Date"
	case Time:
		return "Time"
	case DateTime:
		return "DateTime"
	case Qos:
		return "Qos"
	case State:
		return "State"
	case Enum:
		return "Enum"
	case Array:
		return "Array"
	case Buffer:
		return "Buffer"
	case AsciiString:
		return "AsciiString"
	case Utf8String:
		return "Utf8String"
	case RmtesString:
		return "RmtesString"
	case Int1:
		return "Int1"
	case UInt1:
		return "UInt1"
	case Int2:
		return "Int2"
	case UInt2:
		return "UInt2"
	case Int4:
		return "Int4"
	case UInt4:
		return "UInt4"
	case Int8:
		return "Int8"
	case UInt8:
		return "UInt8"
	case Float4:
		return "Float4"
	case Double8:
		return "Double8"
	case Real4RB:
		return "Real4RB"
	case Real8RB:
		return "Real8RB"
	case Date4:
		return "Date4"
	case Time3:
		return "Time3"
	case Time5:
		return "Time5"
	case Time7:
		return "Time7"
	case Time8:
		return "Time8"
	case DateTime7:
		return "DateTime7"
	case DateTime9:
		return "DateTime9"
	case DateTime11:
		return "DateTime11"
	case DateTime12:
		return "DateTime12"
	case NoData:
		return "NoData"
	case Opaque:
		return "Opaque"
	case XML:
		return "XML"
	case FieldList:
		return "FieldList"
	case ElementList:
		return "ElementList"
	case AnsiPage:
		return "AnsiPage"
	case FilterList:
		return "FilterList"
	case Vector:
		return "Vector"
	case Map:
		return "Map"
	case Series:
		return "Series"
	case Msg:
		return "Msg"
	case JSON:
		return "JSON"
	default:
		return "Unknown"
	}
}

func (a EntryAction) String() string {
	switch a {
	case ActionNone:
		return "None"
	case ActionAdd:
		return "Add"
	case ActionUpdate:
		return "Update"
	case ActionDelete:
		return "Delete"
	case ActionSet:
		return "Set"
	case ActionClear:
		return "Clear"
	case ActionInsert:
		return "Insert"
	default:
		return "Unknown"
	}
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}
