// Package codec encodes and decodes RWF structured containers.
//
// # Overview
//
// RWF messages carry nested, typed containers: FieldList, ElementList, Map, Vector,
// Series, FilterList and the Array primitive. The codec writes and reads them in a
// single pass over a caller-supplied buffer, keeping one level of state per open
// container on a fixed-size stack (see MaxDepth).
//
// # Encoding
//
// An EncodeIterator writes into a buffer of fixed capacity; it never allocates.
// Every container follows the same protocol:
//
//	it, _ := codec.NewEncodeIterator(buf)
//	m := codec.Map{KeyPrimitiveType: format.Buffer, ContainerType: format.FieldList}
//	_ = m.EncodeInit(it, 0)
//
//	me := codec.MapEntry{Action: format.ActionAdd}
//	_ = me.EncodeInit(it, codec.Value(primitive.Buffer("IBM.N")), 0)
//	fl := codec.FieldList{Flags: codec.FieldListHasStandardData}
//	_ = fl.EncodeInit(it, setdef.FieldResolver{}, 0)
//	fe := codec.FieldEntry{FieldID: 22}
//	_ = fe.Encode(it, codec.Value(primitive.NewReal(3194, primitive.ExponentNeg2)))
//	_ = fl.EncodeComplete(it, true)
//	_ = me.EncodeComplete(it, true)
//
//	_ = m.EncodeComplete(it, true)
//	msg := it.Bytes()
//
// Entries are written either in one step (Encode with a Payload) or in phases
// (EncodeInit, a nested container, EncodeComplete). A Payload is a primitive value,
// pre-encoded bytes copied verbatim, or blank.
//
// Calling EncodeComplete(false) on a container or a phased entry rolls the buffer
// back to its state before that level was opened. When an encode call returns
// errs.ErrBufferTooSmall the message must be encoded again into a larger buffer.
//
// # Decoding
//
// A DecodeIterator reads a buffer produced by the encoder. Containers are opened
// with Decode and their entries pulled until errs.ErrEndOfContainer:
//
//	it, _ := codec.NewDecodeIterator(msg)
//	var m codec.Map
//	_ = m.Decode(it)
//	var me codec.MapEntry
//	for err := me.Decode(it); err == nil; err = me.Decode(it) {
//	    var fl codec.FieldList
//	    if err := fl.Decode(it, setdef.FieldResolver{}); err != nil { ... }
//	    ...
//	}
//
// An empty container payload decodes as errs.ErrBlankData and opens no level.
//
// # Set definitions
//
// FieldList and ElementList may carry set data: entries written in the order of a
// set definition without tags or types. Definitions are resolved through a
// setdef.Resolver; a Map, Vector or Series may carry local definitions for its
// entries (MapHasSetDefs and friends).
//
// # Versions
//
// Iterators default to RWF 14.1. WithVersion(14, 0) selects 14.0, which has no
// global set definitions and only millisecond time precision.
package codec
