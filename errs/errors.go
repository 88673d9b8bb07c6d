// Package errs defines the sentinel errors returned by the rwf codec.
//
// Errors are wrapped with context using fmt.Errorf("%w: ...") at the point of
// failure; callers should test for a kind with errors.Is.
//
// Two sentinels are not failures: ErrEndOfContainer terminates entry iteration
// and ErrBlankData reports a valid zero-length value. Use IsFailure to tell them
// apart from real errors.
package errs

import "errors"

var (
	// ErrBufferTooSmall is returned when the remaining capacity of the encode buffer
	// cannot hold the next write. The whole message must be re-encoded into a larger buffer.
	ErrBufferTooSmall = errors.New("buffer too small")

	// ErrIteratorOverrun is returned when the nesting depth limit of an iterator is exceeded.
	ErrIteratorOverrun = errors.New("iterator overrun")

	// ErrInvalidData is returned for content that violates the wire contract: a tag or type
	// mismatch against a set definition, undeclared content, or a malformed entry on decode.
	ErrInvalidData = errors.New("invalid data")

	// ErrSetDefNotProvided is returned when set data references an id found in neither
	// the local nor the global set definition database.
	ErrSetDefNotProvided = errors.New("set definition not provided")

	// ErrIncompleteData is returned when a decode would read past the end of its window.
	ErrIncompleteData = errors.New("incomplete data")

	// ErrEndOfContainer terminates entry iteration. It is not a failure.
	ErrEndOfContainer = errors.New("end of container")

	// ErrBlankData reports a blank (zero-length) value. It is not a failure.
	ErrBlankData = errors.New("blank data")

	// ErrInvalidArgument is returned on API misuse, e.g. an operation called in the wrong
	// encoder state or against the wrong container on the iterator stack.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnsupportedDataType is returned for a data type the operation cannot handle.
	ErrUnsupportedDataType = errors.New("unsupported data type")

	// ErrValueOutOfRange is returned when a value does not fit the width it must be encoded in.
	ErrValueOutOfRange = errors.New("value out of range")

	// ErrUnsupportedVersion is returned when a feature is not available in the iterator's wire version.
	ErrUnsupportedVersion = errors.New("unsupported wire version")

	// ErrDictionaryIncomplete is returned when a multi-part dictionary is published before its final part.
	ErrDictionaryIncomplete = errors.New("dictionary incomplete")

	// ErrChecksumMismatch is returned when a stored snapshot fails its integrity check.
	ErrChecksumMismatch = errors.New("checksum mismatch")
)

// IsFailure reports whether err is a real failure, i.e. neither nil nor one of the
// non-failure sentinels ErrEndOfContainer and ErrBlankData.
func IsFailure(err error) bool {
	if err == nil {
		return false
	}

	return !errors.Is(err, ErrEndOfContainer) && !errors.Is(err, ErrBlankData)
}
