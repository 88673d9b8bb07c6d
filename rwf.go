// Package rwf encodes and decodes RWF (Reuters Wire Format) structured containers:
// field lists, element lists, maps, vectors, series, filter lists and arrays of
// typed primitives, nested to any depth within a single caller-owned buffer.
//
// # Packages
//
//   - codec: the encode and decode iterators and every container type
//   - primitive: the primitive value codec (Int, UInt, Real, Date, Time, ...)
//   - setdef: set definitions and the local/global databases that resolve them
//   - dictionary: the global set definition dictionary exchange and its snapshots
//   - cache: consumer-side application of keyed Map and Vector entries
//   - compress: codecs used for dictionary snapshots
//   - errs, format: sentinel errors and the shared type and action enums
//
// # Basic Usage
//
// Encoding writes into a fixed buffer and fails with errs.ErrBufferTooSmall when it
// runs out. EncodeWithRetry wraps an encode function with a pooled buffer that grows
// until the message fits:
//
//	msg, err := rwf.EncodeWithRetry(0, func(it *codec.EncodeIterator) error {
//	    fl := codec.FieldList{Flags: codec.FieldListHasStandardData}
//	    if err := fl.EncodeInit(it, setdef.FieldResolver{}, 0); err != nil {
//	        return err
//	    }
//	    fe := codec.FieldEntry{FieldID: 22}
//	    if err := fe.Encode(it, codec.Value(primitive.NewReal(3194, primitive.ExponentNeg2))); err != nil {
//	        return err
//	    }
//
//	    return fl.EncodeComplete(it, true)
//	})
//
// Decoding walks the same structure with a DecodeIterator; see the codec package for
// the full walk-through.
package rwf

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/arloliu/rwf/codec"
	"github.com/arloliu/rwf/errs"
	"github.com/arloliu/rwf/internal/pool"
)

// DefaultMaxMessageSize bounds EncodeWithRetry when no explicit limit is given.
const DefaultMaxMessageSize = 16 * 1024 * 1024

// EncodeFunc writes one complete message. It may be called more than once by
// EncodeWithRetry and must write the same message every time.
type EncodeFunc func(it *codec.EncodeIterator) error

// NewEncodeIterator returns an iterator writing into buf.
func NewEncodeIterator(buf []byte, opts ...codec.IteratorOption) (*codec.EncodeIterator, error) {
	return codec.NewEncodeIterator(buf, opts...)
}

// NewDecodeIterator returns an iterator reading data.
func NewDecodeIterator(data []byte, opts ...codec.IteratorOption) (*codec.DecodeIterator, error) {
	return codec.NewDecodeIterator(data, opts...)
}

// EncodeWithRetry runs fn against a pooled buffer, doubling the buffer and starting
// over each time fn fails with errs.ErrBufferTooSmall, and returns a copy of the
// encoded message. maxSize limits the buffer, 0 meaning DefaultMaxMessageSize; a
// message that does not fit returns errs.ErrBufferTooSmall. Any other error of fn is
// returned as is.
func EncodeWithRetry(maxSize int, fn EncodeFunc, opts ...codec.IteratorOption) ([]byte, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxMessageSize
	}

	bb := pool.GetMessageBuffer()
	defer pool.PutMessageBuffer(bb)

	buf := bb.Full()
	if len(buf) > maxSize {
		buf = buf[:maxSize]
	}
	it, err := codec.NewEncodeIterator(buf, opts...)
	if err != nil {
		return nil, err
	}

	for {
		err := fn(it)
		if err == nil {
			if it.Depth() != 0 {
				return nil, fmt.Errorf("%w: message left %d containers open", errs.ErrInvalidArgument, it.Depth())
			}

			return bytes.Clone(it.Bytes()), nil
		}
		if !errors.Is(err, errs.ErrBufferTooSmall) || len(buf) >= maxSize {
			return nil, err
		}

		next := min(2*len(buf), maxSize)
		bb.Reset()
		bb.Grow(next)
		buf = bb.Full()[:next]
		it.Reset(buf)
	}
}
