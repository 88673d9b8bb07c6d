package codec

import (
	"github.com/arloliu/rwf/format"
	"github.com/arloliu/rwf/primitive"
)

type payloadKind uint8

const (
	payloadBlank payloadKind = iota
	payloadValue
	payloadEncoded
)

// Payload is the content of a one-shot entry: an unencoded primitive value, a
// pre-encoded byte range copied verbatim, or blank.
//
// The zero Payload is blank.
type Payload struct {
	kind  payloadKind
	value primitive.Value
	raw   []byte
}

// Value returns a payload that encodes v with the primitive codec.
// A nil v is blank.
func Value(v primitive.Value) Payload {
	if v == nil {
		return Payload{}
	}

	return Payload{kind: payloadValue, value: v}
}

// PreEncoded returns a payload that copies b verbatim. An empty b is blank.
func PreEncoded(b []byte) Payload {
	if len(b) == 0 {
		return Payload{}
	}

	return Payload{kind: payloadEncoded, raw: b}
}

// Blank returns the blank payload.
func Blank() Payload {
	return Payload{}
}

// IsBlank reports whether p encodes as zero bytes.
func (p Payload) IsBlank() bool {
	return p.kind == payloadBlank
}

// Len returns the size of the standard encoding of p.
func (p Payload) Len() int {
	switch p.kind {
	case payloadValue:
		return p.value.Len()
	case payloadEncoded:
		return len(p.raw)
	default:
		return 0
	}
}

func (p Payload) put(dst []byte) int {
	switch p.kind {
	case payloadValue:
		return p.value.Put(dst)
	case payloadEncoded:
		return copy(dst, p.raw)
	default:
		return 0
	}
}

// forVersion adapts a value payload to the wire version.
func (p Payload) forVersion(minor uint8) Payload {
	if p.kind == payloadValue {
		p.value = primitive.ForVersion(p.value, minor)
	}

	return p
}

// decoded returns the primitive value of p as type dt, nil for blank.
func (p Payload) decoded(dt format.DataType) (primitive.Value, error) {
	switch p.kind {
	case payloadValue:
		return p.value, nil
	case payloadEncoded:
		return primitive.Decode(dt, p.raw)
	default:
		return nil, nil
	}
}
