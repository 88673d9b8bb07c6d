package primitive

import (
	"fmt"
	"time"

	"github.com/arloliu/rwf/format"
)

// Date is a calendar date. The zero Date is the blank date.
type Date struct {
	Day   uint8
	Month uint8
	Year  uint16
}

const dateLen = 4

// DateOf returns the Date of t.
func DateOf(t time.Time) Date {
	return Date{Day: uint8(t.Day()), Month: uint8(t.Month()), Year: uint16(t.Year())} //nolint:gosec
}

func (d Date) DataType() format.DataType { return format.Date }
func (d Date) Len() int                  { return dateLen }

func (d Date) Put(dst []byte) int {
	dst[0] = d.Day
	dst[1] = d.Month
	engine.PutUint16(dst[2:], d.Year)

	return dateLen
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// DecodeDate decodes a standard Date.
func DecodeDate(src []byte) (Date, error) {
	switch len(src) {
	case 0:
		return Date{}, blank(format.Date)
	case dateLen:
		return Date{Day: src[0], Month: src[1], Year: engine.Uint16(src[2:])}, nil
	default:
		return Date{}, badLength(format.Date, len(src))
	}
}

// Time is a time of day with up to nanosecond precision.
type Time struct {
	Hour        uint8
	Minute      uint8
	Second      uint8
	Millisecond uint16
	Microsecond uint16
	Nanosecond  uint16
}

// TimeOf returns the time of day of t.
func TimeOf(t time.Time) Time {
	ns := t.Nanosecond()

	return Time{
		Hour:        uint8(t.Hour()),           //nolint:gosec
		Minute:      uint8(t.Minute()),         //nolint:gosec
		Second:      uint8(t.Second()),         //nolint:gosec
		Millisecond: uint16(ns / 1_000_000),    //nolint:gosec
		Microsecond: uint16(ns / 1_000 % 1000), //nolint:gosec
		Nanosecond:  uint16(ns % 1000),         //nolint:gosec
	}
}

func (t Time) DataType() format.DataType { return format.Time }

func (t Time) Len() int {
	switch {
	case t.Nanosecond != 0:
		return 8
	case t.Microsecond != 0:
		return 7
	case t.Millisecond != 0:
		return 5
	default:
		return 3
	}
}

func (t Time) Put(dst []byte) int {
	n := t.Len()
	t.putN(dst, n)

	return n
}

// putN writes the first n bytes of the full 8-byte layout:
// hour, minute, second, millisecond(u16), microsecond(u16, bits 11-13 carry
// nanosecond bits 8-10), nanosecond low byte.
func (t Time) putN(dst []byte, n int) {
	dst[0] = t.Hour
	dst[1] = t.Minute
	if n >= 3 {
		dst[2] = t.Second
	}
	if n >= 5 {
		engine.PutUint16(dst[3:], t.Millisecond)
	}
	if n >= 7 {
		engine.PutUint16(dst[5:], t.Microsecond&0x07FF|(t.Nanosecond&0x0700)<<3)
	}
	if n >= 8 {
		dst[7] = byte(t.Nanosecond)
	}
}

func (t Time) truncateToMillis() Time {
	t.Microsecond = 0
	t.Nanosecond = 0

	return t
}

func (t Time) String() string {
	switch {
	case t.Nanosecond != 0:
		return fmt.Sprintf("%02d:%02d:%02d.%03d%03d%03d", t.Hour, t.Minute, t.Second, t.Millisecond, t.Microsecond, t.Nanosecond)
	case t.Microsecond != 0:
		return fmt.Sprintf("%02d:%02d:%02d.%03d%03d", t.Hour, t.Minute, t.Second, t.Millisecond, t.Microsecond)
	case t.Millisecond != 0:
		return fmt.Sprintf("%02d:%02d:%02d.%03d", t.Hour, t.Minute, t.Second, t.Millisecond)
	default:
		return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
	}
}

func readTime(src []byte) (Time, error) {
	var t Time
	switch len(src) {
	case 2, 3, 5, 7, 8:
	default:
		return Time{}, badLength(format.Time, len(src))
	}

	t.Hour, t.Minute = src[0], src[1]
	if len(src) >= 3 {
		t.Second = src[2]
	}
	if len(src) >= 5 {
		t.Millisecond = engine.Uint16(src[3:])
	}
	if len(src) >= 7 {
		packed := engine.Uint16(src[5:])
		t.Microsecond = packed & 0x07FF
		t.Nanosecond = (packed >> 3) & 0x0700
	}
	if len(src) == 8 {
		t.Nanosecond |= uint16(src[7])
	}

	return t, nil
}

// DecodeTime decodes a standard Time.
func DecodeTime(src []byte) (Time, error) {
	if len(src) == 0 {
		return Time{}, blank(format.Time)
	}

	return readTime(src)
}

// DateTime is a Date followed by a Time.
type DateTime struct {
	Date
	Time
}

// DateTimeOf returns the DateTime of t.
func DateTimeOf(t time.Time) DateTime {
	return DateTime{Date: DateOf(t), Time: TimeOf(t)}
}

func (dt DateTime) DataType() format.DataType { return format.DateTime }
func (dt DateTime) Len() int                  { return dateLen + dt.Time.Len() }

func (dt DateTime) Put(dst []byte) int {
	dt.Date.Put(dst)
	return dateLen + dt.Time.Put(dst[dateLen:])
}

func (dt DateTime) String() string {
	return dt.Date.String() + "T" + dt.Time.String()
}

// DecodeDateTime decodes a standard DateTime.
func DecodeDateTime(src []byte) (DateTime, error) {
	if len(src) == 0 {
		return DateTime{}, blank(format.DateTime)
	}
	if len(src) < dateLen+2 {
		return DateTime{}, badLength(format.DateTime, len(src))
	}

	d, err := DecodeDate(src[:dateLen])
	if err != nil {
		return DateTime{}, err
	}

	t, err := readTime(src[dateLen:])
	if err != nil {
		return DateTime{}, badLength(format.DateTime, len(src))
	}

	return DateTime{Date: d, Time: t}, nil
}
