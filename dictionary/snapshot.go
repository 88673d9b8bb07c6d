package dictionary

import (
	"fmt"
	"io"

	"github.com/go-kit/log/level"

	"github.com/arloliu/rwf"
	"github.com/arloliu/rwf/codec"
	"github.com/arloliu/rwf/compress"
	"github.com/arloliu/rwf/endian"
	"github.com/arloliu/rwf/errs"
	"github.com/arloliu/rwf/format"
	"github.com/arloliu/rwf/internal/hash"
	"github.com/arloliu/rwf/internal/pool"
	"github.com/arloliu/rwf/setdef"
)

// Snapshot layout, all integers big-endian:
//
//	magic "RWFD" | version u8 | compression u8 | type u8 | reserved u8 |
//	image length u32 | xxhash64 of the image u64 | compressed image
//
// The image is a single dictionary part encoded with RWF 14.1.
const (
	snapshotMagic      = "RWFD"
	snapshotVersion    = 1
	snapshotHeaderSize = 4 + 4 + 4 + 8
)

var engine = endian.Network()

// SaveSnapshot writes every definition of db to w as a compressed snapshot.
func SaveSnapshot[T setdef.Tag](w io.Writer, db *setdef.GlobalDb[T], opts ...Option) error {
	cfg, err := newConfig(opts...)
	if err != nil {
		return err
	}
	codecImpl, err := compress.GetCodec(cfg.compression)
	if err != nil {
		return err
	}

	enc, err := NewEncoderFromDb(db, opts...)
	if err != nil {
		return err
	}
	enc.maxPartSize = 0

	image, err := rwf.EncodeWithRetry(0, func(it *codec.EncodeIterator) error {
		enc.Reset()
		done, err := enc.EncodePart(it)
		if err == nil && !done {
			return fmt.Errorf("%w: dictionary does not fit one part", errs.ErrBufferTooSmall)
		}

		return err
	})
	if err != nil {
		return err
	}

	packed, err := codecImpl.Compress(image)
	if err != nil {
		return err
	}

	bb := pool.GetSnapshotBuffer()
	defer pool.PutSnapshotBuffer(bb)

	var header [snapshotHeaderSize]byte
	copy(header[:4], snapshotMagic)
	header[4] = snapshotVersion
	header[5] = byte(cfg.compression)
	header[6] = byte(typeOf[T]())
	engine.PutUint32(header[8:], uint32(len(image))) //nolint:gosec
	engine.PutUint64(header[12:], hash.Checksum(image))
	_, _ = bb.Write(header[:])
	_, _ = bb.Write(packed)

	if _, err := bb.WriteTo(w); err != nil {
		return err
	}

	level.Info(cfg.logger).Log("msg", "saved dictionary snapshot", "type", typeOf[T](), "definitions", len(enc.defs),
		"compression", cfg.compression, "image_bytes", len(image), "snapshot_bytes", bb.Len())

	return nil
}

// LoadSnapshot reads a snapshot written by SaveSnapshot from r and loads it into db,
// replacing its contents. The compression is taken from the snapshot header.
func LoadSnapshot[T setdef.Tag](r io.Reader, db *setdef.GlobalDb[T], opts ...Option) error {
	cfg, err := newConfig(opts...)
	if err != nil {
		return err
	}

	bb := pool.GetSnapshotBuffer()
	defer pool.PutSnapshotBuffer(bb)
	if _, err := io.Copy(bb, r); err != nil {
		return err
	}
	data := bb.Bytes()

	if len(data) < snapshotHeaderSize || string(data[:4]) != snapshotMagic {
		return fmt.Errorf("%w: not a dictionary snapshot", errs.ErrInvalidData)
	}
	if data[4] != snapshotVersion {
		return fmt.Errorf("%w: snapshot version %d", errs.ErrUnsupportedVersion, data[4])
	}
	if Type(data[6]) != typeOf[T]() {
		return fmt.Errorf("%w: snapshot holds %s, expected %s", errs.ErrInvalidData, Type(data[6]), typeOf[T]())
	}
	ct := format.CompressionType(data[5])
	codecImpl, err := compress.GetCodec(ct)
	if err != nil {
		return fmt.Errorf("%w: %w", errs.ErrInvalidData, err)
	}

	image, err := codecImpl.Decompress(data[snapshotHeaderSize:])
	if err != nil {
		return fmt.Errorf("%w: %w", errs.ErrInvalidData, err)
	}
	if len(image) != int(engine.Uint32(data[8:])) {
		return fmt.Errorf("%w: image is %d bytes, header says %d", errs.ErrChecksumMismatch, len(image), engine.Uint32(data[8:]))
	}
	if hash.Checksum(image) != engine.Uint64(data[12:]) {
		return fmt.Errorf("%w: dictionary snapshot", errs.ErrChecksumMismatch)
	}

	it, err := codec.NewDecodeIterator(image)
	if err != nil {
		return err
	}
	dec, err := NewDecoder[T](opts...)
	if err != nil {
		return err
	}
	if err := dec.DecodePart(it); err != nil {
		return err
	}
	if err := dec.Publish(db); err != nil {
		return err
	}

	level.Info(cfg.logger).Log("msg", "loaded dictionary snapshot", "type", typeOf[T](), "compression", ct,
		"definitions", len(dec.defs))

	return nil
}
