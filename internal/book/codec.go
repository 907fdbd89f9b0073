package book

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// Artifact layout before compression:
//
//	header : magic "MVTC" | version byte
//	forest : root count (uvarint) | node...
//	node   : origin byte | destination byte | child count (uvarint) | node...
//
// The whole layout is stored as a single zstd frame.
const (
	Magic   = "MVTC"
	Version = uint8(1)

	headerSize = len(Magic) + 1
	// origin, destination and a one byte child count.
	minNodeSize = 3

	// MaxDecodeDepth bounds nesting so a hostile artifact cannot exhaust
	// the stack. Encode refuses deeper forests.
	MaxDecodeDepth = 64
	// MaxDecodedSize caps the decompressed payload. Chess from the standard
	// start at depth 6 needs about 372 MiB. Encode refuses larger forests.
	MaxDecodedSize = 1 << 30
)

// maxArtifactSize is the raw size Encode accepts.
var maxArtifactSize = MaxDecodedSize

var (
	encoder = sync.OnceValues(func() (*zstd.Encoder, error) {
		return zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.SpeedBestCompression),
			zstd.WithEncoderCRC(true),
		)
	})
	decoder = sync.OnceValues(func() (*zstd.Decoder, error) {
		return zstd.NewReader(nil,
			zstd.WithDecoderMaxMemory(MaxDecodedSize),
			zstd.WithDecoderConcurrency(0),
		)
	})
)

// Encode serializes forest into a compressed artifact.
func Encode(forest Forest) ([]byte, error) {
	raw, err := marshal(forest)
	if err != nil {
		return nil, err
	}
	enc, err := encoder()
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	return enc.EncodeAll(raw, make([]byte, 0, len(raw)/4)), nil
}

// Decode is the inverse of Encode. It either returns the complete forest or
// a *CorruptArtifactError.
func Decode(data []byte) (Forest, error) {
	dec, err := decoder()
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	raw, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, &CorruptArtifactError{Offset: -1, Reason: "decompress", Err: err}
	}
	return unmarshal(raw)
}

func marshal(forest Forest) ([]byte, error) {
	stats := forest.Stats()
	if stats.MaxDepth > MaxDecodeDepth {
		return nil, &EncodingError{Field: "depth", Value: stats.MaxDepth, Ply: MaxDecodeDepth + 1}
	}

	// every node takes at least minNodeSize bytes.
	if est := headerSize + 1 + stats.Nodes*minNodeSize; est > maxArtifactSize {
		return nil, &EncodingError{Field: "size", Value: est}
	}

	buf := make([]byte, 0, headerSize+binary.MaxVarintLen64+stats.Nodes*minNodeSize)
	buf = append(buf, Magic...)
	buf = append(buf, Version)
	buf = binary.AppendUvarint(buf, uint64(len(forest)))
	buf, err := appendRecords(buf, forest, 1)
	if err != nil {
		return nil, err
	}
	if len(buf) > maxArtifactSize {
		return nil, &EncodingError{Field: "size", Value: len(buf)}
	}
	return buf, nil
}

func appendRecords(buf []byte, records []Record, ply int) ([]byte, error) {
	var err error
	for _, r := range records {
		if r.From > maxSquare {
			return nil, &EncodingError{Field: "origin square", Value: int(r.From), Ply: ply}
		}
		if r.To > maxSquare {
			return nil, &EncodingError{Field: "destination square", Value: int(r.To), Ply: ply}
		}
		buf = append(buf, r.From, r.To)
		buf = binary.AppendUvarint(buf, uint64(len(r.Children)))
		if buf, err = appendRecords(buf, r.Children, ply+1); err != nil {
			return nil, err
		}
	}
	return buf, nil
}

type reader struct {
	buf []byte
	off int
}

func (r *reader) corrupt(reason string) error {
	return &CorruptArtifactError{Offset: r.off, Reason: reason}
}

func (r *reader) count() (int, error) {
	v, n := binary.Uvarint(r.buf[r.off:])
	if n <= 0 {
		return 0, r.corrupt("bad child count")
	}
	r.off += n
	// every node needs minNodeSize bytes, so larger counts cannot be honest.
	if v > uint64(len(r.buf)-r.off)/minNodeSize {
		return 0, r.corrupt(fmt.Sprintf("child count %d exceeds remaining input", v))
	}
	return int(v), nil
}

func unmarshal(raw []byte) (Forest, error) {
	r := &reader{buf: raw}
	if len(raw) < headerSize || string(raw[:len(Magic)]) != Magic {
		return nil, r.corrupt("bad magic")
	}
	if v := raw[len(Magic)]; v != Version {
		r.off = len(Magic)
		return nil, r.corrupt(fmt.Sprintf("unsupported version %d", v))
	}
	r.off = headerSize

	n, err := r.count()
	if err != nil {
		return nil, err
	}
	forest := make(Forest, n)
	if err := r.records(forest, 1); err != nil {
		return nil, err
	}
	if r.off != len(raw) {
		return nil, r.corrupt(fmt.Sprintf("%d trailing bytes", len(raw)-r.off))
	}
	return forest, nil
}

func (r *reader) records(out []Record, depth int) error {
	if len(out) > 0 && depth > MaxDecodeDepth {
		return r.corrupt("nesting too deep")
	}
	for i := range out {
		if len(r.buf)-r.off < 2 {
			return r.corrupt("truncated record")
		}
		from, to := r.buf[r.off], r.buf[r.off+1]
		if from > maxSquare {
			return r.corrupt(fmt.Sprintf("origin square %d", from))
		}
		if to > maxSquare {
			r.off++
			return r.corrupt(fmt.Sprintf("destination square %d", to))
		}
		r.off += 2

		n, err := r.count()
		if err != nil {
			return err
		}
		out[i] = Record{From: from, To: to}
		if n == 0 {
			continue
		}
		out[i].Children = make([]Record, n)
		if err := r.records(out[i].Children, depth+1); err != nil {
			return err
		}
	}
	return nil
}
