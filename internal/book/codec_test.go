package book

import (
	"bytes"
	"errors"
	"math/rand/v2"
	"path/filepath"
	"testing"

	"github.com/matryer/is"
)

// uniform builds a forest with the given width at each ply.
func uniform(widths ...int) Forest {
	if len(widths) == 0 {
		return nil
	}
	out := make(Forest, widths[0])
	for i := range out {
		out[i] = Record{From: uint8(len(widths) % 64), To: uint8(i % 64)}
		if len(widths) > 1 {
			out[i].Children = uniform(widths[1:]...)
		}
	}
	return out
}

// chain builds a single line of n plies.
func chain(n int) Forest {
	if n == 0 {
		return nil
	}
	return Forest{{From: uint8(n % 64), To: uint8((n * 7) % 64), Children: chain(n - 1)}}
}

func random(r *rand.Rand, depth int) Forest {
	if depth == 0 {
		return nil
	}
	n := r.IntN(6)
	out := make(Forest, n)
	for i := range out {
		out[i] = Record{From: uint8(r.IntN(64)), To: uint8(r.IntN(64)), Children: random(r, depth-1)}
	}
	return out
}

func compress(t *testing.T, raw []byte) []byte {
	t.Helper()
	enc, err := encoder()
	if err != nil {
		t.Fatalf("encoder: %v", err)
	}
	return enc.EncodeAll(raw, nil)
}

func TestRoundTrip(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	tests := []struct {
		name   string
		forest Forest
	}{
		{name: "empty", forest: Forest{}},
		{name: "single leaf", forest: Forest{{From: 12, To: 28}}},
		{name: "two leaves", forest: uniform(2)},
		{name: "two by three", forest: uniform(2, 3)},
		{name: "wide", forest: uniform(64, 64)},
		{name: "deep", forest: chain(MaxDecodeDepth)},
		{name: "bushy", forest: uniform(20, 20, 5)},
		{name: "random", forest: random(r, 6)},
		{name: "corners", forest: Forest{{From: 0, To: 63, Children: Forest{{From: 63, To: 0}}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			is := is.New(t)
			data, err := Encode(tt.forest)
			is.NoErr(err)
			got, err := Decode(data)
			is.NoErr(err)
			is.True(got.Equal(tt.forest))
			is.Equal(got.Stats(), tt.forest.Stats())
		})
	}
}

func TestLayout(t *testing.T) {
	is := is.New(t)

	forest := Forest{
		{From: 12, To: 28, Children: Forest{{From: 52, To: 36}}},
		{From: 6, To: 21},
	}
	raw, err := marshal(forest)
	is.NoErr(err)
	want := []byte{'M', 'V', 'T', 'C', 1, 2, 12, 28, 1, 52, 36, 0, 6, 21, 0}
	is.Equal(raw, want)
}

func TestLayoutWideCount(t *testing.T) {
	is := is.New(t)

	raw, err := marshal(Forest{{From: 1, To: 2, Children: uniform(200)}})
	is.NoErr(err)
	// 200 children needs a two byte uvarint.
	is.Equal(raw[headerSize:headerSize+5], []byte{1, 1, 2, 0xc8, 0x01})
}

func TestEncodeRejectsBadSquares(t *testing.T) {
	is := is.New(t)

	_, err := Encode(Forest{{From: 1, To: 2, Children: Forest{{From: 64, To: 3}}}})
	var ee *EncodingError
	is.True(errors.As(err, &ee))
	is.Equal(ee.Ply, 2)
	is.Equal(ee.Value, 64)

	_, err = Encode(Forest{{From: 1, To: 200}})
	is.True(errors.As(err, &ee))
	is.Equal(ee.Field, "destination square")
}

func TestEncodeRejectsTooDeep(t *testing.T) {
	is := is.New(t)

	_, err := Encode(chain(MaxDecodeDepth + 1))
	var ee *EncodingError
	is.True(errors.As(err, &ee))
	is.Equal(ee.Field, "depth")
}

func TestEncodeRejectsOversized(t *testing.T) {
	defer func(n int) { maxArtifactSize = n }(maxArtifactSize)

	// 200 leaves: 5 header bytes, a two byte root count, 600 node bytes.
	forest := uniform(200)
	tests := []struct {
		name  string
		limit int
		ok    bool
	}{
		{name: "fits", limit: 607, ok: true},
		{name: "estimate", limit: 500},
		{name: "exact", limit: 606},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			is := is.New(t)
			maxArtifactSize = tt.limit

			data, err := Encode(forest)
			if tt.ok {
				is.NoErr(err)
				got, err := Decode(data)
				is.NoErr(err)
				is.True(got.Equal(forest))
				return
			}
			var ee *EncodingError
			is.True(errors.As(err, &ee))
			is.Equal(ee.Field, "size")
		})
	}
}

func TestSaveOversizedKeepsOld(t *testing.T) {
	defer func(n int) { maxArtifactSize = n }(maxArtifactSize)
	is := is.New(t)

	path := filepath.Join(t.TempDir(), "book.pak")
	old := uniform(2, 2)
	is.NoErr(Save(old, path))

	maxArtifactSize = 100
	err := Save(uniform(10, 10), path)
	var ee *EncodingError
	is.True(errors.As(err, &ee))

	got, err := Load(path)
	is.NoErr(err)
	is.True(got.Equal(old))
}

func TestDecodeRejectsCorruptInput(t *testing.T) {
	valid, err := marshal(uniform(3, 2))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	withByte := func(i int, b byte) []byte {
		out := bytes.Clone(valid)
		out[i] = b
		return out
	}

	deep := []byte{'M', 'V', 'T', 'C', 1, 1}
	for i := range MaxDecodeDepth + 1 {
		count := byte(1)
		if i == MaxDecodeDepth {
			count = 0
		}
		deep = append(deep, 1, 2, count)
	}

	tests := []struct {
		name string
		raw  []byte
	}{
		{name: "empty", raw: nil},
		{name: "bad magic", raw: withByte(0, 'X')},
		{name: "bad version", raw: withByte(4, 9)},
		{name: "origin out of range", raw: withByte(headerSize+1, 64)},
		{name: "destination out of range", raw: withByte(headerSize+2, 0xff)},
		{name: "truncated", raw: valid[:len(valid)-1]},
		{name: "truncated header", raw: valid[:3]},
		{name: "trailing bytes", raw: append(bytes.Clone(valid), 0)},
		{name: "huge root count", raw: []byte{'M', 'V', 'T', 'C', 1, 0xff, 0xff, 0xff, 0xff, 0x0f}},
		{name: "bad varint", raw: []byte{'M', 'V', 'T', 'C', 1, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x01}},
		{name: "too deep", raw: deep},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			is := is.New(t)
			got, err := Decode(compress(t, tt.raw))
			is.True(got == nil)
			var ce *CorruptArtifactError
			is.True(errors.As(err, &ce))
			is.True(IsCorrupt(err))
			is.True(!errors.Is(err, ErrNotFound))
		})
	}
}

func TestDecodeRejectsBadCompression(t *testing.T) {
	is := is.New(t)

	data, err := Encode(uniform(4, 4))
	is.NoErr(err)

	for _, bad := range [][]byte{
		nil,
		[]byte("not a zstd frame"),
		data[:len(data)/2],
	} {
		got, err := Decode(bad)
		is.True(got == nil)
		is.True(IsCorrupt(err))
	}

	// flipping a payload byte must trip the frame checksum or the decoder.
	flipped := bytes.Clone(data)
	flipped[len(flipped)-6] ^= 0xff
	_, err = Decode(flipped)
	is.True(IsCorrupt(err))
}
