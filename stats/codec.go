package stats

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"io"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

func init() {
	gob.Register(Float64Value(0))
	gob.Register(StringValue(""))
	gob.Register(int64(0))
	gob.Register(float64(0))
	gob.Register("")
}

// Compression selects the wire compression applied around the gob
// encoding of a Snapshot. The planner never chooses this itself; it is a
// property of how the statistics layer persisted (or is about to ship)
// the snapshot it hands the planner (spec.md §6, "statistics persistence
// backend" external boundary).
type Compression int

const (
	NoCompression Compression = iota
	SnappyCompression
	LZ4Compression
	ZstdCompression
)

// Encode serializes a Snapshot with gob and compresses the result with
// the requested algorithm, mirroring the teacher's compression engine's
// multi-codec support (advanced/compression).
func (s *Snapshot) Encode(c Compression) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		return nil, fmt.Errorf("stats: encode snapshot: %w", err)
	}
	raw := buf.Bytes()

	switch c {
	case NoCompression:
		return raw, nil
	case SnappyCompression:
		return snappy.Encode(nil, raw), nil
	case LZ4Compression:
		var out bytes.Buffer
		w := lz4.NewWriter(&out)
		if _, err := w.Write(raw); err != nil {
			return nil, fmt.Errorf("stats: lz4 compress: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("stats: lz4 close: %w", err)
		}
		return out.Bytes(), nil
	case ZstdCompression:
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, fmt.Errorf("stats: zstd writer: %w", err)
		}
		defer enc.Close()
		return enc.EncodeAll(raw, nil), nil
	default:
		return nil, fmt.Errorf("stats: unknown compression %d", c)
	}
}

// DecodeSnapshot reverses Encode.
func DecodeSnapshot(data []byte, c Compression) (*Snapshot, error) {
	raw, err := decompress(data, c)
	if err != nil {
		return nil, err
	}
	var s Snapshot
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&s); err != nil {
		return nil, fmt.Errorf("stats: decode snapshot: %w", err)
	}
	return &s, nil
}

func decompress(data []byte, c Compression) ([]byte, error) {
	switch c {
	case NoCompression:
		return data, nil
	case SnappyCompression:
		raw, err := snappy.Decode(nil, data)
		if err != nil {
			return nil, fmt.Errorf("stats: snappy decompress: %w", err)
		}
		return raw, nil
	case LZ4Compression:
		r := lz4.NewReader(bytes.NewReader(data))
		raw, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("stats: lz4 decompress: %w", err)
		}
		return raw, nil
	case ZstdCompression:
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("stats: zstd reader: %w", err)
		}
		defer dec.Close()
		raw, err := dec.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("stats: zstd decompress: %w", err)
		}
		return raw, nil
	default:
		return nil, fmt.Errorf("stats: unknown compression %d", c)
	}
}
