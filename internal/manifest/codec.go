package manifest

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// magicBytes identifies a silt manifest v1 file.
const magicBytes = "SILTMF1"

// codecVersion is the current framing version.
const codecVersion uint16 = 1

// headerSize is magic (7) + version (2) + codec (1).
const headerSize = 10

// footerSize is the CRC32C footer.
const footerSize = 4

// Codec selects the compression applied to the framed payload.
type Codec byte

// Supported codecs.
const (
	CodecNone   Codec = 0
	CodecSnappy Codec = 1
	CodecLZ4    Codec = 2
	CodecZstd   Codec = 3
)

// ParseCodec converts a configuration string to a Codec.
func ParseCodec(s string) (Codec, error) {
	switch s {
	case "", "none":
		return CodecNone, nil
	case "snappy":
		return CodecSnappy, nil
	case "lz4":
		return CodecLZ4, nil
	case "zstd":
		return CodecZstd, nil
	default:
		return CodecNone, fmt.Errorf("unknown manifest codec %q", s)
	}
}

var crc32cTable = crc32.MakeTable(crc32.Castagnoli)

// encodeFramed marshals v as JSON, compresses it with codec and wraps it in
// the manifest frame: magic, version, codec byte, payload, CRC32C footer.
func encodeFramed(v any, codec Codec) ([]byte, error) {
	plain, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode manifest payload: %w", err)
	}

	payload, err := compress(plain, codec)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, headerSize+len(payload)+footerSize)
	copy(buf, magicBytes)
	binary.BigEndian.PutUint16(buf[7:], codecVersion)
	buf[9] = byte(codec)
	copy(buf[headerSize:], payload)

	crc := crc32.Checksum(buf[:headerSize+len(payload)], crc32cTable)
	binary.BigEndian.PutUint32(buf[headerSize+len(payload):], crc)
	return buf, nil
}

// decodeFramed validates the frame and unmarshals the payload into v.
func decodeFramed(data []byte, v any) error {
	if len(data) < headerSize+footerSize {
		return fmt.Errorf("manifest file truncated: %d bytes", len(data))
	}
	if string(data[:7]) != magicBytes {
		return fmt.Errorf("bad manifest magic %q", data[:7])
	}
	if version := binary.BigEndian.Uint16(data[7:]); version != codecVersion {
		return fmt.Errorf("unsupported manifest version %d", version)
	}

	body := data[:len(data)-footerSize]
	want := binary.BigEndian.Uint32(data[len(data)-footerSize:])
	if got := crc32.Checksum(body, crc32cTable); got != want {
		return fmt.Errorf("manifest checksum mismatch: got %08x want %08x", got, want)
	}

	plain, err := decompress(body[headerSize:], Codec(data[9]))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(plain, v); err != nil {
		return fmt.Errorf("decode manifest payload: %w", err)
	}
	return nil
}

func compress(data []byte, codec Codec) ([]byte, error) {
	switch codec {
	case CodecNone:
		return data, nil
	case CodecSnappy:
		return snappy.Encode(nil, data), nil
	case CodecLZ4:
		var buf bytes.Buffer
		w := lz4.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("lz4 compress: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("lz4 compress: %w", err)
		}
		return buf.Bytes(), nil
	case CodecZstd:
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, fmt.Errorf("zstd writer: %w", err)
		}
		defer enc.Close()
		return enc.EncodeAll(data, nil), nil
	default:
		return nil, fmt.Errorf("unknown manifest codec %d", codec)
	}
}

func decompress(data []byte, codec Codec) ([]byte, error) {
	switch codec {
	case CodecNone:
		return data, nil
	case CodecSnappy:
		plain, err := snappy.Decode(nil, data)
		if err != nil {
			return nil, fmt.Errorf("snappy decompress: %w", err)
		}
		return plain, nil
	case CodecLZ4:
		r := lz4.NewReader(bytes.NewReader(data))
		plain, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("lz4 decompress: %w", err)
		}
		return plain, nil
	case CodecZstd:
		dec, err := zstd.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("zstd reader: %w", err)
		}
		defer dec.Close()
		plain, err := io.ReadAll(dec)
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
		return plain, nil
	default:
		return nil, fmt.Errorf("unknown manifest codec %d", codec)
	}
}
