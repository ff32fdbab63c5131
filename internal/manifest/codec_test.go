package manifest

import (
	"strings"
	"testing"
)

func sampleEntries() []FileEntry {
	return []FileEntry{
		{Kind: KindAdd, Partition: "pt=2024/hh=10", Bucket: 0, FileName: "data-1", FileSize: 4096, Level: 2},
		{Kind: KindDelete, Partition: "pt=2024/hh=10", Bucket: 3, FileName: "data-2", ExtraFiles: []string{"data-2.idx"}},
	}
}

func TestFramedRoundTrip(t *testing.T) {
	for _, codec := range []Codec{CodecNone, CodecSnappy, CodecLZ4, CodecZstd} {
		data, err := encodeFramed(sampleEntries(), codec)
		if err != nil {
			t.Fatalf("codec %d: encode failed: %v", codec, err)
		}
		var got []FileEntry
		if err := decodeFramed(data, &got); err != nil {
			t.Fatalf("codec %d: decode failed: %v", codec, err)
		}
		if len(got) != 2 || got[0].FileName != "data-1" || got[1].ExtraFiles[0] != "data-2.idx" {
			t.Errorf("codec %d: round trip mangled entries: %+v", codec, got)
		}
	}
}

func TestDecodeFramed_RejectsCorruption(t *testing.T) {
	data, err := encodeFramed(sampleEntries(), CodecSnappy)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	// Flip a payload byte: the checksum must catch it.
	corrupt := append([]byte(nil), data...)
	corrupt[headerSize] ^= 0xff
	var entries []FileEntry
	if err := decodeFramed(corrupt, &entries); err == nil || !strings.Contains(err.Error(), "checksum") {
		t.Errorf("corrupted payload should fail the checksum, got: %v", err)
	}
}

func TestDecodeFramed_RejectsBadMagic(t *testing.T) {
	var entries []FileEntry
	if err := decodeFramed([]byte("not a manifest at all"), &entries); err == nil {
		t.Error("foreign bytes should be rejected")
	}
}

func TestDecodeFramed_RejectsTruncation(t *testing.T) {
	data, err := encodeFramed(sampleEntries(), CodecNone)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	var entries []FileEntry
	if err := decodeFramed(data[:len(data)-2], &entries); err == nil {
		t.Error("truncated frame should be rejected")
	}
}

func TestParseCodec(t *testing.T) {
	for s, want := range map[string]Codec{"": CodecNone, "none": CodecNone, "snappy": CodecSnappy, "lz4": CodecLZ4, "zstd": CodecZstd} {
		got, err := ParseCodec(s)
		if err != nil || got != want {
			t.Errorf("ParseCodec(%q) = %v, %v; want %v", s, got, err, want)
		}
	}
	if _, err := ParseCodec("gzip"); err == nil {
		t.Error("unknown codec name should fail")
	}
}
