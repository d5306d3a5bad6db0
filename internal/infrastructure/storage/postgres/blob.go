package postgres

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// BlobCodec compresses provider artifact blobs (base64 XML/CDR payloads)
// before storage. Encoder and decoder are safe for concurrent use with
// EncodeAll/DecodeAll.
type BlobCodec struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewBlobCodec creates a codec with default compression level.
func NewBlobCodec() (*BlobCodec, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &BlobCodec{encoder: encoder, decoder: decoder}, nil
}

// Compress returns the zstd-compressed form of s, or nil for empty input.
func (c *BlobCodec) Compress(s string) []byte {
	if s == "" {
		return nil
	}
	return c.encoder.EncodeAll([]byte(s), nil)
}

// Decompress restores a blob compressed by Compress. Nil input yields "".
func (c *BlobCodec) Decompress(b []byte) (string, error) {
	if len(b) == 0 {
		return "", nil
	}
	out, err := c.decoder.DecodeAll(b, nil)
	if err != nil {
		return "", fmt.Errorf("decompress blob: %w", err)
	}
	return string(out), nil
}
