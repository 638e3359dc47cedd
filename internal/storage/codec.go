package storage

import (
	"fmt"

	"github.com/klauspost/compress/zstd"

	"ctxmap/internal/errors"
)

// codec compresses stored result documents. Encoder and decoder are safe
// for concurrent EncodeAll/DecodeAll.
type codec struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

func newCodec(level string) (*codec, error) {
	if level == "" {
		level = "default"
	}
	ok, lvl := zstd.EncoderLevelFromString(level)
	if !ok {
		return nil, errors.NewAnalysisError(
			errors.InvalidConfig,
			fmt.Sprintf("unknown compression level %q", level),
			nil,
			nil,
		)
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(lvl))
	if err != nil {
		return nil, storageError("failed to create encoder", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, storageError("failed to create decoder", err)
	}
	return &codec{enc: enc, dec: dec}, nil
}

func (c *codec) compress(data []byte) []byte {
	return c.enc.EncodeAll(data, make([]byte, 0, len(data)/2))
}

func (c *codec) decompress(data []byte) ([]byte, error) {
	return c.dec.DecodeAll(data, nil)
}

func (c *codec) Close() {
	_ = c.enc.Close()
	c.dec.Close()
}
