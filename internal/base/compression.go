package base

import (
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// CompressionFormat picks the codec wrapping cache entries on disk: zstd
// for better ratio, lz4 for faster throughput. The cluster job wire
// protocol is not compressed.
type CompressionFormat int32

const (
	COMPRESSION_FORMAT_ZSTD CompressionFormat = iota
	COMPRESSION_FORMAT_LZ4
)

func (f CompressionFormat) String() string {
	switch f {
	case COMPRESSION_FORMAT_ZSTD:
		return "ZSTD"
	case COMPRESSION_FORMAT_LZ4:
		return "LZ4"
	default:
		return "UNKNOWN"
	}
}
func (f *CompressionFormat) Set(in string) error {
	switch strings.ToUpper(in) {
	case COMPRESSION_FORMAT_ZSTD.String():
		*f = COMPRESSION_FORMAT_ZSTD
	case COMPRESSION_FORMAT_LZ4.String():
		*f = COMPRESSION_FORMAT_LZ4
	default:
		return fmt.Errorf("compression: unknown format %q", in)
	}
	return nil
}

// CompressWriter wraps w with the selected codec; callers must Close() to
// flush the trailing frame.
func CompressWriter(w io.Writer, format CompressionFormat) (io.WriteCloser, error) {
	switch format {
	case COMPRESSION_FORMAT_ZSTD:
		return zstd.NewWriter(w)
	case COMPRESSION_FORMAT_LZ4:
		zw := lz4.NewWriter(w)
		return zw, nil
	default:
		return nil, fmt.Errorf("compression: unknown format %d", format)
	}
}

// DecompressReader wraps r with the matching decoder. The zstd decoder
// needs an explicit Close to release its goroutine pool, so this returns an
// io.ReadCloser uniformly across formats.
type zstdReadCloser struct {
	*zstd.Decoder
}

func (z zstdReadCloser) Close() error {
	z.Decoder.Close()
	return nil
}

func DecompressReader(r io.Reader, format CompressionFormat) (io.ReadCloser, error) {
	switch format {
	case COMPRESSION_FORMAT_ZSTD:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return zstdReadCloser{dec}, nil
	case COMPRESSION_FORMAT_LZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	default:
		return nil, fmt.Errorf("compression: unknown format %d", format)
	}
}
