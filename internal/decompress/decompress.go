// Package decompress turns a compressed disk image into its raw byte stream.
package decompress

import (
	"bufio"
	"bytes"
	"compress/bzip2"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// ErrUnknownFormat is returned for format names Parse does not know.
var ErrUnknownFormat = errors.New("unknown compression format")

// Format selects how the source stream is decoded.
type Format string

const (
	None  Format = "none"
	Auto  Format = "auto"
	Gzip  Format = "gzip"
	Zstd  Format = "zstd"
	Xz    Format = "xz"
	Bzip2 Format = "bzip2"
)

var formats = []Format{None, Auto, Gzip, Zstd, Xz, Bzip2}

var magics = []struct {
	format Format
	magic  []byte
}{
	{Gzip, []byte{0x1f, 0x8b}},
	{Zstd, []byte{0x28, 0xb5, 0x2f, 0xfd}},
	{Xz, []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}},
	{Bzip2, []byte("BZh")},
}

// Parse resolves a format name. An empty name means None.
func Parse(name string) (Format, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return None, nil
	}
	for _, f := range formats {
		if string(f) == name {
			return f, nil
		}
	}
	if name == "gz" {
		return Gzip, nil
	}
	if name == "zst" {
		return Zstd, nil
	}
	if name == "bz2" {
		return Bzip2, nil
	}
	names := make([]string, len(formats))
	for i, f := range formats {
		names[i] = string(f)
	}
	return None, fmt.Errorf("%w %q (valid: %s)", ErrUnknownFormat, name, strings.Join(names, ", "))
}

// Detect peeks at the start of r and reports the compression format, or None
// when no known magic number matches.
func Detect(r *bufio.Reader) Format {
	head, _ := r.Peek(6)
	for _, m := range magics {
		if bytes.HasPrefix(head, m.magic) {
			return m.format
		}
	}
	return None
}

type readCloser struct {
	io.Reader
	close func() error
}

func (rc readCloser) Close() error {
	if rc.close == nil {
		return nil
	}
	return rc.close()
}

// NewReader wraps r so that reads return decompressed bytes. With Auto the
// format is detected from the stream; the format actually used is returned.
// Closing the result releases decoder state but not r itself.
func NewReader(r io.Reader, format Format) (io.ReadCloser, Format, error) {
	if format == Auto {
		br := bufio.NewReader(r)
		format = Detect(br)
		r = br
	}

	switch format {
	case None, "":
		return readCloser{Reader: r}, None, nil
	case Gzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, format, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		return zr, format, nil
	case Zstd:
		zr, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, format, fmt.Errorf("failed to open zstd stream: %w", err)
		}
		return zr.IOReadCloser(), format, nil
	case Xz:
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, format, fmt.Errorf("failed to open xz stream: %w", err)
		}
		return readCloser{Reader: xr}, format, nil
	case Bzip2:
		return readCloser{Reader: bzip2.NewReader(r)}, format, nil
	default:
		return nil, format, fmt.Errorf("%w %q", ErrUnknownFormat, string(format))
	}
}
