// Package endpoint opens the source and destination of a raw copy and
// describes them for the confirmation prompt and diagnostics.
package endpoint

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/lucrnz/rrrw/internal/util"
)

// ErrSameFile is returned when the source and destination resolve to the same file.
var ErrSameFile = errors.New("source and destination are the same file")

// ErrNotFound is returned when the source path does not exist.
var ErrNotFound = errors.New("source does not exist")

// ErrDirectory is returned when either endpoint is a directory.
var ErrDirectory = errors.New("endpoint is a directory")

// Kind classifies an endpoint.
type Kind int

const (
	Missing Kind = iota
	Regular
	BlockDevice
	CharDevice
	Directory
	Other
)

func (k Kind) String() string {
	switch k {
	case Missing:
		return "missing"
	case Regular:
		return "regular file"
	case BlockDevice:
		return "block device"
	case CharDevice:
		return "character device"
	case Directory:
		return "directory"
	default:
		return "other"
	}
}

// Info describes an endpoint path without opening it for writing.
type Info struct {
	Path string
	Kind Kind
	// Size is -1 when unknown (missing endpoints, pipes, character devices).
	Size int64

	stat fs.FileInfo
}

// Exists reports whether the path was present when inspected.
func (i Info) Exists() bool { return i.Kind != Missing }

func (i Info) String() string {
	if i.Size < 0 {
		return fmt.Sprintf("%s (%s)", i.Path, i.Kind)
	}
	return fmt.Sprintf("%s (%s, %s)", i.Path, i.Kind, util.HumanReadableBytes(uint64(i.Size)))
}

// Inspect stats path. A missing path is not an error; it yields Kind Missing.
func Inspect(path string) (Info, error) {
	info := Info{Path: path, Kind: Missing, Size: -1}
	st, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return info, nil
		}
		return info, fmt.Errorf("failed to stat %q: %w", path, err)
	}
	info.stat = st

	mode := st.Mode()
	switch {
	case mode.IsRegular():
		info.Kind = Regular
		info.Size = st.Size()
	case mode&fs.ModeDevice != 0 && mode&fs.ModeCharDevice == 0:
		info.Kind = BlockDevice
		info.Size = deviceSize(path)
	case mode&fs.ModeCharDevice != 0:
		info.Kind = CharDevice
	case mode.IsDir():
		info.Kind = Directory
	default:
		info.Kind = Other
	}
	return info, nil
}

// deviceSize seeks to the end of a read-only handle; block devices report
// their capacity this way. Returns -1 when the size cannot be determined.
func deviceSize(path string) int64 {
	f, err := os.Open(path)
	if err != nil {
		return -1
	}
	defer f.Close()
	n, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return -1
	}
	return n
}

// SameFile reports whether two inspected endpoints refer to the same file.
func SameFile(a, b Info) bool {
	if a.stat == nil || b.stat == nil {
		return false
	}
	return os.SameFile(a.stat, b.stat)
}

// CheckPair validates a source/destination pair before anything is opened.
func CheckPair(src, dst Info) error {
	if !src.Exists() {
		return fmt.Errorf("%w: %s", ErrNotFound, src.Path)
	}
	for _, e := range []Info{src, dst} {
		if e.Kind == Directory {
			return fmt.Errorf("%w: %s", ErrDirectory, e.Path)
		}
	}
	if SameFile(src, dst) {
		return fmt.Errorf("%w: %s and %s", ErrSameFile, src.Path, dst.Path)
	}
	return nil
}

// Source is a read-only endpoint.
type Source struct {
	*os.File
	Info Info
}

// OpenSource opens path read-only and hints the kernel that it will be read
// sequentially.
func OpenSource(path string) (*Source, error) {
	info, err := Inspect(path)
	if err != nil {
		return nil, err
	}
	if !info.Exists() {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open source: %w", err)
	}
	adviseSequential(f)
	return &Source{File: f, Info: info}, nil
}

// Destination is a write-only endpoint whose Sync flushes written data to
// stable storage.
type Destination struct {
	*os.File
	Info Info
}

// OpenDestination opens path write-only, creating or truncating it.
func OpenDestination(path string) (*Destination, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open destination: %w", err)
	}
	info, err := Inspect(path)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &Destination{File: f, Info: info}, nil
}

// Sync flushes the file data written so far to stable storage.
func (d *Destination) Sync() error {
	return datasync(d.File)
}
