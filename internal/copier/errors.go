package copier

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrInsufficientSpace marks a short write: the destination accepted fewer
// bytes than it was given.
var ErrInsufficientSpace = errors.New("destination does not have enough space")

// Op names the step of the loop that failed.
type Op string

const (
	OpRead  Op = "read"
	OpWrite Op = "write"
	OpSync  Op = "sync"
)

// FatalError aborts a session. It carries everything needed to tell how far
// the copy got.
type FatalError struct {
	Op          Op
	Source      string
	Destination string
	// Transferred is the count of durable bytes before the failing chunk.
	Transferred uint64
	ChunkSize   int
	// Read and Written are the byte counts of the failing chunk.
	Read    int
	Written int
	Err     error
}

func (e *FatalError) Error() string {
	if e.ShortWrite() {
		return fmt.Sprintf("%s error after %d bytes: %v (wrote %d of %d bytes)",
			e.Op, e.Transferred, ErrInsufficientSpace, e.Written, e.Read)
	}
	return fmt.Sprintf("%s error after %d bytes: %v", e.Op, e.Transferred, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

// ShortWrite reports whether the failure was a short write.
func (e *FatalError) ShortWrite() bool {
	return errors.Is(e.Err, ErrInsufficientSpace)
}

// Dump writes a delimited diagnostic block to w. pad blank lines are written
// before and after it so the block clears any live status display above.
func (e *FatalError) Dump(w io.Writer, pad int) error {
	var b strings.Builder
	blank := strings.Repeat("\n", pad)

	title := strings.ToUpper(string(e.Op[:1])) + string(e.Op[1:]) + " error"
	if e.ShortWrite() {
		title = "Insufficient space"
	}

	b.WriteString(blank)
	fmt.Fprintf(&b, "==================== [%s]\n", title)
	fmt.Fprintf(&b, "source: %s\n", e.Source)
	fmt.Fprintf(&b, "destination: %s\n", e.Destination)
	fmt.Fprintf(&b, "transferred_bytes: %d\n", e.Transferred)
	fmt.Fprintf(&b, "chunk_size: %d\n", e.ChunkSize)
	if e.Op != OpRead {
		fmt.Fprintf(&b, "read_bytes: %d\n", e.Read)
		fmt.Fprintf(&b, "written_bytes: %d\n", e.Written)
	}
	fmt.Fprintf(&b, "error: %v\n", e.Err)
	b.WriteString("====================\n")
	b.WriteString(blank)

	_, err := io.WriteString(w, b.String())
	return err
}
