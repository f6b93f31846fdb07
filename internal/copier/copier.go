// Package copier implements the chunked read, write and sync loop.
package copier

import (
	"errors"
	"io"
	"syscall"
	"time"
)

const maxEmptyReads = 100

// Destination is a writer that can flush accepted bytes to stable storage.
type Destination interface {
	io.Writer
	Sync() error
}

// Reporter receives the cumulative durable byte count after every chunk.
type Reporter interface {
	Update(total uint64)
	// Finish is called once after a successful copy.
	Finish()
}

// Session is one copy operation between a source and a destination.
type Session struct {
	Source      io.Reader
	Destination Destination
	ChunkSize   int

	// SourceName and DestinationName identify the endpoints in diagnostics.
	SourceName      string
	DestinationName string

	Reporter Reporter

	transferred uint64
	chunks      uint64
}

// Summary describes a completed copy.
type Summary struct {
	Bytes   uint64
	Chunks  uint64
	Elapsed time.Duration
}

// Run copies the source to the destination until end of input. Each chunk is
// written in full and synced before it is counted. Any failure is returned as
// a *FatalError and leaves the count at the last durable chunk.
func (s *Session) Run() (Summary, error) {
	start := time.Now()
	buf := make([]byte, s.ChunkSize)

	for {
		n, eof, err := s.fill(buf)
		if err != nil {
			return s.summary(start), s.fatal(OpRead, n, 0, err)
		}
		if n == 0 {
			break
		}

		written, err := s.Destination.Write(buf[:n])
		if err != nil {
			return s.summary(start), s.fatal(OpWrite, n, written, err)
		}
		if written != n {
			return s.summary(start), s.fatal(OpWrite, n, written, errors.Join(ErrInsufficientSpace, io.ErrShortWrite))
		}

		if err := s.Destination.Sync(); err != nil {
			return s.summary(start), s.fatal(OpSync, n, written, err)
		}

		s.transferred += uint64(written)
		s.chunks++
		if s.Reporter != nil {
			s.Reporter.Update(s.transferred)
		}

		if eof || n < len(buf) {
			break
		}
	}

	if s.Reporter != nil {
		s.Reporter.Finish()
	}
	return s.summary(start), nil
}

// fill reads into buf until it is full or the source is exhausted. Reads
// interrupted by a signal are retried.
func (s *Session) fill(buf []byte) (n int, eof bool, err error) {
	empty := 0
	for n < len(buf) {
		nr, er := s.Source.Read(buf[n:])
		n += nr
		switch {
		case er == io.EOF:
			return n, true, nil
		case errors.Is(er, syscall.EINTR):
			continue
		case er != nil:
			return n, false, er
		}
		if nr > 0 {
			empty = 0
			continue
		}
		// io.Reader permits (0, nil); give up on a source that never progresses.
		if empty++; empty >= maxEmptyReads {
			return n, false, io.ErrNoProgress
		}
	}
	return n, false, nil
}

func (s *Session) summary(start time.Time) Summary {
	return Summary{
		Bytes:   s.transferred,
		Chunks:  s.chunks,
		Elapsed: time.Since(start),
	}
}

func (s *Session) fatal(op Op, read, written int, err error) *FatalError {
	return &FatalError{
		Op:          op,
		Source:      s.SourceName,
		Destination: s.DestinationName,
		Transferred: s.transferred,
		ChunkSize:   s.ChunkSize,
		Read:        read,
		Written:     written,
		Err:         err,
	}
}
