package copier

import (
	"bytes"
	"errors"
	"io"
	"math/rand"
	"os"
	"strings"
	"syscall"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memDestination records writes and syncs in memory.
type memDestination struct {
	buf     bytes.Buffer
	writes  int
	syncs   int
	limit   int // accept at most limit bytes in total; <0 means unlimited
	syncErr error
	synced  int // bytes in buf at the last successful sync
}

func newMemDestination() *memDestination {
	return &memDestination{limit: -1}
}

func (d *memDestination) Write(p []byte) (int, error) {
	d.writes++
	if d.limit >= 0 {
		room := d.limit - d.buf.Len()
		if room < len(p) {
			p = p[:max(room, 0)]
		}
	}
	return d.buf.Write(p)
}

func (d *memDestination) Sync() error {
	d.syncs++
	if d.syncErr != nil {
		return d.syncErr
	}
	d.synced = d.buf.Len()
	return nil
}

// recorder captures every reported total.
type recorder struct {
	totals   []uint64
	finished int
}

func (r *recorder) Update(total uint64) { r.totals = append(r.totals, total) }
func (r *recorder) Finish()             { r.finished++ }

func randomBytes(t *testing.T, n int) []byte {
	t.Helper()
	data := make([]byte, n)
	_, err := rand.New(rand.NewSource(int64(n))).Read(data)
	require.NoError(t, err)
	return data
}

func TestRun_Exactness(t *testing.T) {
	t.Parallel()

	for _, size := range []int{0, 1, 6, 7, 8, 4095, 4096, 4097, 100_000} {
		data := randomBytes(t, size)
		for _, chunk := range []int{1, 7, 4096, max(size, 1)} {
			dst := newMemDestination()
			rec := &recorder{}
			s := &Session{
				Source:      bytes.NewReader(data),
				Destination: dst,
				ChunkSize:   chunk,
				Reporter:    rec,
			}

			sum, err := s.Run()
			require.NoError(t, err, "size=%d chunk=%d", size, chunk)
			assert.Equal(t, data, dst.buf.Bytes(), "size=%d chunk=%d", size, chunk)
			assert.Equal(t, uint64(size), sum.Bytes)
			assert.Equal(t, 1, rec.finished)

			wantChunks := (size + chunk - 1) / chunk
			assert.Equal(t, uint64(wantChunks), sum.Chunks)
			assert.Equal(t, wantChunks, dst.syncs)
			assert.Equal(t, wantChunks, dst.writes)
		}
	}
}

func TestRun_MonotonicAccounting(t *testing.T) {
	t.Parallel()

	data := randomBytes(t, 10_000)
	rec := &recorder{}
	s := &Session{
		Source:      iotest.OneByteReader(bytes.NewReader(data)),
		Destination: newMemDestination(),
		ChunkSize:   333,
		Reporter:    rec,
	}

	_, err := s.Run()
	require.NoError(t, err)
	require.NotEmpty(t, rec.totals)
	for i := 1; i < len(rec.totals); i++ {
		assert.GreaterOrEqual(t, rec.totals[i], rec.totals[i-1])
	}
	assert.Equal(t, uint64(len(data)), rec.totals[len(rec.totals)-1])
}

func TestRun_ShortReadsFillChunks(t *testing.T) {
	t.Parallel()

	data := randomBytes(t, 1000)
	dst := newMemDestination()
	s := &Session{
		Source:      iotest.HalfReader(bytes.NewReader(data)),
		Destination: dst,
		ChunkSize:   256,
	}

	sum, err := s.Run()
	require.NoError(t, err)
	assert.Equal(t, data, dst.buf.Bytes())
	// 256+256+256+232: short reads never end the copy early.
	assert.Equal(t, uint64(4), sum.Chunks)
}

func TestRun_DataWithEOF(t *testing.T) {
	t.Parallel()

	data := randomBytes(t, 64)
	dst := newMemDestination()
	s := &Session{
		Source:      iotest.DataErrReader(bytes.NewReader(data)),
		Destination: dst,
		ChunkSize:   64,
	}

	sum, err := s.Run()
	require.NoError(t, err)
	assert.Equal(t, data, dst.buf.Bytes())
	assert.Equal(t, uint64(1), sum.Chunks)
}

func TestRun_ZeroLengthSource(t *testing.T) {
	t.Parallel()

	reads := 0
	src := readerFunc(func(p []byte) (int, error) {
		reads++
		return 0, io.EOF
	})
	dst := newMemDestination()
	rec := &recorder{}
	s := &Session{Source: src, Destination: dst, ChunkSize: 4096, Reporter: rec}

	sum, err := s.Run()
	require.NoError(t, err)
	assert.Equal(t, 1, reads)
	assert.Zero(t, dst.writes)
	assert.Zero(t, dst.syncs)
	assert.Zero(t, sum.Bytes)
	assert.Empty(t, rec.totals)
	assert.Equal(t, 1, rec.finished)
}

func TestRun_ShortWrite(t *testing.T) {
	t.Parallel()

	data := randomBytes(t, 100)
	dst := newMemDestination()
	dst.limit = 25
	rec := &recorder{}
	s := &Session{
		Source:          bytes.NewReader(data),
		Destination:     dst,
		ChunkSize:       10,
		SourceName:      "image.iso",
		DestinationName: "/dev/sdz",
		Reporter:        rec,
	}

	sum, err := s.Run()
	var fatal *FatalError
	require.ErrorAs(t, err, &fatal)
	assert.True(t, fatal.ShortWrite())
	assert.ErrorIs(t, err, ErrInsufficientSpace)
	assert.ErrorIs(t, err, io.ErrShortWrite)
	assert.Equal(t, OpWrite, fatal.Op)
	assert.Equal(t, uint64(20), fatal.Transferred)
	assert.Equal(t, 10, fatal.Read)
	assert.Equal(t, 5, fatal.Written)
	assert.Equal(t, "image.iso", fatal.Source)
	assert.Equal(t, "/dev/sdz", fatal.Destination)

	// The partial chunk was never synced nor counted.
	assert.Equal(t, 2, dst.syncs)
	assert.Equal(t, 20, dst.synced)
	assert.Equal(t, uint64(20), sum.Bytes)
	assert.Equal(t, []uint64{10, 20}, rec.totals)
	assert.Zero(t, rec.finished)
}

func TestRun_WriteError(t *testing.T) {
	t.Parallel()

	boom := errors.New("device unplugged")
	dst := &failingWriter{err: boom}
	s := &Session{Source: strings.NewReader("hello"), Destination: dst, ChunkSize: 4}

	_, err := s.Run()
	var fatal *FatalError
	require.ErrorAs(t, err, &fatal)
	assert.Equal(t, OpWrite, fatal.Op)
	assert.False(t, fatal.ShortWrite())
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, dst.syncs)
}

func TestRun_SyncError(t *testing.T) {
	t.Parallel()

	dst := newMemDestination()
	dst.syncErr = syscall.EIO
	rec := &recorder{}
	s := &Session{Source: strings.NewReader("hello world"), Destination: dst, ChunkSize: 4, Reporter: rec}

	_, err := s.Run()
	var fatal *FatalError
	require.ErrorAs(t, err, &fatal)
	assert.Equal(t, OpSync, fatal.Op)
	assert.ErrorIs(t, err, syscall.EIO)
	assert.Zero(t, fatal.Transferred)
	assert.Empty(t, rec.totals)
	assert.Equal(t, 1, dst.syncs)
}

func TestRun_ReadError(t *testing.T) {
	t.Parallel()

	boom := errors.New("bad sector")
	src := io.MultiReader(strings.NewReader("12345678"), iotest.ErrReader(boom))
	dst := newMemDestination()
	s := &Session{Source: src, Destination: dst, ChunkSize: 4}

	sum, err := s.Run()
	var fatal *FatalError
	require.ErrorAs(t, err, &fatal)
	assert.Equal(t, OpRead, fatal.Op)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, uint64(8), fatal.Transferred)
	assert.Equal(t, uint64(8), sum.Bytes)
	assert.Equal(t, "12345678", dst.buf.String())
}

func TestRun_RetriesInterruptedReads(t *testing.T) {
	t.Parallel()

	inner := strings.NewReader("interrupted but complete")
	calls := 0
	src := readerFunc(func(p []byte) (int, error) {
		calls++
		if calls%2 == 1 {
			return 0, &os.PathError{Op: "read", Path: "src", Err: syscall.EINTR}
		}
		return inner.Read(p)
	})
	dst := newMemDestination()
	s := &Session{Source: src, Destination: dst, ChunkSize: 5}

	_, err := s.Run()
	require.NoError(t, err)
	assert.Equal(t, "interrupted but complete", dst.buf.String())
}

func TestRun_NoProgress(t *testing.T) {
	t.Parallel()

	src := readerFunc(func(p []byte) (int, error) { return 0, nil })
	s := &Session{Source: src, Destination: newMemDestination(), ChunkSize: 8}

	_, err := s.Run()
	var fatal *FatalError
	require.ErrorAs(t, err, &fatal)
	assert.ErrorIs(t, err, io.ErrNoProgress)
}

func TestFatalError_Dump(t *testing.T) {
	t.Parallel()

	e := &FatalError{
		Op:          OpWrite,
		Source:      "in.img",
		Destination: "/dev/sdb",
		Transferred: 4096,
		ChunkSize:   1024,
		Read:        1024,
		Written:     12,
		Err:         errors.Join(ErrInsufficientSpace, io.ErrShortWrite),
	}

	var out bytes.Buffer
	require.NoError(t, e.Dump(&out, 2))
	got := out.String()
	assert.True(t, strings.HasPrefix(got, "\n\n==================== [Insufficient space]\n"))
	assert.Contains(t, got, "source: in.img\n")
	assert.Contains(t, got, "destination: /dev/sdb\n")
	assert.Contains(t, got, "transferred_bytes: 4096\n")
	assert.Contains(t, got, "chunk_size: 1024\n")
	assert.Contains(t, got, "written_bytes: 12\n")
	assert.True(t, strings.HasSuffix(got, "====================\n\n\n"))
	assert.Equal(t, "write error after 4096 bytes: destination does not have enough space (wrote 12 of 1024 bytes)", e.Error())

	out.Reset()
	e = &FatalError{Op: OpRead, Err: errors.New("bad sector")}
	require.NoError(t, e.Dump(&out, 0))
	assert.Contains(t, out.String(), "[Read error]")
	assert.NotContains(t, out.String(), "written_bytes")
}

type readerFunc func(p []byte) (int, error)

func (f readerFunc) Read(p []byte) (int, error) { return f(p) }

type failingWriter struct {
	err   error
	syncs int
}

func (w *failingWriter) Write([]byte) (int, error) { return 0, w.err }
func (w *failingWriter) Sync() error               { w.syncs++; return nil }
