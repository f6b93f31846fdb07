package endpoint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInspect_Regular(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "disk.img")
	require.NoError(t, os.WriteFile(path, make([]byte, 2048), 0o600))

	info, err := Inspect(path)
	require.NoError(t, err)
	assert.Equal(t, Regular, info.Kind)
	assert.Equal(t, int64(2048), info.Size)
	assert.True(t, info.Exists())
	assert.Equal(t, path+" (regular file, 2.0 KiB)", info.String())
}

func TestInspect_Missing(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nope")
	info, err := Inspect(path)
	require.NoError(t, err)
	assert.Equal(t, Missing, info.Kind)
	assert.Equal(t, int64(-1), info.Size)
	assert.False(t, info.Exists())
	assert.Equal(t, path+" (missing)", info.String())
}

func TestInspect_Directory(t *testing.T) {
	t.Parallel()

	info, err := Inspect(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Directory, info.Kind)
}

func TestCheckPair(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	link := filepath.Join(dir, "link")
	require.NoError(t, os.WriteFile(src, []byte("data"), 0o600))
	require.NoError(t, os.Symlink(src, link))

	srcInfo, err := Inspect(src)
	require.NoError(t, err)
	dstInfo, err := Inspect(dst)
	require.NoError(t, err)
	linkInfo, err := Inspect(link)
	require.NoError(t, err)

	require.NoError(t, CheckPair(srcInfo, dstInfo))
	require.ErrorIs(t, CheckPair(srcInfo, linkInfo), ErrSameFile)
	require.ErrorIs(t, CheckPair(dstInfo, srcInfo), ErrNotFound)

	dirInfo, err := Inspect(dir)
	require.NoError(t, err)
	require.ErrorIs(t, CheckPair(dirInfo, dstInfo), ErrDirectory)
	require.ErrorIs(t, CheckPair(srcInfo, dirInfo), ErrDirectory)
}

func TestOpenDestination_Truncates(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out")
	require.NoError(t, os.WriteFile(path, []byte("previous contents"), 0o600))

	dst, err := OpenDestination(path)
	require.NoError(t, err)
	_, err = dst.Write([]byte("new"))
	require.NoError(t, err)
	require.NoError(t, dst.Sync())
	require.NoError(t, dst.Close())

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))
}

func TestOpenSource(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "in")
	require.NoError(t, os.WriteFile(path, []byte("abc"), 0o600))

	src, err := OpenSource(path)
	require.NoError(t, err)
	defer src.Close()
	assert.Equal(t, Regular, src.Info.Kind)

	_, err = OpenSource(filepath.Join(dir, "missing"))
	require.ErrorIs(t, err, ErrNotFound)
}
