package fsutil

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOSFileSystem_ReadWriteGlob(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	var fs FileSystem = OSFileSystem{}

	sub := filepath.Join(dir, "frames")
	require.NoError(t, fs.MkdirAll(sub, 0o755))
	require.NoError(t, fs.WriteFile(filepath.Join(sub, "b_0002.png"), []byte("two"), 0o644))

	w, err := fs.Create(filepath.Join(sub, "a_0001.png"))
	require.NoError(t, err)
	_, err = w.Write([]byte("one"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	names, err := fs.Glob(filepath.Join(sub, "*.png"))
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(sub, "a_0001.png"), filepath.Join(sub, "b_0002.png")}, names)

	data, err := fs.ReadFile(filepath.Join(sub, "a_0001.png"))
	require.NoError(t, err)
	assert.Equal(t, "one", string(data))

	assert.True(t, fs.Exists(sub))
	assert.False(t, fs.Exists(filepath.Join(dir, "missing")))
}

func TestMemoryFileSystem_WriteAndRead(t *testing.T) {
	t.Parallel()
	mfs := NewMemoryFileSystem()

	require.NoError(t, mfs.WriteFile("/test.txt", []byte("hello, world"), 0o644))
	data, err := mfs.ReadFile("/test.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello, world", string(data))

	// callers own the returned slice
	data[0] = 'j'
	again, err := mfs.ReadFile("/test.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello, world", string(again))

	_, err = mfs.ReadFile("/missing.txt")
	assert.Error(t, err)
}

func TestMemoryFileSystem_CreateVisibleOnClose(t *testing.T) {
	t.Parallel()
	mfs := NewMemoryFileSystem()

	w, err := mfs.Create("/out/report.html")
	require.NoError(t, err)
	_, err = w.Write([]byte("<html>"))
	require.NoError(t, err)

	data, err := mfs.ReadFile("/out/report.html")
	require.NoError(t, err)
	assert.Empty(t, data)

	require.NoError(t, w.Close())
	data, err = mfs.ReadFile("/out/report.html")
	require.NoError(t, err)
	assert.Equal(t, "<html>", string(data))
}

func TestMemoryFileSystem_Open(t *testing.T) {
	t.Parallel()
	mfs := NewMemoryFileSystem()
	require.NoError(t, mfs.WriteFile("/frames/0001.png", []byte("frame"), 0o644))

	f, err := mfs.Open("/frames/0001.png")
	require.NoError(t, err)
	defer f.Close()

	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "frame", string(data))

	info, err := f.Stat()
	require.NoError(t, err)
	assert.Equal(t, "0001.png", info.Name())
	assert.Equal(t, int64(5), info.Size())

	_, err = mfs.Open("/frames/0002.png")
	assert.Error(t, err)
}

func TestMemoryFileSystem_Glob(t *testing.T) {
	t.Parallel()
	mfs := NewMemoryFileSystem()
	for _, name := range []string{"/f/0003.png", "/f/0001.png", "/f/notes.txt", "/g/0002.png"} {
		require.NoError(t, mfs.WriteFile(name, nil, 0o644))
	}

	names, err := mfs.Glob("/f/*.png")
	require.NoError(t, err)
	assert.Equal(t, []string{"/f/0001.png", "/f/0003.png"}, names)

	_, err = mfs.Glob("[")
	assert.Error(t, err)
}

func TestMemoryFileSystem_MkdirAllExists(t *testing.T) {
	t.Parallel()
	mfs := NewMemoryFileSystem()
	require.NoError(t, mfs.MkdirAll("/a/b/c", 0o755))

	assert.True(t, mfs.Exists("/a"))
	assert.True(t, mfs.Exists("/a/b"))
	assert.True(t, mfs.Exists("/a/b/c/"))
	assert.False(t, mfs.Exists("/a/x"))
}
