package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/tracklet.hierarchy/internal/config"
	"github.com/banshee-data/tracklet.hierarchy/internal/fsutil"
	"github.com/banshee-data/tracklet.hierarchy/internal/monitoring"
	"github.com/banshee-data/tracklet.hierarchy/internal/runner"
)

func TestMain(m *testing.M) {
	monitoring.SetLogger(nil)
	os.Exit(m.Run())
}

func TestReadVideoList(t *testing.T) {
	got, err := readVideoList(strings.NewReader("# header\nv1\n\n  v2  \n#v3\nv4\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"v1", "v2", "v4"}, got)
}

func TestListVideos_ScansObjectDir(t *testing.T) {
	root := t.TempDir()
	obj := filepath.Join(root, "obj")
	require.NoError(t, os.MkdirAll(filepath.Join(obj, "nested"), 0o755))
	for _, name := range []string{"b.csv", "a.csv", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(obj, name), nil, 0o644))
	}

	fsys := fsutil.OSFileSystem{}
	got, err := listVideos(fsys, "", root)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)

	list := filepath.Join(root, "videos.txt")
	require.NoError(t, os.WriteFile(list, []byte("z\ny\n"), 0o644))
	got, err = listVideos(fsys, list, root)
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "y"}, got)

	_, err = listVideos(fsys, "", filepath.Join(root, "missing"))
	assert.Error(t, err)

	_, err = listVideos(fsys, obj, root)
	assert.Error(t, err, "a directory is not a list file")
}

func TestListVideos_MemoryFileSystem(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	for _, name := range []string{"/tr/obj/v2.csv", "/tr/obj/v1.csv", "/tr/trj/v1.csv", "/tr/obj/readme.md"} {
		require.NoError(t, mfs.WriteFile(name, nil, 0o644))
	}
	require.NoError(t, mfs.WriteFile("/lists/videos.txt", []byte("v9\n# skip\nv8\n"), 0o644))

	got, err := listVideos(mfs, "", "/tr")
	require.NoError(t, err)
	assert.Equal(t, []string{"v1", "v2"}, got)

	got, err = listVideos(mfs, "/lists/videos.txt", "/tr")
	require.NoError(t, err)
	assert.Equal(t, []string{"v9", "v8"}, got)
}

func TestRunBatch_HonoursStartAndCountInBothModes(t *testing.T) {
	videos := []string{"v0", "v1", "v2", "v3", "v4"}
	for _, workers := range []int{1, 3} {
		mfs := fsutil.NewMemoryFileSystem()
		r := runner.New(mfs, config.DefaultClusteringConfig(), "/tracklets", "/clusters")

		// No inputs exist, so every processed video reports missing input.
		sum, err := runBatch(context.Background(), r, videos, 1, 2, workers)
		require.NoError(t, err)
		assert.Equal(t, 2, sum.Total(), "workers=%d", workers)
		assert.Equal(t, 2, sum.Missing, "workers=%d", workers)

		_, err = runBatch(context.Background(), r, videos, 9, 1, workers)
		assert.Error(t, err, "workers=%d: start past the end", workers)
	}
}
