// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/iqa-survey/pkg/types"
)

func touch(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, n := range names {
		p := filepath.Join(root, filepath.FromSlash(n))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, nil, 0o644))
	}
}

func TestGenerate(t *testing.T) {
	root := t.TempDir()
	touch(t, root,
		"kitchen_1/b.png", "kitchen_1/a.JPG", "kitchen_1/kitchen_1.txt", "kitchen_1/.DS_Store",
		"garden/x.webp",
		"empty/readme.md",
		".cache/z.png",
		"stray.png",
	)
	require.NoError(t, os.Mkdir(filepath.Join(root, "kitchen_1", "nested"), 0o755))

	m, err := Generate(root)
	require.NoError(t, err)
	assert.Equal(t, types.Manifest{
		"kitchen_1": {"a.JPG", "b.png"},
		"garden":    {"x.webp"},
	}, m)

	scenes, images := Count(m)
	assert.Equal(t, 2, scenes)
	assert.Equal(t, 3, images)
}

func TestGenerate_MissingDir(t *testing.T) {
	_, err := Generate(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "public", "image-manifest.json")
	want := types.Manifest{"s": {"1.png", "2.png"}}
	require.NoError(t, Write(path, want))
	require.NoError(t, Write(path, want), "overwrites")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got types.Manifest
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, want, got)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestIsImage(t *testing.T) {
	for name, want := range map[string]bool{
		"a.png": true, "a.JPEG": true, "a.gif": true, "a.txt": false, "png": false,
	} {
		assert.Equal(t, want, IsImage(name), name)
	}
}
