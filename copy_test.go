package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyDirectorySkipsVcsDirs(t *testing.T) {
	quietLogger(t)
	src := t.TempDir()
	writeTree(t, src, map[string]string{
		"page.md":          "# Page\n",
		".git/HEAD":        "ref: refs/heads/main\n",
		"sub/.svn/entries": "x",
		".github/ci.yml":   "on: push\n",
	})
	dst := filepath.Join(t.TempDir(), "out")

	require.NoError(t, CopyDirectory(src, dst))
	assert.Equal(t, "# Page\n", readFile(t, filepath.Join(dst, "page.md")))
	assert.FileExists(t, filepath.Join(dst, ".github", "ci.yml"))
	assert.NoDirExists(t, filepath.Join(dst, ".git"))
	assert.NoDirExists(t, filepath.Join(dst, "sub", ".svn"))
	assert.DirExists(t, filepath.Join(dst, "sub"))
}
