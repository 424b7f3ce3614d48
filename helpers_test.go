package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func quietLogger(t *testing.T) {
	t.Helper()
	prev := logger
	logger = zap.NewNop().Sugar()
	t.Cleanup(func() { logger = prev })
}

// writeTree creates files under root. Keys are slash-separated relative paths.
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func defaultCompiled(t *testing.T) *CompiledRules {
	t.Helper()
	c, err := DefaultRules().Compile()
	require.NoError(t, err)
	return c
}

// sampleTree is a small docs tree with a phase folder, media and a source file.
func sampleTree(t *testing.T) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "docs")
	writeTree(t, root, map[string]string{
		"intro.md": "# Introduction\n\n" +
			"See [setup](phase-2/getting-started.md#install) first.\n" +
			"![diagram](images/flow.png)\n" +
			"Code: [main](examples/Main.java)\n" +
			"[web](https://example.com/a.md) [home](Home) [top](#top)\n",
		"phase-2/getting-started.md": "# Getting Started\n\n\n" +
			"Back to [intro](../intro.md).\n" +
			"![flow](flow.png)\n",
		"images/flow.png":    "png",
		"examples/Main.java": "class Main {}\n",
	})
	return root
}
