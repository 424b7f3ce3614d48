package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuin/goldmark"
)

func TestCollectLinkTargets(t *testing.T) {
	src := []byte("# T\n\n[a](x.md) ![i](img/y.png) `[c](z.md)`\n\n```\n[d](code.md)\n```\n\n[e](<with space.md#frag>)\n")
	got := CollectLinkTargets(goldmark.New(), src)
	assert.Equal(t, []string{"x.md", "img/y.png", "with space.md#frag"}, got)
}

func TestCheckTreeAfterRewrite(t *testing.T) {
	quietLogger(t)
	root := sampleTree(t)
	rules := defaultCompiled(t)

	_, err := RewriteTree(RewriteOptions{Root: root, CodeBase: "https://github.com/org/repo", Rules: rules})
	require.NoError(t, err)

	broken, err := CheckTree(root, rules)
	require.NoError(t, err)
	assert.Empty(t, broken)
}

func TestCheckTreeReportsBrokenLinks(t *testing.T) {
	quietLogger(t)
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"Page-One.md":      "[two](Page-Two#x) [gone](Nowhere) ![pic](media/pic%20one.png) ![lost](media/lost.png)\n",
		"sub/Page-Two.md":  "[one](Page-One.md) [src](../code/main.go) [web](https://example.com) [home](Home)\n",
		"media/pic one.png": "png",
		"code/main.go":      "package main\n",
	})

	broken, err := CheckTree(root, defaultCompiled(t))
	require.NoError(t, err)
	assert.Equal(t, []BrokenLink{
		{File: filepath.Join(root, "Page-One.md"), Target: "Nowhere"},
		{File: filepath.Join(root, "Page-One.md"), Target: "media/lost.png"},
	}, broken)
}

func TestCheckTreeIgnoreCase(t *testing.T) {
	quietLogger(t)
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"Alpha.md": "[b](beta)\n",
		"Beta.md":  "ok\n",
	})

	broken, err := CheckTree(root, defaultCompiled(t))
	require.NoError(t, err)
	assert.Len(t, broken, 1)

	r := DefaultRules()
	r.IgnoreCase = true
	rules, err := r.Compile()
	require.NoError(t, err)
	broken, err = CheckTree(root, rules)
	require.NoError(t, err)
	assert.Empty(t, broken)
}
