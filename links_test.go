package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRewriter(t *testing.T, rules *CompiledRules, codeBase string) (*LinkRewriter, map[string]*PlanEntry) {
	t.Helper()
	root := sampleTree(t)
	plan, err := BuildPlan(root, rules)
	require.NoError(t, err)

	entries := map[string]*PlanEntry{}
	for _, e := range plan.Entries {
		entries[e.Source.RelativeFrom(root)] = e
	}
	return NewLinkRewriter(plan, codeBase), entries
}

func TestRewriteLineDocumentLinks(t *testing.T) {
	quietLogger(t)
	w, entries := sampleRewriter(t, defaultCompiled(t), "https://github.com/org/repo/blob/main/")
	intro := entries["intro.md"]
	phase := entries["phase-2/getting-started.md"]

	tests := []struct {
		name  string
		entry *PlanEntry
		in    string
		want  string
	}{
		{"fragment kept", intro, "See [setup](phase-2/getting-started.md#install) first.\n", "See [setup](Getting-Started-—-Phase-2#install) first.\n"},
		{"angle brackets", intro, "[setup](<phase-2/getting-started.md>)", "[setup](<Getting-Started-—-Phase-2>)"},
		{"parent directory", phase, "Back to [intro](../intro.md).\n", "Back to [intro](Introduction).\n"},
		{"dot directory", intro, "[self](./intro.md)", "[self](Introduction)"},
		{"link text equals path", phase, "[../intro.md](../intro.md)", "[../intro.md](Introduction)"},
		{"two links", intro, "[a](intro.md) and [b](phase-2/getting-started.md)", "[a](Introduction) and [b](Getting-Started-—-Phase-2)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, w.RewriteLine(tt.in, tt.entry))
		})
	}
}

func TestRewriteLineEmbedLinks(t *testing.T) {
	quietLogger(t)
	w, entries := sampleRewriter(t, defaultCompiled(t), "/srv/code")

	assert.Equal(t, "![diagram](images/flow.png)", w.RewriteLine("![diagram](images/flow.png)", entries["intro.md"]))
	// 同じディレクトリに無い画像はベース名で探す。
	assert.Equal(t, "![flow](images/flow.png)\n", w.RewriteLine("![flow](flow.png)\n", entries["phase-2/getting-started.md"]))
}

func TestRewriteLineCodeLinks(t *testing.T) {
	quietLogger(t)

	w, entries := sampleRewriter(t, defaultCompiled(t), "https://github.com/org/repo/blob/main/")
	assert.Equal(t,
		"[main](https://github.com/org/repo/blob/main/examples/Main.java#L3)",
		w.RewriteLine("[main](examples/Main.java#L3)", entries["intro.md"]))
	assert.Equal(t,
		"[main](https://github.com/org/repo/blob/main/examples/Main.java)",
		w.RewriteLine("[main](../examples/Main.java)", entries["phase-2/getting-started.md"]))

	w, entries = sampleRewriter(t, defaultCompiled(t), "/srv/code")
	assert.Equal(t,
		"[main]("+filepath.Join("/srv/code", "examples", "Main.java")+")",
		w.RewriteLine("[main](examples/Main.java)", entries["intro.md"]))
}

func TestRewriteLineBaseCasesUntouched(t *testing.T) {
	quietLogger(t)
	w, entries := sampleRewriter(t, defaultCompiled(t), "/srv/code")

	for _, line := range []string{
		"[web](https://example.com/a.md)",
		"[home](Home)",
		"[home](Home#usage)",
		"[top](#top)",
		"[mail](mailto:a@b.c)",
		"[call](tel:+1-555)",
		"no links here",
	} {
		assert.Equal(t, line, w.RewriteLine(line, entries["intro.md"]))
	}
	assert.Zero(t, w.Rewritten)
	assert.Empty(t, w.Unresolved)
}

func TestRewriteLineUnresolvedLeftAlone(t *testing.T) {
	quietLogger(t)
	w, entries := sampleRewriter(t, defaultCompiled(t), "/srv/code")

	line := "[missing](nope.md#x) ![gone](gone.png)"
	assert.Equal(t, line, w.RewriteLine(line, entries["intro.md"]))
	require.Len(t, w.Unresolved, 2)
	assert.Equal(t, "nope.md#x", w.Unresolved[0].Target)
	assert.Equal(t, "gone.png", w.Unresolved[1].Target)
}

func TestRewriteLineCodeExtsRestriction(t *testing.T) {
	quietLogger(t)
	r := DefaultRules()
	r.CodeExts = []string{"java"}
	rules, err := r.Compile()
	require.NoError(t, err)

	w, entries := sampleRewriter(t, rules, "/srv/code")
	assert.Equal(t, "[notes](notes.txt)", w.RewriteLine("[notes](notes.txt)", entries["intro.md"]))
	assert.Equal(t,
		"[main]("+filepath.Join("/srv/code", "examples", "Main.java")+")",
		w.RewriteLine("[main](examples/Main.java)", entries["intro.md"]))
}

func TestRewriteBodyCounts(t *testing.T) {
	quietLogger(t)
	w, entries := sampleRewriter(t, defaultCompiled(t), "https://github.com/org/repo")

	body := w.RewriteBody(entries["intro.md"])
	assert.Equal(t, []string{
		"See [setup](Getting-Started-—-Phase-2#install) first.\n",
		"![diagram](images/flow.png)\n",
		"Code: [main](https://github.com/org/repo/examples/Main.java)\n",
		"[web](https://example.com/a.md) [home](Home) [top](#top)\n",
	}, body)
	assert.Equal(t, 2, w.Rewritten)
}

func TestRewriteLineRelativeDirsUseFallback(t *testing.T) {
	quietLogger(t)
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a/x.md":        "# A X\n",
		"b/x.md":        "# B X\n",
		"b/sub/page.md": "# Page\n",
	})

	rewriterFor := func(fallback string) (*LinkRewriter, map[string]*PlanEntry) {
		r := DefaultRules()
		r.LookupFallback = fallback
		rules, err := r.Compile()
		require.NoError(t, err)
		plan, err := BuildPlan(root, rules)
		require.NoError(t, err)
		entries := map[string]*PlanEntry{}
		for _, e := range plan.Entries {
			entries[e.Source.RelativeFrom(root)] = e
		}
		return NewLinkRewriter(plan, "/srv/code"), entries
	}

	// ".." と "." はディレクトリ名として一致しないので、ベース名での照合方針に従う。
	for _, fallback := range []string{FallbackNone, FallbackUnique} {
		t.Run(fallback, func(t *testing.T) {
			w, entries := rewriterFor(fallback)
			assert.Equal(t, "[x](../x.md)", w.RewriteLine("[x](../x.md)", entries["b/sub/page.md"]))
			assert.Equal(t, "[x](./x.md)", w.RewriteLine("[x](./x.md)", entries["b/x.md"]))
			assert.Equal(t, "[x](B-X)", w.RewriteLine("[x](x.md)", entries["b/x.md"]))
			assert.Equal(t, "[x](A-X)", w.RewriteLine("[x](../a/x.md)", entries["b/x.md"]))
			assert.Len(t, w.Unresolved, 2)
			assert.Equal(t, 2, w.Rewritten)
		})
	}

	w, entries := rewriterFor(FallbackFirst)
	assert.Equal(t, "[x](A-X)", w.RewriteLine("[x](../x.md)", entries["b/sub/page.md"]))
	assert.Empty(t, w.Unresolved)
}
