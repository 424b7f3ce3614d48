package main

import (
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

// 1: <>で囲まれたリンク先、2: それ以外のリンク先。
var linkPattern = regexp.MustCompile(`\[(?:[^\]]+)\]\((?:<([^>]+)>|((?:[^()\\]|\\[()])+))\)`)

// ! Markdown内のリンクを新しい配置に合わせて書き換える。
type LinkRewriter struct {
	plan     *Plan
	codeBase string

	Rewritten  int
	Unresolved []UnresolvedLink
}

// ! 解決できなかったリンク。
type UnresolvedLink struct {
	File   string
	Target string
}

func NewLinkRewriter(plan *Plan, codeBase string) *LinkRewriter {
	return &LinkRewriter{plan: plan, codeBase: codeBase}
}

// ! 1行分のリンクを書き換える。
func (w *LinkRewriter) RewriteLine(line string, entry *PlanEntry) string {
	matches := linkPattern.FindAllStringSubmatchIndex(line, -1)
	if len(matches) == 0 {
		return line
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		start, end := m[2], m[3]
		if start < 0 {
			start, end = m[4], m[5]
		}
		b.WriteString(line[last:start])
		b.WriteString(w.rewriteTarget(line[start:end], entry))
		last = end
	}
	b.WriteString(line[last:])
	return b.String()
}

// ! 本文全体を書き換える。
func (w *LinkRewriter) RewriteBody(entry *PlanEntry) []string {
	out := make([]string, len(entry.Body))
	for i, ln := range entry.Body {
		out[i] = w.RewriteLine(ln, entry)
	}
	return out
}

func (w *LinkRewriter) rewriteTarget(target string, entry *PlanEntry) string {
	rules := w.plan.Rules
	if rules.IsBaseCase(target) {
		return target
	}

	pathPart, _, _ := strings.Cut(target, "#")
	if pathPart == "" {
		return target
	}

	newLink, ok := w.newLink(entry, pathPart)
	if !ok {
		logger.Debugf("リンク先が見つかりません %s: %s", entry.Source.FullPath(), target)
		w.Unresolved = append(w.Unresolved, UnresolvedLink{File: entry.Source.FullPath(), Target: target})
		return target
	}
	if newLink != pathPart {
		w.Rewritten++
	}
	return strings.Replace(target, pathPart, newLink, 1)
}

func (w *LinkRewriter) newLink(entry *PlanEntry, pathPart string) (string, bool) {
	rules := w.plan.Rules
	// linkDirはリンクに書かれたディレクトリ部分の末尾の名前。"../x.md" なら ".."。
	// 空なら文書自身の親で引く。
	dir, base := path.Split(filepath.ToSlash(pathPart))
	linkDir := ""
	if dir != "" {
		linkDir = path.Base(dir)
	}

	ext := GetExt(base)
	switch {
	case rules.IsEmbed(ext):
		return w.plan.Embeds.Get(linkDir, entry.Source.Parent(), base)
	case rules.IsEdit(ext):
		newBase, ok := w.plan.Edited.Get(linkDir, entry.Source.Parent(), base)
		if !ok {
			return "", false
		}
		return rules.StripEditExt(newBase), true
	case rules.IsCode(ext):
		return w.codeLink(entry, pathPart), true
	}
	return pathPart, true
}

// ! ソースファイルへのリンクをコードベース(URLまたはパス)基準に変える。
func (w *LinkRewriter) codeLink(entry *PlanEntry, pathPart string) string {
	abs := filepath.Clean(filepath.Join(entry.Source.DirPath, filepath.FromSlash(pathPart)))
	rel, err := filepath.Rel(w.plan.Root, abs)
	if err != nil {
		rel = abs
	}
	if strings.HasPrefix(w.codeBase, "http://") || strings.HasPrefix(w.codeBase, "https://") {
		return strings.TrimRight(w.codeBase, "/") + "/" + filepath.ToSlash(rel)
	}
	return filepath.Clean(filepath.Join(w.codeBase, rel))
}
