package main

import (
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// ! リンク切れ1件。
type BrokenLink struct {
	File   string
	Target string
}

// ! 公開用ツリーのリンク切れを調べる。
// 拡張子なし・編集対象拡張子のリンクはページ名として、それ以外はファイルとして解決する。
func CheckTree(root string, rules *CompiledRules) ([]BrokenLink, error) {
	root = filepath.Clean(root)
	docs, err := FindFilesWithExts(root, rules.editExts)
	if err != nil {
		return nil, err
	}

	pages := map[string]bool{}
	for _, doc := range docs {
		pages[pageKey(rules.StripEditExt(doc.Filename), rules.IgnoreCase)] = true
	}

	md := goldmark.New()
	var broken []BrokenLink
	for _, doc := range docs {
		source, err := os.ReadFile(doc.FullPath())
		if err != nil {
			return nil, errors.Wrapf(err, "ファイル読み込みエラー: %s", doc.FullPath())
		}
		for _, target := range CollectLinkTargets(md, source) {
			if rules.IsBaseCase(target) || linkResolves(root, doc, target, pages, rules) {
				continue
			}
			logger.Warnf("リンク切れ %s: %s", doc.FullPath(), target)
			broken = append(broken, BrokenLink{File: doc.FullPath(), Target: target})
		}
	}
	return broken, nil
}

// ! Markdownを解析してリンクと画像のリンク先を集める。
func CollectLinkTargets(md goldmark.Markdown, source []byte) []string {
	doc := md.Parser().Parse(text.NewReader(source))
	var targets []string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Link:
			targets = append(targets, string(node.Destination))
		case *ast.Image:
			targets = append(targets, string(node.Destination))
		}
		return ast.WalkContinue, nil
	})
	return targets
}

func linkResolves(root string, doc FilePath, target string, pages map[string]bool, rules *CompiledRules) bool {
	pathPart, _, _ := strings.Cut(target, "#")
	if pathPart == "" {
		return true
	}
	base := path.Base(filepath.ToSlash(pathPart))
	ext := GetExt(base)

	if ext == "" || rules.IsEdit(ext) {
		if pages[pageKey(rules.StripEditExt(base), rules.IgnoreCase)] {
			return true
		}
	}

	if unescaped, err := url.PathUnescape(pathPart); err == nil {
		pathPart = unescaped
	}
	local := filepath.FromSlash(pathPart)
	for _, candidate := range []string{filepath.Join(doc.DirPath, local), filepath.Join(root, local)} {
		if _, err := os.Stat(candidate); err == nil {
			return true
		}
	}
	return false
}

func pageKey(name string, ignoreCase bool) string {
	if ignoreCase {
		return strings.ToLower(name)
	}
	return name
}
