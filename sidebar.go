package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

const sidebarFile = "_Sidebar.md"

// サイドバーに載せないWikiの特殊ページ。
var wikiSpecialPages = map[string]bool{
	sidebarFile:  true,
	"_Footer.md": true,
}

// ! ディレクトリエントリを表す構造体。
type DirEntry struct {
	Name     string      // ファイル名またはディレクトリ名。
	Title    string      // 表示名(ファイルのみ)。
	Page     string      // リンク先のページ名(ファイルのみ)。
	IsDir    bool        // ディレクトリかどうか。
	Children []*DirEntry // 子要素(ディレクトリの場合)。
}

// ! Wiki用の_Sidebar.mdを生成する。
func GenerateSidebar(root string, plan *Plan) error {
	tree, err := BuildDirectoryTree(root, plan)
	if err != nil {
		return errors.Wrap(err, "ディレクトリ構造解析に失敗")
	}

	var b strings.Builder
	writeSidebarEntries(&b, tree.Children, 0)

	sidebarPath := filepath.Join(root, sidebarFile)
	if err := os.WriteFile(sidebarPath, []byte(b.String()), 0644); err != nil {
		return errors.Wrapf(err, "書き込みエラー: %s", sidebarPath)
	}
	logger.Infof("_Sidebar.md生成完了: %s", sidebarPath)
	return nil
}

// ! 書き換え後のページからディレクトリツリーを構築する。
func BuildDirectoryTree(rootDir string, plan *Plan) (*DirEntry, error) {
	titles := map[string]string{}
	for _, e := range plan.Entries {
		if e.HasTitle {
			title := WikiPageTitle(e.Title, true, e.Source, plan.Rules)
			titles[e.Target.FullPath()] = strings.TrimSuffix(title, filepath.Ext(e.Source.Filename))
		}
	}

	root := &DirEntry{Name: filepath.Base(rootDir), IsDir: true}
	dirs := map[string]*DirEntry{".": root}

	err := filepath.Walk(rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if path == rootDir {
			return nil
		}

		// 隠しファイルとWikiの特殊ページはスキップ。
		name := info.Name()
		if strings.HasPrefix(name, ".") {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.IsDir() && wikiSpecialPages[name] {
			return nil
		}

		relPath, err := filepath.Rel(rootDir, path)
		if err != nil {
			return err
		}
		parent := dirs[filepath.Dir(relPath)]
		if parent == nil {
			return nil
		}

		if info.IsDir() {
			entry := &DirEntry{Name: name, IsDir: true}
			dirs[relPath] = entry
			parent.Children = append(parent.Children, entry)
			return nil
		}
		if !plan.Rules.IsEdit(GetExt(name)) {
			return nil
		}

		page := plan.Rules.StripEditExt(name)
		title, ok := titles[path]
		if !ok {
			title = page
		}
		parent.Children = append(parent.Children, &DirEntry{Name: name, Title: title, Page: page})
		return nil
	})
	if err != nil {
		return nil, err
	}

	pruneDirectoryTree(root)
	sortDirectoryTree(root)
	return root, nil
}

// ! ページを含まないディレクトリを取り除く。ページが残っていればtrue。
func pruneDirectoryTree(entry *DirEntry) bool {
	if !entry.IsDir {
		return true
	}
	kept := entry.Children[:0]
	for _, child := range entry.Children {
		if pruneDirectoryTree(child) {
			kept = append(kept, child)
		}
	}
	entry.Children = kept
	return len(kept) > 0
}

// ! ディレクトリ優先、その後名前順。
func sortDirectoryTree(entry *DirEntry) {
	sort.SliceStable(entry.Children, func(i, j int) bool {
		a, b := entry.Children[i], entry.Children[j]
		if a.IsDir != b.IsDir {
			return a.IsDir
		}
		return a.Name < b.Name
	})
	for _, child := range entry.Children {
		if child.IsDir {
			sortDirectoryTree(child)
		}
	}
}

func writeSidebarEntries(b *strings.Builder, entries []*DirEntry, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, entry := range entries {
		if entry.IsDir {
			fmt.Fprintf(b, "%s- **%s**\n", indent, entry.Name)
			writeSidebarEntries(b, entry.Children, depth+1)
			continue
		}
		fmt.Fprintf(b, "%s- [%s](%s)\n", indent, entry.Title, entry.Page)
	}
}
