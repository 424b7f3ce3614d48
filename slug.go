package main

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	slugReserved   = regexp.MustCompile(`[\\/:*?"<>|#]`)
	slugWhitespace = regexp.MustCompile(`\s+`)
)

// ! ファイル名として安全な文字列にする。
// 予約文字を除き、空白の連続をハイフン1つにまとめる。大文字小文字はそのまま。
func Slugify(name string) string {
	name = strings.TrimSpace(name)
	slug := slugReserved.ReplaceAllString(name, "")
	slug = slugWhitespace.ReplaceAllString(strings.TrimSpace(slug), "-")
	if slug == "" {
		return name
	}
	return slug
}

// ! Wikiページのタイトル(拡張子付き)を決める。
// タイトルが無ければファイル名をそのまま使う。
func WikiPageTitle(title string, hasTitle bool, file FilePath, rules *CompiledRules) string {
	if !hasTitle {
		return file.Filename
	}
	ext := filepath.Ext(file.Filename)
	if rules.Phase.Filename != "" && file.Filename == rules.Phase.Filename {
		if phase := rules.phaseDir.FindString(file.Parent()); phase != "" {
			return fmt.Sprintf(rules.Phase.TitleFormat, title, phase) + ext
		}
	}
	return title + ext
}

// ! 新しいファイル名。
// 予約文字だけのタイトルで名前が拡張子だけになる場合は元のファイル名のまま。
func NewFilename(title string, hasTitle bool, file FilePath, rules *CompiledRules) string {
	name := Slugify(WikiPageTitle(title, hasTitle, file, rules))
	if strings.TrimSuffix(name, filepath.Ext(file.Filename)) == "" {
		logger.Warnf("タイトルから名前を作れないため元の名前を使います %s: %q", file.FullPath(), title)
		return file.Filename
	}
	return name
}
