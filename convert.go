package main

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/pkg/errors"
)

// ! ディレクトリ内のHTMLファイルをMarkdownへ変換する。
func ProcessHtmlFiles(dir string) error {
	converter := md.NewConverter("", true, nil)
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		// HTMLファイルのみを対象とする。
		if !d.IsDir() && GetExt(d.Name()) == "html" {
			return ConvertSingleHtmlFile(converter, p)
		}
		return nil
	})
}

// ! 単一のHTMLファイルをMarkdownに変換し、隣に.mdとして書き出す。
func ConvertSingleHtmlFile(converter *md.Converter, htmlPath string) error {
	logger.Debugf("変換中: %s", htmlPath)

	htmlContent, err := os.ReadFile(htmlPath)
	if err != nil {
		return errors.Wrapf(err, "HTMLファイル読み込みエラー: %s", htmlPath)
	}

	markdownContent, err := converter.ConvertString(string(htmlContent))
	if err != nil {
		return errors.Wrapf(err, "HTML→Markdown変換エラー: %s", htmlPath)
	}

	// HTMLへの相対リンクを.mdへ。後のリンク書き換えで新しいページ名になる。
	markdownContent = ConvertHtmlLinksToMd(markdownContent)

	mdPath := strings.TrimSuffix(htmlPath, filepath.Ext(htmlPath)) + ".md"
	if fileExists(mdPath) {
		logger.Warnf("同名のMarkdownが既に存在するためスキップ: %s", mdPath)
		return nil
	}

	if err := os.WriteFile(mdPath, []byte(markdownContent+"\n"), 0644); err != nil {
		return errors.Wrapf(err, "Markdownファイル書き込みエラー: %s", mdPath)
	}
	logger.Infof("変換完了: %s → %s", htmlPath, mdPath)
	return nil
}

// ! 変換済みのHTMLファイルにプレフィックスを付けて退避する。
func RenameHtmlFiles(dir string, prefix string) error {
	if prefix == "" {
		return nil
	}

	var htmlFiles []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && GetExt(d.Name()) == "html" && !strings.HasPrefix(d.Name(), prefix) {
			htmlFiles = append(htmlFiles, p)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, htmlPath := range htmlFiles {
		newPath := filepath.Join(filepath.Dir(htmlPath), prefix+filepath.Base(htmlPath))

		// 同名ファイルが既に存在する場合はスキップ。
		if fileExists(newPath) {
			logger.Warnf("リネーム先ファイルが既に存在するためスキップ: %s", newPath)
			continue
		}

		if err := os.Rename(htmlPath, newPath); err != nil {
			logger.Errorf("HTMLファイルリネームエラー %s → %s: %v", htmlPath, newPath, err)
			continue // エラーが発生しても他のファイルの処理を続行。
		}
		logger.Debugf("リネーム完了: %s → %s", htmlPath, newPath)
	}

	return nil
}

// [text](path.html) または [text](path.html#anchor) の形式。
var htmlLinkPattern = regexp.MustCompile(`\[([^\]]*)\]\(([^)]*\.html)([^)]*)\)`)

// ! Markdown内の相対HTMLリンクを.mdリンクに変換する。URLはそのまま。
func ConvertHtmlLinksToMd(content string) string {
	return htmlLinkPattern.ReplaceAllStringFunc(content, func(match string) string {
		matches := htmlLinkPattern.FindStringSubmatch(match)
		if len(matches) < 4 {
			return match
		}

		linkText := matches[1]
		htmlPath := matches[2]
		anchor := matches[3]

		if strings.Contains(htmlPath, "://") || strings.HasPrefix(htmlPath, "/") {
			return match
		}

		// パス区切り文字を統一 (Windows環境での%5C問題を回避)。
		htmlPath = strings.ReplaceAll(htmlPath, "\\", "/")
		mdPath := strings.TrimSuffix(htmlPath, ".html") + ".md"
		if dir := path.Dir(htmlPath); dir == "." {
			mdPath = path.Base(mdPath)
		}
		return fmt.Sprintf("[%s](%s%s)", linkText, mdPath, anchor)
	})
}
