package main

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/frontmatter"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ! ディレクトリとファイル名の組。
type FilePath struct {
	DirPath  string // ルートを含むディレクトリパス。
	Filename string
}

func (f FilePath) FullPath() string {
	return filepath.Join(f.DirPath, f.Filename)
}

// ! 直上のディレクトリ名。
func (f FilePath) Parent() string {
	return filepath.Base(f.DirPath)
}

// ! rootからの相対パス(/区切り)。
func (f FilePath) RelativeFrom(root string) string {
	rel, err := filepath.Rel(root, f.FullPath())
	if err != nil {
		return filepath.ToSlash(f.FullPath())
	}
	return filepath.ToSlash(rel)
}

// ! 拡張子を小文字で返す。ドットが無ければ空文字。
// ディレクトリ部分のドットも数えるのでベース名に対して使うこと。
func GetExt(path string) string {
	i := strings.LastIndex(path, ".")
	if i < 0 {
		return ""
	}
	return strings.ToLower(path[i+1:])
}

// ! 指定した拡張子のファイルを列挙する。順序はWalkDirの辞書順。
func FindFilesWithExts(root string, exts map[string]bool) ([]FilePath, error) {
	var files []FilePath
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if exts[GetExt(d.Name())] {
			files = append(files, FilePath{DirPath: filepath.Dir(path), Filename: d.Name()})
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "ファイル列挙に失敗: %s", root)
	}
	return files, nil
}

// ! 改行を残したまま行に分割する。
func SplitLines(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.SplitAfter(content, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// ! 最初の空でない行がH1ならタイトルとして取り出し、残りを本文として返す。
// タイトル直後の空行も落とす。H1でなければ全行が本文。
func ExtractTitleAndBody(lines []string) (string, bool, []string) {
	first := -1
	for i, ln := range lines {
		if strings.TrimSpace(ln) != "" {
			first = i
			break
		}
	}
	if first < 0 {
		return "", false, lines
	}
	if !strings.HasPrefix(strings.TrimLeft(lines[first], " \t\r\n\v\f"), "# ") {
		return "", false, lines
	}
	// "# " だけの行は見出しとして扱わない。
	heading := strings.TrimSpace(lines[first])
	if len(heading) < 2 {
		return "", false, lines
	}
	title := strings.TrimSpace(heading[2:])
	if title == "" {
		return "", false, lines
	}

	j := first + 1
	for j < len(lines) && strings.TrimSpace(lines[j]) == "" {
		j++
	}
	return title, true, lines[j:]
}

type frontMatterMeta struct {
	Title string `yaml:"title"`
}

var yamlFrontMatter = frontmatter.NewFormat("---", "---", yaml.Unmarshal)

// ! 先頭のYAMLフロントマターを取り除き、titleを返す。
// フロントマターが無ければ内容をそのまま返す。
func SplitFrontMatter(content []byte) (string, []byte, error) {
	var meta frontMatterMeta
	body, err := frontmatter.Parse(bytes.NewReader(content), &meta, yamlFrontMatter)
	if err != nil {
		return "", content, errors.Wrap(err, "フロントマター解析エラー")
	}
	return strings.TrimSpace(meta.Title), body, nil
}

// ! ファイルを読み込みタイトルと本文を取り出す。
func ReadDocument(path string, useFrontMatter bool) (string, bool, []string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", false, nil, errors.Wrapf(err, "ファイル読み込みエラー: %s", path)
	}

	fmTitle := ""
	if useFrontMatter {
		t, body, err := SplitFrontMatter(content)
		if err != nil {
			// 区切り線を誤認した場合などはそのまま扱う。
			logger.Warnf("フロントマターを無視します %s: %v", path, err)
		} else {
			fmTitle, content = t, body
		}
	}

	title, ok, body := ExtractTitleAndBody(SplitLines(string(content)))
	if !ok && fmTitle != "" {
		return fmTitle, true, body, nil
	}
	return title, ok, body, nil
}
