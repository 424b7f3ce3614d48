package main

import (
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// 衝突時の方針。
const (
	CollisionOverwrite = "overwrite" // 後勝ち。
	CollisionSuffix    = "suffix"    // -2, -3 ... を付与。
	CollisionKeep      = "keep"      // 後から来た方は元のファイル名のまま。
	CollisionError     = "error"     // 何も書かずにエラー。
)

// ベース名だけでの照合方針。
const (
	FallbackFirst  = "first"
	FallbackUnique = "unique"
	FallbackNone   = "none"
)

// 大文字小文字だけが異なるリネームの扱い。
const (
	CaseRenameRename = "rename"
	CaseRenameKeep   = "keep"
)

// ! フェーズフォルダによる getting-started の特別扱い。
type PhaseRule struct {
	Filename    string `yaml:"filename"`
	TitleFormat string `yaml:"title_format"`
}

// ! 書き換えルール。元々はリポジトリごとに少しずつ違うスクリプトだったものをまとめたもの。
type Rules struct {
	LinkBaseCases  []string  `yaml:"link_base_cases"`
	EmbedExts      []string  `yaml:"embed_exts"`
	EditExts       []string  `yaml:"edit_exts"`
	CodeExts       []string  `yaml:"code_exts"`
	Phase          PhaseRule `yaml:"phase"`
	Collision      string    `yaml:"collision"`
	LookupFallback string    `yaml:"lookup_fallback"`
	IgnoreCase     bool      `yaml:"ignore_case"`
	CaseRename     string    `yaml:"case_rename"`
	FrontMatter    bool      `yaml:"front_matter"`
}

// ! 既定のルール。
func DefaultRules() Rules {
	return Rules{
		LinkBaseCases:  []string{`:\/\/`, `^Home#?`, `^tel:.*`, `^mailto:.*`, `^#`},
		EmbedExts:      []string{"png", "gif", "jpg", "jpeg", "svg", "webp", "uml", "mp4", "mov", "webm"},
		EditExts:       []string{"md"},
		CodeExts:       []string{},
		Phase:          PhaseRule{Filename: "getting-started.md", TitleFormat: "%s — Phase %s"},
		Collision:      CollisionOverwrite,
		LookupFallback: FallbackFirst,
		CaseRename:     CaseRenameRename,
	}
}

// ! ルールファイルを読み込む。pathが空なら既定値を返す。
// ファイルに書かれていない項目は既定値のまま。
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()
	if path == "" {
		return rules, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return rules, errors.Wrapf(err, "ルールファイル読み込みエラー: %s", path)
	}
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return rules, errors.Wrapf(err, "ルールファイル解析エラー: %s", path)
	}
	if _, err := rules.Compile(); err != nil {
		return rules, errors.Wrapf(err, "ルールファイルが不正です: %s", path)
	}
	return rules, nil
}

// ! ルールをYAMLとして出力する。
func (r Rules) YAML() (string, error) {
	out, err := yaml.Marshal(r)
	if err != nil {
		return "", errors.Wrap(err, "ルールのYAML変換に失敗")
	}
	return string(out), nil
}

// ! 実行時に使う形へ変換したルール。
type CompiledRules struct {
	Rules
	baseRe    *regexp.Regexp
	embedExts map[string]bool
	editExts  map[string]bool
	codeExts  map[string]bool
	cleanExt  *regexp.Regexp
	phaseDir  *regexp.Regexp
}

// ! 正規表現のコンパイルと方針の検証を行う。
func (r Rules) Compile() (*CompiledRules, error) {
	c := &CompiledRules{
		Rules:     r,
		embedExts: extSet(r.EmbedExts),
		editExts:  extSet(r.EditExts),
		codeExts:  extSet(r.CodeExts),
		phaseDir:  regexp.MustCompile(`(\d+)`),
	}

	if len(c.editExts) == 0 {
		return nil, errors.New("edit_exts が空です")
	}

	if len(r.LinkBaseCases) > 0 {
		re, err := regexp.Compile(strings.Join(r.LinkBaseCases, "|"))
		if err != nil {
			return nil, errors.Wrap(err, "link_base_cases の正規表現が不正")
		}
		c.baseRe = re
	}

	quoted := make([]string, 0, len(c.editExts))
	for _, ext := range c.EditExtList() {
		quoted = append(quoted, regexp.QuoteMeta(ext))
	}
	c.cleanExt = regexp.MustCompile(`(?i)\.(` + strings.Join(quoted, "|") + `)$`)

	switch r.Collision {
	case CollisionOverwrite, CollisionSuffix, CollisionKeep, CollisionError:
	default:
		return nil, errors.Errorf("collision の値が不正です: %q", r.Collision)
	}
	switch r.LookupFallback {
	case FallbackFirst, FallbackUnique, FallbackNone:
	default:
		return nil, errors.Errorf("lookup_fallback の値が不正です: %q", r.LookupFallback)
	}
	switch r.CaseRename {
	case CaseRenameRename, CaseRenameKeep:
	default:
		return nil, errors.Errorf("case_rename の値が不正です: %q", r.CaseRename)
	}
	if r.Phase.Filename != "" && strings.Count(r.Phase.TitleFormat, "%s") != 2 {
		return nil, errors.Errorf("phase.title_format には %%s が2つ必要です: %q", r.Phase.TitleFormat)
	}

	return c, nil
}

// ! リンク先が書き換え対象外かどうか。
func (c *CompiledRules) IsBaseCase(target string) bool {
	return c.baseRe != nil && c.baseRe.MatchString(target)
}

func (c *CompiledRules) IsEmbed(ext string) bool { return c.embedExts[ext] }
func (c *CompiledRules) IsEdit(ext string) bool  { return c.editExts[ext] }

// code_exts が空なら何でもコードリンク扱い。
func (c *CompiledRules) IsCode(ext string) bool {
	return len(c.codeExts) == 0 || c.codeExts[ext]
}

// ! 編集対象の拡張子を取り除く。
func (c *CompiledRules) StripEditExt(name string) string {
	return c.cleanExt.ReplaceAllString(name, "")
}

func (c *CompiledRules) EditExtList() []string { return keys(c.editExts) }

func extSet(exts []string) map[string]bool {
	set := make(map[string]bool, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext != "" {
			set[ext] = true
		}
	}
	return set
}

func keys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
