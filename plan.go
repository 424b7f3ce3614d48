package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// ! 同じ書き出し先に複数のファイルが向かった。
var ErrCollision = errors.New("リネーム先が衝突しています")

// ! 1ファイル分の書き換え予定。
type PlanEntry struct {
	Source   FilePath
	Target   FilePath
	Title    string
	HasTitle bool
	Body     []string
}

func (e *PlanEntry) Renamed() bool {
	return e.Source.FullPath() != e.Target.FullPath()
}

// ! ツリー全体の書き換え予定と照合表。
type Plan struct {
	Root    string
	Entries []*PlanEntry
	Edited  *NameMap // (親, 旧ファイル名) → 新ファイル名。
	Embeds  *NameMap // (親, ファイル名) → rootからの相対パス。
	Rules   *CompiledRules
}

// ! rootを走査して書き換え予定を作る。ファイルにはまだ何も書かない。
func BuildPlan(root string, rules *CompiledRules) (*Plan, error) {
	files, err := FindFilesWithExts(root, rules.editExts)
	if err != nil {
		return nil, err
	}

	plan := &Plan{
		Root:   root,
		Edited: NewNameMap(rules.LookupFallback, rules.IgnoreCase),
		Embeds: NewNameMap(rules.LookupFallback, rules.IgnoreCase),
		Rules:  rules,
	}

	for _, file := range files {
		title, ok, body, err := ReadDocument(file.FullPath(), rules.FrontMatter)
		if err != nil {
			return nil, err
		}
		filename := NewFilename(title, ok, file, rules)
		if rules.CaseRename == CaseRenameKeep && filename != file.Filename && strings.EqualFold(filename, file.Filename) {
			logger.Debugf("大文字小文字のみの変更のため名前を維持: %s", file.FullPath())
			filename = file.Filename
		}
		plan.Entries = append(plan.Entries, &PlanEntry{
			Source:   file,
			Target:   FilePath{DirPath: file.DirPath, Filename: filename},
			Title:    title,
			HasTitle: ok,
			Body:     body,
		})
	}

	if err := plan.resolveCollisions(); err != nil {
		return nil, err
	}

	for _, e := range plan.Entries {
		plan.Edited.Add(e.Source.Parent(), e.Source.Filename, e.Target.Filename)
	}

	embeds, err := FindFilesWithExts(root, rules.embedExts)
	if err != nil {
		return nil, err
	}
	for _, f := range embeds {
		plan.Embeds.Add(f.Parent(), f.Filename, f.RelativeFrom(root))
	}
	logger.Debugf("計画: 文書 %d 件, 埋め込み %d 件", plan.Edited.Len(), plan.Embeds.Len())

	return plan, nil
}

// ! 書き出し先の衝突を方針に従って解消する。
func (p *Plan) resolveCollisions() error {
	fold := func(path string) string {
		if p.Rules.IgnoreCase {
			return strings.ToLower(path)
		}
		return path
	}

	// 移動されずに残るファイルも書き出し先として埋まっている。
	taken := map[string]*PlanEntry{}
	moving := map[string]bool{}
	for _, e := range p.Entries {
		if e.Renamed() {
			moving[fold(e.Source.FullPath())] = true
		}
	}

	for _, e := range p.Entries {
		target := fold(e.Target.FullPath())
		prev, clash := taken[target]
		if !clash && !moving[target] && e.Renamed() && fileExists(e.Target.FullPath()) {
			clash = true
		}
		if !clash {
			taken[target] = e
			continue
		}

		other := "既存ファイル"
		if prev != nil {
			other = prev.Source.FullPath()
		}

		switch p.Rules.Collision {
		case CollisionError:
			return errors.Wrapf(ErrCollision, "%s と %s → %s", other, e.Source.FullPath(), e.Target.FullPath())
		case CollisionKeep:
			logger.Warnf("リネーム先が衝突するため元の名前を維持: %s (%s)", e.Source.FullPath(), other)
			e.Target.Filename = e.Source.Filename
		case CollisionSuffix:
			base := strings.TrimSuffix(e.Target.Filename, filepath.Ext(e.Target.Filename))
			ext := filepath.Ext(e.Target.Filename)
			for n := 2; ; n++ {
				candidate := FilePath{DirPath: e.Target.DirPath, Filename: fmt.Sprintf("%s-%d%s", base, n, ext)}
				key := fold(candidate.FullPath())
				if _, used := taken[key]; used {
					continue
				}
				if !moving[key] && fileExists(candidate.FullPath()) {
					continue
				}
				logger.Warnf("リネーム先が衝突するため連番を付与: %s → %s", e.Source.FullPath(), candidate.Filename)
				e.Target = candidate
				break
			}
		default:
			logger.Warnf("リネーム先が衝突しています。後のファイルで上書きします: %s (%s)", e.Target.FullPath(), other)
		}
		taken[fold(e.Target.FullPath())] = e
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
