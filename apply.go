package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// ! rewriteサブコマンドの実行条件。
type RewriteOptions struct {
	Root         string
	CodeBase     string
	Rules        *CompiledRules
	DryRun       bool
	Suffix       string // 空でなければ <root><suffix> にコピーしてから処理する。
	ConvertHtml  bool
	RenamePrefix string
	Sidebar      bool
}

// ! 実行結果の集計。
type Report struct {
	Root       string
	Scanned    int
	Renamed    int
	Rewritten  int
	Unresolved []UnresolvedLink
}

// ! ツリー全体のタイトル付け・リネーム・リンク書き換えを行う。
func RewriteTree(opts RewriteOptions) (*Report, error) {
	if info, err := os.Stat(opts.Root); err != nil || !info.IsDir() {
		return nil, errors.Errorf("入力ディレクトリが存在しません: %s", opts.Root)
	}

	root := filepath.Clean(opts.Root)
	if opts.Suffix != "" && opts.DryRun {
		logger.Infof("dry-run のためコピーせずに %s を読み取ります", root)
	} else if opts.Suffix != "" {
		out, err := PrepareOutputDir(root, opts.Suffix)
		if err != nil {
			return nil, err
		}
		root = out
	}

	if opts.ConvertHtml {
		if opts.DryRun {
			logger.Infof("dry-run のためHTML変換は行いません")
		} else {
			logger.Infof("HTMLファイル変換を開始します...")
			if err := ProcessHtmlFiles(root); err != nil {
				return nil, errors.Wrap(err, "HTMLファイル変換に失敗")
			}
			logger.Infof("HTMLファイルリネームを開始します...")
			if err := RenameHtmlFiles(root, opts.RenamePrefix); err != nil {
				return nil, errors.Wrap(err, "HTMLファイルリネームに失敗")
			}
		}
	}

	plan, err := BuildPlan(root, opts.Rules)
	if err != nil {
		return nil, err
	}

	rewriter := NewLinkRewriter(plan, opts.CodeBase)
	report := &Report{Root: root, Scanned: len(plan.Entries)}

	bodies := make([][]string, len(plan.Entries))
	for i, e := range plan.Entries {
		bodies[i] = rewriter.RewriteBody(e)
		if e.Renamed() {
			report.Renamed++
			logger.Infof("リネーム: %s → %s", e.Source.FullPath(), e.Target.Filename)
		}
	}
	if !opts.DryRun {
		if err := ApplyPlan(plan, bodies); err != nil {
			return nil, err
		}
	}
	report.Rewritten = rewriter.Rewritten
	report.Unresolved = rewriter.Unresolved

	if opts.Sidebar && !opts.DryRun {
		if err := GenerateSidebar(root, plan); err != nil {
			return nil, errors.Wrap(err, "_Sidebar.md生成に失敗")
		}
	}

	return report, nil
}

// ! 書き換え結果をファイルに反映する。
// まだ無い書き出し先には直接書き、既にある書き出し先(他の移動元や大文字小文字だけの
// リネーム)には隣に一時ファイルを書く。ここで失敗すれば書いたものを消して終わるので
// 元ファイルは残る。全部書けてから移動元を消し、一時ファイルを書き出し先へ移す。
func ApplyPlan(plan *Plan, bodies [][]string) error {
	staged := make([]string, len(plan.Entries)) // 一時ファイル。直接書いたものは空。
	var created []string
	rollback := func() {
		for _, p := range append(created, staged...) {
			if p != "" {
				os.Remove(p)
			}
		}
	}

	claimed := map[string]bool{}
	for i, e := range plan.Entries {
		target := e.Target.FullPath()
		data := []byte(strings.Join(bodies[i], ""))
		_, err := os.Lstat(target)
		if err != nil && !os.IsNotExist(err) {
			rollback()
			return errors.Wrapf(err, "書き出し先を確認できません: %s", target)
		}
		if err != nil && !claimed[target] {
			if err := os.WriteFile(target, data, 0644); err != nil {
				rollback()
				return errors.Wrapf(err, "ファイル書き込みエラー: %s", target)
			}
			created = append(created, target)
			claimed[target] = true
			continue
		}
		tmp, err := writeTemp(e.Target.DirPath, data)
		if err != nil {
			rollback()
			return errors.Wrapf(err, "ファイル書き込みエラー: %s", target)
		}
		staged[i] = tmp
		claimed[target] = true
	}

	// 書き出しは済んでいるので、削除に失敗しても一時ファイルの移動は続ける。
	var removeErr error
	for _, e := range plan.Entries {
		if !e.Renamed() {
			continue
		}
		if err := os.Remove(e.Source.FullPath()); err != nil && !os.IsNotExist(err) && removeErr == nil {
			removeErr = errors.Wrapf(err, "元ファイル削除エラー: %s", e.Source.FullPath())
		}
	}

	// 移動に失敗した一時ファイルは内容を失わないよう残す。
	var renameErr error
	for i, e := range plan.Entries {
		if staged[i] == "" {
			continue
		}
		if err := os.Rename(staged[i], e.Target.FullPath()); err != nil && renameErr == nil {
			renameErr = errors.Wrapf(err, "%s を %s に移動できません", staged[i], e.Target.FullPath())
		}
	}
	if renameErr != nil {
		return renameErr
	}
	return removeErr
}

func writeTemp(dir string, data []byte) (string, error) {
	f, err := os.CreateTemp(dir, ".md2wiki-*.tmp")
	if err != nil {
		return "", err
	}
	if err := f.Chmod(0644); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}
