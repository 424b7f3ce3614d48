package main

import (
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// ! 出力ディレクトリ <root><suffix> を用意する。
// 存在しなければツリー全体をコピーし、既にあればそのまま使う。
func PrepareOutputDir(root, suffix string) (string, error) {
	inputDir := filepath.Clean(root)
	outputDir := filepath.Join(filepath.Dir(inputDir), filepath.Base(inputDir)+suffix)

	if _, err := os.Stat(outputDir); os.IsNotExist(err) {
		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return "", errors.Wrapf(err, "出力ディレクトリの作成に失敗: %s", outputDir)
		}
		if err := CopyDirectory(inputDir, outputDir); err != nil {
			return "", errors.Wrapf(err, "ディレクトリコピーに失敗: %s", outputDir)
		}
		logger.Infof("コピー完了: %s → %s", inputDir, outputDir)
	} else {
		logger.Infof("出力ディレクトリが既に存在します: %s", outputDir)
	}
	return outputDir, nil
}

// コピーしないバージョン管理用ディレクトリ。
var vcsDirs = map[string]bool{".git": true, ".hg": true, ".svn": true}

// ! ディレクトリを再帰的にコピーする。バージョン管理用ディレクトリは除く。
func CopyDirectory(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() && path != src && vcsDirs[info.Name()] {
			logger.Debugf("スキップ: %s", path)
			return filepath.SkipDir
		}

		relPath, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		dstPath := filepath.Join(dst, relPath)

		if info.IsDir() {
			return os.MkdirAll(dstPath, info.Mode()|0700)
		}
		return CopyFile(path, dstPath)
	})
}

// ! 単一ファイルをコピーする。
func CopyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}

	dstFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer dstFile.Close()

	_, err = io.Copy(dstFile, srcFile)
	return err
}
