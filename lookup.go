package main

import "strings"

type nameKey struct {
	parent string
	name   string
}

// ! (親ディレクトリ名, ベース名) → 値 の表。
// 完全一致で見つからなければベース名だけで探す。
type NameMap struct {
	exact      map[nameKey]string
	byName     map[string][]string
	fallback   string
	ignoreCase bool
}

func NewNameMap(fallback string, ignoreCase bool) *NameMap {
	return &NameMap{
		exact:      map[nameKey]string{},
		byName:     map[string][]string{},
		fallback:   fallback,
		ignoreCase: ignoreCase,
	}
}

func (m *NameMap) fold(s string) string {
	if m.ignoreCase {
		return strings.ToLower(s)
	}
	return s
}

// ! 登録する。同じキーは先勝ち。
func (m *NameMap) Add(parent, name, value string) {
	key := nameKey{m.fold(parent), m.fold(name)}
	if _, ok := m.exact[key]; !ok {
		m.exact[key] = value
	}
	m.byName[key.name] = append(m.byName[key.name], value)
}

// ! linkDirが空ならcurrentParentを親ディレクトリとして引く。
func (m *NameMap) Get(linkDir, currentParent, name string) (string, bool) {
	dir := linkDir
	if dir == "" {
		dir = currentParent
	}
	if v, ok := m.exact[nameKey{m.fold(dir), m.fold(name)}]; ok {
		return v, true
	}

	candidates := m.byName[m.fold(name)]
	switch m.fallback {
	case FallbackFirst:
		if len(candidates) > 0 {
			return candidates[0], true
		}
	case FallbackUnique:
		if len(candidates) == 1 {
			return candidates[0], true
		}
	}
	return "", false
}

func (m *NameMap) Len() int { return len(m.exact) }
