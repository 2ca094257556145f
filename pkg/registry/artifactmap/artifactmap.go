// Copyright © 2020 Skyline Tools

// Package artifactmap maps external artifact coordinates to modules of the
// estate.
//
// Reference declarations may name an artifact (e.g. a maven-style
// "group:name" coordinate) instead of a module path. The mapper turns such
// coordinates back into module paths, so the engine can follow the edge.
package artifactmap

import (
	"sort"
	"strings"
)

// Rule maps one coordinate prefix to a module path.
type Rule struct {
	Prefix string `yaml:"prefix"`
	Module string `yaml:"module"`
	_      struct{}
}

// Mapper resolves artifact coordinates by longest matching prefix.
type Mapper struct {
	rules []Rule
}

// New builds a mapper from rules. Rules are kept sorted by decreasing prefix
// length so the most specific one wins.
func New(rules []Rule) *Mapper {
	sorted := make([]Rule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].Prefix) > len(sorted[j].Prefix)
	})
	return &Mapper{rules: sorted}
}

// Map yields the module path for a coordinate, or false when no rule
// applies.
func (m *Mapper) Map(coordinate string) (string, bool) {
	for _, rule := range m.rules {
		if strings.HasPrefix(coordinate, rule.Prefix) {
			return rule.Module, true
		}
	}
	return "", false
}
