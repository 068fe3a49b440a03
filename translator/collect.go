package translator

import (
	"sort"

	sitter "github.com/smacker/go-tree-sitter"
)

// CollectReferences walks the unit's tree exactly once, recording every simple
// and generic identifier into the caller-owned refs set. It returns the number
// of named nodes visited so callers can assert traversal parity against a
// known fixture.
func CollectReferences(u *TranslationUnit, refs map[string]struct{}) int {
	return collectRefs(u, u.Root(), refs)
}

func collectRefs(u *TranslationUnit, n *sitter.Node, refs map[string]struct{}) int {
	if n == nil {
		return 0
	}
	visited := 1
	switch n.Type() {
	case "identifier":
		refs[u.Text(n)] = struct{}{}
	case "generic_name":
		refs[genericBase(u, n)] = struct{}{}
	}
	for _, child := range namedChildren(n) {
		visited += collectRefs(u, child, refs)
	}
	return visited
}

// CollectNestedTypes walks the unit's tree exactly once and returns, in source
// order, every class or struct declaration nested inside another type
// declaration. The target grammar has no nested classes, so these get hoisted
// into top-level structural types ahead of the main class body.
func CollectNestedTypes(u *TranslationUnit) []*sitter.Node {
	var nested []*sitter.Node
	collectNested(u.Root(), 0, &nested)
	return nested
}

func collectNested(n *sitter.Node, typeDepth int, out *[]*sitter.Node) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "class_declaration", "struct_declaration":
		if typeDepth > 0 {
			*out = append(*out, n)
		}
		typeDepth++
	}
	for _, child := range namedChildren(n) {
		collectNested(child, typeDepth, out)
	}
}

// importSet computes the sorted import block contents for one unit: every
// referenced identifier that is on the companion-module allow-list and is not
// declared inside the unit itself. Names outside the allow-list are never
// imported, even when they appear free in the source.
func importSet(u *TranslationUnit, cfg *Config) []string {
	refs := make(map[string]struct{})
	CollectReferences(u, refs)

	declared := make(map[string]struct{})
	markDeclaredTypes(u, u.Root(), declared)

	var names []string
	for name := range refs {
		if !cfg.allowsImport(name) {
			continue
		}
		if _, local := declared[name]; local {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func markDeclaredTypes(u *TranslationUnit, n *sitter.Node, declared map[string]struct{}) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "class_declaration", "struct_declaration", "enum_declaration", "interface_declaration":
		if name := fieldNode(n, "name"); name != nil {
			declared[u.Text(name)] = struct{}{}
		}
	}
	for _, child := range namedChildren(n) {
		markDeclaredTypes(u, child, declared)
	}
}
