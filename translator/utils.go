package translator

import (
	"strings"
	"unicode"

	sitter "github.com/smacker/go-tree-sitter"
)

// fieldNode returns the first non-nil child for any of the given field names.
// Grammar versions disagree on some field spellings (e.g. the return type of a
// method is "returns" in newer grammars, "type" in older ones), so lookups go
// through this helper instead of hardcoding one spelling.
func fieldNode(n *sitter.Node, names ...string) *sitter.Node {
	if n == nil {
		return nil
	}
	for _, name := range names {
		if c := n.ChildByFieldName(name); c != nil {
			return c
		}
	}
	return nil
}

// namedChildren returns all named children of n in order.
func namedChildren(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	count := int(n.NamedChildCount())
	out := make([]*sitter.Node, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, n.NamedChild(i))
	}
	return out
}

// childrenOfType returns the named children of n with the given node kind.
func childrenOfType(n *sitter.Node, kind string) []*sitter.Node {
	var out []*sitter.Node
	for _, c := range namedChildren(n) {
		if c.Type() == kind {
			out = append(out, c)
		}
	}
	return out
}

// firstChildOfType returns the first named child of n with the given kind.
func firstChildOfType(n *sitter.Node, kind string) *sitter.Node {
	for _, c := range namedChildren(n) {
		if c.Type() == kind {
			return c
		}
	}
	return nil
}

// hasModifier reports whether a declaration node carries the given modifier
// keyword (static, readonly, private, ...).
func hasModifier(u *TranslationUnit, n *sitter.Node, modifier string) bool {
	for _, c := range childrenOfType(n, "modifier") {
		if u.Text(c) == modifier {
			return true
		}
	}
	return false
}

// camelCase lowers the first rune of a Pascal-cased name. Names that are
// already camel-cased pass through unchanged.
func camelCase(name string) string {
	if name == "" {
		return name
	}
	runes := []rune(name)
	if !unicode.IsUpper(runes[0]) {
		return name
	}
	runes[0] = unicode.ToLower(runes[0])
	return string(runes)
}

// genericBase returns the name before the type-argument list, for either a
// plain identifier node or a generic_name node.
func genericBase(u *TranslationUnit, n *sitter.Node) string {
	if n == nil {
		return ""
	}
	if n.Type() == "generic_name" {
		if id := firstChildOfType(n, "identifier"); id != nil {
			return u.Text(id)
		}
	}
	text := u.Text(n)
	if i := strings.IndexByte(text, '<'); i >= 0 {
		return text[:i]
	}
	return text
}

// declaredTypeBase strips the generic arguments, nullability marker and array
// rank off a declared C# type's text, leaving the family name.
func declaredTypeBase(typeText string) string {
	t := strings.TrimSpace(typeText)
	if i := strings.IndexByte(t, '<'); i >= 0 {
		t = t[:i]
	}
	t = strings.TrimSuffix(t, "?")
	if i := strings.IndexByte(t, '['); i >= 0 {
		t = t[:i]
	}
	return strings.TrimSpace(t)
}
