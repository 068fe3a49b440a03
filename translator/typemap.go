package translator

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// tsPrimitives maps C# primitive spellings to TypeScript primitives. char has
// no TypeScript counterpart and degrades to a one-character string.
var tsPrimitives = map[string]string{
	"sbyte":   "number",
	"byte":    "number",
	"short":   "number",
	"ushort":  "number",
	"int":     "number",
	"uint":    "number",
	"long":    "number",
	"ulong":   "number",
	"float":   "number",
	"double":  "number",
	"decimal": "number",
	"bool":    "boolean",
	"string":  "string",
	"char":    "string",
	"void":    "void",
	"object":  "any",
}

// containerFamilies groups the supported generic containers. The interface
// spellings are legacy aliases and must map byte-identically to their
// canonical family.
var containerFamilies = map[string]string{
	"List":        "list",
	"IList":       "list",
	"Dictionary":  "map",
	"IDictionary": "map",
	"HashSet":     "set",
	"ISet":        "set",
}

// MapType translates a C# type reference node into a TypeScript annotation.
// It never fails: shapes outside the supported grammar degrade to "any", and
// unknown plain names pass through so that local classes and allow-list
// imports keep their spelling.
func MapType(u *TranslationUnit, n *sitter.Node) string {
	if n == nil {
		return "any"
	}
	switch n.Type() {
	case "predefined_type":
		if ts, ok := tsPrimitives[u.Text(n)]; ok {
			return ts
		}
		return "any"
	case "identifier":
		name := u.Text(n)
		if ts, ok := tsPrimitives[name]; ok {
			return ts
		}
		return name
	case "qualified_name":
		// Namespace qualifiers carry no meaning in the target; keep the
		// rightmost name.
		return MapType(u, fieldNode(n, "name"))
	case "nullable_type":
		inner := fieldNode(n, "type")
		if inner == nil && n.NamedChildCount() > 0 {
			inner = n.NamedChild(0)
		}
		return MapType(u, inner) + " | null"
	case "array_type":
		return MapType(u, fieldNode(n, "type")) + "[]"
	case "generic_name":
		return mapGenericName(u, n)
	case "implicit_type":
		// var declarations carry no annotation; the initializer decides.
		return ""
	}
	return "any"
}

func mapGenericName(u *TranslationUnit, n *sitter.Node) string {
	base := genericBase(u, n)
	args := typeArguments(u, n)

	switch containerFamilies[base] {
	case "list":
		if len(args) == 1 {
			return args[0] + "[]"
		}
	case "map":
		if len(args) == 2 {
			return "Map<" + args[0] + ", " + args[1] + ">"
		}
	case "set":
		if len(args) == 1 {
			return "Set<" + args[0] + ">"
		}
	}
	// Unknown generic: keep the name, propagate mapped arguments.
	return base + "<" + strings.Join(args, ", ") + ">"
}

func typeArguments(u *TranslationUnit, n *sitter.Node) []string {
	list := firstChildOfType(n, "type_argument_list")
	children := namedChildren(list)
	args := make([]string, 0, len(children))
	for _, arg := range children {
		args = append(args, MapType(u, arg))
	}
	return args
}
