package translator

import (
	"fmt"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	sitter "github.com/smacker/go-tree-sitter"
)

const indentUnit = "  "

// aliasScope is the pair-iteration alias map for one enumeration loop: it
// maps the loop variable to the synthesized key/value binding names, and
// chains to the scope of the enclosing loop. Lookups walk the chain so outer
// aliases stay visible inside nested loops; exiting a loop restores prev,
// including nil when no scope was active.
type aliasScope struct {
	loopVar   string
	keyName   string
	valueName string
	// valueTypeText is the declared C# type of the dictionary's values,
	// needed when the loop body enumerates .Value again.
	valueTypeText string
	prev          *aliasScope
}

func (s *aliasScope) lookup(name string) *aliasScope {
	for scope := s; scope != nil; scope = scope.prev {
		if scope.loopVar == name {
			return scope
		}
	}
	return nil
}

// translator holds the per-file generator state: output buffer, indentation
// depth, the enclosing class, the active pair-iteration alias scope and the
// local declared-type map. One instance per file; nothing is shared across
// files, so independent files translate concurrently.
type translator struct {
	unit  *TranslationUnit
	types *TypeContext
	cfg   *Config

	sb      strings.Builder
	indent  int
	class   string
	aliases *aliasScope
	locals  map[string]string // source local name -> declared C# type text
	hoisted map[string]struct{}
}

// Translate renders one translation unit as TypeScript source. Fatal units
// return an ErrFrontend-wrapped error; unsupported constructs inside a
// healthy unit degrade to placeholder tokens and never fail the file.
func Translate(unit *TranslationUnit, types *TypeContext, cfg *Config) (string, error) {
	if unit.Fatal {
		return "", fmt.Errorf("%w: %s: %s", ErrFrontend, unit.Name, strings.Join(unit.Diagnostics, "; "))
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if types == nil {
		types = NewTypeContext()
		types.AddUnit(unit)
	}

	t := &translator{
		unit:    unit,
		types:   types,
		cfg:     cfg,
		locals:  make(map[string]string),
		hoisted: make(map[string]struct{}),
	}

	nested := CollectNestedTypes(unit)
	for _, n := range nested {
		t.hoisted[unit.Text(fieldNode(n, "name"))] = struct{}{}
	}

	t.writeLine("// Generated by sharp2ts from " + filepath.Base(unit.Name) + ". Do not edit.")
	t.writeLine("")

	if imports := importSet(unit, cfg); len(imports) > 0 {
		t.writeLine("import { " + strings.Join(imports, ", ") + ` } from "` + cfg.CompanionModule + `";`)
		t.writeLine("")
	}

	for _, n := range nested {
		t.emitHoistedType(n)
		t.writeLine("")
	}

	for _, child := range namedChildren(unit.Root()) {
		t.visitTopLevel(child)
	}
	return t.sb.String(), nil
}

func (t *translator) isHoisted(name string) bool {
	_, ok := t.hoisted[name]
	return ok
}

func (t *translator) writeLine(s string) {
	if s == "" {
		t.sb.WriteByte('\n')
		return
	}
	t.sb.WriteString(strings.Repeat(indentUnit, t.indent))
	t.sb.WriteString(s)
	t.sb.WriteByte('\n')
}

func (t *translator) unsupportedStmt(n *sitter.Node) {
	log.WithFields(log.Fields{
		"file": t.unit.Name,
		"kind": n.Type(),
	}).Warn("unsupported statement construct")
	t.writeLine("// __UNSUPPORTED__: " + n.Type())
}

// emitHoistedType converts a nested type declaration into a standalone
// structural type: settable members become fields, behavior is dropped.
func (t *translator) emitHoistedType(n *sitter.Node) {
	name := t.unit.Text(fieldNode(n, "name"))
	t.writeLine("interface " + name + " {")
	t.indent++
	for _, member := range namedChildren(fieldNode(n, "body")) {
		switch member.Type() {
		case "field_declaration":
			if hasModifier(t.unit, member, "readonly") || hasModifier(t.unit, member, "const") {
				continue
			}
			decl := firstChildOfType(member, "variable_declaration")
			typeNode := fieldNode(decl, "type")
			for _, d := range childrenOfType(decl, "variable_declarator") {
				t.writeLine(camelCase(declaratorName(t.unit, d)) + ": " + MapType(t.unit, typeNode) + ";")
			}
		case "property_declaration":
			pname := t.unit.Text(fieldNode(member, "name"))
			t.writeLine(camelCase(pname) + ": " + MapType(t.unit, fieldNode(member, "type")) + ";")
		}
	}
	t.indent--
	t.writeLine("}")
}

func (t *translator) visitTopLevel(n *sitter.Node) {
	switch n.Type() {
	case "using_directive", "comment":
		// Using directives have no counterpart; the import block already
		// covers external references.
	case "namespace_declaration":
		t.writeLine("// namespace " + t.unit.Text(fieldNode(n, "name")))
		for _, child := range namedChildren(fieldNode(n, "body")) {
			t.visitTopLevel(child)
		}
	case "file_scoped_namespace_declaration":
		t.writeLine("// namespace " + t.unit.Text(fieldNode(n, "name")))
		for _, child := range namedChildren(n) {
			if child.Type() != "identifier" && child.Type() != "qualified_name" {
				t.visitTopLevel(child)
			}
		}
	case "class_declaration", "struct_declaration":
		t.visitClass(n)
	default:
		t.unsupportedStmt(n)
	}
}

func (t *translator) visitClass(n *sitter.Node) {
	name := t.unit.Text(fieldNode(n, "name"))
	prevClass := t.class
	t.class = name
	defer func() { t.class = prevClass }()

	t.writeLine("export class " + name + " {")
	t.indent++
	for _, member := range namedChildren(fieldNode(n, "body")) {
		switch member.Type() {
		case "comment":
		case "field_declaration":
			t.emitField(member)
		case "property_declaration":
			t.emitProperty(member)
		case "method_declaration":
			t.emitMethod(member)
		case "constructor_declaration":
			t.emitConstructor(member)
		case "class_declaration", "struct_declaration":
			// Already hoisted by the pre-pass; not re-emitted here.
		default:
			t.unsupportedStmt(member)
		}
	}
	t.indent--
	t.writeLine("}")
}

// modifierPrefix keeps only modifiers the target does not default to:
// public is the target default and is dropped.
func (t *translator) modifierPrefix(n *sitter.Node) string {
	var prefix string
	if hasModifier(t.unit, n, "private") {
		prefix += "private "
	} else if hasModifier(t.unit, n, "protected") {
		prefix += "protected "
	}
	if hasModifier(t.unit, n, "static") {
		prefix += "static "
	}
	if hasModifier(t.unit, n, "readonly") {
		prefix += "readonly "
	}
	return prefix
}

func (t *translator) emitField(n *sitter.Node) {
	prefix := t.modifierPrefix(n)
	decl := firstChildOfType(n, "variable_declaration")
	typeNode := fieldNode(decl, "type")
	for _, d := range childrenOfType(decl, "variable_declarator") {
		line := prefix + camelCase(declaratorName(t.unit, d)) + ": " + MapType(t.unit, typeNode)
		if init := declaratorValue(d); init != nil {
			line += " = " + t.genExpr(init)
		}
		t.writeLine(line + ";")
	}
}

func (t *translator) emitProperty(n *sitter.Node) {
	prefix := t.modifierPrefix(n)
	name := camelCase(t.unit.Text(fieldNode(n, "name")))
	tsType := MapType(t.unit, fieldNode(n, "type"))

	// Expression-bodied properties become getters; auto-properties become
	// plain fields.
	if arrow := firstChildOfType(n, "arrow_expression_clause"); arrow != nil {
		t.writeLine(prefix + "get " + name + "(): " + tsType + " {")
		t.indent++
		t.writeLine("return " + t.genExpr(arrow.NamedChild(0)) + ";")
		t.indent--
		t.writeLine("}")
		return
	}

	line := prefix + name + ": " + tsType
	if init := firstChildOfType(n, "equals_value_clause"); init != nil {
		line += " = " + t.genExpr(init.NamedChild(0))
	}
	t.writeLine(line + ";")
}

func (t *translator) emitMethod(n *sitter.Node) {
	t.locals = make(map[string]string)
	prefix := t.modifierPrefix(n)
	name := camelCase(t.unit.Text(fieldNode(n, "name")))
	returns := MapType(t.unit, fieldNode(n, "returns", "type"))
	params := t.paramList(fieldNode(n, "parameters"))

	t.writeLine(prefix + name + "(" + params + "): " + returns + " {")
	t.indent++
	t.emitFunctionBody(n)
	t.indent--
	t.writeLine("}")
}

func (t *translator) emitConstructor(n *sitter.Node) {
	t.locals = make(map[string]string)
	params := t.paramList(fieldNode(n, "parameters"))
	t.writeLine("constructor(" + params + ") {")
	t.indent++
	t.emitFunctionBody(n)
	t.indent--
	t.writeLine("}")
}

func (t *translator) emitFunctionBody(n *sitter.Node) {
	if body := fieldNode(n, "body"); body != nil && body.Type() == "block" {
		for _, stmt := range namedChildren(body) {
			t.visitStmt(stmt)
		}
		return
	}
	if arrow := firstChildOfType(n, "arrow_expression_clause"); arrow != nil {
		t.writeLine("return " + t.genExpr(arrow.NamedChild(0)) + ";")
	}
}

func (t *translator) paramList(n *sitter.Node) string {
	var params []string
	for _, p := range childrenOfType(n, "parameter") {
		pname := t.unit.Text(fieldNode(p, "name"))
		typeNode := fieldNode(p, "type")
		t.locals[pname] = t.unit.Text(typeNode)
		param := pname + ": " + MapType(t.unit, typeNode)
		if def := firstChildOfType(p, "equals_value_clause"); def != nil {
			param += " = " + t.genExpr(def.NamedChild(0))
		}
		params = append(params, param)
	}
	return strings.Join(params, ", ")
}

func (t *translator) visitStmt(n *sitter.Node) {
	switch n.Type() {
	case "comment":
	case "block":
		t.writeLine("{")
		t.emitBodyInner(n)
		t.writeLine("}")
	case "local_declaration_statement":
		t.emitLocalDecl(firstChildOfType(n, "variable_declaration"))
	case "expression_statement":
		t.writeLine(t.genExpr(n.NamedChild(0)) + ";")
	case "if_statement":
		t.emitIf(n)
	case "for_statement":
		t.emitFor(n)
	case "foreach_statement", "for_each_statement":
		t.emitForEach(n)
	case "while_statement":
		t.writeLine("while (" + t.genExpr(fieldNode(n, "condition")) + ") {")
		t.emitBodyInner(fieldNode(n, "body"))
		t.writeLine("}")
	case "return_statement":
		if expr := n.NamedChild(0); expr != nil {
			t.writeLine("return " + t.genExpr(expr) + ";")
		} else {
			t.writeLine("return;")
		}
	case "break_statement":
		t.writeLine("break;")
	case "continue_statement":
		t.writeLine("continue;")
	case "throw_statement":
		if expr := n.NamedChild(0); expr != nil {
			t.writeLine("throw " + t.genExpr(expr) + ";")
		} else {
			t.writeLine("throw;")
		}
	default:
		t.unsupportedStmt(n)
	}
}

// pushLocals opens a new local scope backed by a copy of the current one and
// returns the enclosing scope for the caller to restore. Locals declared
// inside a block must not shadow fields past the block's end.
func (t *translator) pushLocals() map[string]string {
	saved := t.locals
	next := make(map[string]string, len(saved))
	for name, typeText := range saved {
		next[name] = typeText
	}
	t.locals = next
	return saved
}

// emitBodyInner writes a loop or branch body one level deeper. The body may
// be a block or a single statement; either way the indentation depth and the
// local scope are restored on exit.
func (t *translator) emitBodyInner(body *sitter.Node) {
	t.indent++
	saved := t.pushLocals()
	defer func() {
		t.locals = saved
		t.indent--
	}()
	if body == nil {
		return
	}
	if body.Type() == "block" {
		for _, stmt := range namedChildren(body) {
			t.visitStmt(stmt)
		}
		return
	}
	t.visitStmt(body)
}

// bindingKeyword picks the target binding form for a local. This is the
// suffix naming convention, not a data-flow proof: names ending in Const opt
// into an immutable binding, everything else stays mutable.
func bindingKeyword(name string) string {
	if strings.HasSuffix(name, "Const") {
		return "const"
	}
	return "let"
}

func (t *translator) emitLocalDecl(decl *sitter.Node) {
	if decl == nil {
		return
	}
	typeNode := fieldNode(decl, "type")
	typeText := t.unit.Text(typeNode)
	explicit := typeNode != nil && typeNode.Type() != "implicit_type"
	for _, d := range childrenOfType(decl, "variable_declarator") {
		name := declaratorName(t.unit, d)
		t.locals[name] = typeText
		line := bindingKeyword(name) + " " + name
		if explicit {
			line += ": " + MapType(t.unit, typeNode)
		}
		if init := declaratorValue(d); init != nil {
			line += " = " + t.genExpr(init)
		}
		t.writeLine(line + ";")
	}
}

// declaratorValue returns the initializer expression of a variable
// declarator, tolerant of grammars with and without an equals_value_clause
// wrapper node.
func declaratorValue(d *sitter.Node) *sitter.Node {
	if d == nil {
		return nil
	}
	if clause := firstChildOfType(d, "equals_value_clause"); clause != nil {
		return clause.NamedChild(0)
	}
	count := int(d.NamedChildCount())
	if count > 1 {
		return d.NamedChild(count - 1)
	}
	return nil
}

func (t *translator) emitIf(n *sitter.Node) {
	t.writeLine("if (" + t.genExpr(fieldNode(n, "condition")) + ") {")
	t.emitBodyInner(fieldNode(n, "consequence"))

	alt := fieldNode(n, "alternative")
	for alt != nil {
		if alt.Type() == "if_statement" {
			t.writeLine("} else if (" + t.genExpr(fieldNode(alt, "condition")) + ") {")
			t.emitBodyInner(fieldNode(alt, "consequence"))
			alt = fieldNode(alt, "alternative")
			continue
		}
		t.writeLine("} else {")
		t.emitBodyInner(alt)
		alt = nil
	}
	t.writeLine("}")
}

func (t *translator) emitFor(n *sitter.Node) {
	saved := t.pushLocals()
	defer func() { t.locals = saved }()

	initStr := ""
	if init := fieldNode(n, "initializer"); init != nil {
		if init.Type() == "variable_declaration" {
			initStr = t.inlineDecl(init)
		} else {
			initStr = t.genExpr(init)
		}
	}
	condStr := ""
	if cond := fieldNode(n, "condition"); cond != nil {
		condStr = t.genExpr(cond)
	}
	updStr := ""
	if upd := fieldNode(n, "update"); upd != nil {
		updStr = t.genExpr(upd)
	}
	t.writeLine("for (" + initStr + "; " + condStr + "; " + updStr + ") {")
	t.emitBodyInner(fieldNode(n, "body"))
	t.writeLine("}")
}

// inlineDecl renders a variable declaration for a for-loop header, without
// the trailing semicolon or type annotation.
func (t *translator) inlineDecl(decl *sitter.Node) string {
	typeText := t.unit.Text(fieldNode(decl, "type"))
	var parts []string
	kw := "let"
	for _, d := range childrenOfType(decl, "variable_declarator") {
		name := declaratorName(t.unit, d)
		t.locals[name] = typeText
		kw = bindingKeyword(name)
		part := name
		if init := declaratorValue(d); init != nil {
			part += " = " + t.genExpr(init)
		}
		parts = append(parts, part)
	}
	return kw + " " + strings.Join(parts, ", ")
}

func (t *translator) emitForEach(n *sitter.Node) {
	saved := t.pushLocals()
	defer func() { t.locals = saved }()

	left := fieldNode(n, "left")
	right := fieldNode(n, "right")
	body := fieldNode(n, "body")
	if left == nil || left.Type() != "identifier" {
		t.unsupportedStmt(n)
		return
	}
	loopVar := t.unit.Text(left)
	rightStr := t.genExpr(right)
	collectionType := t.declaredTypeOf(right)

	if declaredTypeFamily(collectionType) == "map" {
		// Dictionary-like enumeration needs pair destructuring; .Key/.Value
		// accesses in the body resolve through the alias scope.
		keyName := loopVar + "Key"
		valueName := loopVar + "Value"
		t.writeLine("for (const [" + keyName + ", " + valueName + "] of " + rightStr + ") {")

		saved := t.aliases
		t.aliases = &aliasScope{
			loopVar:       loopVar,
			keyName:       keyName,
			valueName:     valueName,
			valueTypeText: genericValueType(collectionType),
			prev:          saved,
		}
		t.emitBodyInner(body)
		t.aliases = saved

		t.writeLine("}")
		return
	}

	if typeNode := fieldNode(n, "type"); typeNode != nil && typeNode.Type() != "implicit_type" {
		t.locals[loopVar] = t.unit.Text(typeNode)
	} else {
		t.locals[loopVar] = elementTypeText(collectionType)
	}
	t.writeLine("for (const " + loopVar + " of " + rightStr + ") {")
	t.emitBodyInner(body)
	t.writeLine("}")
}

// declaredTypeOf resolves the declared C# type text of an expression, using
// locals, the shared type context and the active alias scope. Returns ""
// when unknown; unknown types simply fall back to list-style enumeration.
func (t *translator) declaredTypeOf(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	switch n.Type() {
	case "identifier":
		name := t.unit.Text(n)
		if typeText, ok := t.locals[name]; ok {
			return typeText
		}
		if t.class != "" {
			return t.types.MemberType(t.class, name)
		}
		return ""
	case "member_access_expression":
		exprNode := fieldNode(n, "expression")
		member := t.unit.Text(fieldNode(n, "name"))
		if exprNode == nil {
			return ""
		}
		if exprNode.Type() == "this_expression" {
			return t.types.MemberType(t.class, member)
		}
		if exprNode.Type() == "identifier" {
			if alias := t.aliases.lookup(t.unit.Text(exprNode)); alias != nil && member == "Value" {
				return alias.valueTypeText
			}
		}
		owner := declaredTypeBase(t.declaredTypeOf(exprNode))
		if owner != "" {
			return t.types.MemberType(owner, member)
		}
		return ""
	case "element_access_expression":
		return elementTypeText(t.declaredTypeOf(fieldNode(n, "expression")))
	case "invocation_expression":
		return t.declaredTypeOf(fieldNode(n, "function"))
	case "parenthesized_expression":
		return t.declaredTypeOf(n.NamedChild(0))
	}
	return ""
}

func declaredTypeFamily(typeText string) string {
	return containerFamilies[declaredTypeBase(typeText)]
}

// splitGenericArgs splits "K, V" style argument lists at top level only,
// leaving nested generics intact.
func splitGenericArgs(typeText string) []string {
	start := strings.IndexByte(typeText, '<')
	end := strings.LastIndexByte(typeText, '>')
	if start < 0 || end <= start {
		return nil
	}
	inner := typeText[start+1 : end]

	var args []string
	var current strings.Builder
	depth := 0
	for _, ch := range inner {
		switch ch {
		case '<':
			depth++
			current.WriteRune(ch)
		case '>':
			depth--
			current.WriteRune(ch)
		case ',':
			if depth == 0 {
				args = append(args, strings.TrimSpace(current.String()))
				current.Reset()
			} else {
				current.WriteRune(ch)
			}
		default:
			current.WriteRune(ch)
		}
	}
	if trimmed := strings.TrimSpace(current.String()); trimmed != "" {
		args = append(args, trimmed)
	}
	return args
}

// genericValueType returns V for a Dictionary<K, V> type text.
func genericValueType(typeText string) string {
	args := splitGenericArgs(typeText)
	if len(args) == 2 {
		return args[1]
	}
	return ""
}

// elementTypeText returns the element type of an array or single-argument
// container type text.
func elementTypeText(typeText string) string {
	trimmed := strings.TrimSpace(typeText)
	if strings.HasSuffix(trimmed, "[]") {
		return strings.TrimSuffix(trimmed, "[]")
	}
	switch declaredTypeFamily(trimmed) {
	case "list", "set":
		args := splitGenericArgs(trimmed)
		if len(args) == 1 {
			return args[0]
		}
	}
	return ""
}
