package translator

import (
	"fmt"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
	sitter "github.com/smacker/go-tree-sitter"
)

// systemIdentifiers maps runtime namespaces of the source to their target
// equivalents. These bypass the camel-casing rule.
var systemIdentifiers = map[string]string{
	"Math":    "Math",
	"Console": "console",
	"Array":   "Array",
	"Double":  "Number",
	"Single":  "Number",
	"Int32":   "Number",
	"Int64":   "Number",
}

// numericReceivers maps primitive type names used in receiver position
// (double.MaxValue, int.Parse) to target namespaces.
var numericReceivers = map[string]string{
	"sbyte":   "Number",
	"byte":    "Number",
	"short":   "Number",
	"ushort":  "Number",
	"int":     "Number",
	"uint":    "Number",
	"long":    "Number",
	"ulong":   "Number",
	"float":   "Number",
	"double":  "Number",
	"decimal": "Number",
	"string":  "String",
	"bool":    "Boolean",
}

// memberRenames is the semantics-preserving member rename table. The source
// and target collection APIs are behaviorally compatible but not
// naming-compatible; every entry here is an explicit, individually tested
// mapping.
var memberRenames = map[string]string{
	"ContainsKey": "has",
	"Contains":    "has",
	"Add":         "set",
	"Remove":      "delete",
	"Clear":       "clear",
	"Keys":        "keys",
	"Values":      "values",
	"Count":       "length",
	"Length":      "length",
	"ToString":    "toString",
	"WriteLine":   "log",
	"Write":       "log",
	"MaxValue":    "MAX_VALUE",
	"MinValue":    "MIN_VALUE",
	"IsNaN":       "isNaN",
	"NaN":         "NaN",
}

// mathRenames maps members of the source Math namespace onto the target Math
// object. Anything absent just camel-cases, which happens to be correct for
// most of the remaining surface.
var mathRenames = map[string]string{
	"Abs":     "abs",
	"Acos":    "acos",
	"Asin":    "asin",
	"Atan":    "atan",
	"Atan2":   "atan2",
	"Ceiling": "ceil",
	"Cos":     "cos",
	"Exp":     "exp",
	"Floor":   "floor",
	"Log":     "log",
	"Max":     "max",
	"Min":     "min",
	"Pow":     "pow",
	"Round":   "round",
	"Sign":    "sign",
	"Sin":     "sin",
	"Sqrt":    "sqrt",
	"Tan":     "tan",
	"PI":      "PI",
	"E":       "E",
}

// hostCallNames are the dynamic "call via string selector" spellings used for
// worker/host message passing. They expand into direct calls to the named
// host function.
var hostCallNames = map[string]bool{
	"CallHost":   true,
	"InvokeHost": true,
}

// integerTargets are the cast targets for which a Math.Floor/Ceiling/Round
// result needs no type assertion.
var integerTargets = map[string]bool{
	"sbyte": true, "byte": true, "short": true, "ushort": true,
	"int": true, "uint": true, "long": true, "ulong": true,
}

// genExpr translates one expression node into target text. It never returns
// an empty string and never panics on unknown kinds: anything outside the
// supported grammar becomes a visible placeholder call.
func (t *translator) genExpr(n *sitter.Node) string {
	if n == nil {
		return `__UNSUPPORTED__("missing")`
	}
	switch n.Type() {
	case "integer_literal", "real_literal":
		return t.unit.Text(n)
	case "string_literal":
		return t.unit.Text(n)
	case "verbatim_string_literal":
		return t.requoteVerbatim(t.unit.Text(n))
	case "raw_string_literal":
		return requoteRaw(t.unit.Text(n))
	case "character_literal":
		return t.charToString(t.unit.Text(n))
	case "boolean_literal":
		return t.unit.Text(n)
	case "null_literal":
		return "null"
	case "this_expression":
		return "this"
	case "predefined_type":
		if ns, ok := numericReceivers[t.unit.Text(n)]; ok {
			return ns
		}
		return t.unit.Text(n)
	case "identifier":
		return t.genIdentifier(t.unit.Text(n))
	case "generic_name":
		return genericBase(t.unit, n)
	case "member_access_expression":
		return t.genMemberAccess(n)
	case "invocation_expression":
		return t.genInvocation(n)
	case "object_creation_expression":
		return t.genObjectCreation(n)
	case "binary_expression":
		return t.genBinary(n)
	case "assignment_expression":
		return t.genAssignment(n)
	case "prefix_unary_expression":
		return t.unit.Text(n.Child(0)) + t.genExpr(n.NamedChild(0))
	case "postfix_unary_expression":
		return t.genExpr(n.NamedChild(0)) + t.unit.Text(n.Child(int(n.ChildCount())-1))
	case "parenthesized_expression":
		return "(" + t.genExpr(n.NamedChild(0)) + ")"
	case "conditional_expression":
		return t.genExpr(fieldNode(n, "condition")) + " ? " +
			t.genExpr(fieldNode(n, "consequence")) + " : " +
			t.genExpr(fieldNode(n, "alternative"))
	case "element_access_expression":
		return t.genElementAccess(n)
	case "cast_expression":
		return t.genCast(n)
	case "array_creation_expression":
		return t.genArrayCreation(n)
	case "implicit_array_creation_expression":
		return t.genInitializerList(firstChildOfType(n, "initializer_expression"))
	case "initializer_expression":
		return t.genInitializerList(n)
	case "qualified_name":
		return t.genExpr(fieldNode(n, "qualifier")) + "." + t.renameMember(t.unit.Text(fieldNode(n, "name")), "")
	case "interpolated_string_expression":
		return t.genInterpolated(n)
	}
	return t.unsupportedExpr(n)
}

func (t *translator) unsupportedExpr(n *sitter.Node) string {
	log.WithFields(log.Fields{
		"file":   t.unit.Name,
		"kind":   n.Type(),
		"source": t.unit.Text(n),
	}).Warn("unsupported expression construct")
	return fmt.Sprintf("__UNSUPPORTED__(%q)", n.Type())
}

// genIdentifier resolves a bare identifier: locals shadow members, instance
// members gain the implicit receiver, static members gain the class
// qualifier, and everything else camel-cases unless it names a type.
func (t *translator) genIdentifier(name string) string {
	if mapped, ok := systemIdentifiers[name]; ok {
		return mapped
	}
	if _, local := t.locals[name]; local {
		return name
	}
	if t.types.IsTypeName(name) || t.cfg.allowsImport(name) || t.isHoisted(name) {
		return name
	}
	if t.class != "" {
		if t.types.IsInstanceField(t.class, name) {
			return "this." + camelCase(name)
		}
		if m := t.types.member(t.class, name); m != nil && m.static && m.kind != methodMember {
			return t.class + "." + camelCase(name)
		}
	}
	return camelCase(name)
}

func (t *translator) genMemberAccess(n *sitter.Node) string {
	exprNode := fieldNode(n, "expression")
	nameNode := fieldNode(n, "name")
	member := t.unit.Text(nameNode)
	if nameNode != nil && nameNode.Type() == "generic_name" {
		member = genericBase(t.unit, nameNode)
	}

	// Pair-iteration aliases replace .Key/.Value accesses on the loop
	// variable with the destructured binding names.
	if exprNode != nil && exprNode.Type() == "identifier" {
		if alias := t.aliases.lookup(t.unit.Text(exprNode)); alias != nil {
			switch member {
			case "Key":
				return alias.keyName
			case "Value":
				return alias.valueName
			}
		}
	}

	lhs := t.genExpr(exprNode)
	return lhs + "." + t.renameMember(member, lhs)
}

// renameMember applies the member rename table; receiver selects the Math
// table when the left side is the Math namespace.
func (t *translator) renameMember(member, receiver string) string {
	if receiver == "Math" {
		if renamed, ok := mathRenames[member]; ok {
			return renamed
		}
		return camelCase(member)
	}
	if renamed, ok := memberRenames[member]; ok {
		return renamed
	}
	return camelCase(member)
}

func (t *translator) genInvocation(n *sitter.Node) string {
	fn := fieldNode(n, "function")
	args := t.genArgs(fieldNode(n, "arguments"))

	// Block copy has no target primitive; expand into slice-then-splice.
	if t.isArrayCopy(fn) && len(args) == 5 {
		src, srcOff, dst, dstOff, count := args[0], args[1], args[2], args[3], args[4]
		return fmt.Sprintf("%s.splice(%s, %s, ...%s.slice(%s, %s + %s))",
			dst, dstOff, count, src, srcOff, srcOff, count)
	}

	// Dynamic call via string selector: expand into a direct host call.
	if name, rest, ok := t.hostCall(fn, n); ok {
		return name + "(" + strings.Join(rest, ", ") + ")"
	}

	// TryGetValue(k, out v) returns a found flag; Map.get does not. Expand
	// into an assignment whose result is tested against undefined.
	if t.isTryGetValue(fn) && len(args) == 2 {
		recv := t.genExpr(fieldNode(fn, "expression"))
		return "(" + args[1] + " = " + recv + ".get(" + args[0] + ")) !== undefined"
	}

	callee := t.genCallee(fn)
	return callee + "(" + strings.Join(args, ", ") + ")"
}

func (t *translator) isTryGetValue(fn *sitter.Node) bool {
	if fn == nil || fn.Type() != "member_access_expression" {
		return false
	}
	return t.unit.Text(fieldNode(fn, "name")) == "TryGetValue"
}

func (t *translator) isArrayCopy(fn *sitter.Node) bool {
	if fn == nil || fn.Type() != "member_access_expression" {
		return false
	}
	return t.unit.Text(fieldNode(fn, "expression")) == "Array" &&
		t.unit.Text(fieldNode(fn, "name")) == "Copy"
}

// hostCall matches CallHost("name", args...) in bare or member form and
// returns the selected host function plus the remaining arguments.
func (t *translator) hostCall(fn, call *sitter.Node) (string, []string, bool) {
	if fn == nil {
		return "", nil, false
	}
	var calleeName string
	switch fn.Type() {
	case "identifier":
		calleeName = t.unit.Text(fn)
	case "member_access_expression":
		calleeName = t.unit.Text(fieldNode(fn, "name"))
	default:
		return "", nil, false
	}
	if !hostCallNames[calleeName] {
		return "", nil, false
	}
	argNodes := t.argExprs(fieldNode(call, "arguments"))
	if len(argNodes) == 0 || argNodes[0].Type() != "string_literal" {
		return "", nil, false
	}
	selector := strings.Trim(t.unit.Text(argNodes[0]), `"`)
	rest := make([]string, 0, len(argNodes)-1)
	for _, a := range argNodes[1:] {
		rest = append(rest, t.genExpr(a))
	}
	return selector, rest, true
}

// genCallee resolves the function position of a generic invocation. A plain
// identifier naming a non-static method of the enclosing type gets the
// implicit receiver; a static one gets the class qualifier.
func (t *translator) genCallee(fn *sitter.Node) string {
	if fn != nil && fn.Type() == "identifier" {
		name := t.unit.Text(fn)
		if t.class != "" {
			if t.types.IsInstanceMethod(t.class, name) {
				return "this." + camelCase(name)
			}
			if t.types.IsStaticMethod(t.class, name) {
				return t.class + "." + camelCase(name)
			}
		}
		return camelCase(name)
	}
	return t.genExpr(fn)
}

// argExprs unwraps an argument_list into its expression nodes.
func (t *translator) argExprs(argList *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for _, child := range namedChildren(argList) {
		if child.Type() == "argument" {
			if inner := child.NamedChild(int(child.NamedChildCount()) - 1); inner != nil {
				out = append(out, inner)
			}
			continue
		}
		out = append(out, child)
	}
	return out
}

func (t *translator) genArgs(argList *sitter.Node) []string {
	nodes := t.argExprs(argList)
	args := make([]string, 0, len(nodes))
	for _, node := range nodes {
		args = append(args, t.genExpr(node))
	}
	return args
}

func (t *translator) genObjectCreation(n *sitter.Node) string {
	typeNode := fieldNode(n, "type")
	base := genericBase(t.unit, typeNode)
	init := firstChildOfType(n, "initializer_expression")
	args := t.genArgs(fieldNode(n, "arguments"))

	switch containerFamilies[base] {
	case "list":
		return t.genInitializerList(init)
	case "map":
		if init == nil {
			return "new Map()"
		}
		var pairs []string
		for _, entry := range namedChildren(init) {
			kv := namedChildren(entry)
			if len(kv) == 2 {
				pairs = append(pairs, "["+t.genExpr(kv[0])+", "+t.genExpr(kv[1])+"]")
			}
		}
		return "new Map([" + strings.Join(pairs, ", ") + "])"
	case "set":
		if init == nil {
			return "new Set()"
		}
		return "new Set(" + t.genInitializerList(init) + ")"
	}

	// Plain-data shapes collapse to a structural literal; anything else with
	// an initializer keeps constructor side effects via construct-then-merge.
	if init != nil {
		literal := t.genMemberInitializer(init)
		if t.cfg.isPlainData(base) || t.isHoisted(base) {
			return literal
		}
		return "Object.assign(new " + base + "(" + strings.Join(args, ", ") + "), " + literal + ")"
	}
	return "new " + base + "(" + strings.Join(args, ", ") + ")"
}

// genMemberInitializer renders { A = 1, B = 2 } as { a: 1, b: 2 }.
func (t *translator) genMemberInitializer(init *sitter.Node) string {
	var fields []string
	for _, entry := range namedChildren(init) {
		if entry.Type() == "assignment_expression" {
			left := fieldNode(entry, "left")
			right := fieldNode(entry, "right")
			fields = append(fields, camelCase(t.unit.Text(left))+": "+t.genExpr(right))
			continue
		}
		fields = append(fields, t.genExpr(entry))
	}
	if len(fields) == 0 {
		return "{}"
	}
	return "{ " + strings.Join(fields, ", ") + " }"
}

func (t *translator) genInitializerList(init *sitter.Node) string {
	if init == nil {
		return "[]"
	}
	var elems []string
	for _, entry := range namedChildren(init) {
		elems = append(elems, t.genExpr(entry))
	}
	return "[" + strings.Join(elems, ", ") + "]"
}

func (t *translator) genBinary(n *sitter.Node) string {
	left := fieldNode(n, "left")
	right := fieldNode(n, "right")
	op := fieldNode(n, "operator")
	opText := ""
	if op != nil {
		opText = t.unit.Text(op)
	} else if n.ChildCount() >= 3 {
		opText = t.unit.Text(n.Child(1))
	}
	// Loose equality in the target is a correctness hazard; strengthen it.
	switch opText {
	case "==":
		opText = "==="
	case "!=":
		opText = "!=="
	}
	return t.genExpr(left) + " " + opText + " " + t.genExpr(right)
}

func (t *translator) genAssignment(n *sitter.Node) string {
	left := fieldNode(n, "left")
	right := fieldNode(n, "right")
	op := fieldNode(n, "operator")
	opText := "="
	if op != nil {
		opText = t.unit.Text(op)
	} else if n.ChildCount() >= 3 {
		opText = t.unit.Text(n.Child(1))
	}
	return t.genExpr(left) + " " + opText + " " + t.genExpr(right)
}

func (t *translator) genElementAccess(n *sitter.Node) string {
	expr := fieldNode(n, "expression")
	subscript := fieldNode(n, "subscript", "arguments")
	if subscript == nil {
		subscript = firstChildOfType(n, "bracketed_argument_list")
	}
	return t.genExpr(expr) + "[" + strings.Join(t.genArgs(subscript), ", ") + "]"
}

// genCast emits a compile-time-only assertion, dropping it entirely when the
// inner expression already produces the requested numeric type.
func (t *translator) genCast(n *sitter.Node) string {
	typeNode := fieldNode(n, "type")
	valueNode := fieldNode(n, "value")
	inner := t.genExpr(valueNode)
	if t.castIsRedundant(typeNode, valueNode) {
		return inner
	}
	return "(" + inner + " as " + MapType(t.unit, typeNode) + ")"
}

// castIsRedundant reports integer casts of Math.Floor/Ceiling/Round results,
// which already yield whole numbers in the target.
func (t *translator) castIsRedundant(typeNode, valueNode *sitter.Node) bool {
	if typeNode == nil || !integerTargets[t.unit.Text(typeNode)] {
		return false
	}
	if valueNode == nil || valueNode.Type() != "invocation_expression" {
		return false
	}
	fn := fieldNode(valueNode, "function")
	if fn == nil || fn.Type() != "member_access_expression" {
		return false
	}
	if t.unit.Text(fieldNode(fn, "expression")) != "Math" {
		return false
	}
	switch t.unit.Text(fieldNode(fn, "name")) {
	case "Floor", "Ceiling", "Round":
		return true
	}
	return false
}

func (t *translator) genArrayCreation(n *sitter.Node) string {
	if init := firstChildOfType(n, "initializer_expression"); init != nil {
		return t.genInitializerList(init)
	}
	arrayType := fieldNode(n, "type")
	elem := MapType(t.unit, fieldNode(arrayType, "type"))
	if rank := fieldNode(arrayType, "rank"); rank != nil {
		if size := rank.NamedChild(0); size != nil {
			return "new Array<" + elem + ">(" + t.genExpr(size) + ")"
		}
	}
	return "[]"
}

// genInterpolated renders an interpolated string as a template literal,
// emulating the :0 and :F format specifiers with rounding calls. Only text
// and hole children contribute output; quote and brace tokens are surfaced
// as named nodes by some grammar versions and must not leak through.
func (t *translator) genInterpolated(n *sitter.Node) string {
	var sb strings.Builder
	sb.WriteByte('`')
	for _, child := range namedChildren(n) {
		switch child.Type() {
		case "interpolation":
			sb.WriteString(t.genInterpolation(child))
		case "interpolated_string_text", "string_content", "escape_sequence", "string_literal_content":
			sb.WriteString(escapeTemplateText(t.unit.Text(child)))
		}
	}
	sb.WriteByte('`')
	return sb.String()
}

// interpolationExpr picks the hole's expression out of an interpolation node,
// skipping the brace tokens and the alignment/format clauses.
func interpolationExpr(n *sitter.Node) *sitter.Node {
	for _, child := range namedChildren(n) {
		switch child.Type() {
		case "interpolation_brace", "interpolation_start", "interpolation_end",
			"interpolation_alignment_clause", "interpolation_format_clause":
			continue
		}
		return child
	}
	return nil
}

func (t *translator) genInterpolation(n *sitter.Node) string {
	inner := t.genExpr(interpolationExpr(n))

	format := ""
	if clause := firstChildOfType(n, "interpolation_format_clause"); clause != nil {
		format = strings.TrimPrefix(t.unit.Text(clause), ":")
	}
	switch {
	case format == "":
		return "${" + inner + "}"
	case format == "0":
		return "${Math.round(" + inner + ")}"
	case format[0] == 'F' || format[0] == 'f':
		digits := 2
		if rest := format[1:]; rest != "" {
			if parsed, err := strconv.Atoi(rest); err == nil {
				digits = parsed
			}
		}
		return "${" + inner + ".toFixed(" + strconv.Itoa(digits) + ")}"
	}
	// Unknown specifier: keep the value, drop the formatting.
	return "${" + inner + "}"
}

func escapeTemplateText(text string) string {
	text = strings.ReplaceAll(text, "`", "\\`")
	text = strings.ReplaceAll(text, "${", "\\${")
	return text
}

// requoteVerbatim converts a verbatim @"..." literal to a regular quoted
// string, unescaping the doubled quotes first.
func (t *translator) requoteVerbatim(text string) string {
	inner := strings.TrimPrefix(text, "@")
	inner = strings.TrimPrefix(inner, `"`)
	inner = strings.TrimSuffix(inner, `"`)
	inner = strings.ReplaceAll(inner, `""`, `"`)
	return strconv.Quote(inner)
}

// requoteRaw converts a raw """...""" literal to a regular quoted string. The
// delimiter is the longest run of quotes shared by both ends, so inner quote
// runs shorter than the delimiter survive.
func requoteRaw(text string) string {
	lead := 0
	for lead < len(text) && text[lead] == '"' {
		lead++
	}
	trail := 0
	for trail < len(text)-lead && text[len(text)-1-trail] == '"' {
		trail++
	}
	delim := lead
	if trail < delim {
		delim = trail
	}
	inner := text[delim : len(text)-delim]
	return strconv.Quote(strings.TrimSpace(inner))
}

// charToString degrades a character literal to a one-character string; the
// target has no distinct character type.
func (t *translator) charToString(text string) string {
	inner := strings.TrimPrefix(text, "'")
	inner = strings.TrimSuffix(inner, "'")
	if inner == `"` {
		return `"\""`
	}
	return `"` + inner + `"`
}
