package translator

import (
	sitter "github.com/smacker/go-tree-sitter"
)

type memberKind int

const (
	fieldMember memberKind = iota
	propertyMember
	methodMember
)

type memberInfo struct {
	name     string
	kind     memberKind
	static   bool
	typeText string // declared C# type for fields/properties, return type for methods
}

type classInfo struct {
	name    string
	nested  bool
	members map[string]*memberInfo
}

// TypeContext is the shared symbol view spanning every unit of one batch. It
// answers the one semantic question translation needs — does this identifier
// name a non-static member of the enclosing type — plus declared-type lookups
// used to tell dictionary enumeration apart from list enumeration.
//
// The context is built once, before any file is translated, and is read-only
// afterwards, so independent files can translate concurrently against it.
type TypeContext struct {
	classes map[string]*classInfo
}

// NewTypeContext returns an empty context.
func NewTypeContext() *TypeContext {
	return &TypeContext{classes: make(map[string]*classInfo)}
}

// AddUnit scans one unit's tree and records every type declaration with its
// members. Fatal units contribute nothing.
func (c *TypeContext) AddUnit(u *TranslationUnit) {
	if u == nil || u.Fatal {
		return
	}
	c.scan(u, u.Root(), 0)
}

func (c *TypeContext) scan(u *TranslationUnit, n *sitter.Node, typeDepth int) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "class_declaration", "struct_declaration":
		c.addClass(u, n, typeDepth > 0)
		if body := fieldNode(n, "body"); body != nil {
			for _, child := range namedChildren(body) {
				c.scan(u, child, typeDepth+1)
			}
		}
		return
	}
	for _, child := range namedChildren(n) {
		c.scan(u, child, typeDepth)
	}
}

func (c *TypeContext) addClass(u *TranslationUnit, n *sitter.Node, nested bool) {
	name := u.Text(fieldNode(n, "name"))
	if name == "" {
		return
	}
	info := c.classes[name]
	if info == nil {
		info = &classInfo{name: name, members: make(map[string]*memberInfo)}
		c.classes[name] = info
	}
	info.nested = info.nested || nested

	body := fieldNode(n, "body")
	for _, member := range namedChildren(body) {
		switch member.Type() {
		case "field_declaration":
			static := hasModifier(u, member, "static")
			decl := firstChildOfType(member, "variable_declaration")
			typeText := u.Text(fieldNode(decl, "type"))
			for _, d := range childrenOfType(decl, "variable_declarator") {
				fname := declaratorName(u, d)
				if fname == "" {
					continue
				}
				info.members[fname] = &memberInfo{
					name:     fname,
					kind:     fieldMember,
					static:   static,
					typeText: typeText,
				}
			}
		case "property_declaration":
			pname := u.Text(fieldNode(member, "name"))
			if pname == "" {
				continue
			}
			info.members[pname] = &memberInfo{
				name:     pname,
				kind:     propertyMember,
				static:   hasModifier(u, member, "static"),
				typeText: u.Text(fieldNode(member, "type")),
			}
		case "method_declaration":
			mname := u.Text(fieldNode(member, "name"))
			if mname == "" {
				continue
			}
			info.members[mname] = &memberInfo{
				name:     mname,
				kind:     methodMember,
				static:   hasModifier(u, member, "static"),
				typeText: u.Text(fieldNode(member, "returns", "type")),
			}
		}
	}
}

// declaratorName extracts the declared name of a variable_declarator.
func declaratorName(u *TranslationUnit, d *sitter.Node) string {
	if d == nil {
		return ""
	}
	if name := fieldNode(d, "name"); name != nil {
		return u.Text(name)
	}
	if id := firstChildOfType(d, "identifier"); id != nil {
		return u.Text(id)
	}
	return ""
}

// IsTypeName reports whether name is a declared class or struct anywhere in
// the batch.
func (c *TypeContext) IsTypeName(name string) bool {
	_, ok := c.classes[name]
	return ok
}

// IsInstanceMethod reports whether name is a non-static method of class.
func (c *TypeContext) IsInstanceMethod(class, name string) bool {
	m := c.member(class, name)
	return m != nil && m.kind == methodMember && !m.static
}

// IsStaticMethod reports whether name is a static method of class.
func (c *TypeContext) IsStaticMethod(class, name string) bool {
	m := c.member(class, name)
	return m != nil && m.kind == methodMember && m.static
}

// IsInstanceField reports whether name is a non-static field or property of
// class. Bare references to these need an implicit receiver in the output.
func (c *TypeContext) IsInstanceField(class, name string) bool {
	m := c.member(class, name)
	return m != nil && m.kind != methodMember && !m.static
}

// MemberType returns the declared C# type text of a field or property, or ""
// when unknown.
func (c *TypeContext) MemberType(class, name string) string {
	if m := c.member(class, name); m != nil {
		return m.typeText
	}
	return ""
}

func (c *TypeContext) member(class, name string) *memberInfo {
	info := c.classes[class]
	if info == nil {
		return nil
	}
	return info.members[name]
}
