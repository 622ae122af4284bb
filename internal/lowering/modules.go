package lowering

import (
	"strconv"
	"strings"

	"github.com/quenchjs/quench/internal/ast"
)

// lowerModules rewrites import/export declarations to CommonJS
// require/exports form. Imported names become plain var declarations
// reading off a module temporary, so no reference rewriting is needed.
func (c *context) lowerModules() {
	root := c.rec.Get(c.arena.Root())
	if root == nil {
		return
	}

	hasModuleSyntax := false
	importSeq := 0

	for _, stmtID := range root.List {
		n := c.arena.Get(stmtID)
		if n == nil {
			continue
		}
		switch n.Kind {
		case ast.KindImportDecl:
			hasModuleSyntax = true
			importSeq++
			c.lowerImport(stmtID, n, importSeq)
		case ast.KindExportDecl:
			hasModuleSyntax = true
			c.lowerExportDecl(stmtID, n)
		case ast.KindExportNamed:
			hasModuleSyntax = true
			importSeq += c.lowerExportNamed(stmtID, n, importSeq+1)
		}
	}

	if hasModuleSyntax && len(root.List) > 0 {
		first := root.List[0]
		c.rec.InsertBefore(first, c.ov.ExprStmt(c.ov.Raw(`"use strict"`)))
		c.rec.InsertBefore(first, c.esModuleMarker())
	}
}

// esModuleMarker builds
// Object.defineProperty(exports, "__esModule", { value: true });
func (c *context) esModuleMarker() ast.NodeID {
	ov := c.ov
	valueProp := ov.New(ast.KindProperty)
	vp := ov.Mut(valueProp)
	vp.Text = "value"
	vp.A = ast.InvalidNode
	vp.B = ov.Raw("true")
	desc := ov.New(ast.KindObjectLit)
	ov.Mut(desc).List = []ast.NodeID{valueProp}
	call := ov.Call(ov.Member(ov.Ident("Object"), "defineProperty"),
		ov.Ident("exports"), ov.String("__esModule"), desc)
	return ov.ExprStmt(call)
}

// moduleTempName derives a require temporary from the specifier:
// "./utils/math" becomes math_1.
func moduleTempName(specifier string, seq int) string {
	base := specifier
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}
	var b strings.Builder
	for _, r := range base {
		if r == '$' || r == '_' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9' && b.Len() > 0) {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		b.WriteString("module")
	}
	return b.String() + "_" + strconv.Itoa(seq)
}

func (c *context) requireCall(specifier string) ast.NodeID {
	return c.ov.Call(c.ov.Ident("require"), c.ov.String(specifier))
}

func (c *context) lowerImport(id ast.NodeID, n *ast.Node, seq int) {
	ov := c.ov

	// import "m"; keeps only the side effect.
	if len(n.List) == 0 {
		c.rec.Replace(id, ov.ExprStmt(c.requireCall(n.Text)))
		return
	}

	// A namespace binding doubles as the module temporary.
	modName := ""
	for _, specID := range n.List {
		spec := c.arena.Get(specID)
		if spec.Flags&ast.FlagNamespace != 0 {
			modName = spec.Text
		}
	}
	if modName == "" {
		modName = moduleTempName(n.Text, seq)
	}

	c.rec.Replace(id, c.varDecl(modName, c.requireCall(n.Text)))
	for _, specID := range n.List {
		spec := c.arena.Get(specID)
		switch {
		case spec.Flags&ast.FlagNamespace != 0:
			// Already bound above.
		case spec.Flags&ast.FlagDefault != 0:
			c.rec.InsertAfter(id, c.varDecl(spec.Text, ov.Member(ov.Ident(modName), "default")))
		default:
			imported := spec.Text
			if spec.A != ast.InvalidNode {
				imported = c.arena.Get(spec.A).Text
			}
			c.rec.InsertAfter(id, c.varDecl(spec.Text, ov.Member(ov.Ident(modName), imported)))
		}
	}
}

func (c *context) lowerExportDecl(id ast.NodeID, n *ast.Node) {
	ov := c.ov
	decl := c.arena.Get(n.A)

	if decl == nil {
		c.rec.Elide(id)
		return
	}

	if n.Flags&ast.FlagDefault != 0 {
		switch decl.Kind {
		case ast.KindFunctionDecl:
			if decl.Text == "" {
				fn := ov.NewAt(ast.KindFunctionExpr, n.A)
				f := ov.Mut(fn)
				f.Flags = decl.Flags
				f.List = decl.List
				f.A = decl.A
				c.rec.Replace(id, ov.ExprStmt(ov.Assign(ov.Member(ov.Ident("exports"), "default"), fn)))
				return
			}
			c.rec.Replace(id, n.A)
			c.rec.InsertAfter(id, c.exportAssign("default", decl.Text, n.A))
		case ast.KindClassDecl:
			if decl.Text == "" {
				c.rec.MarkUnsupported(id, "anonymous default class export")
				return
			}
			c.rec.Replace(id, n.A)
			c.rec.InsertAfter(id, c.exportAssign("default", decl.Text, n.A))
		default:
			// export default <expression>
			c.rec.Replace(id, ov.ExprStmt(ov.Assign(ov.Member(ov.Ident("exports"), "default"), n.A)))
		}
		return
	}

	// export <declaration>: keep the declaration, assign each bound
	// name onto exports.
	c.rec.Replace(id, n.A)
	for _, name := range c.declaredNames(n.A) {
		c.rec.InsertAfter(id, c.exportAssign(name, name, n.A))
	}
}

// exportAssign builds exports.<name> = <local>;
func (c *context) exportAssign(name, local string, origin ast.NodeID) ast.NodeID {
	ov := c.ov
	return ov.ExprStmt(ov.Assign(ov.Member(ov.Ident("exports"), name), ov.IdentAt(local, origin)))
}

// declaredNames collects the identifiers a declaration introduces,
// reading patterns as written before earlier passes expanded them.
func (c *context) declaredNames(id ast.NodeID) []string {
	n := c.arena.Get(id)
	if n == nil {
		return nil
	}
	switch n.Kind {
	case ast.KindFunctionDecl, ast.KindClassDecl, ast.KindEnumDecl:
		if n.Text != "" {
			return []string{n.Text}
		}
		return nil
	case ast.KindVarStmt:
		var names []string
		for _, declID := range n.List {
			d := c.arena.Get(declID)
			names = append(names, c.patternNames(d.A)...)
		}
		return names
	}
	return nil
}

func (c *context) patternNames(id ast.NodeID) []string {
	if id == ast.InvalidNode {
		return nil
	}
	n := c.arena.Get(id)
	if n == nil {
		return nil
	}
	switch n.Kind {
	case ast.KindBindingIdent:
		return []string{n.Text}
	case ast.KindObjectPattern, ast.KindArrayPattern:
		var names []string
		for _, el := range n.List {
			names = append(names, c.patternNames(el)...)
		}
		return names
	case ast.KindPatternProp, ast.KindRestElement:
		return c.patternNames(n.A)
	}
	return nil
}

func (c *context) lowerExportNamed(id ast.NodeID, n *ast.Node, seq int) int {
	ov := c.ov

	if n.Text != "" {
		// export { a as b } from "m": re-export through a require
		// temporary.
		modName := moduleTempName(n.Text, seq)
		c.rec.Replace(id, c.varDecl(modName, c.requireCall(n.Text)))
		for _, specID := range n.List {
			spec := c.arena.Get(specID)
			exported := spec.Text
			if spec.A != ast.InvalidNode {
				exported = c.arena.Get(spec.A).Text
			}
			assign := ov.ExprStmt(ov.Assign(
				ov.Member(ov.Ident("exports"), exported),
				ov.Member(ov.Ident(modName), spec.Text)))
			c.rec.InsertAfter(id, assign)
		}
		return 1
	}

	if len(n.List) == 0 {
		c.rec.Elide(id)
		return 0
	}

	stmts := make([]ast.NodeID, 0, len(n.List))
	for _, specID := range n.List {
		spec := c.arena.Get(specID)
		exported := spec.Text
		if spec.A != ast.InvalidNode {
			exported = c.arena.Get(spec.A).Text
		}
		stmts = append(stmts, c.exportAssign(exported, spec.Text, specID))
	}
	c.rec.Replace(id, stmts[0])
	for _, s := range stmts[1:] {
		c.rec.InsertAfter(id, s)
	}
	return 0
}
