package arch_test

import (
	"go/ast"
	"go/token"
	"strings"
	"testing"
)

// docExemptions lists exported symbols that intentionally lack GoDoc
// comments, keyed by package.
var docExemptions = map[string][]string{}

// TestExportedSymbolsHaveGoDoc requires a comment starting with the symbol
// name on every exported declaration. Grouped const and var blocks may rely
// on a block comment or inline comments instead.
func TestExportedSymbolsHaveGoDoc(t *testing.T) {
	t.Parallel()

	for _, pkg := range internalPackages(t) {
		t.Run(pkg, func(t *testing.T) {
			t.Parallel()

			exempt := make(map[string]bool)
			for _, sym := range docExemptions[pkg] {
				exempt[sym] = true
			}
			fset, files := parseDecls(t, pkg)
			for _, f := range files {
				for _, decl := range f.Decls {
					for _, m := range undocumented(decl) {
						if exempt[m.name] {
							continue
						}
						pos := fset.Position(m.pos)
						t.Errorf("%s:%d: exported %s %s has no GoDoc comment",
							relativeFilePath(pos.Filename), pos.Line, m.kind, m.name)
					}
				}
			}
		})
	}
}

type missingDoc struct {
	kind string
	name string
	pos  token.Pos
}

// undocumented returns the exported names declared by decl that lack docs.
func undocumented(decl ast.Decl) []missingDoc {
	var out []missingDoc
	switch d := decl.(type) {
	case *ast.FuncDecl:
		if !d.Name.IsExported() || (d.Recv != nil && !isExportedType(d.Recv.List[0].Type)) {
			return nil
		}
		if !hasValidGoDoc(d.Doc, d.Name.Name) {
			kind := "func"
			if d.Recv != nil {
				kind = "method"
			}
			out = append(out, missingDoc{kind, d.Name.Name, d.Pos()})
		}

	case *ast.GenDecl:
		grouped := len(d.Specs) > 1
		blockDoc := d.Doc != nil && strings.TrimSpace(d.Doc.Text()) != ""
		for _, spec := range d.Specs {
			switch s := spec.(type) {
			case *ast.TypeSpec:
				if s.Name.IsExported() && !hasValidGoDoc(s.Doc, s.Name.Name) && !hasValidGoDoc(d.Doc, s.Name.Name) {
					out = append(out, missingDoc{"type", s.Name.Name, s.Pos()})
				}
			case *ast.ValueSpec:
				inline := s.Comment != nil && strings.TrimSpace(s.Comment.Text()) != ""
				for _, name := range s.Names {
					if !name.IsExported() {
						continue
					}
					if grouped && (blockDoc || inline || hasValidGoDoc(s.Doc, name.Name)) {
						continue
					}
					if !grouped && (hasValidGoDoc(s.Doc, name.Name) || hasValidGoDoc(d.Doc, name.Name)) {
						continue
					}
					kind := "var"
					if d.Tok == token.CONST {
						kind = "const"
					}
					out = append(out, missingDoc{kind, name.Name, name.Pos()})
				}
			}
		}
	}
	return out
}

// hasValidGoDoc reports whether doc starts with name.
func hasValidGoDoc(doc *ast.CommentGroup, name string) bool {
	if doc == nil {
		return false
	}
	return strings.HasPrefix(strings.TrimSpace(doc.Text()), name)
}

// isExportedType reports whether the base type name of expr is exported.
func isExportedType(expr ast.Expr) bool {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.IsExported()
	case *ast.StarExpr:
		return isExportedType(t.X)
	case *ast.IndexExpr:
		return isExportedType(t.X)
	case *ast.IndexListExpr:
		return isExportedType(t.X)
	default:
		return false
	}
}
