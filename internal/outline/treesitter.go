//go:build cgo

package outline

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/kotlin"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// TreeSitterAvailable reports whether tree-sitter grammars are compiled in.
func TreeSitterAvailable() bool {
	return true
}

func grammar(lang Language) *sitter.Language {
	switch lang {
	case LangGo:
		return golang.GetLanguage()
	case LangJavaScript:
		return javascript.GetLanguage()
	case LangTypeScript:
		return typescript.GetLanguage()
	case LangTSX:
		return tsx.GetLanguage()
	case LangPython:
		return python.GetLanguage()
	case LangRust:
		return rust.GetLanguage()
	case LangJava:
		return java.GetLanguage()
	case LangKotlin:
		return kotlin.GetLanguage()
	default:
		return nil
	}
}

// parseTree builds an outline from the syntax tree. ok is false when the
// language has no grammar.
func parseTree(ctx context.Context, lang Language, src []byte) (o *Outline, ok bool, err error) {
	tsLang := grammar(lang)
	if tsLang == nil {
		return nil, false, nil
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(tsLang)

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, true, fmt.Errorf("parse error: %w", err)
	}
	defer tree.Close()

	w := &walker{
		lang: lang,
		src:  src,
		out:  &Outline{Language: lang, Parser: ParserTreeSitter},
	}
	root := tree.RootNode()
	for i := 0; i < int(root.NamedChildCount()); i++ {
		w.top(root.NamedChild(i))
	}
	return w.out, true, nil
}

type walker struct {
	lang Language
	src  []byte
	out  *Outline
}

func (w *walker) text(n *sitter.Node) string {
	return n.Content(w.src)
}

func (w *walker) name(n *sitter.Node) string {
	if nn := n.ChildByFieldName("name"); nn != nil {
		return w.text(nn)
	}
	return ""
}

func (w *walker) addImport(n *sitter.Node) {
	w.out.Imports = append(w.out.Imports, strings.TrimRight(w.text(n), " \t\r\n"))
}

// add records a declaration; sig is the node whose text starts the
// signature, usually the declaration itself or an enclosing export.
func (w *walker) add(kind DeclKind, sig *sitter.Node, name, indent string, exported bool) {
	w.out.Declarations = append(w.out.Declarations, Declaration{
		Kind:      kind,
		Name:      name,
		Signature: indent + signatureOf(w.text(sig), cutsBrace(w.lang)),
		Exported:  exported,
		Line:      int(sig.StartPoint().Row) + 1,
	})
}

func (w *walker) top(n *sitter.Node) {
	switch w.lang {
	case LangGo:
		w.goNode(n)
	case LangJavaScript, LangTypeScript, LangTSX:
		w.jsNode(n)
	case LangPython:
		w.pyNode(n, "", true)
	case LangRust:
		w.rustNode(n)
	case LangJava:
		w.javaNode(n)
	case LangKotlin:
		w.kotlinNode(n)
	}
}

func (w *walker) goNode(n *sitter.Node) {
	switch n.Type() {
	case "package_clause", "import_declaration":
		w.addImport(n)
	case "function_declaration":
		name := w.name(n)
		w.add(KindFunction, n, name, "", isGoExported(name))
	case "method_declaration":
		name := w.name(n)
		w.add(KindMethod, n, name, "", isGoExported(name))
	case "type_declaration":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			spec := n.NamedChild(i)
			if spec.Type() != "type_spec" && spec.Type() != "type_alias" {
				continue
			}
			kind := KindType
			if t := spec.ChildByFieldName("type"); t != nil {
				switch t.Type() {
				case "struct_type":
					kind = KindClass
				case "interface_type":
					kind = KindInterface
				}
			}
			name := w.name(spec)
			w.out.Declarations = append(w.out.Declarations, Declaration{
				Kind:      kind,
				Name:      name,
				Signature: "type " + signatureOf(w.text(spec), true),
				Exported:  isGoExported(name),
				Line:      int(spec.StartPoint().Row) + 1,
			})
		}
	case "const_declaration", "var_declaration":
		kind, keyword := KindConst, "const "
		if n.Type() == "var_declaration" {
			kind, keyword = KindVar, "var "
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			spec := n.NamedChild(i)
			nameNode := spec.ChildByFieldName("name")
			if nameNode == nil {
				continue
			}
			name := w.text(nameNode)
			w.out.Declarations = append(w.out.Declarations, Declaration{
				Kind:      kind,
				Name:      name,
				Signature: keyword + signatureOf(w.text(spec), true),
				Exported:  isGoExported(name),
				Line:      int(spec.StartPoint().Row) + 1,
			})
		}
	}
}

func (w *walker) jsNode(n *sitter.Node) {
	switch n.Type() {
	case "import_statement":
		w.addImport(n)
	case "export_statement":
		if decl := n.ChildByFieldName("declaration"); decl != nil {
			w.jsDecl(decl, n, true)
			return
		}
		if n.ChildByFieldName("source") != nil {
			w.addImport(n)
			return
		}
		kind := KindConst
		if v := n.ChildByFieldName("value"); v != nil {
			switch v.Type() {
			case "function", "function_expression", "arrow_function", "generator_function":
				kind = KindFunction
			case "class":
				kind = KindClass
			}
		}
		w.add(kind, n, "default", "", true)
	default:
		w.jsDecl(n, n, false)
	}
}

func (w *walker) jsDecl(n, sig *sitter.Node, exported bool) {
	switch n.Type() {
	case "function_declaration", "generator_function_declaration":
		w.add(KindFunction, sig, w.name(n), "", exported)
	case "class_declaration", "abstract_class_declaration":
		w.add(KindClass, sig, w.name(n), "", exported)
		w.jsMethods(n, exported)
	case "interface_declaration":
		w.add(KindInterface, sig, w.name(n), "", exported)
	case "type_alias_declaration":
		w.add(KindType, sig, w.name(n), "", exported)
	case "enum_declaration":
		w.add(KindEnum, sig, w.name(n), "", exported)
	case "internal_module", "module":
		w.add(KindModule, sig, w.name(n), "", exported)
	case "ambient_declaration":
		if n.NamedChildCount() > 0 {
			w.jsDecl(n.NamedChild(0), sig, exported)
		}
	case "lexical_declaration", "variable_declaration":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			d := n.NamedChild(i)
			if d.Type() != "variable_declarator" {
				continue
			}
			kind := KindConst
			if v := d.ChildByFieldName("value"); v != nil {
				switch v.Type() {
				case "arrow_function", "function", "function_expression", "generator_function":
					kind = KindFunction
				case "call_expression":
					// require() calls are imports in CommonJS modules.
					if fn := v.ChildByFieldName("function"); fn != nil && w.text(fn) == "require" {
						w.addImport(sig)
						return
					}
				}
			}
			w.add(kind, sig, w.name(d), "", exported)
			return
		}
	}
}

func (w *walker) jsMethods(class *sitter.Node, exported bool) {
	body := class.ChildByFieldName("body")
	if body == nil {
		return
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		m := body.NamedChild(i)
		switch m.Type() {
		case "method_definition", "method_signature", "abstract_method_signature":
		default:
			continue
		}
		name := w.name(m)
		public := !strings.HasPrefix(name, "#")
		for j := 0; j < int(m.NamedChildCount()); j++ {
			c := m.NamedChild(j)
			if c.Type() == "accessibility_modifier" && w.text(c) != "public" {
				public = false
			}
		}
		w.add(KindMethod, m, name, "  ", exported && public)
	}
}

func (w *walker) pyNode(n *sitter.Node, indent string, exported bool) {
	switch n.Type() {
	case "import_statement", "import_from_statement", "future_import_statement":
		if indent == "" {
			w.addImport(n)
		}
	case "decorated_definition":
		if def := n.ChildByFieldName("definition"); def != nil {
			w.pyNode(def, indent, exported)
		}
	case "function_definition":
		name := w.name(n)
		kind := KindFunction
		if indent != "" {
			kind = KindMethod
		}
		w.add(kind, n, name, indent, exported && !strings.HasPrefix(name, "_"))
	case "class_definition":
		name := w.name(n)
		public := exported && !strings.HasPrefix(name, "_")
		kind := KindClass
		if sup := n.ChildByFieldName("superclasses"); sup != nil {
			s := w.text(sup)
			if strings.Contains(s, "Protocol") || strings.Contains(s, "ABC") {
				kind = KindInterface
			}
		}
		w.add(kind, n, name, indent, public)
		if indent != "" {
			return
		}
		if body := n.ChildByFieldName("body"); body != nil {
			for i := 0; i < int(body.NamedChildCount()); i++ {
				w.pyNode(body.NamedChild(i), "    ", public)
			}
		}
	}
}

func hasChildType(n *sitter.Node, types ...string) *sitter.Node {
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		for _, t := range types {
			if c.Type() == t {
				return c
			}
		}
	}
	return nil
}

func (w *walker) rustNode(n *sitter.Node) {
	pub := hasChildType(n, "visibility_modifier") != nil
	switch n.Type() {
	case "use_declaration", "extern_crate_declaration":
		w.addImport(n)
	case "mod_item":
		if n.ChildByFieldName("body") == nil {
			w.addImport(n)
			return
		}
		w.add(KindModule, n, w.name(n), "", pub)
	case "function_item":
		w.add(KindFunction, n, w.name(n), "", pub)
	case "struct_item", "union_item":
		w.add(KindClass, n, w.name(n), "", pub)
	case "enum_item":
		w.add(KindEnum, n, w.name(n), "", pub)
	case "trait_item":
		w.add(KindInterface, n, w.name(n), "", pub)
	case "type_item":
		w.add(KindType, n, w.name(n), "", pub)
	case "const_item", "static_item":
		w.add(KindConst, n, w.name(n), "", pub)
	case "impl_item":
		name := ""
		if t := n.ChildByFieldName("type"); t != nil {
			name = w.text(t)
		}
		w.add(KindImpl, n, name, "", false)
		body := n.ChildByFieldName("body")
		if body == nil {
			return
		}
		// Trait impls expose their methods through the trait.
		traitImpl := n.ChildByFieldName("trait") != nil
		for i := 0; i < int(body.NamedChildCount()); i++ {
			m := body.NamedChild(i)
			if m.Type() != "function_item" {
				continue
			}
			public := traitImpl || hasChildType(m, "visibility_modifier") != nil
			w.add(KindMethod, m, w.name(m), "    ", public)
		}
	}
}

func (w *walker) javaPublic(n *sitter.Node) bool {
	mods := hasChildType(n, "modifiers")
	return mods != nil && strings.Contains(w.text(mods), "public")
}

func (w *walker) javaNode(n *sitter.Node) {
	var kind DeclKind
	switch n.Type() {
	case "package_declaration", "import_declaration":
		w.addImport(n)
		return
	case "class_declaration", "record_declaration":
		kind = KindClass
	case "interface_declaration", "annotation_type_declaration":
		kind = KindInterface
	case "enum_declaration":
		kind = KindEnum
	default:
		return
	}

	public := w.javaPublic(n)
	w.add(kind, n, w.name(n), "", public)

	body := n.ChildByFieldName("body")
	if body == nil {
		return
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		m := body.NamedChild(i)
		if m.Type() != "method_declaration" && m.Type() != "constructor_declaration" {
			continue
		}
		// Interface members are implicitly public.
		exported := public && (kind == KindInterface || w.javaPublic(m))
		w.add(KindMethod, m, w.name(m), "    ", exported)
	}
}

func (w *walker) kotlinVisible(n *sitter.Node) bool {
	mods := hasChildType(n, "modifiers")
	if mods == nil {
		return true
	}
	t := w.text(mods)
	return !strings.Contains(t, "private") && !strings.Contains(t, "internal")
}

func (w *walker) kotlinName(n *sitter.Node) string {
	if c := hasChildType(n, "type_identifier", "simple_identifier"); c != nil {
		return w.text(c)
	}
	return ""
}

func (w *walker) kotlinNode(n *sitter.Node) {
	switch n.Type() {
	case "package_header", "import_list", "import_header":
		w.addImport(n)
	case "function_declaration":
		w.add(KindFunction, n, w.kotlinName(n), "", w.kotlinVisible(n))
	case "type_alias":
		w.add(KindType, n, w.kotlinName(n), "", w.kotlinVisible(n))
	case "property_declaration":
		name := ""
		if v := hasChildType(n, "variable_declaration"); v != nil {
			name = w.kotlinName(v)
		}
		w.add(KindConst, n, name, "", w.kotlinVisible(n))
	case "class_declaration", "object_declaration":
		kind := KindClass
		if hasChildType(n, "interface") != nil {
			kind = KindInterface
		} else if hasChildType(n, "enum_class_body") != nil {
			kind = KindEnum
		}
		visible := w.kotlinVisible(n)
		w.add(kind, n, w.kotlinName(n), "", visible)

		body := hasChildType(n, "class_body", "enum_class_body")
		if body == nil {
			return
		}
		for i := 0; i < int(body.NamedChildCount()); i++ {
			m := body.NamedChild(i)
			if m.Type() != "function_declaration" {
				continue
			}
			w.add(KindMethod, m, w.kotlinName(m), "    ", visible && w.kotlinVisible(m))
		}
	}
}
