// Package outline extracts imports and top-level declaration signatures from
// source files and renders the truncated form used by the context budgeter.
package outline

import (
	"fmt"
	"path"
	"strings"

	"ctxmap/internal/graph"
)

// Language represents a source language.
type Language string

const (
	LangGo         Language = "go"
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
	LangTSX        Language = "tsx"
	LangPython     Language = "python"
	LangRust       Language = "rust"
	LangJava       Language = "java"
	LangKotlin     Language = "kotlin"
	LangCSharp     Language = "csharp"
	LangRuby       Language = "ruby"
	LangShell      Language = "shell"
	LangUnknown    Language = ""
)

var extensions = map[string]Language{
	".go":   LangGo,
	".js":   LangJavaScript,
	".jsx":  LangJavaScript,
	".mjs":  LangJavaScript,
	".cjs":  LangJavaScript,
	".ts":   LangTypeScript,
	".mts":  LangTypeScript,
	".cts":  LangTypeScript,
	".tsx":  LangTSX,
	".py":   LangPython,
	".pyi":  LangPython,
	".rs":   LangRust,
	".java": LangJava,
	".kt":   LangKotlin,
	".kts":  LangKotlin,
	".cs":   LangCSharp,
	".rb":   LangRuby,
	".sh":   LangShell,
	".bash": LangShell,
}

// LanguageFromExtension maps a file extension (with the dot) to a language.
func LanguageFromExtension(ext string) (Language, bool) {
	lang, ok := extensions[strings.ToLower(ext)]
	return lang, ok
}

// LanguageFromPath detects the language of a file path, or LangUnknown.
func LanguageFromPath(p string) Language {
	lang, _ := LanguageFromExtension(path.Ext(graph.NormalizePath(p)))
	return lang
}

// commentPrefix is the line-comment token used for the truncation marker.
func commentPrefix(lang Language) string {
	switch lang {
	case LangPython, LangRuby, LangShell:
		return "#"
	default:
		return "//"
	}
}

// DeclKind classifies a top-level declaration.
type DeclKind string

const (
	KindFunction  DeclKind = "function"
	KindMethod    DeclKind = "method"
	KindClass     DeclKind = "class"
	KindInterface DeclKind = "interface"
	KindType      DeclKind = "type"
	KindEnum      DeclKind = "enum"
	KindConst     DeclKind = "const"
	KindVar       DeclKind = "var"
	KindModule    DeclKind = "module"
	KindImpl      DeclKind = "impl"
)

const (
	ParserTreeSitter = "treesitter"
	ParserHeuristic  = "heuristic"
)

// Declaration is one declaration signature with its body dropped.
type Declaration struct {
	Kind      DeclKind `json:"kind"`
	Name      string   `json:"name,omitempty"`
	Signature string   `json:"signature"`
	Exported  bool     `json:"exported"`
	Line      int      `json:"line"` // 1-indexed
}

// Outline is the structural summary of one file.
type Outline struct {
	Language     Language      `json:"language"`
	Imports      []string      `json:"imports"`
	Declarations []Declaration `json:"declarations"`
	Signals      graph.Signals `json:"signals"`
	Lines        int           `json:"lines"`

	// Parser is "treesitter" or "heuristic".
	Parser string `json:"parser"`
}

// Kept is the number of source lines represented in the truncated form.
func (o *Outline) Kept() int {
	n := len(o.Declarations)
	for _, imp := range o.Imports {
		n += strings.Count(imp, "\n") + 1
	}
	return n
}

// Truncated renders imports and declaration signatures followed by a marker
// comment recording how many source lines were omitted.
func (o *Outline) Truncated() string {
	var sb strings.Builder
	for _, imp := range o.Imports {
		sb.WriteString(imp)
		sb.WriteByte('\n')
	}
	if len(o.Imports) > 0 && len(o.Declarations) > 0 {
		sb.WriteByte('\n')
	}
	for _, d := range o.Declarations {
		sb.WriteString(d.Signature)
		sb.WriteByte('\n')
	}

	omitted := o.Lines - o.Kept()
	if omitted < 0 {
		omitted = 0
	}
	fmt.Fprintf(&sb, "%s ... [truncated: %d of %d lines omitted]", commentPrefix(o.Language), omitted, o.Lines)
	return sb.String()
}

// finish derives the structure signals from the collected declarations.
// Only exported declarations count.
func (o *Outline) finish() {
	o.Signals = graph.Signals{Imports: len(o.Imports)}
	for _, d := range o.Declarations {
		if !d.Exported {
			continue
		}
		switch d.Kind {
		case KindClass, KindEnum:
			o.Signals.Classes++
		case KindInterface, KindType:
			o.Signals.Interfaces++
		case KindFunction, KindMethod:
			o.Signals.Functions++
		}
	}
	if o.Imports == nil {
		o.Imports = []string{}
	}
	if o.Declarations == nil {
		o.Declarations = []Declaration{}
	}
}

// countLines counts lines; a trailing newline does not start a new line.
func countLines(content string) int {
	if content == "" {
		return 0
	}
	n := strings.Count(content, "\n")
	if !strings.HasSuffix(content, "\n") {
		n++
	}
	return n
}

// signatureOf returns the declaration header: the first line that is not an
// annotation or decorator, cut before an opening brace when cutBrace is set.
func signatureOf(text string, cutBrace bool) string {
	line := text
	for _, l := range strings.Split(text, "\n") {
		t := strings.TrimSpace(l)
		if t == "" || strings.HasPrefix(t, "@") || strings.HasPrefix(t, "#[") {
			continue
		}
		line = l
		break
	}
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	if cutBrace {
		if i := strings.IndexByte(line, '{'); i >= 0 {
			line = line[:i]
		}
	}
	return strings.TrimRight(line, " \t\r")
}

// cutsBrace reports whether declaration headers end at an opening brace.
func cutsBrace(lang Language) bool {
	switch lang {
	case LangPython, LangRuby:
		return false
	default:
		return true
	}
}

// isGoExported reports whether a Go identifier is exported.
func isGoExported(name string) bool {
	if name == "" {
		return false
	}
	c := name[0]
	return c >= 'A' && c <= 'Z'
}
