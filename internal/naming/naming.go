// Package naming splits file names into lowercase word tokens and
// recognizes conventional role suffixes such as service or model.
package naming

import (
	"path"
	"strings"
	"unicode"
)

// roles are name tokens that mark the architectural role of a file.
var roles = []string{
	"action", "api", "component", "config", "controller", "dto", "entity",
	"handler", "helper", "hook", "middleware", "mock", "model", "module",
	"page", "provider", "reducer", "repository", "resolver", "route", "router",
	"schema", "service", "slice", "spec", "store", "test", "type", "util",
	"view",
}

// Stem returns the base name of p without its final extension. Dotfiles
// keep their name.
func Stem(p string) string {
	base := path.Base(p)
	ext := path.Ext(base)
	if ext != "" && len(ext) < len(base) {
		return base[:len(base)-len(ext)]
	}
	return base
}

// Tokens splits the stem of p on '.', '_', '-', spaces and camelCase
// boundaries and lowercases the parts.
//
//	Tokens("src/UserService.java")   -> [user service]
//	Tokens("api/user.schema.ts")     -> [user schema]
//	Tokens("HTTPServer_main.go")     -> [http server main]
func Tokens(p string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(Stem(p), func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == ' '
	}) {
		for _, w := range splitCamel(part) {
			out = append(out, strings.ToLower(w))
		}
	}
	return out
}

func splitCamel(s string) []string {
	runes := []rune(s)
	var words []string
	start := 0
	for i := 1; i < len(runes); i++ {
		prev, cur := runes[i-1], runes[i]
		boundary := unicode.IsLower(prev) && unicode.IsUpper(cur)
		// "HTTPServer": split before the last upper of an acronym run.
		if !boundary && unicode.IsUpper(prev) && unicode.IsUpper(cur) &&
			i+1 < len(runes) && unicode.IsLower(runes[i+1]) {
			boundary = true
		}
		if boundary {
			words = append(words, string(runes[start:i]))
			start = i
		}
	}
	if start < len(runes) {
		words = append(words, string(runes[start:]))
	}
	return words
}

// Matches reports whether token equals keyword, tolerating a trailing
// plural ("models", "entities").
func Matches(token, keyword string) bool {
	if token == keyword || token == keyword+"s" || token == keyword+"es" {
		return true
	}
	if strings.HasSuffix(keyword, "y") && token == keyword[:len(keyword)-1]+"ies" {
		return true
	}
	return false
}

// Role returns the last token of p that names a conventional role, in
// singular form, or "" when none does.
func Role(p string) string {
	tokens := Tokens(p)
	for i := len(tokens) - 1; i >= 0; i-- {
		if r := singular(tokens[i]); r != "" {
			return r
		}
	}
	return ""
}

func singular(token string) string {
	for _, r := range roles {
		if Matches(token, r) {
			return r
		}
	}
	return ""
}
