package outline

import (
	"regexp"
	"strings"
)

// lineRule matches one top-level declaration line. The pattern must carry a
// "name" group.
type lineRule struct {
	re   *regexp.Regexp
	kind DeclKind
}

type lineRules struct {
	imports *regexp.Regexp
	decls   []lineRule
	// indented accepts declarations with leading whitespace.
	indented bool
	exported func(line, name string) bool
}

func rule(kind DeclKind, pattern string) lineRule {
	return lineRule{re: regexp.MustCompile(pattern), kind: kind}
}

func always(string, string) bool { return true }

var jsRules = &lineRules{
	imports: regexp.MustCompile(`^(import\s|import\{|export\s+(\*|\{[^}]*\})\s+from\s|(const|let|var)\s+.*=\s*require\()`),
	decls: []lineRule{
		rule(KindFunction, `^(export\s+)?(default\s+)?(async\s+)?function\*?\s*(?P<name>[\w$]*)`),
		rule(KindClass, `^(export\s+)?(default\s+)?(abstract\s+)?class\s+(?P<name>[\w$]+)`),
		rule(KindInterface, `^(export\s+)?(declare\s+)?interface\s+(?P<name>[\w$]+)`),
		rule(KindType, `^(export\s+)?(declare\s+)?type\s+(?P<name>[\w$]+)`),
		rule(KindEnum, `^(export\s+)?(declare\s+)?(const\s+)?enum\s+(?P<name>[\w$]+)`),
		rule(KindFunction, `^(export\s+)?(const|let|var)\s+(?P<name>[\w$]+)\s*(:[^=]+)?=\s*(async\s+)?(\([^)]*\)|[\w$]+)\s*(:[^=]+)?=>`),
		rule(KindConst, `^(export\s+)?(const|let|var)\s+(?P<name>[\w$]+)`),
	},
	exported: func(line, _ string) bool { return strings.HasPrefix(line, "export") },
}

var heuristics = map[Language]*lineRules{
	LangGo: {
		imports: regexp.MustCompile(`^(package|import)\s`),
		decls: []lineRule{
			rule(KindMethod, `^func\s*\([^)]*\)\s*(?P<name>\w+)`),
			rule(KindFunction, `^func\s+(?P<name>\w+)`),
			rule(KindClass, `^type\s+(?P<name>\w+)(\[[^\]]*\])?\s+struct\b`),
			rule(KindInterface, `^type\s+(?P<name>\w+)(\[[^\]]*\])?\s+interface\b`),
			rule(KindType, `^type\s+(?P<name>\w+)`),
			rule(KindConst, `^const\s+(?P<name>\w+)`),
			rule(KindVar, `^var\s+(?P<name>\w+)`),
		},
		exported: func(_, name string) bool { return isGoExported(name) },
	},
	LangJavaScript: jsRules,
	LangTypeScript: jsRules,
	LangTSX:        jsRules,
	LangPython: {
		imports: regexp.MustCompile(`^(import\s|from\s+\S+\s+import\s)`),
		decls: []lineRule{
			rule(KindFunction, `^(async\s+)?def\s+(?P<name>\w+)`),
			rule(KindClass, `^class\s+(?P<name>\w+)`),
		},
		exported: func(_, name string) bool { return !strings.HasPrefix(name, "_") },
	},
	LangRust: {
		imports: regexp.MustCompile(`^(pub(\([^)]*\))?\s+)?(use\s|extern\s+crate\s|mod\s+\w+\s*;)`),
		decls: []lineRule{
			rule(KindFunction, `^(pub(\([^)]*\))?\s+)?(const\s+)?(async\s+)?(unsafe\s+)?(extern\s+"\w+"\s+)?fn\s+(?P<name>\w+)`),
			rule(KindClass, `^(pub(\([^)]*\))?\s+)?(struct|union)\s+(?P<name>\w+)`),
			rule(KindEnum, `^(pub(\([^)]*\))?\s+)?enum\s+(?P<name>\w+)`),
			rule(KindInterface, `^(pub(\([^)]*\))?\s+)?(unsafe\s+)?trait\s+(?P<name>\w+)`),
			rule(KindType, `^(pub(\([^)]*\))?\s+)?type\s+(?P<name>\w+)`),
			rule(KindImpl, `^(unsafe\s+)?impl(<[^>]*>)?\s+(?P<name>[\w:<>, ]+)`),
			rule(KindModule, `^(pub(\([^)]*\))?\s+)?mod\s+(?P<name>\w+)`),
			rule(KindConst, `^(pub(\([^)]*\))?\s+)?(const|static)\s+(mut\s+)?(?P<name>\w+)`),
		},
		exported: func(line, _ string) bool { return strings.HasPrefix(line, "pub") },
	},
	LangJava: {
		imports: regexp.MustCompile(`^(package|import)\s`),
		decls: []lineRule{
			rule(KindInterface, `^((public|protected|private|abstract|static|sealed|non-sealed)\s+)*@?interface\s+(?P<name>\w+)`),
			rule(KindEnum, `^((public|protected|private|static)\s+)*enum\s+(?P<name>\w+)`),
			rule(KindClass, `^((public|protected|private|abstract|final|static|sealed|non-sealed)\s+)*(class|record)\s+(?P<name>\w+)`),
		},
		exported: func(line, _ string) bool { return strings.HasPrefix(line, "public") },
	},
	LangKotlin: {
		imports: regexp.MustCompile(`^(package|import)\s`),
		decls: []lineRule{
			rule(KindInterface, `^((public|internal|private|protected|sealed|fun)\s+)*interface\s+(?P<name>\w+)`),
			rule(KindEnum, `^((public|internal|private|protected)\s+)*enum\s+class\s+(?P<name>\w+)`),
			rule(KindClass, `^((public|internal|private|protected|open|abstract|sealed|data|inline|value|annotation|inner)\s+)*(class|object)\s+(?P<name>\w+)`),
			rule(KindFunction, `^((public|internal|private|protected|inline|suspend|operator|infix|tailrec|external)\s+)*fun\s+(<[^>]*>\s*)?([\w<>?, ]+\.)?(?P<name>\w+)`),
			rule(KindType, `^((public|internal|private)\s+)*typealias\s+(?P<name>\w+)`),
			rule(KindConst, `^((public|internal|private|const)\s+)*(val|var)\s+(?P<name>\w+)`),
		},
		exported: func(line, _ string) bool {
			return !strings.HasPrefix(line, "private") && !strings.HasPrefix(line, "internal")
		},
	},
	LangCSharp: {
		imports:  regexp.MustCompile(`^(using\s|namespace\s+[\w.]+\s*;)`),
		indented: true,
		decls: []lineRule{
			rule(KindInterface, `^((public|internal|private|protected|partial)\s+)*interface\s+(?P<name>\w+)`),
			rule(KindEnum, `^((public|internal|private|protected)\s+)*enum\s+(?P<name>\w+)`),
			rule(KindClass, `^((public|internal|private|protected|abstract|sealed|static|partial|readonly)\s+)*(class|struct|record)\s+(?P<name>\w+)`),
		},
		exported: func(line, _ string) bool { return strings.HasPrefix(line, "public") },
	},
	LangRuby: {
		imports: regexp.MustCompile(`^(require|require_relative|load)\b`),
		decls: []lineRule{
			rule(KindClass, `^class\s+(?P<name>[\w:]+)`),
			rule(KindModule, `^module\s+(?P<name>[\w:]+)`),
			rule(KindFunction, `^def\s+(self\.)?(?P<name>\w+[?!=]?)`),
		},
		exported: always,
	},
	LangShell: {
		imports: regexp.MustCompile(`^(source|\.)\s+\S`),
		decls: []lineRule{
			rule(KindFunction, `^function\s+(?P<name>[\w-]+)`),
			rule(KindFunction, `^(?P<name>[\w-]+)\s*\(\)`),
		},
		exported: always,
	},
}

// heuristicOutline extracts an outline line by line. Only lines starting at
// column zero are considered, except for languages that nest declarations in
// a namespace. Multi-line import groups are kept whole.
func heuristicOutline(lang Language, content string) *Outline {
	o := &Outline{Language: lang, Parser: ParserHeuristic}
	rules := heuristics[lang]
	if rules == nil {
		return o
	}
	cut := cutsBrace(lang)

	var block []string
	closer := ""
	for i, raw := range strings.Split(content, "\n") {
		line := strings.TrimRight(raw, " \t\r")

		if closer != "" {
			block = append(block, line)
			if strings.HasPrefix(strings.TrimSpace(line), closer) {
				o.Imports = append(o.Imports, strings.Join(block, "\n"))
				block, closer = nil, ""
			}
			continue
		}

		if line == "" || !rules.indented && (line[0] == ' ' || line[0] == '\t') {
			continue
		}
		candidate := strings.TrimLeft(line, " \t")

		if rules.imports.MatchString(candidate) {
			switch {
			case strings.HasSuffix(candidate, "("):
				block, closer = []string{line}, ")"
			case strings.HasSuffix(candidate, "{"):
				block, closer = []string{line}, "}"
			default:
				o.Imports = append(o.Imports, line)
			}
			continue
		}

		for _, r := range rules.decls {
			m := r.re.FindStringSubmatch(candidate)
			if m == nil {
				continue
			}
			name := strings.TrimSpace(m[r.re.SubexpIndex("name")])
			o.Declarations = append(o.Declarations, Declaration{
				Kind:      r.kind,
				Name:      name,
				Signature: signatureOf(line, cut),
				Exported:  rules.exported(candidate, name),
				Line:      i + 1,
			})
			break
		}
	}
	if len(block) > 0 {
		o.Imports = append(o.Imports, strings.Join(block, "\n"))
	}
	return o
}
