package outline

import (
	"context"
	"strings"
	"testing"

	"ctxmap/internal/compression"
	"ctxmap/internal/graph"
)

var _ compression.Truncator = (*Extractor)(nil)

const goSource = `package billing

import (
	"context"
	"fmt"
)

// Invoice is billed.
type Invoice struct {
	ID string
}

type store interface {
	Get(id string) (*Invoice, error)
}

func NewInvoice(id string) *Invoice {
	return &Invoice{ID: id}
}

func (i *Invoice) Total(ctx context.Context) (int, error) {
	fmt.Println("x")
	return 0, nil
}

func helper() {}
`

const goTruncated = `package billing
import (
	"context"
	"fmt"
)

type Invoice struct
type store interface
func NewInvoice(id string) *Invoice
func (i *Invoice) Total(ctx context.Context) (int, error)
func helper()
// ... [truncated: 16 of 26 lines omitted]`

func newHeuristicExtractor(t *testing.T) *Extractor {
	t.Helper()
	e, err := NewExtractor(Options{Heuristics: true})
	if err != nil {
		t.Fatalf("NewExtractor: %v", err)
	}
	return e
}

func TestHeuristicGo(t *testing.T) {
	e := newHeuristicExtractor(t)

	o, err := e.Outline(context.Background(), "billing/invoice.go", goSource)
	if err != nil {
		t.Fatalf("Outline: %v", err)
	}
	if o.Language != LangGo || o.Parser != ParserHeuristic {
		t.Errorf("Language/Parser = %s/%s, want go/heuristic", o.Language, o.Parser)
	}
	if o.Lines != 26 {
		t.Errorf("Lines = %d, want 26", o.Lines)
	}

	want := []struct {
		kind     DeclKind
		name     string
		exported bool
		line     int
	}{
		{KindClass, "Invoice", true, 9},
		{KindInterface, "store", false, 13},
		{KindFunction, "NewInvoice", true, 17},
		{KindMethod, "Total", true, 21},
		{KindFunction, "helper", false, 26},
	}
	if len(o.Declarations) != len(want) {
		t.Fatalf("got %d declarations, want %d: %+v", len(o.Declarations), len(want), o.Declarations)
	}
	for i, w := range want {
		d := o.Declarations[i]
		if d.Kind != w.kind || d.Name != w.name || d.Exported != w.exported || d.Line != w.line {
			t.Errorf("Declarations[%d] = %+v, want %+v", i, d, w)
		}
	}

	wantSignals := graph.Signals{Classes: 1, Interfaces: 0, Functions: 2, Imports: 2}
	if o.Signals != wantSignals {
		t.Errorf("Signals = %+v, want %+v", o.Signals, wantSignals)
	}
	if got := o.Truncated(); got != goTruncated {
		t.Errorf("Truncated() =\n%s\nwant\n%s", got, goTruncated)
	}
}

func TestHeuristicTypeScript(t *testing.T) {
	src := `import { Injectable } from '@nestjs/common';
import type {
  User,
} from './user.model';
const fs = require('fs');

export interface UserRepo {
  find(id: string): Promise<User>;
}

export type UserId = string;

export class UserService {
  constructor(private repo: UserRepo) {}
}

export const createUser = async (name: string): Promise<User> => {
  return { name } as User;
};

function internal() {}

export default UserService;
`
	e := newHeuristicExtractor(t)
	o, err := e.Outline(context.Background(), "src/services/user.service.ts", src)
	if err != nil {
		t.Fatalf("Outline: %v", err)
	}

	if len(o.Imports) != 3 {
		t.Errorf("Imports = %q, want 3 entries", o.Imports)
	}
	if o.Imports[1] != "import type {\n  User,\n} from './user.model';" {
		t.Errorf("multi-line import = %q", o.Imports[1])
	}

	want := []struct {
		kind      DeclKind
		name      string
		signature string
		exported  bool
	}{
		{KindInterface, "UserRepo", "export interface UserRepo", true},
		{KindType, "UserId", "export type UserId = string;", true},
		{KindClass, "UserService", "export class UserService", true},
		{KindFunction, "createUser", "export const createUser = async (name: string): Promise<User> =>", true},
		{KindFunction, "internal", "function internal()", false},
	}
	if len(o.Declarations) != len(want) {
		t.Fatalf("got %d declarations, want %d: %+v", len(o.Declarations), len(want), o.Declarations)
	}
	for i, w := range want {
		d := o.Declarations[i]
		if d.Kind != w.kind || d.Name != w.name || d.Signature != w.signature || d.Exported != w.exported {
			t.Errorf("Declarations[%d] = %+v, want %+v", i, d, w)
		}
	}

	wantSignals := graph.Signals{Classes: 1, Interfaces: 2, Functions: 1, Imports: 3}
	if o.Signals != wantSignals {
		t.Errorf("Signals = %+v, want %+v", o.Signals, wantSignals)
	}
}

func TestHeuristicPython(t *testing.T) {
	src := `import os
from typing import Protocol

class Store(Protocol):
    def get(self, key: str) -> str: ...

class _Cache:
    pass

def load(path: str) -> dict:
    return {}

async def fetch(url):
    pass
`
	e := newHeuristicExtractor(t)
	o, err := e.Outline(context.Background(), "app/store.py", src)
	if err != nil {
		t.Fatalf("Outline: %v", err)
	}

	sigs := make([]string, len(o.Declarations))
	for i, d := range o.Declarations {
		sigs[i] = d.Signature
	}
	wantSigs := []string{
		"class Store(Protocol):",
		"class _Cache:",
		"def load(path: str) -> dict:",
		"async def fetch(url):",
	}
	if strings.Join(sigs, "|") != strings.Join(wantSigs, "|") {
		t.Errorf("signatures = %q, want %q", sigs, wantSigs)
	}
	if o.Declarations[1].Exported {
		t.Error("_Cache should not be exported")
	}
	wantSignals := graph.Signals{Classes: 1, Functions: 2, Imports: 2}
	if o.Signals != wantSignals {
		t.Errorf("Signals = %+v, want %+v", o.Signals, wantSignals)
	}
	if !strings.HasSuffix(o.Truncated(), "# ... [truncated: 8 of 14 lines omitted]") {
		t.Errorf("Truncated() marker = %q", o.Truncated())
	}
}

func TestHeuristicRust(t *testing.T) {
	src := `use std::fmt;
mod util;

pub struct Config {
    pub name: String,
}

pub trait Source {
    fn read(&self) -> String;
}

impl Source for Config {
    fn read(&self) -> String {
        self.name.clone()
    }
}

fn private_helper() {}

pub fn load() -> Config {
    Config { name: String::new() }
}
`
	e := newHeuristicExtractor(t)
	o, err := e.Outline(context.Background(), "src/config.rs", src)
	if err != nil {
		t.Fatalf("Outline: %v", err)
	}

	kinds := make([]string, len(o.Declarations))
	for i, d := range o.Declarations {
		kinds[i] = string(d.Kind) + ":" + d.Name
	}
	want := "class:Config interface:Source impl:Source for Config function:private_helper function:load"
	if got := strings.Join(kinds, " "); got != want {
		t.Errorf("declarations = %q, want %q", got, want)
	}
	wantSignals := graph.Signals{Classes: 1, Interfaces: 1, Functions: 1, Imports: 2}
	if o.Signals != wantSignals {
		t.Errorf("Signals = %+v, want %+v", o.Signals, wantSignals)
	}
}

func TestHeuristicJavaAndKotlin(t *testing.T) {
	tests := []struct {
		path    string
		src     string
		signals graph.Signals
	}{
		{
			path: "src/main/java/app/UserController.java",
			src: `package app;

import java.util.List;

public class UserController {
    public List<String> list() { return null; }
}

interface Hidden {}

public enum Role { ADMIN, USER }
`,
			signals: graph.Signals{Classes: 2, Interfaces: 0, Imports: 2},
		},
		{
			path: "src/main/kotlin/app/UserRepository.kt",
			src: `package app

import kotlinx.coroutines.flow.Flow

interface UserRepository {
    fun all(): Flow<String>
}

data class User(val id: String)

private fun helper() = Unit

fun main() {}
`,
			signals: graph.Signals{Classes: 1, Interfaces: 1, Functions: 1, Imports: 2},
		},
	}

	e := newHeuristicExtractor(t)
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			o, err := e.Outline(context.Background(), tt.path, tt.src)
			if err != nil {
				t.Fatalf("Outline: %v", err)
			}
			if o.Signals != tt.signals {
				t.Errorf("Signals = %+v, want %+v", o.Signals, tt.signals)
			}
		})
	}
}

func TestTruncateWithoutOutline(t *testing.T) {
	e := newHeuristicExtractor(t)

	tests := []struct {
		path    string
		content string
	}{
		{"README.md", "# Title\n\nSome prose.\n"},
		{"src/empty.ts", ""},
		{"src/data.ts", "  // only a comment\n"},
	}
	for _, tt := range tests {
		if got, ok := e.Truncate(tt.path, tt.content); ok {
			t.Errorf("Truncate(%q) = %q, true; want no truncated form", tt.path, got)
		}
	}
}

func TestTruncateIsSmaller(t *testing.T) {
	e := newHeuristicExtractor(t)

	got, ok := e.Truncate("billing/invoice.go", goSource)
	if !ok {
		t.Fatal("Truncate() ok = false, want true")
	}
	if got != goTruncated {
		t.Errorf("Truncate() = %q", got)
	}
	counter := compression.EstimateCounter{}
	if counter.Count(got) >= counter.Count(goSource) {
		t.Errorf("truncated form (%d tokens) not smaller than source (%d)", counter.Count(got), counter.Count(goSource))
	}
}

func TestOutlineCache(t *testing.T) {
	e := newHeuristicExtractor(t)
	ctx := context.Background()

	first, err := e.Outline(ctx, "a/invoice.go", goSource)
	if err != nil {
		t.Fatal(err)
	}
	second, err := e.Outline(ctx, "b/other.go", goSource)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Error("same language and content should hit the cache")
	}
	if e.Cached() != 1 {
		t.Errorf("Cached() = %d, want 1", e.Cached())
	}

	if _, err := e.Outline(ctx, "a/invoice.py", goSource); err != nil {
		t.Fatal(err)
	}
	if e.Cached() != 2 {
		t.Errorf("Cached() = %d, want 2 after a different language", e.Cached())
	}
}

func TestOutlineCacheEviction(t *testing.T) {
	e, err := NewExtractor(Options{CacheSize: 2, Heuristics: true})
	if err != nil {
		t.Fatal(err)
	}
	for _, src := range []string{"func a() {}\n", "func b() {}\n", "func c() {}\n"} {
		if _, err := e.Outline(context.Background(), "x.go", src); err != nil {
			t.Fatal(err)
		}
	}
	if e.Cached() != 2 {
		t.Errorf("Cached() = %d, want 2", e.Cached())
	}
}

func TestOutlineCancelled(t *testing.T) {
	e := newHeuristicExtractor(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := e.Outline(ctx, "a.go", goSource); err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestLanguageFromPath(t *testing.T) {
	tests := []struct {
		path string
		want Language
	}{
		{"src/app.ts", LangTypeScript},
		{"src/App.TSX", LangTSX},
		{"lib\\util.js", LangJavaScript},
		{"main.go", LangGo},
		{"pkg/mod.rs", LangRust},
		{"app/models.py", LangPython},
		{"Main.java", LangJava},
		{"build.gradle.kts", LangKotlin},
		{"Program.cs", LangCSharp},
		{"lib/task.rb", LangRuby},
		{"scripts/build.sh", LangShell},
		{"README.md", LangUnknown},
		{"Makefile", LangUnknown},
	}

	for _, tt := range tests {
		if got := LanguageFromPath(tt.path); got != tt.want {
			t.Errorf("LanguageFromPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestCountLines(t *testing.T) {
	tests := []struct {
		content string
		want    int
	}{
		{"", 0},
		{"a", 1},
		{"a\n", 1},
		{"a\nb", 2},
		{"a\n\n", 2},
	}
	for _, tt := range tests {
		if got := countLines(tt.content); got != tt.want {
			t.Errorf("countLines(%q) = %d, want %d", tt.content, got, tt.want)
		}
	}
}

func TestSignatureOf(t *testing.T) {
	tests := []struct {
		text     string
		cutBrace bool
		want     string
	}{
		{"func main() {\n}", true, "func main()"},
		{"@Override\npublic void run() {", true, "public void run()"},
		{"def f(x={}):\n    pass", false, "def f(x={}):"},
		{"#[derive(Debug)]\npub struct A {", true, "pub struct A"},
	}
	for _, tt := range tests {
		if got := signatureOf(tt.text, tt.cutBrace); got != tt.want {
			t.Errorf("signatureOf(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}
