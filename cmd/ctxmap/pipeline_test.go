package main

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"ctxmap/internal/config"
	"ctxmap/internal/errors"
	"ctxmap/internal/slogutil"
)

const testManifest = `{
  "budget": 100,
  "files": [
    {"path": "src/models/user.ts", "tokens": 40, "signals": {"classes": 1, "interfaces": 1, "functions": 0, "imports": 1}},
    {"path": "src/services/user.service.ts", "tokens": 40, "signals": {"classes": 1, "interfaces": 0, "functions": 3, "imports": 1}},
    {"path": "src/index.ts", "tokens": 40, "signals": {"classes": 0, "interfaces": 0, "functions": 1, "imports": 1}}
  ],
  "edges": [
    {"from": "src/services/user.service.ts", "to": "src/models/user.ts"},
    {"from": "src/models/user.ts", "to": "src/services/user.service.ts"},
    {"from": "src/index.ts", "to": "src/services/user.service.ts"}
  ]
}`

func newTestSession(t *testing.T) *session {
	t.Helper()
	repo := t.TempDir()
	if err := os.WriteFile(filepath.Join(repo, "ctxmap.json"), []byte(testManifest), 0644); err != nil {
		t.Fatal(err)
	}
	return &session{
		repoRoot: repo,
		cfg:      config.DefaultConfig(),
		logger:   slogutil.NewDiscardLogger(),
	}
}

func TestRunPipeline(t *testing.T) {
	s := newTestSession(t)

	out, err := runPipeline(context.Background(), s, inputFlags{manifest: "ctxmap.json", budget: -1})
	if err != nil {
		t.Fatalf("runPipeline() error = %v", err)
	}
	res := out.Result

	if len(res.Graph.Nodes) != 3 || len(res.Graph.Edges) != 3 {
		t.Errorf("graph = %d nodes, %d edges, want 3, 3", len(res.Graph.Nodes), len(res.Graph.Edges))
	}
	if len(res.Cycles.Groups) != 1 || len(res.Cycles.Groups[0].Members) != 2 {
		t.Errorf("cycles = %+v, want one two-file cycle", res.Cycles.Groups)
	}
	if len(res.Scores) != 3 {
		t.Fatalf("scores = %d, want 3", len(res.Scores))
	}
	if res.Selection.Budget != 100 {
		t.Errorf("Budget = %d, want manifest budget 100", res.Selection.Budget)
	}
	if res.Selection.Used > 100 {
		t.Errorf("Used = %d exceeds budget", res.Selection.Used)
	}
	if out.InputHash == "" {
		t.Error("InputHash is empty")
	}
	if out.Run != nil || out.Previous != nil {
		t.Error("run stored without --save")
	}
}

func TestRunPipelineBudgetFlag(t *testing.T) {
	s := newTestSession(t)

	out, err := runPipeline(context.Background(), s, inputFlags{manifest: "ctxmap.json", budget: 50})
	if err != nil {
		t.Fatalf("runPipeline() error = %v", err)
	}
	if out.Result.Selection.Budget != 50 {
		t.Errorf("Budget = %d, want flag budget 50", out.Result.Selection.Budget)
	}
	if out.Result.Selection.Included != 1 {
		t.Errorf("Included = %d, want 1", out.Result.Selection.Included)
	}
}

func TestRunPipelineSave(t *testing.T) {
	s := newTestSession(t)
	flags := inputFlags{manifest: "ctxmap.json", budget: -1, save: true}

	first, err := runPipeline(context.Background(), s, flags)
	if err != nil {
		t.Fatalf("first runPipeline() error = %v", err)
	}
	if first.Run == nil {
		t.Fatal("first run not saved")
	}
	if first.Previous != nil {
		t.Errorf("Previous = %s, want none", first.Previous.ID)
	}

	second, err := runPipeline(context.Background(), s, flags)
	if err != nil {
		t.Fatalf("second runPipeline() error = %v", err)
	}
	if second.Previous == nil || second.Previous.ID != first.Run.ID {
		t.Errorf("Previous = %+v, want run %s", second.Previous, first.Run.ID)
	}
	if second.InputHash != first.InputHash {
		t.Error("same input hashed differently")
	}

	if _, err := os.Stat(filepath.Join(s.repoRoot, config.Dir, "ctxmap.db")); err != nil {
		t.Errorf("store not created: %v", err)
	}
}

func TestRunPipelineErrors(t *testing.T) {
	s := newTestSession(t)

	tests := []struct {
		name  string
		flags inputFlags
		code  errors.ErrorCode
	}{
		{"no input", inputFlags{budget: -1}, errors.InvalidInput},
		{"missing scip index", inputFlags{scip: "missing.scip", budget: -1}, errors.IndexMissing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runPipeline(context.Background(), s, tt.flags)
			var ae *errors.AnalysisError
			if !stderrors.As(err, &ae) || ae.Code != tt.code {
				t.Errorf("runPipeline() error = %v, want %s", err, tt.code)
			}
		})
	}
}
