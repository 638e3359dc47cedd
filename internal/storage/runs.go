package storage

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"ctxmap/internal/analysis"
	"ctxmap/internal/errors"
	"ctxmap/internal/graph"
)

// Run is a stored analysis run. Result is only populated by GetRun.
type Run struct {
	ID          string           `json:"id"`
	CreatedAt   time.Time        `json:"createdAt"`
	InputHash   string           `json:"inputHash"`
	Files       int              `json:"files"`
	Edges       int              `json:"edges"`
	Cycles      int              `json:"cycles"`
	Communities int              `json:"communities"`
	Budget      int              `json:"budget"`
	UsedTokens  int              `json:"usedTokens"`
	Result      *analysis.Result `json:"result,omitempty"`
}

// SaveRun stores res under a new run ID.
func (db *DB) SaveRun(ctx context.Context, inputHash string, res *analysis.Result) (*Run, error) {
	payload, err := json.Marshal(res)
	if err != nil {
		return nil, storageError("failed to encode result", err)
	}

	run := summarize(res)
	run.ID = uuid.NewString()
	run.CreatedAt = time.Now().UTC()
	run.InputHash = inputHash

	compressed := db.codec.compress(payload)
	err = db.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO analysis_runs
				(id, created_at, input_hash, files, edges, cycles, communities, budget, used_tokens, result)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, run.ID, run.CreatedAt.UnixNano(), run.InputHash, run.Files, run.Edges,
			run.Cycles, run.Communities, run.Budget, run.UsedTokens, compressed)
		return err
	})
	if err != nil {
		return nil, storageError("failed to save run", err)
	}

	db.logger.Debug("Run saved",
		"id", run.ID,
		"bytes", len(payload),
		"compressed", len(compressed),
	)
	return run, nil
}

// GetRun loads a run including its decoded result.
func (db *DB) GetRun(ctx context.Context, id string) (*Run, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT id, created_at, input_hash, files, edges, cycles, communities, budget, used_tokens, result
		FROM analysis_runs WHERE id = ?
	`, id)

	var run Run
	var created int64
	var blob []byte
	err := row.Scan(&run.ID, &created, &run.InputHash, &run.Files, &run.Edges,
		&run.Cycles, &run.Communities, &run.Budget, &run.UsedTokens, &blob)
	if err == sql.ErrNoRows {
		return nil, runNotFound(id)
	}
	if err != nil {
		return nil, storageError("failed to load run", err)
	}
	run.CreatedAt = time.Unix(0, created).UTC()

	payload, err := db.codec.decompress(blob)
	if err != nil {
		return nil, storageError(fmt.Sprintf("failed to decompress run %s", id), err)
	}
	var res analysis.Result
	if err := json.Unmarshal(payload, &res); err != nil {
		return nil, storageError(fmt.Sprintf("failed to decode run %s", id), err)
	}
	run.Result = &res
	return &run, nil
}

// ListRuns returns run summaries, newest first. A limit <= 0 lists all.
func (db *DB) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `
		SELECT id, created_at, input_hash, files, edges, cycles, communities, budget, used_tokens
		FROM analysis_runs ORDER BY created_at DESC, id`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageError("failed to list runs", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var run Run
		var created int64
		if err := rows.Scan(&run.ID, &created, &run.InputHash, &run.Files, &run.Edges,
			&run.Cycles, &run.Communities, &run.Budget, &run.UsedTokens); err != nil {
			return nil, storageError("failed to scan run", err)
		}
		run.CreatedAt = time.Unix(0, created).UTC()
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("failed to list runs", err)
	}
	return runs, nil
}

// LatestRunForInput returns the newest run with the given input hash, or
// nil when there is none.
func (db *DB) LatestRunForInput(ctx context.Context, inputHash string) (*Run, error) {
	var id string
	err := db.conn.QueryRowContext(ctx, `
		SELECT id FROM analysis_runs WHERE input_hash = ?
		ORDER BY created_at DESC, id LIMIT 1
	`, inputHash).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, storageError("failed to look up input hash", err)
	}
	return db.GetRun(ctx, id)
}

// DeleteRun removes a run.
func (db *DB) DeleteRun(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, "DELETE FROM analysis_runs WHERE id = ?", id)
	if err != nil {
		return storageError("failed to delete run", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageError("failed to delete run", err)
	}
	if n == 0 {
		return runNotFound(id)
	}
	return nil
}

func summarize(res *analysis.Result) *Run {
	run := &Run{
		Files: len(res.Graph.Nodes),
		Edges: len(res.Graph.Edges),
	}
	if res.Cycles != nil {
		run.Cycles = len(res.Cycles.Groups)
	}
	if res.Communities != nil {
		run.Communities = len(res.Communities.Communities)
	}
	if res.Selection != nil {
		run.Budget = res.Selection.Budget
		run.UsedTokens = res.Selection.Used
	}
	return run
}

func runNotFound(id string) *errors.AnalysisError {
	return errors.NewAnalysisError(errors.RunNotFound, fmt.Sprintf("run %s not found", id), nil, nil)
}

// InputHash returns a hex sha256 over the canonical form of in. Paths are
// normalized and files are stably sorted by path, which keeps the first of
// any duplicates first. Edges keep their supplied order since it decides
// the order of graph edges in the result.
func InputHash(in analysis.Input) string {
	type canonFile struct {
		Path     string        `json:"path"`
		Size     int64         `json:"size"`
		Language string        `json:"language"`
		Signals  graph.Signals `json:"signals"`
		Tokens   int           `json:"tokens"`
		Content  string        `json:"content"`
	}
	files := make([]canonFile, len(in.Files))
	for i, f := range in.Files {
		files[i] = canonFile{
			Path:     graph.NormalizePath(f.Node.Path),
			Size:     f.Node.Size,
			Language: f.Node.Language,
			Signals:  f.Node.Signals,
			Tokens:   f.Tokens,
			Content:  f.Content,
		}
	}
	sort.SliceStable(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	edges := make([]graph.ImportEdge, len(in.Edges))
	for i, e := range in.Edges {
		e.Source = graph.NormalizePath(e.Source)
		if !e.Unresolved {
			e.Target = graph.NormalizePath(e.Target)
		}
		edges[i] = e
	}

	data, _ := json.Marshal(struct {
		Budget int                `json:"budget"`
		Files  []canonFile        `json:"files"`
		Edges  []graph.ImportEdge `json:"edges"`
	}{in.Budget, files, edges})
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
