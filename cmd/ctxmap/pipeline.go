package main

import (
	"context"

	"github.com/spf13/cobra"

	"ctxmap/internal/analysis"
	"ctxmap/internal/backends/scip"
	"ctxmap/internal/config"
	"ctxmap/internal/errors"
	"ctxmap/internal/manifest"
	"ctxmap/internal/outline"
	"ctxmap/internal/storage"
)

// inputFlags are shared by every command that runs the analysis.
type inputFlags struct {
	manifest string
	scip     string
	budget   int
	format   string
	save     bool
}

func addInputFlags(cmd *cobra.Command, f *inputFlags) {
	cmd.Flags().StringVar(&f.manifest, "manifest", "", "Input manifest (.json, .yaml or .toml)")
	cmd.Flags().StringVar(&f.scip, "scip", "", "SCIP index to derive import edges from")
	cmd.Flags().IntVar(&f.budget, "budget", -1, "Token budget (default: manifest budget, then budget.tokenBudget)")
	cmd.Flags().StringVar(&f.format, "format", "json", "Output format (json, human)")
}

// pipelineOutput is one analysis run plus its storage bookkeeping.
type pipelineOutput struct {
	Result    *analysis.Result
	InputHash string
	Run       *storage.Run
	// Previous is the newest stored run with the same input hash, looked up
	// only when saving
	Previous *storage.Run
}

// runPipeline resolves the input, analyzes it and optionally stores the run.
func runPipeline(ctx context.Context, s *session, f inputFlags) (*pipelineOutput, error) {
	if f.manifest == "" && f.scip == "" {
		return nil, errors.NewAnalysisError(errors.InvalidInput, "one of --manifest or --scip is required", nil, nil)
	}

	m := manifest.New(s.repoRoot)
	if f.manifest != "" {
		var err error
		m, err = manifest.Load(config.Resolve(s.repoRoot, f.manifest))
		if err != nil {
			return nil, err
		}
	}

	if f.scip != "" {
		idx, err := scip.LoadIndex(scip.IndexPath(s.repoRoot, f.scip))
		if err != nil {
			return nil, err
		}
		fg := scip.FileGraph(idx)
		addedFiles, addedEdges := m.Merge(fg.Files, fg.Edges)
		s.logger.Debug("SCIP index merged",
			"documents", len(idx.Documents),
			"addedFiles", addedFiles,
			"addedEdges", addedEdges,
			"unresolvedSymbols", fg.UnresolvedSymbols,
			"indexedCommit", idx.IndexedCommit,
		)
	}

	extractor, err := outline.NewExtractor(s.cfg.OutlineOptions(s.logger))
	if err != nil {
		return nil, err
	}
	in, err := manifest.Resolve(ctx, m, extractor, s.cfg.Counter())
	if err != nil {
		return nil, err
	}
	switch {
	case f.budget >= 0:
		in.Budget = f.budget
	case in.Budget == 0:
		in.Budget = s.cfg.Budget.TokenBudget
	}

	opts, err := s.cfg.AnalysisOptions(s.repoRoot, extractor, s.logger)
	if err != nil {
		return nil, err
	}
	res, err := analysis.Analyze(ctx, in, opts)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("Analysis finished", "files", len(in.Files), "outlinesCached", extractor.Cached())

	out := &pipelineOutput{
		Result:    res,
		InputHash: storage.InputHash(in),
	}
	if !f.save {
		return out, nil
	}

	db, err := s.openStore()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	if out.Previous, err = db.LatestRunForInput(ctx, out.InputHash); err != nil {
		return nil, err
	}
	if out.Run, err = db.SaveRun(ctx, out.InputHash, res); err != nil {
		return nil, err
	}
	s.logger.Info("Run saved", "id", out.Run.ID, "path", db.Path())
	return out, nil
}
