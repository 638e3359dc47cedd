package main

import (
	"ctxmap/internal/analysis"
	"ctxmap/internal/community"
	"ctxmap/internal/compression"
	"ctxmap/internal/cycles"
	"ctxmap/internal/errors"
	"ctxmap/internal/storage"
	"ctxmap/internal/version"
)

// AnalyzeResponseCLI is the full result of one run.
type AnalyzeResponseCLI struct {
	Version       string           `json:"version"`
	InputHash     string           `json:"inputHash"`
	RunID         string           `json:"runId,omitempty"`
	PreviousRunID string           `json:"previousRunId,omitempty"`
	Result        *analysis.Result `json:"result"`
}

// RankedFileCLI joins a file's score with its graph metrics.
type RankedFileCLI struct {
	Rank         int     `json:"rank"`
	Path         string  `json:"path"`
	Total        float64 `json:"total"`
	Name         float64 `json:"name"`
	PathScore    float64 `json:"pathScore"`
	Structure    float64 `json:"structure"`
	Connectivity float64 `json:"connectivity"`
	Importance   float64 `json:"importance"`
	Betweenness  float64 `json:"betweenness"`
	InDegree     int     `json:"inDegree"`
	OutDegree    int     `json:"outDegree"`
	Community    int     `json:"community,omitempty"`
	InCycle      bool    `json:"inCycle,omitempty"`
}

// RankResponseCLI lists files by significance.
type RankResponseCLI struct {
	Files       []RankedFileCLI     `json:"files"`
	TotalFiles  int                 `json:"totalFiles"`
	Diagnostics []errors.Diagnostic `json:"diagnostics,omitempty"`
}

// CyclesResponseCLI lists import cycles.
type CyclesResponseCLI struct {
	Cycles      []cycles.Group      `json:"cycles"`
	Diagnostics []errors.Diagnostic `json:"diagnostics,omitempty"`
}

// CommunitiesResponseCLI lists the domain partition.
type CommunitiesResponseCLI struct {
	Communities        []community.Community `json:"communities"`
	Modularity         float64               `json:"modularity"`
	WeightedModularity float64               `json:"weightedModularity"`
	Levels             int                   `json:"levels"`
	Diagnostics        []errors.Diagnostic   `json:"diagnostics,omitempty"`
}

// SelectResponseCLI is the budgeted file selection.
type SelectResponseCLI struct {
	Selection   *compression.Selection      `json:"selection"`
	Truncation  *compression.TruncationInfo `json:"truncation,omitempty"`
	Diagnostics []errors.Diagnostic         `json:"diagnostics,omitempty"`
}

// RunsListResponseCLI lists stored runs.
type RunsListResponseCLI struct {
	Runs []storage.Run `json:"runs"`
}

// VersionResponseCLI is the build information.
type VersionResponseCLI struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"buildDate"`
}

func buildAnalyzeResponse(out *pipelineOutput) *AnalyzeResponseCLI {
	resp := &AnalyzeResponseCLI{
		Version:   version.Version,
		InputHash: out.InputHash,
		Result:    out.Result,
	}
	if out.Run != nil {
		resp.RunID = out.Run.ID
	}
	if out.Previous != nil {
		resp.PreviousRunID = out.Previous.ID
	}
	return resp
}

// buildRankResponse returns the top limit files; limit <= 0 returns all.
func buildRankResponse(res *analysis.Result, limit int) *RankResponseCLI {
	scores := res.Scores
	if limit > 0 && limit < len(scores) {
		scores = scores[:limit]
	}

	files := make([]RankedFileCLI, 0, len(scores))
	for _, s := range scores {
		f := RankedFileCLI{
			Rank:         s.Rank,
			Path:         s.Path,
			Total:        s.Total,
			Name:         s.Name,
			PathScore:    s.PathScore,
			Structure:    s.Structure,
			Connectivity: s.Connectivity,
		}
		if res.Metrics != nil {
			if m, ok := res.Metrics.Get(s.Path); ok {
				f.Importance = m.Importance
				f.Betweenness = m.Betweenness
				f.InDegree = m.InDegree
				f.OutDegree = m.OutDegree
			}
		}
		if res.Communities != nil {
			if c, ok := res.Communities.CommunityOf(s.Path); ok {
				f.Community = c.ID
			}
		}
		if res.Cycles != nil {
			_, f.InCycle = res.Cycles.CycleOf(s.Path)
		}
		files = append(files, f)
	}

	return &RankResponseCLI{
		Files:       files,
		TotalFiles:  len(res.Scores),
		Diagnostics: res.Diagnostics,
	}
}

func buildCyclesResponse(res *analysis.Result) *CyclesResponseCLI {
	resp := &CyclesResponseCLI{Cycles: []cycles.Group{}, Diagnostics: res.Diagnostics}
	if res.Cycles != nil && res.Cycles.Groups != nil {
		resp.Cycles = res.Cycles.Groups
	}
	return resp
}

func buildCommunitiesResponse(res *analysis.Result) *CommunitiesResponseCLI {
	resp := &CommunitiesResponseCLI{Communities: []community.Community{}, Diagnostics: res.Diagnostics}
	if c := res.Communities; c != nil {
		if c.Communities != nil {
			resp.Communities = c.Communities
		}
		resp.Modularity = c.Modularity
		resp.WeightedModularity = c.WeightedModularity
		resp.Levels = c.Levels
	}
	return resp
}

// buildSelectResponse drops file content unless withContent is set.
func buildSelectResponse(res *analysis.Result, withContent bool) *SelectResponseCLI {
	resp := &SelectResponseCLI{Diagnostics: res.Diagnostics}
	if res.Selection == nil {
		return resp
	}

	sel := *res.Selection
	if !withContent {
		sel.Decisions = make([]compression.Decision, len(res.Selection.Decisions))
		for i, d := range res.Selection.Decisions {
			d.Content = ""
			sel.Decisions[i] = d
		}
	}
	resp.Selection = &sel
	resp.Truncation = sel.Truncation()
	return resp
}
