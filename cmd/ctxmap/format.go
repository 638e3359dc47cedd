package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"ctxmap/internal/errors"
	"ctxmap/internal/storage"
	"ctxmap/internal/version"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatHuman OutputFormat = "human"
)

// FormatResponse formats a response according to the specified format
func FormatResponse(resp interface{}, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(resp)
	case FormatHuman:
		return formatHuman(resp)
	default:
		return "", errors.NewAnalysisError(errors.InvalidInput,
			fmt.Sprintf("unsupported format: %s", format), nil, nil)
	}
}

func formatJSON(resp interface{}) (string, error) {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

func formatHuman(resp interface{}) (string, error) {
	switch v := resp.(type) {
	case *AnalyzeResponseCLI:
		return formatAnalyzeHuman(v), nil
	case *RankResponseCLI:
		return formatRankHuman(v), nil
	case *CyclesResponseCLI:
		return formatCyclesHuman(v), nil
	case *CommunitiesResponseCLI:
		return formatCommunitiesHuman(v), nil
	case *SelectResponseCLI:
		return formatSelectHuman(v), nil
	case *RunsListResponseCLI:
		return formatRunsHuman(v), nil
	case *storage.Run:
		return formatRunHuman(v), nil
	case *VersionResponseCLI:
		return formatVersionHuman(v), nil
	default:
		// For unknown types, fall back to JSON
		return formatJSON(resp)
	}
}

func formatAnalyzeHuman(resp *AnalyzeResponseCLI) string {
	var b strings.Builder
	res := resp.Result

	b.WriteString(fmt.Sprintf("ctxmap v%s\n", resp.Version))
	b.WriteString(strings.Repeat("=", 60) + "\n\n")

	stats := res.BuildStats
	b.WriteString(fmt.Sprintf("Graph: %d files, %d edges", len(res.Graph.Nodes), len(res.Graph.Edges)))
	if stats.UnresolvedImports > 0 {
		b.WriteString(fmt.Sprintf(" (%d unresolved imports)", stats.UnresolvedImports))
	}
	b.WriteString("\n")
	if res.Cycles != nil {
		b.WriteString(fmt.Sprintf("Cycles: %d (%d files)\n", len(res.Cycles.Groups), res.Cycles.FilesInCycles()))
	}
	if res.Communities != nil {
		b.WriteString(fmt.Sprintf("Communities: %d (modularity %.3f)\n",
			len(res.Communities.Communities), res.Communities.Modularity))
	}
	if sel := res.Selection; sel != nil {
		b.WriteString(fmt.Sprintf("Selection: %d/%d tokens, %d included, %d truncated, %d excluded\n",
			sel.Used, sel.Budget, sel.Included, sel.Truncated, sel.Excluded))
	}

	top := res.Scores
	if len(top) > 10 {
		top = top[:10]
	}
	if len(top) > 0 {
		b.WriteString("\nTop files:\n")
		for _, s := range top {
			b.WriteString(fmt.Sprintf("  %3d. %-50s %6.1f\n", s.Rank, s.Path, s.Total))
		}
	}

	b.WriteString(fmt.Sprintf("\nInput hash: %s\n", shortHash(resp.InputHash)))
	if resp.RunID != "" {
		b.WriteString(fmt.Sprintf("Saved as run %s\n", resp.RunID))
	}
	if resp.PreviousRunID != "" {
		b.WriteString(fmt.Sprintf("Same input as run %s\n", resp.PreviousRunID))
	}
	writeDiagnostics(&b, res.Diagnostics)
	return b.String()
}

func formatRankHuman(resp *RankResponseCLI) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Files by significance (%d of %d)\n", len(resp.Files), resp.TotalFiles))
	b.WriteString(strings.Repeat("─", 80) + "\n")
	b.WriteString(fmt.Sprintf("%5s  %-44s %6s %8s %5s %5s\n", "RANK", "PATH", "SCORE", "IMPORT", "IN", "OUT"))
	for _, f := range resp.Files {
		marker := ""
		if f.InCycle {
			marker = " ↺"
		}
		b.WriteString(fmt.Sprintf("%5d  %-44s %6.1f %8.4f %5d %5d%s\n",
			f.Rank, f.Path, f.Total, f.Importance, f.InDegree, f.OutDegree, marker))
	}
	writeDiagnostics(&b, resp.Diagnostics)
	return b.String()
}

func formatCyclesHuman(resp *CyclesResponseCLI) string {
	var b strings.Builder

	if len(resp.Cycles) == 0 {
		b.WriteString("No import cycles found\n")
		writeDiagnostics(&b, resp.Diagnostics)
		return b.String()
	}

	b.WriteString(fmt.Sprintf("Import cycles (%d)\n", len(resp.Cycles)))
	b.WriteString(strings.Repeat("─", 60) + "\n")
	for _, g := range resp.Cycles {
		kind := fmt.Sprintf("%d files", len(g.Members))
		if g.SelfLoop {
			kind = "self-import"
		}
		b.WriteString(fmt.Sprintf("\n#%d (%s)\n", g.ID, kind))
		for _, m := range g.Members {
			b.WriteString(fmt.Sprintf("  %s\n", m))
		}
	}
	writeDiagnostics(&b, resp.Diagnostics)
	return b.String()
}

func formatCommunitiesHuman(resp *CommunitiesResponseCLI) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Communities (%d), modularity %.3f, weighted %.3f, %d levels\n",
		len(resp.Communities), resp.Modularity, resp.WeightedModularity, resp.Levels))
	b.WriteString(strings.Repeat("─", 60) + "\n")
	for _, c := range resp.Communities {
		b.WriteString(fmt.Sprintf("\n#%d %s (%d files, cohesion %.2f)\n", c.ID, c.Label, len(c.Members), c.Cohesion))
		for _, m := range c.Members {
			b.WriteString(fmt.Sprintf("  %s\n", m))
		}
	}
	writeDiagnostics(&b, resp.Diagnostics)
	return b.String()
}

func formatSelectHuman(resp *SelectResponseCLI) string {
	var b strings.Builder

	sel := resp.Selection
	if sel == nil {
		b.WriteString("No selection\n")
		writeDiagnostics(&b, resp.Diagnostics)
		return b.String()
	}

	b.WriteString(fmt.Sprintf("Selection: %d/%d tokens\n", sel.Used, sel.Budget))
	b.WriteString(strings.Repeat("─", 80) + "\n")
	for _, d := range sel.Decisions {
		line := fmt.Sprintf("%5d  %-10s %-44s %6d/%-6d", d.Rank, d.Status, d.Path, d.SelectedTokens, d.Tokens)
		if d.Reason != "" {
			line += " " + string(d.Reason)
		}
		b.WriteString(strings.TrimRight(line, " ") + "\n")
	}
	if t := resp.Truncation; t != nil {
		b.WriteString(fmt.Sprintf("\nDropped %d of %d files (%s)\n", t.DroppedCount, t.OriginalCount, t.Reason))
	}
	writeDiagnostics(&b, resp.Diagnostics)
	return b.String()
}

func formatRunsHuman(resp *RunsListResponseCLI) string {
	var b strings.Builder

	if len(resp.Runs) == 0 {
		b.WriteString("No stored runs\n")
		return b.String()
	}

	b.WriteString(fmt.Sprintf("%-36s  %-20s %6s %6s %6s %13s\n", "ID", "CREATED", "FILES", "EDGES", "CYCLES", "TOKENS"))
	for _, r := range resp.Runs {
		b.WriteString(fmt.Sprintf("%-36s  %-20s %6d %6d %6d %6d/%-6d\n",
			r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.Files, r.Edges, r.Cycles, r.UsedTokens, r.Budget))
	}
	return b.String()
}

func formatRunHuman(run *storage.Run) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Run %s\n", run.ID))
	b.WriteString(fmt.Sprintf("  Created:     %s\n", run.CreatedAt.Format("2006-01-02 15:04:05 MST")))
	b.WriteString(fmt.Sprintf("  Input hash:  %s\n", shortHash(run.InputHash)))
	b.WriteString(fmt.Sprintf("  Files:       %d\n", run.Files))
	b.WriteString(fmt.Sprintf("  Edges:       %d\n", run.Edges))
	b.WriteString(fmt.Sprintf("  Cycles:      %d\n", run.Cycles))
	b.WriteString(fmt.Sprintf("  Communities: %d\n", run.Communities))
	b.WriteString(fmt.Sprintf("  Tokens:      %d/%d\n", run.UsedTokens, run.Budget))
	if run.Result != nil {
		writeDiagnostics(&b, run.Result.Diagnostics)
	}
	return b.String()
}

func formatVersionHuman(resp *VersionResponseCLI) string {
	return version.Full() + "\n"
}

func writeDiagnostics(b *strings.Builder, diags []errors.Diagnostic) {
	if len(diags) == 0 {
		return
	}
	b.WriteString("\nDiagnostics:\n")
	for _, d := range diags {
		b.WriteString(fmt.Sprintf("  ! [%s] %s\n", d.Code, d.Message))
	}
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
