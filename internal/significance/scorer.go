// Package significance scores files by name, location, structure and
// connectivity, and ranks them.
package significance

import (
	"math"
	"path"
	"sort"
	"strings"

	"ctxmap/internal/graph"
	"ctxmap/internal/naming"
)

// Input is everything needed to score one file.
type Input struct {
	Node                 graph.FileNode
	NormalizedInDegree   float64
	NormalizedImportance float64
}

// FileScore is the scored form of a file. Rank is 0 until Rank is called.
type FileScore struct {
	Path         string  `json:"path"`
	Name         float64 `json:"name"`
	PathScore    float64 `json:"pathScore"`
	Structure    float64 `json:"structure"`
	Connectivity float64 `json:"connectivity"`
	Total        float64 `json:"total"`
	Rank         int     `json:"rank"`
}

// Scorer applies a fixed rule set. It holds no mutable state.
type Scorer struct {
	rules Rules
}

// NewScorer creates a scorer over rules.
func NewScorer(rules Rules) *Scorer {
	return &Scorer{rules: rules}
}

// Rules returns the rules the scorer applies.
func (s *Scorer) Rules() Rules { return s.rules }

// Score computes the four sub-scores and their capped total.
func (s *Scorer) Score(in Input) FileScore {
	fs := FileScore{
		Path:         in.Node.Path,
		Name:         s.NameScore(in.Node.Path),
		PathScore:    s.PathScore(in.Node.Path),
		Structure:    s.StructureScore(in.Node.Signals),
		Connectivity: s.ConnectivityScore(in.NormalizedInDegree, in.NormalizedImportance),
	}
	fs.Total = round2(math.Min(fs.Name+fs.PathScore+fs.Structure+fs.Connectivity, s.rules.MaxTotal))
	return fs
}

// NameScore matches the file-name tokens against the name rules. The
// highest score wins, then the longer keyword, then the earlier rule.
func (s *Scorer) NameScore(p string) float64 {
	tokens := naming.Tokens(p)

	best, bestLen := 0.0, 0
	matched := false
	for _, rule := range s.rules.Name {
		for _, kw := range rule.Keywords {
			kw = strings.ToLower(kw)
			if !anyMatches(tokens, kw) {
				continue
			}
			if !matched || rule.Score > best || (rule.Score == best && len(kw) > bestLen) {
				best, bestLen, matched = rule.Score, len(kw), true
			}
		}
	}
	return best
}

func anyMatches(tokens []string, kw string) bool {
	for _, t := range tokens {
		if naming.Matches(t, kw) {
			return true
		}
	}
	return false
}

// PathScore matches the directory segments of p against the path rules.
// The longest pattern (in segments) wins, then the highest score, then the
// earlier rule.
func (s *Scorer) PathScore(p string) float64 {
	dir := path.Dir(p)
	if dir == "." || dir == "/" {
		return 0
	}
	segments := strings.Split(strings.ToLower(strings.Trim(dir, "/")), "/")

	best, bestLen := 0.0, 0
	for _, rule := range s.rules.Path {
		for _, pattern := range rule.Patterns {
			want := strings.Split(strings.ToLower(strings.Trim(pattern, "/")), "/")
			if !containsRun(segments, want) {
				continue
			}
			if len(want) > bestLen || (len(want) == bestLen && rule.Score > best) {
				best, bestLen = rule.Score, len(want)
			}
		}
	}
	return best
}

// containsRun reports whether want occurs as a contiguous run in segments.
func containsRun(segments, want []string) bool {
	for i := 0; i+len(want) <= len(segments); i++ {
		match := true
		for j := range want {
			if segments[i+j] != want[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// StructureScore weights class, interface and function counts, capping each
// term and then the sum.
func (s *Scorer) StructureScore(sig graph.Signals) float64 {
	r := s.rules.Structure
	score := math.Min(float64(sig.Classes)*r.ClassWeight, r.ClassCap) +
		math.Min(float64(sig.Interfaces)*r.InterfaceWeight, r.InterfaceCap) +
		math.Min(float64(sig.Functions)*r.FunctionWeight, r.FunctionCap)
	return math.Min(score, r.Cap)
}

// ConnectivityScore is max * (0.5*inDegree + 0.5*importance) on normalized
// inputs, rounded to two decimals.
func (s *Scorer) ConnectivityScore(normInDegree, normImportance float64) float64 {
	max := s.rules.ConnectivityMax
	v := max * (0.5*clamp01(normInDegree) + 0.5*clamp01(normImportance))
	return math.Min(round2(v), max)
}

// Rank returns scores sorted by descending total, ties by path, with Rank
// set to the 1-based position.
func (s *Scorer) Rank(scores []FileScore) []FileScore {
	out := make([]FileScore, len(scores))
	copy(out, scores)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Path < out[j].Path
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
