package match

import (
	"sort"
	"strings"
)

// DefaultThreshold is the minimum score for a name to be offered as a suggestion.
const DefaultThreshold = 0.55

// Candidate is a known field name scored against a name that failed to resolve.
type Candidate struct {
	Name  string
	Score float64
}

// CandidateList is a list of candidates ordered best first.
type CandidateList []Candidate

// Rank scores every name against target and returns them best first.
// The score is the higher of plain and suffix-stripped similarity, with a
// small bonus when one name contains the other.
func Rank(target string, names []string) CandidateList {
	candidates := make(CandidateList, 0, len(names))

	normTarget := NormalizeIdent(target)

	for _, name := range names {
		score := max(NameSimilarity(target, name), StemSimilarity(target, name))

		normName := NormalizeIdent(name)
		if normTarget != "" && normName != "" && score < 1.0 &&
			(strings.Contains(normName, normTarget) || strings.Contains(normTarget, normName)) {
			score = min(1.0, score+0.1)
		}

		candidates = append(candidates, Candidate{Name: name, Score: score})
	}

	sort.Sort(candidates)

	return candidates
}

// Suggest returns up to n names scoring at least threshold against target.
func Suggest(target string, names []string, n int, threshold float64) []string {
	var out []string

	for _, c := range Rank(target, names).AboveThreshold(threshold).Top(n) {
		out = append(out, c.Name)
	}

	return out
}

// Len implements sort.Interface.
func (c CandidateList) Len() int { return len(c) }

// Swap implements sort.Interface.
func (c CandidateList) Swap(i, j int) { c[i], c[j] = c[j], c[i] }

// Less orders by score descending, then by name for determinism.
func (c CandidateList) Less(i, j int) bool {
	if c[i].Score != c[j].Score {
		return c[i].Score > c[j].Score
	}

	return c[i].Name < c[j].Name
}

// Top returns the first n candidates.
func (c CandidateList) Top(n int) CandidateList {
	if n < 0 || n >= len(c) {
		return c
	}

	return c[:n]
}

// Best returns the best candidate, or nil if there are none.
func (c CandidateList) Best() *Candidate {
	if len(c) == 0 {
		return nil
	}

	return &c[0]
}

// AboveThreshold returns candidates scoring at least threshold.
func (c CandidateList) AboveThreshold(threshold float64) CandidateList {
	var result CandidateList

	for _, cand := range c {
		if cand.Score >= threshold {
			result = append(result, cand)
		}
	}

	return result
}
