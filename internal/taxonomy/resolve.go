package taxonomy

import (
	"strings"
	"unicode"
)

// Common abbreviations seen in model output and user-entered names.
var abbreviations = map[string]string{
	"db":  "dumbbell",
	"bb":  "barbell",
	"kb":  "kettlebell",
	"ohp": "overhead press",
	"rdl": "romanian deadlift",
}

// normalizeName lowercases, expands abbreviations, and strips
// everything except letters, digits, and single spaces.
func normalizeName(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	lastSpace := true
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		default:
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}
	norm := strings.TrimSpace(b.String())

	words := strings.Fields(norm)
	for i, w := range words {
		if exp, ok := abbreviations[w]; ok {
			words[i] = exp
		}
	}
	return strings.Join(words, " ")
}

// Resolve maps a free-form exercise name to a taxonomy ID. Matching is
// exact on normalized name/alias first, then a conservative token
// containment pass. Returns ("", false) when nothing matches; the
// resolver never invents exercises.
func (idx *Index) Resolve(name string) (string, bool) {
	norm := normalizeName(name)
	if norm == "" {
		return "", false
	}
	if id, ok := idx.aliases[norm]; ok {
		return id, true
	}

	// Token containment: every word of the shorter form must appear in
	// the longer one. Ties go to the alphabetically first candidate via
	// the ordered slice, keeping resolution deterministic.
	queryTokens := strings.Fields(norm)
	var bestID string
	bestScore := 0
	for _, ex := range idx.ordered {
		candidates := []string{normalizeName(ex.Name)}
		for _, a := range ex.Aliases {
			candidates = append(candidates, normalizeName(a))
		}
		for _, cand := range candidates {
			score := containmentScore(queryTokens, strings.Fields(cand))
			if score > bestScore {
				bestScore = score
				bestID = ex.ID
			}
		}
	}
	if bestID != "" && bestScore == len(queryTokens) {
		return bestID, true
	}
	return "", false
}

// containmentScore counts query tokens present in the candidate token
// set. A full count means every query word matched.
func containmentScore(query, candidate []string) int {
	set := make(map[string]bool, len(candidate))
	for _, t := range candidate {
		set[t] = true
	}
	n := 0
	for _, t := range query {
		if set[t] {
			n++
		}
	}
	return n
}
