package service

import (
	"sort"
	"strings"

	"github.com/alumnet/alumnet/cmd/alumnet/models"
)

// Matcher ranks roster records against a self-reported claim. It holds no
// state beyond its thresholds and is safe for concurrent use.
type Matcher struct {
	floor         float64
	maxCandidates int
}

func NewMatcher(floor float64, maxCandidates int) *Matcher {
	if maxCandidates <= 0 {
		maxCandidates = 5
	}
	return &Matcher{floor: floor, maxCandidates: maxCandidates}
}

// Rank filters records to the claim's batch and branch, scores the survivors
// by name similarity and returns at most maxCandidates of them, best first.
// An exact roll number match within the cohort is authoritative: it scores
// 1.0 and leads the result regardless of how the names compare. Ties between
// equal scores keep the records' original order, so ranking the same claim
// against the same roster always yields the same list.
func (m *Matcher) Rank(claim models.VerificationClaim, records []models.RosterRecord) []models.MatchCandidate {
	claimRoll := strings.TrimSpace(claim.RollNo)
	claimName := normalizeName(claim.Name)

	var rollHit *models.MatchCandidate
	candidates := make([]models.MatchCandidate, 0, m.maxCandidates)

	for _, rec := range records {
		if rec.Batch != claim.Batch || rec.Branch != claim.Branch {
			continue
		}
		if claimRoll != "" && strings.TrimSpace(rec.RollNo) == claimRoll {
			hit := models.MatchCandidate{Record: rec, Similarity: 1.0}
			if rollHit == nil {
				rollHit = &hit
			}
			continue
		}
		score := nameSimilarity(claimName, normalizeName(rec.Name))
		if score < m.floor {
			continue
		}
		candidates = append(candidates, models.MatchCandidate{Record: rec, Similarity: score})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Similarity > candidates[j].Similarity
	})

	if rollHit != nil {
		candidates = append([]models.MatchCandidate{*rollHit}, candidates...)
	}
	if len(candidates) > m.maxCandidates {
		candidates = candidates[:m.maxCandidates]
	}
	return candidates
}

// normalizeName lowercases and collapses interior whitespace so that casing
// and spacing differences do not count against the similarity score.
func normalizeName(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// nameSimilarity maps Levenshtein distance onto [0,1], where 1 means the
// normalized names are identical.
func nameSimilarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}
	ra := []rune(a)
	rb := []rune(b)
	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	dist := levenshtein(ra, rb)
	return 1.0 - float64(dist)/float64(longest)
}

// levenshtein computes edit distance over runes with a single rolling row.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	row := make([]int, len(b)+1)
	for j := range row {
		row[j] = j
	}
	for i := 1; i <= len(a); i++ {
		prev := row[0]
		row[0] = i
		for j := 1; j <= len(b); j++ {
			cur := row[j]
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			row[j] = min3(row[j]+1, row[j-1]+1, prev+cost)
			prev = cur
		}
	}
	return row[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
