package outreach

import (
	"sort"
	"strings"

	"github.com/jonathan/pathfinder/internal/apollo"
)

type weight struct {
	keyword string
	points  int
}

var (
	titleWeights = []weight{
		{"recruiter", 8},
		{"talent", 8},
		{"hr", 6},
		{"hiring", 7},
		{"people", 5},
	}
	seniorityWeights = []weight{
		{"senior", 4},
		{"lead", 3},
		{"manager", 5},
		{"director", 6},
	}
)

// Score rates how promising a candidate is as an outreach recipient.
// Keyword matches are case-insensitive substrings and every match counts.
func Score(c apollo.Candidate) int {
	score := 0

	switch c.EmailStatus {
	case "verified":
		score += 10
	case "guessed":
		score += 5
	}

	score += keywordScore(c.Title, titleWeights)
	if c.Seniority != nil {
		score += keywordScore(*c.Seniority, seniorityWeights)
	}

	if c.LinkedInURL != nil && *c.LinkedInURL != "" {
		score += 3
	}
	if c.PhotoURL != nil && *c.PhotoURL != "" {
		score += 2
	}
	return score
}

func keywordScore(text string, weights []weight) int {
	text = strings.ToLower(text)
	total := 0
	for _, w := range weights {
		if strings.Contains(text, w.keyword) {
			total += w.points
		}
	}
	return total
}

// RankCandidates returns a copy of candidates ordered by descending Score.
// Equal scores keep their input order.
func RankCandidates(candidates []apollo.Candidate) []apollo.Candidate {
	type scored struct {
		candidate apollo.Candidate
		score     int
	}

	items := make([]scored, len(candidates))
	for i, c := range candidates {
		items[i] = scored{candidate: c, score: Score(c)}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].score > items[j].score
	})

	ranked := make([]apollo.Candidate, len(items))
	for i, item := range items {
		ranked[i] = item.candidate
	}
	return ranked
}
