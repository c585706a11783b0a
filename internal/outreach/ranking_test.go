package outreach

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"

	"github.com/jonathan/pathfinder/internal/apollo"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name      string
		candidate apollo.Candidate
		want      int
	}{
		{"empty", apollo.Candidate{}, 0},
		{"verified email", apollo.Candidate{EmailStatus: "verified"}, 10},
		{"guessed email", apollo.Candidate{EmailStatus: "guessed"}, 5},
		{"unavailable email", apollo.Candidate{EmailStatus: "unavailable"}, 0},
		{"recruiter title", apollo.Candidate{Title: "Technical Recruiter"}, 8},
		{"stacked title keywords", apollo.Candidate{Title: "HR Talent Partner"}, 14},
		{"case insensitive", apollo.Candidate{Title: "HIRING MANAGER"}, 7},
		{"seniority", apollo.Candidate{Seniority: strPtr("senior manager")}, 9},
		{"profile url and photo", apollo.Candidate{LinkedInURL: strPtr("https://linkedin.com/in/x"), PhotoURL: strPtr("https://cdn/x.jpg")}, 5},
		{"empty profile url", apollo.Candidate{LinkedInURL: strPtr("")}, 0},
		{
			"everything",
			apollo.Candidate{
				EmailStatus: "verified",
				Title:       "Director of Talent",
				Seniority:   strPtr("director"),
				LinkedInURL: strPtr("https://linkedin.com/in/x"),
				PhotoURL:    strPtr("https://cdn/x.jpg"),
			},
			10 + 8 + 6 + 3 + 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Score(tt.candidate))
		})
	}
}

func TestRankCandidates_VerifiedBeforeGuessed(t *testing.T) {
	input := []apollo.Candidate{
		{Name: "a", EmailStatus: "guessed"},
		{Name: "b", EmailStatus: "verified"},
		{Name: "c"},
		{Name: "d", EmailStatus: "verified"},
	}

	ranked := RankCandidates(input)

	names := make([]string, len(ranked))
	for i, c := range ranked {
		names[i] = c.Name
	}
	assert.Equal(t, []string{"b", "d", "a", "c"}, names)
	assert.Equal(t, "a", input[0].Name, "input must not be reordered")
}

func TestRankCandidates_Empty(t *testing.T) {
	assert.Empty(t, RankCandidates(nil))
}

var emailStatuses = []string{"verified", "guessed", "", "unavailable"}

func genCandidate() gopter.Gen {
	return gopter.CombineGens(
		gen.IntRange(0, len(emailStatuses)-1),
		gen.OneConstOf("Recruiter", "Software Engineer", "Talent Partner", "HR Manager", "CEO"),
		gen.Bool(),
	).Map(func(v []interface{}) apollo.Candidate {
		c := apollo.Candidate{
			EmailStatus: emailStatuses[v[0].(int)],
			Title:       v[1].(string),
		}
		if v[2].(bool) {
			c.LinkedInURL = strPtr("https://www.linkedin.com/in/someone")
		}
		return c
	})
}

func TestRankCandidates_Properties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("ranking is a permutation ordered by score", prop.ForAll(
		func(candidates []apollo.Candidate) bool {
			ranked := RankCandidates(candidates)
			if len(ranked) != len(candidates) {
				return false
			}
			for i := 1; i < len(ranked); i++ {
				if Score(ranked[i-1]) < Score(ranked[i]) {
					return false
				}
			}
			return true
		},
		gen.SliceOf(genCandidate()),
	))

	properties.Property("verified outranks guessed when titles match", prop.ForAll(
		func(title string, linkedIn bool) bool {
			verified := apollo.Candidate{Name: "v", EmailStatus: "verified", Title: title}
			guessed := apollo.Candidate{Name: "g", EmailStatus: "guessed", Title: title}
			if linkedIn {
				guessed.LinkedInURL = strPtr("https://www.linkedin.com/in/g")
				verified.LinkedInURL = strPtr("https://www.linkedin.com/in/v")
			}
			ranked := RankCandidates([]apollo.Candidate{guessed, verified})
			return ranked[0].Name == "v"
		},
		gen.AlphaString(),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
