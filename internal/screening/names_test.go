package screening

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"AffiliationChecker/internal/domain"
)

func TestMatchName(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		requested string
		canonical string
		want      bool
	}{
		{"exact", "John Doe", "John Doe", true},
		{"case and spacing", "john   doe", "JOHN DOE", true},
		{"diacritics", "Jose Sanchez", "José Sánchez", true},
		{"middle name shared given token", "John Doe", "John Michael Doe", true},
		{"substring given name rejected", "Liang Jiang", "Hualiang Jiang", false},
		{"prefix given name rejected", "Hua Jiang", "Hualiang Jiang", false},
		{"different family name", "John Doe", "John Doerr", false},
		{"initial is not a given name", "John Doe", "J. Doe", false},
		{"single token canonical", "John Doe", "Doe", false},
		{"empty canonical", "John Doe", "", false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, MatchName(tc.requested, tc.canonical))
		})
	}
}

func TestMatchCandidateMultiTokenFamilyName(t *testing.T) {
	t.Parallel()

	c := domain.Candidate{FirstName: "Anna", LastName: "van der Berg"}
	assert.True(t, MatchCandidate(c, "Anna van der Berg"))
	assert.True(t, MatchCandidate(c, "Anna Maria van der Berg"))
	assert.False(t, MatchCandidate(c, "Anna Berg"))
	assert.False(t, MatchCandidate(c, "Annabel van der Berg"))

	hyphen := domain.Candidate{FirstName: "Jean-Pierre", LastName: "Dubois"}
	assert.True(t, MatchCandidate(hyphen, "Jean Pierre Dubois"))
	assert.True(t, MatchCandidate(hyphen, "Pierre Dubois"))
}

func TestMatchNameDifferentFamilySetsNeverMatch(t *testing.T) {
	t.Parallel()

	givens := []string{"Liang", "Hualiang", "Wei", "Li Wei"}
	families := []string{"Jiang", "Jiangs", "Zhang", "Jian"}
	for _, g := range givens {
		for _, f1 := range families {
			for _, f2 := range families {
				if f1 == f2 {
					continue
				}
				c := domain.Candidate{FirstName: g, LastName: f1}
				assert.False(t, MatchCandidate(c, g+" "+f2), "%s %s vs %s %s", g, f1, g, f2)
			}
		}
	}
}
