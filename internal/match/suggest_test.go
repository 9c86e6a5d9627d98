package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRank(t *testing.T) {
	names := []string{"name", "email", "phone", "partner_id"}

	ranked := Rank("emial", names)
	require.Len(t, ranked, len(names))
	assert.Equal(t, "email", ranked.Best().Name)

	for i := 1; i < len(ranked); i++ {
		assert.GreaterOrEqual(t, ranked[i-1].Score, ranked[i].Score)
	}
}

func TestRank_Determinism(t *testing.T) {
	names := []string{"b_field", "a_field", "c_field"}

	first := Rank("zzz", names)
	for range 10 {
		assert.Equal(t, first, Rank("zzz", names))
	}
}

func TestSuggest(t *testing.T) {
	names := []string{"partner_id", "name", "user_id"}

	assert.Equal(t, []string{"partner_id"}, Suggest("partner", names, 3, DefaultThreshold))
	assert.Empty(t, Suggest("qqqqqqqq", names, 3, DefaultThreshold))
	assert.Len(t, Suggest("x", names, 2, 0), 2)
}

func TestCandidateList_Helpers(t *testing.T) {
	list := CandidateList{{Name: "a", Score: 0.9}, {Name: "b", Score: 0.5}, {Name: "c", Score: 0.1}}

	assert.Len(t, list.Top(2), 2)
	assert.Len(t, list.Top(10), 3)
	assert.Len(t, list.Top(-1), 3)
	assert.Len(t, list.AboveThreshold(0.5), 2)
	assert.Nil(t, CandidateList{}.Best())
}
