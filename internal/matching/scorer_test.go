package matching

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestDateProximity(t *testing.T) {
	date := day(2026, 7, 18)

	tests := []struct {
		name     string
		editions []Edition
		expected float64
	}{
		{"no editions", nil, 0},
		{"same day", []Edition{{StartDate: date}}, 1},
		{"45 days off", []Edition{{StartDate: date.AddDate(0, 0, 45)}}, 0.5},
		{"window edge", []Edition{{StartDate: date.AddDate(0, 0, 90)}}, 0},
		{"closest edition wins", []Edition{
			{StartDate: date.AddDate(0, 0, 81)},
			{StartDate: date.AddDate(0, 0, -9)},
		}, 0.9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, dateProximity(tt.editions, date, 90), 1e-9)
		})
	}
}

func TestDepartmentMatches(t *testing.T) {
	assert.True(t, departmentMatches("", "64"), "absent input never penalizes")
	assert.True(t, departmentMatches("64", "64"))
	assert.False(t, departmentMatches("64", "75"))
}

func TestCorrectKeywordScore(t *testing.T) {
	weakName := ScoredCandidate{NameScore: 0.4, KeywordScore: 0.8}

	t.Run("not keyword-driven, untouched", func(t *testing.T) {
		sc := ScoredCandidate{NameScore: 0.9, KeywordScore: 0.8}
		assert.Equal(t, 0.8, correctKeywordScore(sc, []string{"ibal"}, []string{"hannibal"}))
	})

	t.Run("strong name, untouched", func(t *testing.T) {
		sc := ScoredCandidate{NameScore: 0.6, KeywordScore: 0.8}
		assert.Equal(t, 0.8, correctKeywordScore(sc, []string{"ibal"}, []string{"hannibal"}))
	})

	t.Run("single short overlap penalized", func(t *testing.T) {
		got := correctKeywordScore(weakName, []string{"ibal"}, []string{"hannibal", "rider"})
		assert.InDelta(t, 0.8*0.3, got, 1e-9)
	})

	t.Run("two overlaps accepted", func(t *testing.T) {
		got := correctKeywordScore(weakName, []string{"vallee", "ossau"}, []string{"vallee", "ossau"})
		assert.Equal(t, 0.8, got)
	})

	t.Run("single long overlap accepted", func(t *testing.T) {
		got := correctKeywordScore(weakName, []string{"caburotte"}, []string{"caburotte"})
		assert.Equal(t, 0.8, got)
	})

	t.Run("no overlap penalized", func(t *testing.T) {
		got := correctKeywordScore(weakName, []string{"nordic"}, []string{"rider"})
		assert.InDelta(t, 0.8*0.3, got, 1e-9)
	})
}

func TestKeywordOverlap_Containment(t *testing.T) {
	// containment counts as overlap, and the shared token is the
	// shorter of the pair
	count, long := keywordOverlap([]string{"ibal"}, []string{"hannibal"})
	assert.Equal(t, 1, count)
	assert.False(t, long)

	count, long = keywordOverlap([]string{"caburotte"}, []string{"caburottes"})
	assert.Equal(t, 1, count)
	assert.True(t, long)
}

func TestCombinedScore_HighBand(t *testing.T) {
	t.Run("department match with weak city", func(t *testing.T) {
		sc := ScoredCandidate{NameScore: 1, CityScore: 0.2, DepartmentMatch: true, DateProximity: 1}
		// (1*0.90 + 0.2*0.05 + 0.15) * 1.0
		assert.InDelta(t, 1.0, combinedScore(sc), 1e-9)
	})

	t.Run("department match with near-exact city skips bonus", func(t *testing.T) {
		sc := ScoredCandidate{NameScore: 1, CityScore: 1, DepartmentMatch: true, DateProximity: 1}
		assert.InDelta(t, 0.95, combinedScore(sc), 1e-9)
	})

	t.Run("department mismatch penalized", func(t *testing.T) {
		sc := ScoredCandidate{NameScore: 1, CityScore: 1, DepartmentMatch: false, DateProximity: 1}
		// (1*0.95 + 1*0.05 - 0.25) * 1.0
		assert.InDelta(t, 0.75, combinedScore(sc), 1e-9)
	})
}

func TestCombinedScore_LowBand(t *testing.T) {
	t.Run("blended signals with department bonus", func(t *testing.T) {
		sc := ScoredCandidate{NameScore: 0.6, KeywordScore: 0.5, CityScore: 0.4, DepartmentMatch: true, DateProximity: 1}
		// (0.6*0.5 + 0.4*0.3 + 0.5*0.2 + 0.15) * 1.0
		assert.InDelta(t, 0.67, combinedScore(sc), 1e-9)
	})

	t.Run("mismatch penalty only near the high band", func(t *testing.T) {
		weak := ScoredCandidate{NameScore: 0.6, KeywordScore: 0.5, CityScore: 0.4, DepartmentMatch: false, DateProximity: 1}
		nearHigh := ScoredCandidate{NameScore: 0.88, KeywordScore: 0.5, CityScore: 0.4, DepartmentMatch: false, DateProximity: 1}

		// no penalty below 0.85
		assert.InDelta(t, 0.6*0.5+0.4*0.3+0.5*0.2, combinedScore(weak), 1e-9)
		// penalty of 0.25*best at 0.88
		expected := 0.88*0.5 + 0.4*0.3 + 0.5*0.2 - 0.25*0.88
		assert.InDelta(t, expected, combinedScore(nearHigh), 1e-9)
	})

	t.Run("date distance scales the score down", func(t *testing.T) {
		near := ScoredCandidate{NameScore: 0.6, CityScore: 0.4, DepartmentMatch: true, DateProximity: 1}
		far := near
		far.DateProximity = 0
		assert.InDelta(t, 0.8*combinedScore(near), combinedScore(far), 1e-9)
	})
}

func TestCombinedScore_Clamped(t *testing.T) {
	sc := ScoredCandidate{NameScore: 1, KeywordScore: 1, CityScore: 0.5, DepartmentMatch: true, DateProximity: 1}
	assert.LessOrEqual(t, combinedScore(sc), 1.0)

	sc = ScoredCandidate{NameScore: 0, KeywordScore: 0, CityScore: 0, DepartmentMatch: false, DateProximity: 0}
	assert.GreaterOrEqual(t, combinedScore(sc), 0.0)
}

func TestScoreCandidates_DepartmentMonotonicity(t *testing.T) {
	candidate := Candidate{
		ID:         1,
		Name:       "Marathon du lac d'Annecy",
		City:       "Annecy",
		Department: "74",
		Editions:   []Edition{{ID: 10, EventID: 1, Year: "2026", StartDate: day(2026, 7, 10)}},
	}

	base := EventMatchInput{
		EventName:   "Marathon d'Annecy",
		EventCity:   "Annecy",
		EditionDate: day(2026, 7, 12),
	}
	withDept := base
	withDept.EventDepartment = "74"
	wrongDept := base
	wrongDept.EventDepartment = "38"

	cfg := DefaultConfig()
	score := func(in EventMatchInput) float64 {
		set := scoreCandidates(normalizeInput(in, cfg.Retriever), []Candidate{candidate}, cfg)
		require.Len(t, set.candidates, 1)
		return set.candidates[0].Combined
	}

	correct := score(withDept)
	absent := score(base)
	wrong := score(wrongDept)

	assert.GreaterOrEqual(t, correct, absent)
	assert.Greater(t, correct, wrong)
}

func TestScoreCandidates_NoHits(t *testing.T) {
	candidate := Candidate{ID: 1, Name: "Hannibal Rider", City: "Foix"}
	in := normalizeInput(EventMatchInput{
		EventName:   "Zzzz",
		EventCity:   "Qqqq",
		EditionDate: day(2026, 7, 18),
	}, DefaultRetrieverConfig())

	set := scoreCandidates(in, []Candidate{candidate}, DefaultConfig())
	assert.False(t, set.anyHits)
}
