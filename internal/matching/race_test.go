package matching

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func matchedIDsByInput(result RaceMatchResult) map[string]int64 {
	out := make(map[string]int64, len(result.Matched))
	for _, pair := range result.Matched {
		out[pair.Input.Name] = pair.Db.ID
	}
	return out
}

func TestMatchRaces_DistanceBuckets(t *testing.T) {
	refs := []DbRace{
		{ID: 1, Name: "Trail la caburotte 53 km", RunDistance: 53},
		{ID: 2, Name: "Trail la bataille 25 km", RunDistance: 25},
		{ID: 3, Name: "Trail l'orchis 14 km", RunDistance: 14},
		{ID: 4, Name: "Trail 9 km", RunDistance: 9},
		{ID: 5, Name: "Randonnée 11,5 km", WalkDistance: 11.5},
	}
	inputs := []RaceMatchInput{
		{Name: "La Caburotte", Distance: 55},
		{Name: "La Bataille", Distance: 27.5},
		{Name: "Les Orchis", Distance: 15},
		{Name: "La Mignonette", Distance: 9},
		{Name: "Rando 10km", Distance: 10},
	}

	result := MatchRaces(inputs, refs, 0.15, zerolog.Nop())

	require.Len(t, result.Matched, 4)
	ids := matchedIDsByInput(result)
	assert.Equal(t, int64(1), ids["La Caburotte"])
	assert.Equal(t, int64(2), ids["La Bataille"])
	assert.Equal(t, int64(3), ids["Les Orchis"])
	assert.Equal(t, int64(4), ids["La Mignonette"])

	// "Rando 10km" lands in the already-consumed 9 km bucket and the
	// fallback pool is empty, so it stays unmatched.
	require.Len(t, result.Unmatched, 1)
	assert.Equal(t, "Rando 10km", result.Unmatched[0].Name)
}

func TestMatchRaces_NoReferenceReuse(t *testing.T) {
	refs := []DbRace{{ID: 1, Name: "Course du lac 10 km", RunDistance: 10}}
	inputs := []RaceMatchInput{
		{Name: "Course du lac", Distance: 10},
		{Name: "Course du lac bis", Distance: 10},
	}

	result := MatchRaces(inputs, refs, 0.1, zerolog.Nop())

	require.Len(t, result.Matched, 1)
	assert.Equal(t, "Course du lac", result.Matched[0].Input.Name)
	require.Len(t, result.Unmatched, 1)
	assert.Equal(t, "Course du lac bis", result.Unmatched[0].Name)
}

func TestMatchRaces_ToleranceBoundary(t *testing.T) {
	refs := []DbRace{{ID: 1, Name: "Course 10 km", RunDistance: 10}}

	t.Run("boundary is inclusive", func(t *testing.T) {
		result := MatchRaces([]RaceMatchInput{{Name: "Course", Distance: 11}}, refs, 0.1, zerolog.Nop())
		assert.Len(t, result.Matched, 1)
	})

	t.Run("outside tolerance stays unmatched", func(t *testing.T) {
		result := MatchRaces([]RaceMatchInput{{Name: "Course", Distance: 11.1}}, refs, 0.1, zerolog.Nop())
		assert.Empty(t, result.Matched)
		assert.Len(t, result.Unmatched, 1)
	})
}

func TestMatchRaces_ZeroDistanceInput(t *testing.T) {
	refs := []DbRace{{ID: 1, Name: "Course 10 km", RunDistance: 10}}
	result := MatchRaces([]RaceMatchInput{{Name: "Course 10 km"}}, refs, 0.1, zerolog.Nop())

	assert.Empty(t, result.Matched)
	require.Len(t, result.Unmatched, 1)
}

func TestMatchRaces_FallbackPool(t *testing.T) {
	refs := []DbRace{
		{ID: 1, Name: "Course du lac 10 km", RunDistance: 10},
		{ID: 2, Name: "Marche Nordique"}, // no recorded distance
	}

	t.Run("strong name match against the pool", func(t *testing.T) {
		result := MatchRaces([]RaceMatchInput{{Name: "Marche nordique", Distance: 8}}, refs, 0.1, zerolog.Nop())
		require.Len(t, result.Matched, 1)
		assert.Equal(t, int64(2), result.Matched[0].Db.ID)
	})

	t.Run("weak name stays unmatched", func(t *testing.T) {
		result := MatchRaces([]RaceMatchInput{{Name: "Canicross", Distance: 8}}, refs, 0.1, zerolog.Nop())
		assert.Empty(t, result.Matched)
		require.Len(t, result.Unmatched, 1)
	})
}

func TestMatchRaces_AmbiguousBucketResolvedByName(t *testing.T) {
	refs := []DbRace{
		{ID: 21, Name: "Course des filles 10 km", RunDistance: 10},
		{ID: 22, Name: "Course des garcons 10 km", RunDistance: 10},
	}
	inputs := []RaceMatchInput{
		{Name: "Les Garcons", Distance: 10},
		{Name: "Les Filles", Distance: 10},
	}

	result := MatchRaces(inputs, refs, 0.1, zerolog.Nop())

	require.Len(t, result.Matched, 2)
	ids := matchedIDsByInput(result)
	assert.Equal(t, int64(22), ids["Les Garcons"])
	assert.Equal(t, int64(21), ids["Les Filles"])
}

func TestMatchRaces_AmbiguousBucketWithoutNameSignal(t *testing.T) {
	refs := []DbRace{
		{ID: 21, Name: "Course des filles 10 km", RunDistance: 10},
		{ID: 22, Name: "Course des garcons 10 km", RunDistance: 10},
	}

	result := MatchRaces([]RaceMatchInput{{Name: "Marathon", Distance: 10}}, refs, 0.1, zerolog.Nop())

	assert.Empty(t, result.Matched)
	require.Len(t, result.Unmatched, 1)
}

func TestNormalizeRaceName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"boilerplate and qualifier stripped", "COURSES Adultes - Course Hors Stade", "course"},
		{"unofficial boilerplate stripped", "Course hors stade non officielle 10 km", "10 km"},
		{"qualifier stripped", "Relais mixte jeunes", "relai mixte"},
		{"spelling variants folded", "Courses des remparts", "course des remparts"},
		{"plain name untouched", "Trail l'orchis 14 km", "trail l'orchis 14 km"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeRaceName(tt.in))
		})
	}
}

func TestMatchRacesByDistanceAndName(t *testing.T) {
	refs := []DbRace{
		{ID: 1, Name: "Trail la caburotte 53 km", RunDistance: 53},
		{ID: 2, Name: "Trail la bataille 25 km", RunDistance: 25},
	}
	inputs := []LegacyRace{
		{RaceName: "La Caburotte", DistanceKm: 55},
		{RaceName: "Rando 10km", DistanceKm: 10},
	}

	log := zerolog.Nop()
	matched, newRaces := MatchRacesByDistanceAndName(inputs, refs, 0.15, &log)

	require.Len(t, matched, 1)
	assert.Equal(t, int64(1), matched[0].Db.ID)
	assert.Equal(t, "La Caburotte", matched[0].Input.Name)

	require.Len(t, newRaces, 1)
	assert.Equal(t, "Rando 10km", newRaces[0].RaceName)
	assert.InDelta(t, 10.0, newRaces[0].DistanceKm, 1e-9)
}
