package matching

import (
	"math"
	"regexp"
	"strings"

	"github.com/fxlelouarn/eventmatch/internal/fuzzy"
	"github.com/rs/zerolog"
)

// Race-level fuzzy weights and acceptance thresholds.
const (
	raceNameWeight    = 0.6
	raceKeywordWeight = 0.4
	// raceAcceptScore accepts a name match among several same-distance
	// candidates.
	raceAcceptScore = 0.5
	// raceFallbackAcceptScore is stricter because the no-distance pool
	// has no distance evidence at all.
	raceFallbackAcceptScore = 0.7
)

// distanceBucket groups reference races whose total distance falls
// within the tolerance band of the first race that opened the bucket.
type distanceBucket struct {
	distance float64
	races    []DbRace
}

func (b distanceBucket) within(distance, tolerance float64) bool {
	return math.Abs(distance-b.distance) <= tolerance*b.distance
}

// MatchRaces assigns each input race to at most one reference race:
// first by distance bucket, then by fuzzy name when the bucket is
// ambiguous. A reference race is never offered twice, so input order
// decides genuinely ambiguous cases; this is accepted behavior, not an
// optimal assignment. Unresolvable inputs are reported as unmatched,
// never dropped.
func MatchRaces(inputs []RaceMatchInput, refs []DbRace, tolerance float64, log zerolog.Logger) RaceMatchResult {
	buckets, pool := groupByDistance(refs, tolerance)

	result := RaceMatchResult{}
	for _, input := range inputs {
		db, ok := resolveRace(input, buckets, &pool, tolerance, log)
		if !ok {
			result.Unmatched = append(result.Unmatched, input)
			continue
		}
		result.Matched = append(result.Matched, RacePair{Input: input, Db: db})
	}

	log.Debug().
		Int("matched", len(result.Matched)).
		Int("unmatched", len(result.Unmatched)).
		Float64("tolerance", tolerance).
		Msg("races matched")
	return result
}

// groupByDistance builds the bucket list in reference order. Races with
// zero total distance go to a separate fallback pool.
func groupByDistance(refs []DbRace, tolerance float64) ([]*distanceBucket, []DbRace) {
	var buckets []*distanceBucket
	var pool []DbRace

	for _, race := range refs {
		total := race.TotalDistance()
		if total == 0 {
			pool = append(pool, race)
			continue
		}
		placed := false
		for _, b := range buckets {
			if b.within(total, tolerance) {
				b.races = append(b.races, race)
				placed = true
				break
			}
		}
		if !placed {
			buckets = append(buckets, &distanceBucket{distance: total, races: []DbRace{race}})
		}
	}
	return buckets, pool
}

func resolveRace(input RaceMatchInput, buckets []*distanceBucket, pool *[]DbRace, tolerance float64, log zerolog.Logger) (DbRace, bool) {
	// Without a distance there is no discriminating signal.
	if input.Distance == 0 {
		return DbRace{}, false
	}

	var bucket *distanceBucket
	for _, b := range buckets {
		if b.within(input.Distance, tolerance) {
			bucket = b
			break
		}
	}

	var candidates []DbRace
	if bucket != nil {
		candidates = bucket.races
	}

	switch {
	case len(candidates) == 0:
		if len(*pool) == 0 {
			return DbRace{}, false
		}
		db, ok := fuzzyRaceMatch(input.Name, *pool, raceFallbackAcceptScore)
		if !ok {
			return DbRace{}, false
		}
		*pool = removeRace(*pool, db.ID)
		return db, true

	case len(candidates) == 1:
		// distance uniqueness is sufficient evidence
		db := candidates[0]
		bucket.races = removeRace(bucket.races, db.ID)
		return db, true

	default:
		db, ok := fuzzyRaceMatch(input.Name, candidates, raceAcceptScore)
		if !ok {
			log.Debug().Str("race", input.Name).Int("candidates", len(candidates)).
				Msg("ambiguous distance bucket, name resolution failed")
			return DbRace{}, false
		}
		bucket.races = removeRace(bucket.races, db.ID)
		return db, true
	}
}

// fuzzyRaceMatch resolves an input race among candidates by normalized
// name and keywords.
func fuzzyRaceMatch(name string, candidates []DbRace, accept float64) (DbRace, bool) {
	docs := make([]fuzzy.Document, len(candidates))
	byID := make(map[int64]DbRace, len(candidates))
	for i, race := range candidates {
		normalized := NormalizeRaceName(race.Name)
		docs[i] = fuzzy.Document{ID: race.ID, Fields: map[string]string{
			"name":     normalized,
			"keywords": strings.Join(ExtractKeywords(normalized), " "),
		}}
		byID[race.ID] = race
	}

	index := fuzzy.NewIndex(docs, []fuzzy.Field{
		{Name: "name", Weight: raceNameWeight},
		{Name: "keywords", Weight: raceKeywordWeight},
	}, fuzzy.Options{})

	hits := index.Search(NormalizeRaceName(name))
	if len(hits) == 0 || hits[0].Score < accept {
		return DbRace{}, false
	}
	return byID[hits[0].ID], true
}

func removeRace(races []DbRace, id int64) []DbRace {
	out := races[:0]
	for _, r := range races {
		if r.ID != id {
			out = append(out, r)
		}
	}
	return out
}

// FFA result exports carry boilerplate suffixes and demographic
// qualifiers that say nothing about which race this is.
var (
	raceBoilerplateRe = regexp.MustCompile(`course hors stade(?: non officielle)?`)
	raceQualifierRe   = regexp.MustCompile(`\b(?:adultes?|enfants?|jeunes?)\b`)
)

// NormalizeRaceName normalizes a race name and strips FFA-specific
// noise: boilerplate suffixes, demographic qualifiers, and a couple of
// spelling variants ("courses"->"course", "relais"->"relai").
func NormalizeRaceName(name string) string {
	s := NormalizeString(name)
	s = raceBoilerplateRe.ReplaceAllString(s, " ")
	s = raceQualifierRe.ReplaceAllString(s, " ")

	words := strings.Fields(s)
	for i, w := range words {
		switch w {
		case "courses":
			words[i] = "course"
		case "relais":
			words[i] = "relai"
		}
	}
	return strings.Join(words, " ")
}

// LegacyRace mirrors the field shape of the older scraper payloads
// that predate RaceMatchInput.
type LegacyRace struct {
	RaceName   string  `json:"raceName"`
	DistanceKm float64 `json:"distanceKm"`
}

// MatchRacesByDistanceAndName is the backward-compatible wrapper kept
// for older call sites. It translates to and from the current shapes;
// the matching algorithm itself has exactly one implementation.
func MatchRacesByDistanceAndName(inputs []LegacyRace, refs []DbRace, tolerance float64, log *zerolog.Logger) (matched []RacePair, newRaces []LegacyRace) {
	converted := make([]RaceMatchInput, len(inputs))
	for i, in := range inputs {
		converted[i] = RaceMatchInput{Name: in.RaceName, Distance: in.DistanceKm}
	}

	result := MatchRaces(converted, refs, tolerance, *log)

	for _, u := range result.Unmatched {
		newRaces = append(newRaces, LegacyRace{RaceName: u.Name, DistanceKm: u.Distance})
	}
	return result.Matched, newRaces
}
