package matching

import (
	"math"
	"strings"
	"time"

	"github.com/fxlelouarn/eventmatch/internal/fuzzy"
)

// Fuse-style field weights for the name and keyword searches.
const (
	nameFieldWeight    = 0.5
	keywordFieldWeight = 0.3
	cityFieldWeight    = 0.2
)

// scoredSet is the outcome of scoring one candidate list.
type scoredSet struct {
	candidates []ScoredCandidate
	// anyHits is false when all three fuzzy searches came back empty,
	// which short-circuits the decision to NO_MATCH.
	anyHits bool
}

// scoreAccumulator collects the per-signal maxima for one candidate
// across the fuzzy-search passes.
type scoreAccumulator struct {
	name    float64
	keyword float64
	city    float64
}

// scoreCandidates runs the three fuzzy searches over the candidate set
// and folds the hits into one ScoredCandidate per catalog event.
func scoreCandidates(in normalizedInput, candidates []Candidate, cfg Config) scoredSet {
	enriched := make([]enrichedCandidate, len(candidates))
	docs := make([]fuzzy.Document, len(candidates))
	cityDocs := make([]fuzzy.Document, len(candidates))
	for i, c := range candidates {
		e := enrich(c, in.raw.EditionDate, cfg.Retriever.WindowDays)
		enriched[i] = e
		docs[i] = fuzzy.Document{ID: c.ID, Fields: map[string]string{
			"name":     e.name,
			"keywords": e.keywordText,
			"city":     e.city,
		}}
		cityDocs[i] = fuzzy.Document{ID: c.ID, Fields: map[string]string{"city": e.city}}
	}

	mainIndex := fuzzy.NewIndex(docs, []fuzzy.Field{
		{Name: "name", Weight: nameFieldWeight},
		{Name: "keywords", Weight: keywordFieldWeight},
		{Name: "city", Weight: cityFieldWeight},
	}, fuzzy.Options{})
	cityIndex := fuzzy.NewIndex(cityDocs, []fuzzy.Field{
		{Name: "city", Weight: 1},
	}, fuzzy.Options{})

	nameHits := mainIndex.Search(in.name)
	keywordHits := mainIndex.Search(strings.Join(in.keywords, " "))
	cityHits := cityIndex.Search(in.city)

	accs := make(map[int64]scoreAccumulator, len(candidates))
	accs = foldHits(accs, nameHits, func(acc scoreAccumulator, s float64) scoreAccumulator {
		acc.name = math.Max(acc.name, s)
		return acc
	})
	accs = foldHits(accs, keywordHits, func(acc scoreAccumulator, s float64) scoreAccumulator {
		acc.keyword = math.Max(acc.keyword, s)
		return acc
	})
	accs = foldHits(accs, cityHits, func(acc scoreAccumulator, s float64) scoreAccumulator {
		acc.city = math.Max(acc.city, s)
		return acc
	})

	set := scoredSet{
		candidates: make([]ScoredCandidate, len(candidates)),
		anyHits:    len(nameHits)+len(keywordHits)+len(cityHits) > 0,
	}
	for i, c := range candidates {
		acc := accs[c.ID]
		sc := ScoredCandidate{
			Candidate:       c,
			NameScore:       acc.name,
			KeywordScore:    acc.keyword,
			CityScore:       acc.city,
			DepartmentMatch: departmentMatches(in.raw.EventDepartment, c.Department),
			DateProximity:   enriched[i].dateProximity,
		}
		sc.KeywordScore = correctKeywordScore(sc, in.keywords, enriched[i].keywords)
		sc.Combined = combinedScore(sc)
		set.candidates[i] = sc
	}
	return set
}

// foldHits merges one search's hit list into the accumulator map with a
// pure take-max merge, so the merge order of the passes cannot affect
// the outcome.
func foldHits(accs map[int64]scoreAccumulator, hits []fuzzy.Hit, merge func(scoreAccumulator, float64) scoreAccumulator) map[int64]scoreAccumulator {
	for _, hit := range hits {
		accs[hit.ID] = merge(accs[hit.ID], hit.Score)
	}
	return accs
}

// enrichedCandidate caches the normalized view of a candidate.
type enrichedCandidate struct {
	name          string
	keywords      []string
	keywordText   string
	city          string
	dateProximity float64
}

func enrich(c Candidate, date time.Time, windowDays int) enrichedCandidate {
	name := RemoveSponsors(NormalizeString(RemoveEditionNumber(c.Name)))
	keywords := ExtractKeywords(name)
	return enrichedCandidate{
		name:          name,
		keywords:      keywords,
		keywordText:   strings.Join(keywords, " "),
		city:          NormalizeString(c.City),
		dateProximity: dateProximity(c.Editions, date, windowDays),
	}
}

// dateProximity is 1 at the query date, falling linearly to 0 at the
// window edge, computed against the closest-dated edition.
func dateProximity(editions []Edition, date time.Time, windowDays int) float64 {
	if len(editions) == 0 || windowDays <= 0 {
		return 0
	}
	closest := math.MaxFloat64
	for _, ed := range editions {
		days := math.Abs(ed.StartDate.Sub(date).Hours()) / 24
		if days < closest {
			closest = days
		}
	}
	proximity := 1 - closest/float64(windowDays)
	return math.Max(0, proximity)
}

// departmentMatches is true when the codes are equal or the input
// supplied none; absence never penalizes.
func departmentMatches(input, candidate string) bool {
	return input == "" || input == candidate
}

// correctKeywordScore guards against keyword-only false positives. A
// match driven almost entirely by the keyword heuristic (keyword score
// above a weak name score) must be backed by real keyword overlap:
// either two overlapping keywords, or a single overlapping keyword long
// enough to be discriminative on its own. Short keyword fragments can
// be accidental substrings of unrelated names ("ibal" inside
// "hannibal"), so an unvalidated keyword score is cut hard.
func correctKeywordScore(sc ScoredCandidate, inputKeywords, candidateKeywords []string) float64 {
	if sc.KeywordScore <= sc.NameScore || sc.NameScore >= 0.5 {
		return sc.KeywordScore
	}
	overlaps, hasLongOverlap := keywordOverlap(inputKeywords, candidateKeywords)
	if overlaps >= 2 || (overlaps == 1 && hasLongOverlap) {
		return sc.KeywordScore
	}
	return sc.KeywordScore * 0.3
}

// keywordOverlap counts input keywords with an exact or containment
// counterpart among the candidate's keywords. An overlap is long when
// the shared token is at least 8 characters.
func keywordOverlap(inputKeywords, candidateKeywords []string) (int, bool) {
	var count int
	var hasLong bool
	for _, ik := range inputKeywords {
		for _, ck := range candidateKeywords {
			if ik != ck && !strings.Contains(ik, ck) && !strings.Contains(ck, ik) {
				continue
			}
			count++
			shared := ik
			if len(ck) < len(shared) {
				shared = ck
			}
			if len(shared) >= 8 {
				hasLong = true
			}
			break
		}
	}
	return count, hasLong
}

// combinedScore folds the per-signal scores into one value in [0,1].
// Above 0.9 the best string signal dominates and the department acts as
// a confirmation (bonus) or a strong doubt (penalty); below it the
// signals blend, with the city and the weaker string signal pulling
// their weight. Date proximity scales the whole score between 0.8 and 1.
func combinedScore(sc ScoredCandidate) float64 {
	best := math.Max(sc.NameScore, sc.KeywordScore)
	weaker := math.Min(sc.NameScore, sc.KeywordScore)
	dateMultiplier := 0.8 + 0.2*sc.DateProximity

	var combined float64
	if best >= 0.9 {
		if sc.DepartmentMatch {
			bonus := 0.0
			// a near-exact city already implies strong signal
			if sc.CityScore < 0.9 {
				bonus = 0.15
			}
			combined = (best*0.90 + sc.CityScore*0.05 + bonus) * dateMultiplier
		} else {
			combined = (best*0.95 + sc.CityScore*0.05 - 0.25*best) * dateMultiplier
		}
	} else {
		var bonus, penalty float64
		if sc.DepartmentMatch {
			if sc.CityScore < 0.9 {
				bonus = 0.15
			}
		} else if best >= 0.85 {
			penalty = 0.25 * best
		}
		combined = (best*0.5 + sc.CityScore*0.3 + weaker*0.2 + bonus - penalty) * dateMultiplier
	}

	return math.Min(1, math.Max(0, combined))
}
