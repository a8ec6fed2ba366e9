package matching

import (
	"context"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const maxRejectedMatches = 3

var validateInput = validator.New()

// Matcher resolves event records against the catalog. It holds no
// state between calls beyond its collaborators, so concurrent calls
// for different inputs are safe.
type Matcher struct {
	catalog Catalog
	cfg     Config
	log     zerolog.Logger
	source  candidateSource
}

// New builds a Matcher. When cfg.Search is set the search index is
// queried first with automatic fallback to catalog retrieval.
func New(catalog Catalog, cfg Config, log zerolog.Logger) *Matcher {
	cfg = cfg.withDefaults()
	sql := &sqlSource{retriever: retriever{catalog: catalog, cfg: cfg.Retriever}}

	var source candidateSource = sql
	if cfg.Search != nil {
		source = &fallbackSource{
			primary:   newSearchSource(*cfg.Search, catalog),
			secondary: sql,
			log:       log,
		}
	}

	return &Matcher{catalog: catalog, cfg: cfg, log: log, source: source}
}

// MatchEvent decides whether input refers to a catalog event. It fails
// open: any retrieval or scoring failure yields NO_MATCH with
// confidence 0, because silently matching the wrong entity corrupts an
// existing record while a spurious new-entity proposal gets human
// review.
func (m *Matcher) MatchEvent(ctx context.Context, input EventMatchInput) (result EventMatchResult) {
	log := m.log.With().
		Str("match_id", uuid.NewString()).
		Str("event_name", input.EventName).
		Str("event_city", input.EventCity).
		Logger()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("match aborted, treating record as new")
			result = noMatch()
		}
	}()

	if err := validateInput.Struct(input); err != nil {
		log.Warn().Err(err).Msg("invalid match input")
		return noMatch()
	}

	in := normalizeInput(input, m.cfg.Retriever)
	log.Debug().
		Str("normalized_name", in.name).
		Strs("keywords", in.keywords).
		Str("year", in.year).
		Msg("input normalized")

	candidates, err := m.source.fetch(ctx, in)
	if err != nil {
		log.Error().Err(err).Msg("candidate retrieval failed, treating record as new")
		return noMatch()
	}
	if len(candidates) == 0 {
		log.Info().Msg("no candidates found")
		return noMatch()
	}

	set := scoreCandidates(in, candidates, m.cfg)
	if !set.anyHits {
		log.Info().Int("candidates", len(candidates)).Msg("no fuzzy hits among candidates")
		return noMatch()
	}

	result = m.decide(set, in)
	log.Info().
		Str("type", string(result.Type)).
		Float64("confidence", result.Confidence).
		Msg("match decided")
	return result
}

// decide thresholds the best-scored candidate and selects the edition.
func (m *Matcher) decide(set scoredSet, in normalizedInput) EventMatchResult {
	scored := set.candidates
	sort.SliceStable(scored, func(a, b int) bool { return scored[a].Combined > scored[b].Combined })

	best := scored[0]
	if best.Combined < reportFloor {
		return noMatch()
	}

	rejected := rejectedMatches(scored)

	switch {
	case best.Combined >= exactMatchThreshold:
		return m.matchResult(MatchTypeExact, best, in, rejected)
	case best.Combined >= m.cfg.SimilarityThreshold:
		return m.matchResult(MatchTypeFuzzy, best, in, rejected)
	default:
		// Below threshold, but strong enough to justify showing the
		// closest known alternatives on a new-entity proposal.
		return EventMatchResult{
			Type:            MatchTypeNone,
			Confidence:      best.Combined,
			RejectedMatches: rejected,
		}
	}
}

func (m *Matcher) matchResult(t MatchType, best ScoredCandidate, in normalizedInput, rejected []RejectedMatch) EventMatchResult {
	result := EventMatchResult{
		Type: t,
		Event: &MatchedEvent{
			ID:         best.Candidate.ID,
			Name:       best.Candidate.Name,
			City:       best.Candidate.City,
			Slug:       best.Candidate.Slug,
			Similarity: best.Combined,
		},
		Confidence:      best.Combined,
		RejectedMatches: rejected,
	}
	if ed, ok := selectEdition(best.Candidate.Editions, in.year); ok {
		result.Edition = &MatchedEdition{ID: ed.ID, Year: ed.Year, StartDate: ed.StartDate}
	}
	return result
}

// selectEdition picks the edition whose year equals the target year.
// Absent one, the event still counts as matched with no edition.
func selectEdition(editions []Edition, year string) (Edition, bool) {
	for _, ed := range editions {
		if ed.Year == year {
			return ed, true
		}
	}
	return Edition{}, false
}

// rejectedMatches snapshots the top scored candidates, best first.
func rejectedMatches(scored []ScoredCandidate) []RejectedMatch {
	n := len(scored)
	if n > maxRejectedMatches {
		n = maxRejectedMatches
	}
	out := make([]RejectedMatch, 0, n)
	for _, sc := range scored[:n] {
		out = append(out, RejectedMatch{
			EventID:         sc.Candidate.ID,
			EventName:       sc.Candidate.Name,
			EventCity:       sc.Candidate.City,
			MatchScore:      sc.Combined,
			NameScore:       sc.NameScore,
			KeywordScore:    sc.KeywordScore,
			CityScore:       sc.CityScore,
			DepartmentMatch: sc.DepartmentMatch,
			DateProximity:   sc.DateProximity,
		})
	}
	return out
}

func noMatch() EventMatchResult {
	return EventMatchResult{Type: MatchTypeNone, Confidence: 0}
}
