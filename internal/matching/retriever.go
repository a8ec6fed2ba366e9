package matching

import (
	"context"
	"fmt"
	"time"
)

// DateWindow is a closed interval of edition start dates.
type DateWindow struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window.
func (w DateWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// CandidateQuery narrows a catalog scan to plausible candidates. Word
// matching is substring-based on the normalized event name or city.
// When Year is set it replaces the date window as the edition filter.
type CandidateQuery struct {
	NameWords []string
	CityWords []string
	// Department restricts to one subdivision code; empty means any.
	Department string
	// RequireBothWords demands a name word AND a city word match;
	// otherwise any name word (or city word, when CityWords is set)
	// suffices.
	RequireBothWords bool
	Window           DateWindow
	Year             string
	ExcludeIDs       []int64
	Limit            int
}

// Catalog is the read-only query contract the engine consumes. The
// returned candidates carry editions pre-filtered to the query window
// or year.
type Catalog interface {
	FindCandidates(ctx context.Context, q CandidateQuery) ([]Candidate, error)
	// ListEditions returns the editions of the given events inside the
	// window, or with the exact year string when year is non-empty.
	ListEditions(ctx context.Context, eventIDs []int64, window DateWindow, year string) ([]Edition, error)
}

// normalizedInput is the precomputed view of an EventMatchInput that
// the retriever and scorer work from.
type normalizedInput struct {
	raw EventMatchInput
	// name is the fully normalized, sponsor- and edition-stripped name.
	name string
	// keywords are the name's keywords, longest first.
	keywords []string
	city      string
	nameWords []string
	cityWords []string
	year      string
	window    DateWindow
}

func normalizeInput(in EventMatchInput, cfg RetrieverConfig) normalizedInput {
	name := RemoveSponsors(NormalizeString(RemoveEditionNumber(in.EventName)))
	city := NormalizeString(in.EventCity)

	half := time.Duration(cfg.WindowDays) * 24 * time.Hour
	return normalizedInput{
		raw:       in,
		name:      name,
		keywords:  ExtractKeywords(name),
		city:      city,
		nameWords: wordsOfMinLength(name, 3),
		cityWords: wordsOfMinLength(RemoveStopwords(city, cityStopwords, 3), 3),
		year:      in.TargetYear(),
		window:    DateWindow{Start: in.EditionDate.Add(-half), End: in.EditionDate.Add(half)},
	}
}

// retriever executes the widening multi-pass candidate lookup. A single
// broad query over the whole catalog is too slow and noisy, a single
// narrow one misses typos and cross-department relocations, so the
// passes trade recall for precision progressively.
type retriever struct {
	catalog Catalog
	cfg     RetrieverConfig
}

func (r *retriever) fetch(ctx context.Context, in normalizedInput) ([]Candidate, error) {
	if len(in.nameWords) == 0 {
		return nil, nil
	}

	var candidates []Candidate
	seen := make(map[int64]struct{})

	appendNew := func(found []Candidate) {
		for _, c := range found {
			if _, ok := seen[c.ID]; ok {
				continue
			}
			seen[c.ID] = struct{}{}
			candidates = append(candidates, c)
		}
	}

	// Pass 1: same department, name-word match, editions in window.
	if in.raw.EventDepartment != "" {
		found, err := r.catalog.FindCandidates(ctx, CandidateQuery{
			NameWords:  in.nameWords,
			Department: in.raw.EventDepartment,
			Window:     in.window,
			Limit:      r.cfg.PassOneLimit,
		})
		if err != nil {
			return nil, fmt.Errorf("same-department pass: %w", err)
		}
		appendNew(found)
	}

	// Pass 2: widen across departments when pass 1 came up short.
	if len(candidates) < r.cfg.WidenThreshold {
		limit := r.cfg.PassOneLimit - len(candidates)
		if limit < r.cfg.WidenFloor {
			limit = r.cfg.WidenFloor
		}
		found, err := r.catalog.FindCandidates(ctx, CandidateQuery{
			NameWords:  in.nameWords,
			CityWords:  in.cityWords,
			Window:     in.window,
			ExcludeIDs: excludeList(seen),
			Limit:      limit,
		})
		if err != nil {
			return nil, fmt.Errorf("cross-department pass: %w", err)
		}
		appendNew(found)
	}

	// Pass 3: exact-year filter instead of the date window, name AND
	// city word. Catches events whose editions for the target year fall
	// outside the default window.
	if len(in.cityWords) > 0 {
		found, err := r.catalog.FindCandidates(ctx, CandidateQuery{
			NameWords:        in.nameWords,
			CityWords:        in.cityWords,
			RequireBothWords: true,
			Year:             in.year,
			ExcludeIDs:       excludeList(seen),
			Limit:            r.cfg.PassThreeLimit,
		})
		if err != nil {
			return nil, fmt.Errorf("exact-year pass: %w", err)
		}
		appendNew(found)
	}

	return candidates, nil
}

func excludeList(seen map[int64]struct{}) []int64 {
	if len(seen) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	return ids
}
