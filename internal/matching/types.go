// Package matching resolves scraped sports-event records against a
// reference catalog. It decides whether a record refers to an event and
// edition already in the catalog or represents a new entity, and keeps
// enough score detail for a human reviewer to audit the decision.
package matching

import (
	"strconv"
	"time"
)

// MatchType classifies the decision for one input record.
type MatchType string

const (
	MatchTypeNone  MatchType = "NO_MATCH"
	MatchTypeFuzzy MatchType = "FUZZY_MATCH"
	MatchTypeExact MatchType = "EXACT_MATCH"
)

// EventMatchInput is one scraped record to resolve against the catalog.
// EventDepartment is the administrative subdivision code; empty means
// the source did not provide one. EditionYear zero derives the target
// year from EditionDate.
type EventMatchInput struct {
	EventName       string    `json:"eventName" validate:"required"`
	EventCity       string    `json:"eventCity"`
	EventDepartment string    `json:"eventDepartment,omitempty"`
	EditionDate     time.Time `json:"editionDate" validate:"required"`
	EditionYear     int       `json:"editionYear,omitempty"`
}

// TargetYear returns the edition year the caller is asking about.
func (in EventMatchInput) TargetYear() string {
	if in.EditionYear > 0 {
		return strconv.Itoa(in.EditionYear)
	}
	return strconv.Itoa(in.EditionDate.Year())
}

// Edition is a yearly occurrence of a catalog event. Year is kept as a
// string because that is how the catalog stores it.
type Edition struct {
	ID        int64     `json:"id"`
	EventID   int64     `json:"eventId"`
	Year      string    `json:"year"`
	StartDate time.Time `json:"startDate"`
}

// Candidate is a catalog event considered for matching, with its
// editions pre-filtered to the query's date window or target year.
type Candidate struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	City       string    `json:"city"`
	Department string    `json:"department"`
	Slug       string    `json:"slug"`
	Editions   []Edition `json:"editions"`
}

// ScoredCandidate carries the per-signal breakdown for one candidate.
// All scores are in [0,1].
type ScoredCandidate struct {
	Candidate       Candidate
	NameScore       float64
	KeywordScore    float64
	CityScore       float64
	DepartmentMatch bool
	DateProximity   float64
	Combined        float64
}

// MatchedEvent identifies the winning catalog event.
type MatchedEvent struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	City       string  `json:"city"`
	Slug       string  `json:"slug"`
	Similarity float64 `json:"similarity"`
}

// MatchedEdition identifies the edition selected for the target year.
type MatchedEdition struct {
	ID        int64     `json:"id"`
	Year      string    `json:"year"`
	StartDate time.Time `json:"startDate"`
}

// RejectedMatch snapshots a non-winning candidate's full score
// breakdown for audit trails.
type RejectedMatch struct {
	EventID         int64   `json:"eventId"`
	EventName       string  `json:"eventName"`
	EventCity       string  `json:"eventCity"`
	MatchScore      float64 `json:"matchScore"`
	NameScore       float64 `json:"nameScore"`
	KeywordScore    float64 `json:"keywordScore"`
	CityScore       float64 `json:"cityScore"`
	DepartmentMatch bool    `json:"departmentMatch"`
	DateProximity   float64 `json:"dateProximity"`
}

// EventMatchResult is the engine's decision for one input record.
// RejectedMatches holds the top scored candidates (at most three,
// best first) even when one of them won, for audit.
type EventMatchResult struct {
	Type            MatchType       `json:"type"`
	Event           *MatchedEvent   `json:"event,omitempty"`
	Edition         *MatchedEdition `json:"edition,omitempty"`
	Confidence      float64         `json:"confidence"`
	RejectedMatches []RejectedMatch `json:"rejectedMatches,omitempty"`
}

// RaceMatchInput is one scraped race. Distance is in km; zero means the
// source did not provide one.
type RaceMatchInput struct {
	Name      string  `json:"name"`
	Distance  float64 `json:"distance"`
	StartTime *string `json:"startTime,omitempty"`
}

// DbRace is a reference race from the catalog, with per-discipline
// distances in km.
type DbRace struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	RunDistance  float64    `json:"runDistance"`
	WalkDistance float64    `json:"walkDistance"`
	SwimDistance float64    `json:"swimDistance"`
	BikeDistance float64    `json:"bikeDistance"`
	Elevation    *float64   `json:"elevation,omitempty"`
	StartDate    *time.Time `json:"startDate,omitempty"`
}

// TotalDistance sums the per-discipline distances.
func (r DbRace) TotalDistance() float64 {
	return r.RunDistance + r.WalkDistance + r.SwimDistance + r.BikeDistance
}

// RacePair associates an input race with the reference race it matched.
type RacePair struct {
	Input RaceMatchInput `json:"input"`
	Db    DbRace         `json:"db"`
}

// RaceMatchResult partitions the input races. Every input appears in
// exactly one of Matched or Unmatched, and no reference race id appears
// in more than one matched pair.
type RaceMatchResult struct {
	Matched   []RacePair       `json:"matched"`
	Unmatched []RaceMatchInput `json:"unmatched"`
}
