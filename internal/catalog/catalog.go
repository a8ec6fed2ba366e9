// Package catalog is the PostgreSQL-backed reference catalog of
// events, editions and races the matching engine resolves against.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/fxlelouarn/eventmatch/internal/matching"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository implements matching.Catalog over a pgx connection pool.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func likePatterns(words []string) []string {
	patterns := make([]string, len(words))
	for i, w := range words {
		patterns[i] = "%" + w + "%"
	}
	return patterns
}

// FindCandidates scans the events table with substring word filters and
// an edition-existence condition, then attaches the filtered editions.
func (r *Repository) FindCandidates(ctx context.Context, q matching.CandidateQuery) ([]matching.Candidate, error) {
	var clauses []string
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if q.Department != "" {
		clauses = append(clauses, fmt.Sprintf("e.department = %s", arg(q.Department)))
	}
	if len(q.ExcludeIDs) > 0 {
		clauses = append(clauses, fmt.Sprintf("NOT (e.id = ANY(%s))", arg(q.ExcludeIDs)))
	}

	nameClause := ""
	if len(q.NameWords) > 0 {
		nameClause = fmt.Sprintf("e.name ILIKE ANY(%s)", arg(likePatterns(q.NameWords)))
	}
	cityClause := ""
	if len(q.CityWords) > 0 {
		cityClause = fmt.Sprintf("e.city ILIKE ANY(%s)", arg(likePatterns(q.CityWords)))
	}
	switch {
	case q.RequireBothWords && nameClause != "" && cityClause != "":
		clauses = append(clauses, nameClause+" AND "+cityClause)
	case nameClause != "" && cityClause != "":
		clauses = append(clauses, "("+nameClause+" OR "+cityClause+")")
	case nameClause != "":
		clauses = append(clauses, nameClause)
	case cityClause != "":
		clauses = append(clauses, cityClause)
	}

	if q.Year != "" {
		clauses = append(clauses, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM editions ed WHERE ed.event_id = e.id AND ed.year = %s)", arg(q.Year)))
	} else {
		clauses = append(clauses, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM editions ed WHERE ed.event_id = e.id AND ed.start_date >= %s AND ed.start_date <= %s)",
			arg(q.Window.Start), arg(q.Window.End)))
	}

	sql := "SELECT e.id, e.name, e.city, e.department, e.slug FROM events e"
	if len(clauses) > 0 {
		sql += " WHERE " + strings.Join(clauses, " AND ")
	}
	sql += " ORDER BY e.id"
	if q.Limit > 0 {
		sql += fmt.Sprintf(" LIMIT %s", arg(q.Limit))
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates: %w", err)
	}
	defer rows.Close()

	var candidates []matching.Candidate
	var ids []int64
	for rows.Next() {
		var (
			c          matching.Candidate
			city       pgtype.Text
			department pgtype.Text
			slug       pgtype.Text
		)
		if err := rows.Scan(&c.ID, &c.Name, &city, &department, &slug); err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		c.City = city.String
		c.Department = department.String
		c.Slug = slug.String
		candidates = append(candidates, c)
		ids = append(ids, c.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read candidates: %w", err)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	editions, err := r.ListEditions(ctx, ids, q.Window, q.Year)
	if err != nil {
		return nil, err
	}
	byEvent := make(map[int64][]matching.Edition, len(candidates))
	for _, ed := range editions {
		byEvent[ed.EventID] = append(byEvent[ed.EventID], ed)
	}
	for i := range candidates {
		candidates[i].Editions = byEvent[candidates[i].ID]
	}
	return candidates, nil
}

// ListEditions returns the editions of the given events inside the
// window, or with the exact year string when year is non-empty.
func (r *Repository) ListEditions(ctx context.Context, eventIDs []int64, window matching.DateWindow, year string) ([]matching.Edition, error) {
	if len(eventIDs) == 0 {
		return nil, nil
	}

	sql := "SELECT id, event_id, year, start_date FROM editions WHERE event_id = ANY($1)"
	args := []any{eventIDs}
	if year != "" {
		sql += " AND year = $2"
		args = append(args, year)
	} else {
		sql += " AND start_date >= $2 AND start_date <= $3"
		args = append(args, window.Start, window.End)
	}
	sql += " ORDER BY start_date"

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query editions: %w", err)
	}
	defer rows.Close()

	var editions []matching.Edition
	for rows.Next() {
		var ed matching.Edition
		if err := rows.Scan(&ed.ID, &ed.EventID, &ed.Year, &ed.StartDate); err != nil {
			return nil, fmt.Errorf("failed to scan edition: %w", err)
		}
		editions = append(editions, ed)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read editions: %w", err)
	}
	return editions, nil
}

// ListRaces returns the reference races of one edition in creation
// order, which the race matcher relies on for bucket grouping.
func (r *Repository) ListRaces(ctx context.Context, editionID int64) ([]matching.DbRace, error) {
	sql := `SELECT id, name, run_distance, walk_distance, swim_distance, bike_distance, elevation, start_date
		FROM races WHERE edition_id = $1 ORDER BY id`

	rows, err := r.pool.Query(ctx, sql, editionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query races: %w", err)
	}
	defer rows.Close()

	var races []matching.DbRace
	for rows.Next() {
		var (
			race      matching.DbRace
			elevation pgtype.Float8
			startDate pgtype.Timestamptz
		)
		if err := rows.Scan(&race.ID, &race.Name, &race.RunDistance, &race.WalkDistance,
			&race.SwimDistance, &race.BikeDistance, &elevation, &startDate); err != nil {
			return nil, fmt.Errorf("failed to scan race: %w", err)
		}
		if elevation.Valid {
			e := elevation.Float64
			race.Elevation = &e
		}
		if startDate.Valid {
			t := startDate.Time
			race.StartDate = &t
		}
		races = append(races, race)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read races: %w", err)
	}
	return races, nil
}

var _ matching.Catalog = (*Repository)(nil)
