// matchctl resolves one scraped event record against the reference
// catalog and prints the decision as JSON. It exists for operators and
// for calibration work: pipe in the record, read the score breakdown.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/fxlelouarn/eventmatch/internal/catalog"
	"github.com/fxlelouarn/eventmatch/internal/config"
	"github.com/fxlelouarn/eventmatch/internal/db"
	"github.com/fxlelouarn/eventmatch/internal/logger"
	"github.com/fxlelouarn/eventmatch/internal/matching"
)

func main() {
	var (
		name       = flag.String("name", "", "scraped event name (required)")
		city       = flag.String("city", "", "scraped event city")
		department = flag.String("department", "", "department code, e.g. 64")
		date       = flag.String("date", "", "edition date, YYYY-MM-DD (required)")
		year       = flag.Int("year", 0, "edition year override")
		threshold  = flag.Float64("threshold", 0, "similarity threshold override")
		racesFile  = flag.String("races", "", "JSON file of scraped races to match against the found edition")
		migrate    = flag.Bool("migrate", false, "run database migrations before matching")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Init(cfg.Logger)

	if *name == "" || *date == "" {
		flag.Usage()
		os.Exit(2)
	}
	editionDate, err := time.Parse("2006-01-02", *date)
	if err != nil {
		logger.Fatal().Err(err).Str("date", *date).Msg("invalid edition date")
	}

	if *migrate {
		logger.Info().Msg("running database migrations")
		if err := db.RunMigrations(cfg.Database.URL, cfg.Database.MigrationsPath); err != nil {
			logger.Fatal().Err(err).Msg("failed to run migrations")
		}
	}

	ctx := context.Background()
	database, err := db.NewDatabase(ctx, cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer database.Close()

	repo := catalog.NewRepository(database.Pool)

	matchCfg := matching.DefaultConfig()
	matchCfg.SimilarityThreshold = cfg.Matching.SimilarityThreshold
	matchCfg.DistanceTolerancePercent = cfg.Matching.DistanceTolerancePercent
	matchCfg.ConfidenceBase = cfg.Matching.ConfidenceBase
	if *threshold > 0 {
		matchCfg.SimilarityThreshold = *threshold
	}
	if cfg.SearchEnabled() {
		matchCfg.Search = &matching.SearchIndexConfig{
			Host:   cfg.Search.Host,
			APIKey: cfg.Search.APIKey,
			Index:  cfg.Search.Index,
		}
	}

	matcher := matching.New(repo, matchCfg, *logger.Get())

	result := matcher.MatchEvent(ctx, matching.EventMatchInput{
		EventName:       *name,
		EventCity:       *city,
		EventDepartment: *department,
		EditionDate:     editionDate,
		EditionYear:     *year,
	})

	output := struct {
		Event matching.EventMatchResult `json:"event"`
		Races *matching.RaceMatchResult `json:"races,omitempty"`
	}{Event: result}

	if *racesFile != "" && result.Edition != nil {
		raceResult, err := matchRaces(ctx, repo, *racesFile, result.Edition.ID, matchCfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to match races")
		}
		output.Races = raceResult
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(output); err != nil {
		logger.Fatal().Err(err).Msg("failed to encode result")
	}
}

func matchRaces(ctx context.Context, repo *catalog.Repository, path string, editionID int64, cfg matching.Config) (*matching.RaceMatchResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read races file: %w", err)
	}
	var inputs []matching.RaceMatchInput
	if err := json.Unmarshal(data, &inputs); err != nil {
		return nil, fmt.Errorf("failed to parse races file: %w", err)
	}

	refs, err := repo.ListRaces(ctx, editionID)
	if err != nil {
		return nil, err
	}

	result := matching.MatchRaces(inputs, refs, cfg.DistanceTolerancePercent, *logger.Get())
	return &result, nil
}
