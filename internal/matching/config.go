package matching

// Config tunes one match call. The zero value is not usable; start
// from DefaultConfig and override fields as needed.
type Config struct {
	// SimilarityThreshold separates FUZZY_MATCH from NO_MATCH on the
	// combined score.
	SimilarityThreshold float64
	// DistanceTolerancePercent is the relative tolerance used when
	// grouping races by distance.
	DistanceTolerancePercent float64
	// ConfidenceBase seeds the proposal confidence calculators.
	ConfidenceBase float64
	// Search enables the Meilisearch candidate source when non-nil.
	Search *SearchIndexConfig
	// Retriever tunes the catalog retrieval passes.
	Retriever RetrieverConfig
}

// SearchIndexConfig points at the external text-search index.
type SearchIndexConfig struct {
	Host   string
	APIKey string
	Index  string
}

// RetrieverConfig holds the widening-pass tuning constants. These are
// empirical values calibrated against the current catalog size; they
// are parameters, not constants, so a different catalog or language
// corpus can recalibrate them.
type RetrieverConfig struct {
	// PassOneLimit caps the same-department pass.
	PassOneLimit int
	// WidenThreshold triggers the cross-department pass when pass one
	// found fewer candidates than this.
	WidenThreshold int
	// WidenFloor is the minimum fetch size of the widening pass even
	// when pass one nearly filled its cap.
	WidenFloor int
	// PassThreeLimit caps the exact-year pass.
	PassThreeLimit int
	// WindowDays is the half-width of the edition date window around
	// the query date.
	WindowDays int
}

// Decision thresholds on the combined score.
const (
	exactMatchThreshold = 0.95
	// reportFloor is the combined score below which the best candidate
	// is too weak to even report as a rejected alternative.
	reportFloor = 0.3
)

// DefaultConfig returns the baseline tuning.
func DefaultConfig() Config {
	return Config{
		SimilarityThreshold:      0.75,
		DistanceTolerancePercent: 0.1,
		ConfidenceBase:           0.9,
		Retriever:                DefaultRetrieverConfig(),
	}
}

// DefaultRetrieverConfig returns the baseline retrieval tuning.
func DefaultRetrieverConfig() RetrieverConfig {
	return RetrieverConfig{
		PassOneLimit:   100,
		WidenThreshold: 10,
		WidenFloor:     20,
		PassThreeLimit: 20,
		WindowDays:     90,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.SimilarityThreshold == 0 {
		c.SimilarityThreshold = def.SimilarityThreshold
	}
	if c.DistanceTolerancePercent == 0 {
		c.DistanceTolerancePercent = def.DistanceTolerancePercent
	}
	if c.ConfidenceBase == 0 {
		c.ConfidenceBase = def.ConfidenceBase
	}
	if c.Retriever == (RetrieverConfig{}) {
		c.Retriever = def.Retriever
	}
	return c
}
