package matching

import "sort"

// Static lookup tables for normalization. All entries are in normalized
// form (lowercase, accent-folded) so they can be matched after
// NormalizeString. Kept as data, not code, so they can be updated
// without touching the scoring logic.

// eventStopwords are words too common in race names to discriminate
// between events, including generic race-type words.
var eventStopwords = wordSet(
	// French function words
	"le", "la", "les", "l", "de", "des", "du", "d", "un", "une",
	"et", "en", "au", "aux", "sur", "sous", "par", "pour", "avec",
	// generic race-type words
	"trail", "trails", "marathon", "semi", "course", "courses",
	"cross", "corrida", "foulee", "foulees", "ronde", "rando",
	"randonnee", "run", "running", "race",
	// units and filler
	"km", "kms", "edition", "ville",
)

// cityStopwords are words too common in French commune names to carry
// signal on their own.
var cityStopwords = wordSet(
	"saint", "sainte", "st", "ste", "sur", "sous", "les", "le", "la",
	"de", "du", "des", "en", "aux", "lez", "les",
)

// sponsorNames are brand tokens that scrapers prepend or append to
// event names. Multi-word entries must come before their single-word
// prefixes ("schneider electric" before "schneider"); sponsorList
// enforces the ordering at init.
var sponsorNames = []string{
	"schneider electric",
	"harmonie mutuelle",
	"banque populaire",
	"credit agricole",
	"caisse d'epargne",
	"red bull",
	"new balance",
	"schneider",
	"brooks",
	"asics",
	"salomon",
	"hoka",
	"nike",
	"adidas",
	"decathlon",
	"intersport",
	"kiprun",
	"garmin",
	"suunto",
	"compressport",
	"mizuno",
	"saucony",
	"puma",
	"edf",
	"engie",
	"orange",
	"lidl",
	"leclerc",
	"carrefour",
}

// sponsorList is sponsorNames sorted longest-first, so that compound
// brands are removed before their fragments.
var sponsorList = func() []string {
	out := make([]string, len(sponsorNames))
	copy(out, sponsorNames)
	sort.SliceStable(out, func(a, b int) bool { return len(out[a]) > len(out[b]) })
	return out
}()

func wordSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
