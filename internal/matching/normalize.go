package matching

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// diacriticStripper decomposes to NFD, drops combining marks, then
// recomposes. "vallée" becomes "vallee".
var diacriticStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

var (
	apostropheReplacer = strings.NewReplacer("’", "'", "ʼ", "'", "`", "'")
	ligatureReplacer   = strings.NewReplacer("œ", "oe", "æ", "ae")

	nonWordRe    = regexp.MustCompile(`[^a-z0-9' ]+`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// NormalizeString lowercases, strips diacritics, unifies apostrophe
// variants, replaces every other non-word character with a space and
// collapses whitespace. It is idempotent.
func NormalizeString(s string) string {
	s = strings.ToLower(s)
	s = apostropheReplacer.Replace(s)
	s = ligatureReplacer.Replace(s)
	if out, _, err := transform.String(diacriticStripper, s); err == nil {
		s = out
	}
	s = nonWordRe.ReplaceAllString(s, " ")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Trailing edition markers, tried in order. Later patterns assume the
// earlier ones already removed their suffix and left trimmed text.
var editionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\s*\([^)]*\)\s*$`),
	regexp.MustCompile(`(?i)\s*\d+\s*(?:ème|eme|è|e|ère|ere|er)?\s*(?:édition|edition)\s*$`),
	regexp.MustCompile(`\s*#\d+\s*$`),
	regexp.MustCompile(`(?i)\s*n\s*°\s*\d+\s*$`),
	regexp.MustCompile(`\s*(?:19|20)\d{2}\s*$`),
}

// RemoveEditionNumber strips trailing ordinal/edition markers from a
// raw event name: "Marathon du Médoc 38ème édition", "Trail des Cimes
// #12", "Corrida de Noël n°7", a trailing bare year, or a trailing
// parenthetical.
func RemoveEditionNumber(name string) string {
	for _, re := range editionPatterns {
		name = strings.TrimSpace(re.ReplaceAllString(name, ""))
	}
	return name
}

// RemoveSponsors removes known sponsor tokens from a normalized name
// when they appear as standalone words, longest entry first so that
// "schneider electric" wins over "schneider". The result has collapsed
// whitespace.
func RemoveSponsors(name string) string {
	padded := " " + name + " "
	for _, sponsor := range sponsorList {
		padded = strings.ReplaceAll(padded, " "+sponsor+" ", " ")
	}
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(padded, " "))
}

// RemoveStopwords filters out words shorter than minWordLength or
// present in the stopword set.
func RemoveStopwords(text string, stopwords map[string]struct{}, minWordLength int) string {
	var kept []string
	for _, word := range strings.Fields(text) {
		if len(word) < minWordLength {
			continue
		}
		if _, ok := stopwords[word]; ok {
			continue
		}
		kept = append(kept, word)
	}
	return strings.Join(kept, " ")
}

const keywordMinLength = 4

// ExtractKeywords returns the stopword-filtered words of length >= 4
// from a normalized name, longest first. Long tokens are the most
// discriminative, so they lead.
func ExtractKeywords(text string) []string {
	filtered := RemoveStopwords(text, eventStopwords, keywordMinLength)
	if filtered == "" {
		return nil
	}
	keywords := strings.Fields(filtered)
	sort.SliceStable(keywords, func(a, b int) bool { return len(keywords[a]) > len(keywords[b]) })
	return keywords
}

// GetPrimaryKeyword returns the longest keyword of a normalized name,
// or "" when none qualifies.
func GetPrimaryKeyword(text string) string {
	keywords := ExtractKeywords(text)
	if len(keywords) == 0 {
		return ""
	}
	return keywords[0]
}

// CalculateNameQuality scores how discriminative a normalized name is:
// the ratio of keywords to total words, with a bonus when the primary
// keyword is long, capped at 1.
func CalculateNameQuality(text string) float64 {
	words := strings.Fields(text)
	if len(words) == 0 {
		return 0
	}
	keywords := ExtractKeywords(text)
	quality := float64(len(keywords)) / float64(len(words))
	if len(keywords) > 0 && len(keywords[0]) > 8 {
		quality += 0.2
	}
	if quality > 1 {
		return 1
	}
	return quality
}

// wordsOfMinLength returns the words of a normalized string with at
// least min characters.
func wordsOfMinLength(text string, min int) []string {
	var out []string
	for _, word := range strings.Fields(text) {
		if len(word) >= min {
			out = append(out, word)
		}
	}
	return out
}
