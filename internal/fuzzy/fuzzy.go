// Package fuzzy implements a small weighted multi-field token search
// over an in-memory document set. Queries and fields are expected to be
// pre-normalized (lowercased, accent-folded) by the caller; the search
// returns a per-document similarity in [0,1].
package fuzzy

import (
	"math"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Field declares a searchable document field and its weight. Weights
// across the fields of an index should sum to 1.
type Field struct {
	Name   string
	Weight float64
}

// Options tunes token acceptance.
type Options struct {
	// Threshold is the maximum normalized edit distance accepted for a
	// token pair, Fuse-style: a pair with distance/maxLen above this is
	// not a match. Zero value falls back to DefaultThreshold.
	Threshold float64
	// MinMatchCharLength drops query tokens shorter than this.
	// Zero value falls back to DefaultMinMatchCharLength.
	MinMatchCharLength int
}

const (
	DefaultThreshold          = 0.6
	DefaultMinMatchCharLength = 2
)

func (o Options) withDefaults() Options {
	if o.Threshold == 0 {
		o.Threshold = DefaultThreshold
	}
	if o.MinMatchCharLength == 0 {
		o.MinMatchCharLength = DefaultMinMatchCharLength
	}
	return o
}

// Document is one searchable item.
type Document struct {
	ID     int64
	Fields map[string]string
}

// Hit is a document with a non-zero similarity for a query.
type Hit struct {
	ID    int64
	Score float64
}

// Index holds the document set plus field configuration.
type Index struct {
	docs   []Document
	fields []Field
	opts   Options

	// tokenized field values per document, keyed by field name
	tokens []map[string][]string
}

// NewIndex builds an index over docs with the given field weights.
func NewIndex(docs []Document, fields []Field, opts Options) *Index {
	ix := &Index{
		docs:   docs,
		fields: fields,
		opts:   opts.withDefaults(),
		tokens: make([]map[string][]string, len(docs)),
	}
	for i, doc := range docs {
		ix.tokens[i] = make(map[string][]string, len(fields))
		for _, f := range fields {
			ix.tokens[i][f.Name] = strings.Fields(doc.Fields[f.Name])
		}
	}
	return ix
}

// fieldEpsilon stands in for a zero distance on a perfectly matching
// field, so the product stays non-zero and other fields keep their
// influence.
const fieldEpsilon = 2.220446049250313e-16

// Search scores every document against query and returns the hits with
// a score above zero, best first. Document order breaks ties.
//
// The per-document score is 1 minus the weighted product of per-field
// distances: one strongly matching field pulls the score up sharply,
// while fields with no match at all (distance 1) leave it untouched.
func (ix *Index) Search(query string) []Hit {
	queryTokens := ix.queryTokens(query)
	if len(queryTokens) == 0 {
		return nil
	}

	hits := make([]Hit, 0, len(ix.docs))
	for i, doc := range ix.docs {
		total := 1.0
		for _, f := range ix.fields {
			distance := 1 - fieldScore(queryTokens, ix.tokens[i][f.Name], ix.opts)
			if distance <= 0 {
				distance = fieldEpsilon
			}
			total *= math.Pow(distance, f.Weight)
		}
		score := 1 - total
		if total < 1e-9 {
			score = 1
		}
		if score > 0 {
			hits = append(hits, Hit{ID: doc.ID, Score: score})
		}
	}

	sort.SliceStable(hits, func(a, b int) bool { return hits[a].Score > hits[b].Score })
	return hits
}

func (ix *Index) queryTokens(query string) []string {
	var tokens []string
	for _, tok := range strings.Fields(query) {
		if len(tok) >= ix.opts.MinMatchCharLength {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

// fieldScore is the mean best token similarity of queryTokens against
// the field's tokens. Query tokens with no acceptable counterpart
// contribute zero.
func fieldScore(queryTokens, fieldTokens []string, opts Options) float64 {
	if len(queryTokens) == 0 || len(fieldTokens) == 0 {
		return 0
	}

	var total float64
	for _, q := range queryTokens {
		var best float64
		for _, f := range fieldTokens {
			if sim := TokenSimilarity(q, f, opts); sim > best {
				best = sim
			}
			if best == 1 {
				break
			}
		}
		total += best
	}
	return total / float64(len(queryTokens))
}

// TokenSimilarity compares two tokens. Equal tokens score 1; a token
// contained in the other scores by length ratio (a short fragment
// inside a long word is a weaker signal than a near-complete overlap);
// otherwise the normalized edit distance decides, rejected entirely
// past the threshold.
func TokenSimilarity(a, b string, opts Options) float64 {
	opts = opts.withDefaults()
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}

	short, long := a, b
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) >= opts.MinMatchCharLength && strings.Contains(long, short) {
		return 0.5 + 0.5*float64(len(short))/float64(len(long))
	}

	dist := levenshtein.ComputeDistance(a, b)
	maxLen := len(long)
	ratio := 1 - float64(dist)/float64(maxLen)
	if ratio < 1-opts.Threshold {
		return 0
	}
	return ratio
}
