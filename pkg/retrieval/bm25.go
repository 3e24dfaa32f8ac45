// Package retrieval implements a small BM25 ranking index used by the hint
// system (spec.md §4.6): textbook search for levels 1 and 2, similar
// problems for level 3 and guide lookup for level 4. No BM25 library appears anywhere in the reference corpus, so
// this is a direct, from-scratch implementation of the standard Okapi BM25
// scoring function — the spec explicitly allows a self-contained fallback
// here.
package retrieval

import (
	"math"
	"regexp"
	"strings"
)

// Document is one unit of text the index can retrieve: a problem
// description, a textbook section, or a guide entry.
type Document struct {
	ID      string
	Text    string
	tokens  []string
	termFreq map[string]int
}

// Index is a BM25-ranked corpus of Documents.
type Index struct {
	docs       []Document
	docLenSum  int
	avgDocLen  float64
	df         map[string]int // document frequency per term
	n          int
}

const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

var tokenPattern = regexp.MustCompile(`[a-zA-Z0-9]+`)

func tokenize(text string) []string {
	matches := tokenPattern.FindAllString(strings.ToLower(text), -1)
	return matches
}

// NewIndex builds a BM25 index over docs. Order is preserved for
// deterministic tie-breaking in Search/Similar.
func NewIndex(docs []Document) *Index {
	idx := &Index{df: map[string]int{}}
	for _, d := range docs {
		d.tokens = tokenize(d.Text)
		d.termFreq = map[string]int{}
		seen := map[string]bool{}
		for _, tok := range d.tokens {
			d.termFreq[tok]++
			if !seen[tok] {
				idx.df[tok]++
				seen[tok] = true
			}
		}
		idx.docLenSum += len(d.tokens)
		idx.docs = append(idx.docs, d)
	}
	idx.n = len(idx.docs)
	if idx.n > 0 {
		idx.avgDocLen = float64(idx.docLenSum) / float64(idx.n)
	}
	return idx
}

func (idx *Index) idf(term string) float64 {
	df := idx.df[term]
	if df == 0 {
		return 0
	}
	// Standard BM25 idf with a +1 floor so common terms never go negative.
	return math.Log(1 + (float64(idx.n)-float64(df)+0.5)/(float64(df)+0.5))
}

func (idx *Index) score(query []string, d Document) float64 {
	if len(d.tokens) == 0 {
		return 0
	}
	var score float64
	docLen := float64(len(d.tokens))
	for _, term := range query {
		tf := float64(d.termFreq[term])
		if tf == 0 {
			continue
		}
		idf := idx.idf(term)
		numerator := tf * (bm25K1 + 1)
		denominator := tf + bm25K1*(1-bm25B+bm25B*docLen/idx.avgDocLen)
		score += idf * numerator / denominator
	}
	return score
}

// Scored is one ranked retrieval result.
type Scored struct {
	ID    string
	Score float64
}

// Search ranks every document against query, returning the top k by score
// descending, ties broken by original corpus order.
func (idx *Index) Search(query string, k int) []Scored {
	terms := tokenize(query)
	return idx.rank(terms, k, nil)
}

// Similar ranks documents by similarity to the document identified by
// docID (using its own text as the query), excluding docID itself and any
// ID present in exclude.
func (idx *Index) Similar(docID string, k int, exclude map[string]bool) []Scored {
	var target *Document
	for i := range idx.docs {
		if idx.docs[i].ID == docID {
			target = &idx.docs[i]
			break
		}
	}
	if target == nil {
		return nil
	}
	skip := map[string]bool{docID: true}
	for id := range exclude {
		skip[id] = true
	}
	return idx.rank(target.tokens, k, skip)
}

func (idx *Index) rank(terms []string, k int, skip map[string]bool) []Scored {
	if idx.n == 0 || len(terms) == 0 {
		return nil
	}
	results := make([]Scored, 0, idx.n)
	for _, d := range idx.docs {
		if skip[d.ID] {
			continue
		}
		s := idx.score(terms, d)
		if s > 0 {
			results = append(results, Scored{ID: d.ID, Score: s})
		}
	}
	stableSortDescending(results)
	if k > 0 && len(results) > k {
		results = results[:k]
	}
	return results
}

// stableSortDescending sorts by Score descending, preserving relative
// order of equal scores (insertion order from the index, i.e. corpus
// order), matching the spec's tie-break rule.
func stableSortDescending(results []Scored) {
	for i := 1; i < len(results); i++ {
		j := i
		for j > 0 && results[j-1].Score < results[j].Score {
			results[j-1], results[j] = results[j], results[j-1]
			j--
		}
	}
}
