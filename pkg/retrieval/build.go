package retrieval

import "github.com/arenahq/arena/pkg/corpus"

// ProblemsIndex builds a BM25 index over problem titles and descriptions,
// keyed by problem ID, for hint level 3 ("similar problems").
func ProblemsIndex(ids []string, lookup func(id string) (corpus.ProblemRecord, error)) (*Index, error) {
	docs := make([]Document, 0, len(ids))
	for _, id := range ids {
		rec, err := lookup(id)
		if err != nil {
			return nil, err
		}
		docs = append(docs, Document{ID: id, Text: rec.Name + "\n" + rec.Description})
	}
	return NewIndex(docs), nil
}

// ArticlesIndex builds a BM25 index over a slice of corpus.Article, keyed
// by article ID, for hint levels 1 ("textbook") and 2 ("focused
// textbook").
func ArticlesIndex(articles []corpus.Article) *Index {
	docs := make([]Document, 0, len(articles))
	for _, a := range articles {
		docs = append(docs, Document{ID: a.ID, Text: a.Title + "\n" + a.Content})
	}
	return NewIndex(docs)
}
