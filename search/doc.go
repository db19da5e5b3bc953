// Package search ranks a corpus of documents against free-text queries using
// the vector-space model.
//
// Each document is reduced to a sparse TF-IDF vector:
//   - Term frequency: count(term) / number of tokens in the text
//   - Inverse document frequency: ln(N / (df(term) + 1)) over the corpus
//
// Queries are vectorized with the same IDF weights and compared to every
// document vector with cosine similarity. Documents scoring above zero are
// returned best first; equal scores keep corpus order.
//
// An Index is built once with Build and never modified afterwards, so a
// single Index may be searched from multiple goroutines without locking.
package search
