package search

// TermFrequencies maps each term of a text to its share of the text's tokens.
type TermFrequencies map[string]float64

// TermFrequency computes count(term) / total tokens for text.
// Text without tokens yields an empty mapping.
func TermFrequency(text string) TermFrequencies {
	return termFrequency(Tokenize(text))
}

func termFrequency(tokens []string) TermFrequencies {
	tf := make(TermFrequencies)
	if len(tokens) == 0 {
		return tf
	}

	counts := make(map[string]int)
	for _, token := range tokens {
		counts[token]++
	}

	total := float64(len(tokens))
	for term, count := range counts {
		tf[term] = float64(count) / total
	}
	return tf
}
