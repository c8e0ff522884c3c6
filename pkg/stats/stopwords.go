package stats

import (
	"strings"
)

// StopwordSet holds lowercase words excluded from the word list.
type StopwordSet map[string]struct{}

// Contains reports whether w is a stopword.
func (s StopwordSet) Contains(w string) bool {
	_, ok := s[w]
	return ok
}

// Stopwords returns the built-in English and Spanish stopwords plus extra.
// Extra words are cleaned the same way message text is.
func Stopwords(extra []string) StopwordSet {
	set := make(StopwordSet, len(englishStopwords)+len(spanishStopwords)+len(extra))
	for _, list := range [][]string{englishStopwords, spanishStopwords} {
		for _, w := range list {
			set[w] = struct{}{}
		}
	}
	for _, w := range extra {
		for _, f := range strings.Fields(CleanText(w)) {
			set[f] = struct{}{}
		}
	}
	return set
}

var englishStopwords = []string{
	"a", "about", "above", "after", "again", "against", "all", "also", "am", "an",
	"and", "any", "are", "as", "at", "be", "because", "been", "before", "being",
	"below", "between", "both", "but", "by", "can", "cannot", "could", "did", "do",
	"does", "doing", "down", "during", "each", "else", "ever", "few", "for", "from",
	"further", "get", "had", "has", "have", "having", "he", "hence", "her", "here",
	"hers", "herself", "him", "himself", "his", "how", "however", "http", "https", "i",
	"if", "in", "into", "is", "it", "its", "itself", "just", "k", "like",
	"me", "more", "most", "my", "myself", "no", "nor", "not", "of", "off",
	"on", "once", "only", "or", "other", "otherwise", "ought", "our", "ours", "ourselves",
	"out", "over", "own", "r", "same", "shall", "she", "should", "since", "so",
	"some", "such", "than", "that", "the", "their", "theirs", "them", "themselves", "then",
	"there", "therefore", "these", "they", "this", "those", "through", "to", "too", "under",
	"until", "up", "very", "was", "we", "were", "what", "when", "where", "which",
	"while", "who", "whom", "why", "with", "would", "www", "you", "your", "yours",
	"yourself", "yourselves", "com", "dont", "cant", "wont", "im", "ive", "youre", "thats",
}

var spanishStopwords = []string{
	"de", "la", "que", "el", "en", "y", "a", "los", "se", "del",
	"las", "un", "por", "con", "no", "una", "su", "para", "es", "al",
	"lo", "como", "más", "pero", "sus", "le", "ya", "o", "fue", "este",
	"ha", "sí", "porque", "esta", "son", "entre", "está", "cuando", "muy", "sin",
	"sobre", "ser", "tengo", "hay", "mis", "me", "multimedia", "omitido", "te", "yo",
	"tu",
}
