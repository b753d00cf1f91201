// Package tokenizer splits query text into lowercase word tokens and
// derives stems for the statistical classifier.
package tokenizer

import (
	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/token/porter"
	"github.com/blevesearch/bleve/v2/analysis/token/stop"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
)

// Tokenizer is safe for concurrent use.
type Tokenizer struct {
	analyzer *analysis.DefaultAnalyzer
	stop     analysis.TokenFilter
	stemmer  analysis.TokenFilter
}

// New creates a Tokenizer using unicode word segmentation and lowercasing.
func New() *Tokenizer {
	stopWords := analysis.NewTokenMap()
	// The embedded English list always parses.
	_ = stopWords.LoadBytes(en.EnglishStopWords)

	return &Tokenizer{
		analyzer: &analysis.DefaultAnalyzer{
			Tokenizer:    unicode.NewUnicodeTokenizer(),
			TokenFilters: []analysis.TokenFilter{lowercase.NewLowerCaseFilter()},
		},
		stop:    stop.NewStopTokensFilter(stopWords),
		stemmer: porter.NewPorterStemmer(),
	}
}

// Tokens returns the lowercase word tokens of text in order.
// Punctuation and symbols such as "$" are dropped.
func (t *Tokenizer) Tokens(text string) []string {
	if text == "" {
		return nil
	}
	stream := t.analyzer.Analyze([]byte(text))
	out := make([]string, 0, len(stream))
	for _, tok := range stream {
		out = append(out, string(tok.Term))
	}
	return out
}

// Stems returns the porter stem of each token.
func (t *Tokenizer) Stems(tokens []string) []string {
	return terms(t.stemmer.Filter(stream(tokens)))
}

// Features drops English stop words from tokens and stems the rest.
func (t *Tokenizer) Features(tokens []string) []string {
	return terms(t.stemmer.Filter(t.stop.Filter(stream(tokens))))
}

func stream(tokens []string) analysis.TokenStream {
	s := make(analysis.TokenStream, len(tokens))
	for i, tok := range tokens {
		s[i] = &analysis.Token{Term: []byte(tok), Position: i + 1, Type: analysis.AlphaNumeric}
	}
	return s
}

func terms(s analysis.TokenStream) []string {
	if len(s) == 0 {
		return nil
	}
	out := make([]string, len(s))
	for i, tok := range s {
		out[i] = string(tok.Term)
	}
	return out
}
