package intent

import (
	"fmt"
	"sort"

	"github.com/navossoc/bayesian"

	"github.com/kailas-cloud/relevex/internal/domain"
	"github.com/kailas-cloud/relevex/internal/domain/intent"
)

// bayes wraps a naive Bayes classifier over stemmed tokens. It is
// read-only after training.
type bayes struct {
	labels []intent.Label
	model  *bayesian.Classifier
	vocab  map[string]struct{}
}

// trainBayes fits a model on labeled examples. Labels are kept in
// declaration order so ties resolve deterministically. At least two
// labels with examples are required.
func trainBayes(examples map[intent.Label][]string, a Analyzer) (*bayes, error) {
	b := &bayes{vocab: make(map[string]struct{})}

	docs := make(map[intent.Label][][]string)
	for _, l := range intent.All() {
		for _, text := range examples[l] {
			features := a.Features(a.Tokens(text))
			if len(features) == 0 {
				continue
			}
			docs[l] = append(docs[l], features)
			for _, f := range features {
				b.vocab[f] = struct{}{}
			}
		}
		if len(docs[l]) > 0 {
			b.labels = append(b.labels, l)
		}
	}

	if len(b.labels) < 2 {
		return nil, fmt.Errorf("%w: need examples for two intents, got %d", domain.ErrClassifierDegraded, len(b.labels))
	}

	classes := make([]bayesian.Class, len(b.labels))
	for i, l := range b.labels {
		classes[i] = bayesian.Class(l)
	}
	b.model = bayesian.NewClassifier(classes...)
	for _, l := range b.labels {
		for _, doc := range docs[l] {
			b.model.Learn(doc, bayesian.Class(l))
		}
	}
	return b, nil
}

// classify returns every trained label with its normalized posterior,
// most probable first. It returns nil when no feature is in the vocabulary.
func (b *bayes) classify(features []string) []intent.Scored {
	known := features[:0:0]
	for _, f := range features {
		if _, ok := b.vocab[f]; ok {
			known = append(known, f)
		}
	}
	if len(known) == 0 {
		return nil
	}

	scores, _, _ := b.model.ProbScores(known)
	out := make([]intent.Scored, len(b.labels))
	for i, l := range b.labels {
		out[i] = intent.NewScored(l, clamp01(scores[i]))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Confidence() > out[j].Confidence()
	})
	return out
}

func clamp01(v float64) float64 {
	switch {
	case v < 0 || v != v:
		return 0
	case v > 1:
		return 1
	}
	return v
}
