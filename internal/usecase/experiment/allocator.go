// Package experiment assigns users to AB test variants deterministically.
package experiment

import (
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/relevex/internal/domain/experiment"
	"github.com/kailas-cloud/relevex/internal/metrics"
)

// Buckets is the number of hash buckets users are spread over.
const Buckets = experiment.TotalWeight

// Allocator selects variants for users. Its test list is fixed at
// construction, so it is safe for concurrent use.
type Allocator struct {
	tests  []experiment.Test
	byID   map[string]int
	logger *zap.Logger
	now    func() time.Time
}

// Option configures an Allocator.
type Option func(*Allocator)

// WithClock sets the time source used for eligibility windows.
func WithClock(now func() time.Time) Option {
	return func(a *Allocator) { a.now = now }
}

// NewAllocator creates an Allocator over tests. Tests whose variant weights
// do not sum to 100 are kept with a warning; users hashed past the last
// cumulative weight get the first variant. Duplicate ids keep the first test.
func NewAllocator(tests []experiment.Test, logger *zap.Logger, opts ...Option) *Allocator {
	a := &Allocator{
		byID:   make(map[string]int, len(tests)),
		logger: logger,
		now:    time.Now,
	}
	for _, o := range opts {
		o(a)
	}

	for _, t := range tests {
		if _, dup := a.byID[t.ID()]; dup {
			logger.Warn("duplicate ab test ignored", zap.String("test_id", t.ID()))
			continue
		}
		if sum := t.WeightSum(); sum != experiment.TotalWeight {
			logger.Warn("ab test variant weights do not sum to 100",
				zap.String("test_id", t.ID()),
				zap.Int("weight_sum", sum),
			)
		}
		a.byID[t.ID()] = len(a.tests)
		a.tests = append(a.tests, t)
	}
	return a
}

// Select returns the variant of testID assigned to userID. It reports false
// when the test is unknown, inactive or outside its date window.
func (a *Allocator) Select(testID, userID string) (experiment.Assignment, bool) {
	i, ok := a.byID[testID]
	if !ok {
		return experiment.Assignment{}, false
	}
	t := a.tests[i]
	if !t.EligibleAt(a.now()) {
		return experiment.Assignment{}, false
	}

	v := pick(t.Variants(), Bucket(userID+"-"+testID))
	metrics.ExperimentAssignmentsTotal.WithLabelValues(t.ID(), v.ID).Inc()

	return experiment.Assignment{
		TestID:    t.ID(),
		VariantID: v.ID,
		Algorithm: v.Algorithm,
		Params:    v.Params,
		EventName: t.EventName(),
	}, true
}

// ActiveTests returns the tests eligible now, in configuration order.
func (a *Allocator) ActiveTests() []experiment.Test {
	now := a.now()
	var out []experiment.Test
	for _, t := range a.tests {
		if t.EligibleAt(now) {
			out = append(out, t)
		}
	}
	return out
}

// Tests returns every configured test.
func (a *Allocator) Tests() []experiment.Test {
	return append([]experiment.Test(nil), a.tests...)
}

// pick walks cumulative weights; bucket falls in the first variant whose
// cumulative weight exceeds it.
func pick(variants []experiment.Variant, bucket int) experiment.Variant {
	cumulative := 0
	for _, v := range variants {
		cumulative += v.Weight
		if bucket < cumulative {
			return v
		}
	}
	return variants[0]
}

// Bucket hashes key into [0, Buckets). The hash is the 31-multiplier
// string hash over UTF-16 code units in 32-bit signed arithmetic, so
// assignments match other services that bucket the same way.
func Bucket(key string) int {
	var h int32
	for _, u := range utf16Units(key) {
		h = h*31 + int32(u)
	}
	abs := int64(h)
	if abs < 0 {
		abs = -abs
	}
	return int(abs % Buckets)
}
