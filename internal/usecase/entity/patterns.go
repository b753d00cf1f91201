package entity

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/relevex/internal/domain/entity"
)

// Confidence levels assigned by the extractor.
const (
	confPatternKnown   = 0.9
	confPatternUnknown = 0.7
	confToken          = 0.8
	confBigram         = 0.85
	confPriceRange     = 0.95
	confPriceBound     = 0.9
	confPriceQualifier = 0.7
	confRatingExact    = 0.9
	confRatingAbove    = 0.85
	confRatingTop      = 0.8
	confRecent         = 0.8
	confPeriod         = 0.9
	confSinceYear      = 0.9
)

// Price bounds used for open and qualitative ranges.
const (
	openPriceMax  = 9999
	budgetCeiling = 50
	premiumFloor  = 100
	minSinceYear  = 2000
	maxStarRating = 5
)

// phrase captures up to three words of free text.
const phrase = `[a-z&-]+(?:\s+[a-z&-]+){0,2}`

// pattern is one regex rule of a dictionary-backed entity type.
type pattern struct {
	re *regexp.Regexp
	// group is the submatch holding the value, 0 for the whole match.
	group int
	// fixed overrides dictionary-based confidence when non-zero.
	fixed float64
}

var textPatterns = map[entity.Type][]pattern{
	entity.Category: {
		{re: regexp.MustCompile(`(?i)\b(?:in|for|from|browse|shop|category:?)\s+(` + phrase + `)`), group: 1},
		{re: regexp.MustCompile(`(?i)\b(` + phrase + `)\s+(?:category|section|department)\b`), group: 1},
	},
	entity.Brand: {
		{re: regexp.MustCompile(`(?i)\b(?:by|from|brand:?)\s+(` + phrase + `)`), group: 1},
		{re: regexp.MustCompile(`(?i)\b(` + phrase + `)\s+brand\b`), group: 1},
	},
	entity.Value: {
		{
			re: regexp.MustCompile(`(?i)\b(?:sustainable|ethical|eco-friendly|organic|vegan|fair\s+trade|` +
				`handmade|recycled|upcycled|local|small\s+batch)\b`),
			fixed: confPatternKnown,
		},
	},
	entity.Size: {
		{re: regexp.MustCompile(`(?i)\bsize:?\s+([a-z0-9-]+)`), group: 1, fixed: confPatternKnown},
		{re: regexp.MustCompile(`(?i)\b(?:small|medium|large|one\s+size)\b`), fixed: confPatternKnown},
		{re: regexp.MustCompile(`(?i)(?:^|\s)(xs|s|m|l|xl|xxl|[2-9]xl|10xl)(?:$|[\s,.])`), group: 1, fixed: confPatternKnown},
	},
	entity.Color: {
		{re: regexp.MustCompile(`(?i)\bcolou?r:?\s+([a-z-]+)`), group: 1},
		{
			re: regexp.MustCompile(`(?i)\b(?:black|white|red|blue|green|yellow|orange|purple|pink|brown|gray|grey|` +
				`beige|navy|teal|gold|silver|multi-?colou?r)\b`),
		},
	},
	entity.Material: {
		{re: regexp.MustCompile(`(?i)\bmaterial:?\s+(` + phrase + `)`), group: 1},
		{re: regexp.MustCompile(`(?i)\bmade\s+(?:of|from)\s+(` + phrase + `)`), group: 1},
		{
			re: regexp.MustCompile(`(?i)\b(?:cotton|polyester|wool|silk|linen|leather|denim|velvet|satin|nylon|` +
				`cashmere|fleece|suede|canvas|corduroy)\b`),
		},
	},
}

// dictionaryTypes get token and bigram lookups after the patterns run.
var dictionaryTypes = map[entity.Type]bool{
	entity.Category: true,
	entity.Brand:    true,
	entity.Value:    true,
	entity.Color:    true,
	entity.Material: true,
}

// stopWords end a free-text capture.
var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true, "with": true, "for": true,
	"in": true, "by": true, "from": true, "under": true, "over": true, "below": true,
	"above": true, "less": true, "more": true, "than": true, "of": true, "to": true,
	"that": true, "on": true, "made": true, "size": true, "color": true, "colour": true,
	"material": true, "brand": true, "category": true, "section": true, "department": true,
}

// candidate is a recognized value before it becomes an entity.
type candidate struct {
	value      string
	confidence float64
}

// numericExtractors recognize values that are computed rather than looked up.
var numericExtractors = map[entity.Type]func(q string, now time.Time) []candidate{
	entity.Price:  extractPrice,
	entity.Rating: extractRating,
	entity.Date:   extractDate,
}

var (
	priceRangeRe     = regexp.MustCompile(`(?i)\$(\d+(?:\.\d+)?)\s*(?:to|-)\s*\$(\d+(?:\.\d+)?)`)
	priceBoundRe     = regexp.MustCompile(`(?i)\b(under|less\s+than|below|above|over|more\s+than)\s+\$(\d+(?:\.\d+)?)`)
	priceQualifierRe = regexp.MustCompile(`(?i)\b(cheap|affordable|budget|inexpensive|expensive|luxury|high-end|premium)\b`)

	ratingExactRe = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*stars?\b`)
	ratingAboveRe = regexp.MustCompile(`(?i)\b(?:above|over|more\s+than)\s+(\d+(?:\.\d+)?)\s*stars?\b`)
	ratingTopRe   = regexp.MustCompile(`(?i)\b(?:top|best|highest)\s+rated\b`)

	recentRe    = regexp.MustCompile(`(?i)\b(?:new|newest|latest|recent)\b`)
	thisWeekRe  = regexp.MustCompile(`(?i)\bthis\s+week\b`)
	thisMonthRe = regexp.MustCompile(`(?i)\bthis\s+month\b`)
	thisYearRe  = regexp.MustCompile(`(?i)\bthis\s+year\b`)
	sinceYearRe = regexp.MustCompile(`(?i)\b(?:from|since)\s+(\d{4})\b`)
)

func extractPrice(q string, _ time.Time) []candidate {
	var out []candidate
	for _, m := range priceRangeRe.FindAllStringSubmatch(q, -1) {
		lo, err1 := strconv.ParseFloat(m[1], 64)
		hi, err2 := strconv.ParseFloat(m[2], 64)
		if err1 != nil || err2 != nil {
			continue
		}
		out = append(out, candidate{formatNum(lo) + "-" + formatNum(hi), confPriceRange})
	}
	for _, m := range priceBoundRe.FindAllStringSubmatch(q, -1) {
		v, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}
		switch strings.Join(strings.Fields(strings.ToLower(m[1])), " ") {
		case "under", "less than", "below":
			out = append(out, candidate{"0-" + formatNum(v), confPriceBound})
		default:
			out = append(out, candidate{formatNum(v) + "-" + formatNum(openPriceMax), confPriceBound})
		}
	}
	for _, m := range priceQualifierRe.FindAllStringSubmatch(q, -1) {
		switch strings.ToLower(m[1]) {
		case "cheap", "affordable", "budget", "inexpensive":
			out = append(out, candidate{"0-" + formatNum(budgetCeiling), confPriceQualifier})
		default:
			out = append(out, candidate{formatNum(premiumFloor) + "-" + formatNum(openPriceMax), confPriceQualifier})
		}
	}
	return out
}

func extractRating(q string, _ time.Time) []candidate {
	var out []candidate
	for _, m := range ratingExactRe.FindAllStringSubmatch(q, -1) {
		if v, ok := parseStars(m[1]); ok {
			out = append(out, candidate{formatNum(v), confRatingExact})
		}
	}
	for _, m := range ratingAboveRe.FindAllStringSubmatch(q, -1) {
		if v, ok := parseStars(m[1]); ok {
			out = append(out, candidate{formatNum(v) + "+", confRatingAbove})
		}
	}
	if ratingTopRe.MatchString(q) {
		out = append(out, candidate{"4+", confRatingTop})
	}
	return out
}

func extractDate(q string, now time.Time) []candidate {
	var out []candidate
	if recentRe.MatchString(q) {
		out = append(out, candidate{"recent", confRecent})
	}
	switch {
	case thisWeekRe.MatchString(q):
		out = append(out, candidate{"this_week", confPeriod})
	case thisMonthRe.MatchString(q):
		out = append(out, candidate{"this_month", confPeriod})
	case thisYearRe.MatchString(q):
		out = append(out, candidate{"this_year", confPeriod})
	}
	if m := sinceYearRe.FindStringSubmatch(q); m != nil {
		year, err := strconv.Atoi(m[1])
		if err == nil && year >= minSinceYear && year <= now.Year() {
			out = append(out, candidate{"since_" + m[1], confSinceYear})
		}
	}
	return out
}

func parseStars(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 || v > maxStarRating {
		return 0, false
	}
	return v, true
}

func formatNum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
