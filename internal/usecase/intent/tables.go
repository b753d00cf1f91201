package intent

import (
	"regexp"

	"github.com/kailas-cloud/relevex/internal/domain/intent"
)

// intentPattern binds regexes to the intent they signal.
type intentPattern struct {
	label    intent.Label
	patterns []*regexp.Regexp
}

func rx(expr string) *regexp.Regexp { return regexp.MustCompile(`(?i)` + expr) }

const words = `[a-z][a-z\s&-]*`

// patternTable is evaluated top to bottom; the first match wins. Phrasings
// that embed another intent's trigger word ("sort by", "filter by") come
// before the broad brand rule.
var patternTable = []intentPattern{
	{intent.Sort, []*regexp.Regexp{
		rx(`\b(?:sort|order|arrange)\s+(?:by|on)\s+` + words),
		rx(`\b(?:sort|order|arrange)\s+` + words + `\s+(?:by|on)\s+` + words),
	}},
	{intent.Filter, []*regexp.Regexp{
		rx(`\b(?:filter|show\s+only|limit\s+to|restrict\s+to)\s+` + words),
		rx(`\b(?:by|with)\s+` + words + `\s+(?:only|filter)\b`),
	}},
	{intent.Comparison, []*regexp.Regexp{
		rx(`\b(?:compare|difference\s+between|vs|versus|or)\s+` + words + `\s+(?:and|or|vs|versus)\s+` + words),
		rx(`(?:\bwhich\s+is\s+better|\bwhat'?s\s+better|\bbetter\s+option)\s+` + words + `\s+(?:or|vs|versus)\s+` + words),
	}},
	{intent.Availability, []*regexp.Regexp{
		rx(`\b(?:is|are)\s+` + words + `\s+(?:in\s+stock|available|in)\b`),
		rx(`\b(?:do\s+you\s+have|availability\s+of)\s+` + words),
	}},
	{intent.PriceQuery, []*regexp.Regexp{
		rx(`\b(?:how\s+much|what\s+is\s+the\s+price\s+of|cost\s+of|price\s+for)\s+` + words),
		rx(`\b(?:under|less\s+than|below|above|over|more\s+than)\s+\$\d+`),
		rx(`\$\d+\s*(?:to|-)\s*\$\d+`),
	}},
	{intent.Recommendation, []*regexp.Regexp{
		rx(`\b(?:recommend|suggest|what\s+do\s+you\s+recommend|what\s+should\s+i|best)\s+` + words),
		rx(`\b(?:what\s+are\s+the\s+best|top|popular|trending)\s+` + words),
	}},
	{intent.CategoryBrowse, []*regexp.Regexp{
		rx(`\b(?:browse|explore|show\s+me|view|see)\s+(?:(?:all|the)\s+)?` + words),
		rx(`\b(?:what|which)\s+` + words + `\s+(?:do\s+you\s+have|are\s+available|can\s+i\s+find)\b`),
	}},
	{intent.ProductSearch, []*regexp.Regexp{
		rx(`\b(?:find|show|search\s+for|looking\s+for|need)\s+(?:(?:a|an|some)\s+)?` + words),
		rx(`\b(?:where\s+can\s+i\s+find|is\s+there)\s+(?:(?:a|an|some)\s+)?` + words),
	}},
	{intent.BrandSpecific, []*regexp.Regexp{
		rx(`\b(?:by|from)\s+` + words),
		rx(`\b` + words + `\s+brand\b`),
	}},
	{intent.ValueDriven, []*regexp.Regexp{
		rx(`\b(?:sustainable|ethical|eco-friendly|organic|vegan|fair\s+trade|handmade|recycled|upcycled|local|small\s+batch)\b`),
		rx(`\b(?:environmentally\s+friendly|socially\s+responsible|ethically\s+made|eco\s+conscious)\b`),
	}},
}

// keywordTable lists substrings whose presence votes for an intent.
var keywordTable = map[intent.Label][]string{
	intent.ProductSearch:  {"find", "search", "looking", "need", "want", "show", "get"},
	intent.CategoryBrowse: {"browse", "explore", "view", "see", "category", "categories", "all"},
	intent.BrandSpecific:  {"brand", "by", "from", "made by", "manufacturer"},
	intent.PriceQuery:     {"price", "cost", "how much", "affordable", "expensive", "cheap", "budget", "luxury"},
	intent.ValueDriven: {
		"sustainable", "ethical", "eco-friendly", "organic", "vegan", "fair trade", "handmade", "recycled", "local",
	},
	intent.Comparison:     {"compare", "comparison", "difference", "versus", "vs", "or", "better", "best"},
	intent.Recommendation: {"recommend", "suggest", "best", "top", "popular", "trending", "rated"},
	intent.Availability:   {"available", "in stock", "stock", "inventory", "when"},
	intent.Filter:         {"filter", "only", "limit", "restrict", "with", "has", "have"},
	intent.Sort:           {"sort", "order", "arrange", "ranking", "highest", "lowest"},
}

// trainingExamples seed the naive Bayes tier.
var trainingExamples = map[intent.Label][]string{
	intent.ProductSearch: {
		"find a black dress",
		"looking for organic cotton t-shirts",
		"search for eco-friendly water bottles",
		"need a new pair of sustainable jeans",
		"show me vegan leather bags",
		"find recycled plastic sunglasses",
		"I need a fair trade coffee mug",
	},
	intent.CategoryBrowse: {
		"browse sustainable clothing",
		"explore eco-friendly home goods",
		"show me all vegan products",
		"view organic skincare",
		"see all recycled items",
		"what sustainable products do you have",
		"which ethical brands are available",
	},
	intent.BrandSpecific: {
		"products by Eco Collective",
		"items from Sustainable Threads",
		"Green Earth brand",
		"show me Ethical Choice products",
		"find Conscious Couture dresses",
		"Fair Fashion jeans",
		"Earth Friendly cleaning products",
	},
	intent.PriceQuery: {
		"how much are organic cotton sheets",
		"price of sustainable yoga mats",
		"cost of eco-friendly water bottles",
		"products under $50",
		"items between $20 and $100",
		"affordable ethical clothing",
		"luxury sustainable fashion",
	},
	intent.ValueDriven: {
		"sustainable kitchen products",
		"ethical jewelry brands",
		"eco-friendly cleaning supplies",
		"organic cotton bedding",
		"vegan leather alternatives",
		"fair trade chocolate",
		"locally made furniture",
	},
	intent.Comparison: {
		"compare organic cotton vs recycled polyester",
		"difference between vegan leather and real leather",
		"bamboo or recycled plastic toothbrushes",
		"which is better silk or tencel",
		"sustainable vs conventional cotton",
		"compare Eco Collective and Green Earth brands",
		"recycled paper or bamboo toilet paper",
	},
	intent.Recommendation: {
		"recommend sustainable gifts under $30",
		"suggest eco-friendly cleaning products",
		"what are the best vegan leather bags",
		"top rated organic skincare",
		"popular sustainable fashion brands",
		"best value eco-friendly products",
		"trending ethical jewelry",
	},
	intent.Availability: {
		"are organic cotton sheets in stock",
		"do you have bamboo toothbrushes",
		"availability of recycled paper notebooks",
		"is the eco-friendly water bottle available",
		"when will sustainable yoga mats be back in stock",
		"check stock for vegan leather bags",
		"are fair trade coffee beans available",
	},
	intent.Filter: {
		"filter by sustainable materials",
		"show only vegan products",
		"limit to local brands",
		"restrict to items under $50",
		"filter by 4+ star rating",
		"show only organic options",
		"with recycled packaging only",
	},
	intent.Sort: {
		"sort by price low to high",
		"order by customer rating",
		"arrange by newest first",
		"sort sustainable clothing by price",
		"order vegan products by popularity",
		"arrange by eco-friendliness score",
		"sort by distance from local",
	},
}
