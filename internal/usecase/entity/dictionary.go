package entity

import (
	"strings"
	"sync"

	"github.com/kailas-cloud/relevex/internal/domain/entity"
)

var seedCategories = []string{
	"clothing", "dresses", "tops", "bottoms", "pants", "jeans", "skirts", "shorts",
	"outerwear", "jackets", "coats", "sweaters", "activewear", "swimwear", "lingerie",
	"sleepwear", "accessories", "shoes", "bags", "jewelry", "watches", "sunglasses",
	"hats", "scarves", "gloves", "belts", "socks", "home", "bedding", "bath", "kitchen",
	"furniture", "decor", "beauty", "skincare", "makeup", "haircare", "fragrance", "wellness",
}

var seedBrands = []string{
	"avnu", "eco-collective", "sustainable threads", "green earth", "ethical choice",
	"conscious couture", "fair fashion", "earth friendly", "pure planet", "organic basics",
	"recycled revolution", "upcycled unique", "local luxe", "small batch beauty",
	"artisan alliance",
}

var seedValues = []string{
	"sustainable", "ethical", "eco-friendly", "organic", "vegan", "fair trade", "handmade",
	"recycled", "upcycled", "local", "small batch", "carbon neutral", "zero waste",
	"plastic free", "biodegradable", "compostable", "renewable", "cruelty-free",
	"non-toxic", "chemical-free",
}

var seedColors = []string{
	"black", "white", "red", "blue", "green", "yellow", "orange", "purple", "pink", "brown",
	"gray", "grey", "beige", "navy", "teal", "gold", "silver", "multicolor", "multi-color",
}

var seedMaterials = []string{
	"cotton", "organic cotton", "polyester", "recycled polyester", "wool", "silk", "linen",
	"leather", "vegan leather", "denim", "velvet", "satin", "nylon", "cashmere", "fleece",
	"suede", "canvas", "corduroy", "bamboo", "hemp", "tencel", "modal", "rayon", "viscose",
}

// dictionaries maps entity types to known lowercase terms.
type dictionaries struct {
	mu   sync.RWMutex
	sets map[entity.Type]map[string]struct{}
}

func newDictionaries() *dictionaries {
	d := &dictionaries{sets: make(map[entity.Type]map[string]struct{})}
	d.sets[entity.Category] = toSet(seedCategories)
	d.sets[entity.Brand] = toSet(seedBrands)
	d.sets[entity.Value] = toSet(seedValues)
	d.sets[entity.Color] = toSet(seedColors)
	d.sets[entity.Material] = toSet(seedMaterials)
	return d
}

func toSet(terms []string) map[string]struct{} {
	s := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		if t = normalize(t); t != "" {
			s[t] = struct{}{}
		}
	}
	return s
}

func (d *dictionaries) has(t entity.Type, term string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.sets[t][term]
	return ok
}

func (d *dictionaries) size(t entity.Type) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.sets[t])
}

// add merges terms into the dictionary for t and reports how many were new.
func (d *dictionaries) add(t entity.Type, terms []string) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	set, ok := d.sets[t]
	if !ok {
		set = make(map[string]struct{}, len(terms))
		d.sets[t] = set
	}
	added := 0
	for _, term := range terms {
		term = normalize(term)
		if term == "" {
			continue
		}
		if _, ok := set[term]; !ok {
			set[term] = struct{}{}
			added++
		}
	}
	return added
}

// normalize lowercases s and collapses inner whitespace.
func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
