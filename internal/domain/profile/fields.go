package profile

// fieldAliases maps catalog names used by profiles and intents to product
// index fields.
var fieldAliases = map[string]string{
	"name":  "title",
	"brand": "brandName",
}

// IndexField returns the index field for a catalog field name. Names that
// are already index fields pass through.
func IndexField(name string) string {
	if f, ok := fieldAliases[name]; ok {
		return f
	}
	return name
}
