package intent

// Analyzer turns text into classifier features.
type Analyzer interface {
	Tokens(text string) []string
	Features(tokens []string) []string
}
