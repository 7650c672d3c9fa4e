package detect

// Options control a single Detect call.
type Options struct {
	// Candidates restricts detection to these languages. Nil means the
	// pruned language universe; an empty non-nil slice yields no results.
	Candidates []string
	// Priors are baseline confidences per language, 0 when absent.
	Priors map[string]float64
	// TopK limits the number of results.
	TopK int

	UseCharacterFallback   bool
	EnableEarlyTermination bool

	// Progress receives status events. It never affects the result.
	Progress ProgressSink
}

// DefaultOptions returns top-3 detection with character fallback and early
// termination enabled.
func DefaultOptions() Options {
	return Options{
		TopK:                   3,
		UseCharacterFallback:   true,
		EnableEarlyTermination: true,
	}
}

// Method names the evidence tier a result was accepted on.
type Method string

const (
	MethodWord      Method = "word"
	MethodCharacter Method = "character"
)

// Result is one ranked language. Scores are comparable only within a call.
type Result struct {
	Language string  `json:"language"`
	Score    float64 `json:"score"`
	Method   Method  `json:"method"`
}
