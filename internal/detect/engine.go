// Package detect ranks candidate languages for a text.
//
// For every candidate the engine first tries word evidence: the input's word
// tokens (or character bigrams, for bigram rank tables) are looked up in the
// language's rank table. Languages without enough word evidence fall back to
// character evidence from their alphabet. Word matches are preferred over
// character matches by a fixed boost when ranking.
package detect

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/MeKo-Tech/walang/internal/prune"
	"github.com/MeKo-Tech/walang/internal/resources"
	"github.com/MeKo-Tech/walang/internal/tokenize"
)

// Provider supplies per-language resources. Absent resources are reported
// as empty tables or false, never as errors.
type Provider interface {
	prune.Source
	RankTable(code string) resources.RankTable
	Alphabet(code string) (*resources.Alphabet, bool)
}

// Engine detects languages using the resources of a Provider. It is safe
// for concurrent use.
type Engine struct {
	provider Provider
	cfg      Config
	pruner   *prune.Pruner
	logger   *slog.Logger
}

// New creates an engine over provider.
func New(provider Provider, cfg Config) *Engine {
	cfg = cfg.withDefaults()
	return &Engine{
		provider: provider,
		cfg:      cfg,
		pruner:   prune.New(provider, cfg.CommonLanguages),
		logger:   cfg.Logger,
	}
}

// Config returns the effective configuration.
func (e *Engine) Config() Config { return e.cfg }

// Languages returns the language universe of the provider.
func (e *Engine) Languages() []string { return e.pruner.Universe() }

// Candidates returns the languages Detect would score for text when no
// candidates are given, in scoring order.
func (e *Engine) Candidates(text string) []string {
	return prune.Prioritize(e.pruner.Candidates(text), e.cfg.CommonLanguages)
}

// input holds the tokenized text, computed once per call.
type input struct {
	words   []string
	bigrams []string
	chars   []string
}

// hit is an accepted candidate.
type hit struct {
	order  int
	lang   string
	score  float64
	method Method
}

// Detect ranks the candidate languages of text. It returns at most
// opts.TopK results, best first. Text without letters and an empty candidate
// list both yield an empty result. The only error is ErrNegativeTopK.
func (e *Engine) Detect(text string, opts Options) ([]Result, error) {
	if opts.TopK < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeTopK, opts.TopK)
	}

	in := input{chars: tokenize.CharSet(text)}
	if len(in.chars) == 0 {
		return []Result{}, nil
	}

	start := time.Now()
	rep := newReporter(opts.Progress)

	candidates := opts.Candidates
	if candidates == nil {
		candidates = e.pruner.Candidates(text)
		rep.update(StatusFiltered, 0, len(candidates))
	}
	candidates = prune.Prioritize(candidates, e.cfg.CommonLanguages)
	if len(candidates) == 0 {
		return []Result{}, nil
	}

	in.words = tokenize.WordTokens(text)
	in.bigrams = tokenize.BigramTokens(text)

	total := len(candidates)
	rep.update(StatusStarting, 0, total)

	var hits []hit
	if e.cfg.Workers > 1 && total > 1 {
		hits = e.scoreParallel(candidates, in, opts, rep)
	} else {
		hits = e.scoreSequential(candidates, in, opts, rep)
	}

	rep.update(StatusFinalizing, total, total)
	results := e.rank(hits, opts.TopK)

	e.logger.Debug("detection finished",
		"candidates", total,
		"matches", len(hits),
		"returned", len(results),
		"elapsed", time.Since(start))
	return results, nil
}

func (e *Engine) scoreSequential(candidates []string, in input, opts Options, rep *reporter) []hit {
	total := len(candidates)
	var hits []hit
	terminate := false

	for i, lang := range candidates {
		if terminate {
			rep.update(StatusEarlyTerminated, total, total)
			break
		}

		rep.update(fmt.Sprintf(StatusProcessing, lang), i, total)

		h, ok := e.score(lang, in, opts)
		if !ok {
			continue
		}
		h.order = i
		hits = append(hits, h)

		if opts.EnableEarlyTermination && h.score > e.cfg.HighConfidenceThreshold {
			terminate = true
			rep.update(fmt.Sprintf(StatusHighConfidence, lang), i+1, total)
		}
	}
	return hits
}

// score evaluates one candidate: word evidence first, then the character
// fallback.
func (e *Engine) score(lang string, in input, opts Options) (hit, bool) {
	prior := opts.Priors[lang]
	w := e.cfg.Weights

	table := e.provider.RankTable(lang)
	tokens := in.words
	if table.EffectiveMode() == resources.ModeBigram {
		tokens = in.bigrams
	}

	wordScore := w.WordScore(prior, tokens, table.Ranks)
	if wordScore > e.cfg.WordThreshold {
		return hit{lang: lang, score: wordScore, method: MethodWord}, true
	}

	if !opts.UseCharacterFallback {
		return hit{}, false
	}
	alphabet, ok := e.provider.Alphabet(lang)
	if !ok {
		return hit{}, false
	}

	charScore := w.CharScore(prior, in.chars, alphabet.LowercaseSet(), alphabet.Frequency)
	if charScore > e.cfg.CharThreshold {
		return hit{lang: lang, score: charScore, method: MethodCharacter}, true
	}
	return hit{}, false
}

// rank orders hits by effective score, word-based hits boosted, ties broken
// by candidate order, and truncates to topK.
func (e *Engine) rank(hits []hit, topK int) []Result {
	sort.SliceStable(hits, func(i, j int) bool {
		ki, kj := e.effectiveKey(hits[i]), e.effectiveKey(hits[j])
		if ki != kj {
			return ki > kj
		}
		return hits[i].order < hits[j].order
	})

	n := min(topK, len(hits))
	results := make([]Result, n)
	for i := range n {
		results[i] = Result{Language: hits[i].lang, Score: hits[i].score, Method: hits[i].method}
	}
	return results
}

func (e *Engine) effectiveKey(h hit) float64 {
	if h.method == MethodWord {
		return h.score + e.cfg.WordBoost
	}
	return h.score
}
