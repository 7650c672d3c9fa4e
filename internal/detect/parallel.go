package detect

import (
	"context"
	"fmt"
	"sync"
)

// scoreJob is one candidate to score.
type scoreJob struct {
	index int
	lang  string
}

// scoreResult is the outcome of a scoreJob.
type scoreResult struct {
	index int
	lang  string
	hit   hit
	ok    bool
}

// scoreParallel scores candidates with a bounded worker pool. A
// high-confidence hit cancels the remaining work; jobs already being scored
// still finish and their results are kept. Progress is reported from the
// calling goroutine only.
func (e *Engine) scoreParallel(candidates []string, in input, opts Options, rep *reporter) []hit {
	total := len(candidates)
	workers := min(e.cfg.Workers, total)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	jobs := make(chan scoreJob, total)
	results := make(chan scoreResult, total)

	for i, lang := range candidates {
		jobs <- scoreJob{index: i, lang: lang}
	}
	close(jobs)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go e.worker(ctx, jobs, results, in, opts, &wg)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var hits []hit
	processed := 0
	terminated := false
	for res := range results {
		rep.update(fmt.Sprintf(StatusProcessing, res.lang), processed, total)
		processed++
		if !res.ok {
			continue
		}
		res.hit.order = res.index
		hits = append(hits, res.hit)

		if opts.EnableEarlyTermination && !terminated && res.hit.score > e.cfg.HighConfidenceThreshold {
			terminated = true
			cancel()
			rep.update(fmt.Sprintf(StatusHighConfidence, res.lang), processed, total)
		}
	}

	if terminated && processed < total {
		rep.update(StatusEarlyTerminated, total, total)
	}
	return hits
}

// worker scores jobs until the channel is drained or ctx is cancelled.
func (e *Engine) worker(
	ctx context.Context,
	jobs <-chan scoreJob,
	results chan<- scoreResult,
	in input,
	opts Options,
	wg *sync.WaitGroup,
) {
	defer wg.Done()

	for job := range jobs {
		if ctx.Err() != nil {
			return
		}
		h, ok := e.score(job.lang, in, opts)
		results <- scoreResult{index: job.index, lang: job.lang, hit: h, ok: ok}
	}
}
