package support

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cucumber/godog"

	"github.com/MeKo-Tech/walang/internal/detect"
	"github.com/MeKo-Tech/walang/internal/resources"
	"github.com/MeKo-Tech/walang/internal/server"
	"github.com/MeKo-Tech/walang/internal/testutil"
)

// RegisterSteps binds the step definitions to sc.
func (tc *TestContext) RegisterSteps(sc *godog.ScenarioContext) {
	sc.Step(`^the Spanish and Portuguese resources$`, tc.theSpanishAndPortugueseResources)
	sc.Step(`^an empty resource root$`, tc.ensureRoot)
	sc.Step(`^a rank table for "([^"]*)" with header "([^"]*)" and tokens "([^"]*)"$`, tc.aRankTableWithHeader)
	sc.Step(`^a rank table for "([^"]*)" with tokens "([^"]*)"$`, tc.aRankTable)
	sc.Step(`^character fallback is disabled$`, tc.characterFallbackIsDisabled)

	sc.Step(`^I detect "([^"]*)" with candidates "([^"]*)" and priors "([^"]*)"$`, tc.iDetectWithPriors)
	sc.Step(`^I detect "([^"]*)" with candidates "([^"]*)"$`, tc.iDetect)

	sc.Step(`^the results are "([^"]*)" in that order$`, tc.theResultsAre)
	sc.Step(`^there are no results$`, tc.thereAreNoResults)
	sc.Step(`^the first result is "([^"]*)"$`, tc.theFirstResultIs)
	sc.Step(`^the first result was accepted on "([^"]*)" evidence$`, tc.theFirstResultMethod)
	sc.Step(`^the rank table for "([^"]*)" ranks bigrams with (\d+) entr(?:y|ies)$`, tc.theRankTableRanksBigrams)

	sc.Step(`^the detection server is running$`, tc.theDetectionServerIsRunning)
	sc.Step(`^I POST "([^"]*)" to "([^"]*)" with candidates "([^"]*)"$`, tc.iPOST)
	sc.Step(`^the response status is (\d+)$`, tc.theResponseStatusIs)
	sc.Step(`^the response error contains "([^"]*)"$`, tc.theResponseErrorContains)
}

func (tc *TestContext) theSpanishAndPortugueseResources() error {
	if err := tc.writeRankTable("es", "", testutil.SpanishTokens); err != nil {
		return err
	}
	if err := tc.writeRankTable("pt", "", testutil.PortugueseTokens); err != nil {
		return err
	}
	if err := tc.writeAlphabet("es", "Latn", testutil.SpanishLetters); err != nil {
		return err
	}
	return tc.writeAlphabet("pt", "Latn", testutil.PortugueseLetters)
}

func (tc *TestContext) aRankTableWithHeader(code, header, tokens string) error {
	return tc.writeRankTable(code, header, splitList(tokens))
}

func (tc *TestContext) aRankTable(code, tokens string) error {
	return tc.writeRankTable(code, "", splitList(tokens))
}

func (tc *TestContext) characterFallbackIsDisabled() error {
	tc.Options.UseCharacterFallback = false
	return nil
}

func (tc *TestContext) iDetectWithPriors(text, candidates, priors string) error {
	tc.Options.Priors = make(map[string]float64)
	for _, pair := range splitList(priors) {
		code, raw, ok := strings.Cut(pair, "=")
		if !ok {
			return fmt.Errorf("malformed prior %q", pair)
		}
		p, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("malformed prior %q: %w", pair, err)
		}
		tc.Options.Priors[code] = p
	}
	return tc.iDetect(text, candidates)
}

func (tc *TestContext) iDetect(text, candidates string) error {
	engine, _, err := tc.engine()
	if err != nil {
		return err
	}
	tc.Options.Candidates = splitList(candidates)
	tc.Results, tc.Err = engine.Detect(text, tc.Options)
	return tc.Err
}

func (tc *TestContext) theResultsAre(expected string) error {
	want := splitList(expected)
	got := make([]string, len(tc.Results))
	for i, r := range tc.Results {
		got[i] = r.Language
	}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		return fmt.Errorf("expected results %v, got %v (%+v)", want, got, tc.Results)
	}
	return nil
}

func (tc *TestContext) thereAreNoResults() error {
	if len(tc.Results) != 0 {
		return fmt.Errorf("expected no results, got %+v", tc.Results)
	}
	return nil
}

func (tc *TestContext) theFirstResultIs(code string) error {
	if len(tc.Results) == 0 {
		return fmt.Errorf("expected %q first, got no results", code)
	}
	if tc.Results[0].Language != code {
		return fmt.Errorf("expected %q first, got %+v", code, tc.Results)
	}
	return nil
}

func (tc *TestContext) theFirstResultMethod(method string) error {
	if len(tc.Results) == 0 {
		return fmt.Errorf("expected a %s result, got no results", method)
	}
	if got := tc.Results[0].Method; got != detect.Method(method) {
		return fmt.Errorf("expected method %q, got %q", method, got)
	}
	return nil
}

func (tc *TestContext) theRankTableRanksBigrams(code string, entries int) error {
	table, err := resources.ReadRankTable(filepath.Join(tc.Root, resources.FreqDir), code)
	if err != nil {
		return err
	}
	if table.EffectiveMode() != resources.ModeBigram {
		return fmt.Errorf("expected bigram mode, got %q", table.EffectiveMode())
	}
	if table.Len() != entries {
		return fmt.Errorf("expected %d entries, got %d", entries, table.Len())
	}
	return nil
}

func (tc *TestContext) theDetectionServerIsRunning() error {
	engine, store, err := tc.engine()
	if err != nil {
		return err
	}
	srv := server.NewServer(engine, store, server.Config{
		CORSOrigin: "*",
		MaxTextKB:  64,
		Defaults:   detect.DefaultOptions(),
		Version:    "bdd",
	})
	mux := http.NewServeMux()
	srv.SetupRoutes(mux)
	tc.Server = httptest.NewServer(mux)
	return nil
}

func (tc *TestContext) iPOST(text, path, candidates string) error {
	if tc.Server == nil {
		return fmt.Errorf("the detection server is not running")
	}
	body, err := json.Marshal(server.DetectRequest{Text: text, Candidates: splitList(candidates)})
	if err != nil {
		return err
	}
	resp, err := http.Post(tc.Server.URL+path, "application/json", bytes.NewReader(body)) //nolint:noctx // test server
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	tc.StatusCode = resp.StatusCode
	tc.ResponseBody = string(data)
	tc.DetectReply = server.DetectResponse{}
	if err := json.Unmarshal(data, &tc.DetectReply); err != nil {
		return fmt.Errorf("invalid JSON response %q: %w", tc.ResponseBody, err)
	}
	tc.Results = tc.DetectReply.Results
	return nil
}

func (tc *TestContext) theResponseStatusIs(status int) error {
	if tc.StatusCode != status {
		return fmt.Errorf("expected status %d, got %d: %s", status, tc.StatusCode, tc.ResponseBody)
	}
	return nil
}

func (tc *TestContext) theResponseErrorContains(fragment string) error {
	if !strings.Contains(tc.DetectReply.Error, fragment) {
		return fmt.Errorf("expected error containing %q, got %q", fragment, tc.DetectReply.Error)
	}
	return nil
}
