package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vocabworks/vocab-ranking-platform/internal/oracle"
	"github.com/vocabworks/vocab-ranking-platform/internal/rank"
	"github.com/vocabworks/vocab-ranking-platform/internal/resolver"
	"github.com/vocabworks/vocab-ranking-platform/internal/score"
	"github.com/vocabworks/vocab-ranking-platform/pkg/config"
)

func newTestServer(t *testing.T, table *oracle.Table) *httptest.Server {
	t.Helper()
	resolverTable := table
	if resolverTable == nil {
		resolverTable = oracle.NewTable(nil)
	}
	res := resolver.New(resolverTable, resolver.NewMemoryStore(), resolver.Config{})

	var o oracle.Oracle
	if table != nil {
		o = table
	}
	ranker := rank.New(o, res, nil)

	defaults := config.RankingConfig{
		Limit:               50,
		UseReferenceScoring: table != nil,
		BalanceWeight:       0.5,
	}

	mux := http.NewServeMux()
	New(ranker, table, nil, defaults, nil).Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testTable() *oracle.Table {
	return oracle.NewTable(map[string]float64{
		"kot":  4.5,
		"pies": 4.8,
	})
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestRankEndpoint(t *testing.T) {
	srv := newTestServer(t, testTable())

	req := RankRequest{
		Documents: []rank.Document{{
			ID: "d1",
			Tokens: []resolver.AnnotatedToken{
				{Form: "kota", Lemma: "kot"},
				{Form: "koty", Lemma: "kot"},
				{Form: "psa", Lemma: "pies"},
				{Form: "psa", Lemma: "pies"},
			},
		}},
	}
	resp := postJSON(t, srv.URL+"/v1/rank", req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body RankResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(body.Rows))
	}
	if body.Cached {
		t.Error("first request reported as cached without a cache")
	}
	for _, row := range body.Rows {
		if row.Score == nil {
			t.Errorf("row %s has no score", row.Word)
		}
	}
}

func TestRankEndpointRejectsBadRequests(t *testing.T) {
	srv := newTestServer(t, testTable())

	tests := []struct {
		name string
		body any
	}{
		{"no documents", RankRequest{}},
		{"invalid limit", RankRequest{
			Documents: []rank.Document{{ID: "d1"}},
			Settings:  SettingsPatch{Limit: intPtr(0)},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, srv.URL+"/v1/rank", tt.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
		})
	}
}

func TestRankEndpointIncludeTerms(t *testing.T) {
	srv := newTestServer(t, testTable())

	req := RankRequest{
		Documents: []rank.Document{{
			ID: "d1",
			Tokens: []resolver.AnnotatedToken{
				{Form: "kota", Lemma: "kot"},
				{Form: "kota", Lemma: "kot"},
			},
		}},
		IncludeTerms: true,
	}
	resp := postJSON(t, srv.URL+"/v1/rank", req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body RankResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body.Terms) == 0 {
		t.Fatal("include_terms returned no terms")
	}
	if _, ok := body.Terms["kot"]; !ok {
		t.Errorf("terms = %v, want entry for kot", body.Terms)
	}
}

func TestReblendEndpoint(t *testing.T) {
	srv := newTestServer(t, testTable())

	req := ReblendRequest{
		Terms: score.Terms{
			"kot":  {Count: 5, LogTF1: 1.79, LogRatio: 2.0, RefZipf: 4.5},
			"pies": {Count: 2, LogTF1: 1.10, LogRatio: 3.0, RefZipf: 4.8},
		},
		Settings: SettingsPatch{BalanceWeight: floatPtr(1)},
	}
	resp := postJSON(t, srv.URL+"/v1/reblend", req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body RankResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body.Rows) != 2 || body.Rows[0].Word != "kot" {
		t.Fatalf("rows = %v, want kot first at a=1", body.Rows)
	}

	resp = postJSON(t, srv.URL+"/v1/reblend", ReblendRequest{})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("empty terms status = %d, want 400", resp.StatusCode)
	}
}

func TestZipfExamplesEndpoint(t *testing.T) {
	srv := newTestServer(t, testTable())

	resp, err := http.Get(srv.URL + "/v1/zipf-examples?min=4&max=5&n=10")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body struct {
		Examples []string `json:"examples"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body.Examples) != 2 {
		t.Errorf("examples = %v, want both table words", body.Examples)
	}

	resp, err = http.Get(srv.URL + "/v1/zipf-examples?min=abc")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad min status = %d, want 400", resp.StatusCode)
	}
}

func TestZipfExamplesWithoutTable(t *testing.T) {
	srv := newTestServer(t, nil)
	resp, err := http.Get(srv.URL + "/v1/zipf-examples")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestSettingsPatchApply(t *testing.T) {
	base := config.RankingConfig{
		Limit:               50,
		UseReferenceScoring: true,
		BalanceWeight:       0.5,
		IgnorePatterns:      []string{"rp*"},
	}

	merged := SettingsPatch{}.Apply(base)
	if merged.Limit != 50 || merged.BalanceWeight != 0.5 {
		t.Errorf("empty patch changed defaults: %+v", merged)
	}

	merged = SettingsPatch{
		Limit:         intPtr(10),
		BalanceWeight: floatPtr(1),
		MaxRefZipf:    floatPtr(6),
	}.Apply(base)
	if merged.Limit != 10 || merged.BalanceWeight != 1 {
		t.Errorf("patch not applied: %+v", merged)
	}
	if merged.MaxRefZipf == nil || *merged.MaxRefZipf != 6 {
		t.Errorf("maxRefZipf not applied: %+v", merged.MaxRefZipf)
	}

	// A non-positive upper bound clears it.
	withMax := base
	withMax.MaxRefZipf = floatPtr(6)
	merged = SettingsPatch{MaxRefZipf: floatPtr(0)}.Apply(withMax)
	if merged.MaxRefZipf != nil {
		t.Errorf("maxRefZipf = %v, want cleared", *merged.MaxRefZipf)
	}

	// Patch ignore patterns replace, never append.
	merged = SettingsPatch{IgnorePatterns: []string{"*123"}}.Apply(base)
	if len(merged.IgnorePatterns) != 1 || merged.IgnorePatterns[0] != "*123" {
		t.Errorf("ignore patterns = %v, want [*123]", merged.IgnorePatterns)
	}
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
