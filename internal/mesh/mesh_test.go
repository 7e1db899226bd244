package mesh

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/henrybloomingdale/medlit/internal/ncbi"
)

const meshSearchFixture = `{"header":{"type":"esearch","version":"0.3"},"esearchresult":{"count":"1","retmax":"20","retstart":"0","idlist":["68005600"]}}`

const meshFetchFixture = `1: Fragile X Syndrome
*NEWRECORD
MH = Fragile X Syndrome
UI = D005600
MS = A condition characterized by the X chromosome containing a fragile site.
AN = coordinate with specific manifestation
MN = C10.597.606.360.320.322
MN = C16.131.260.830.835.500
MN = F03.625.164.113.500
ENTRY = FXS|T047|NON|EQV|NLM (1994)|930610|abcdef
ENTRY = Fra(X) Syndrome|T047|NON|EQV
ENTRY = Marker X Syndrome
PRINT ENTRY = Martin-Bell Syndrome|T047|EQV
ENTRY = X-Linked Mental Retardation and Macroorchidism
`

func newTestClient(t *testing.T, srvURL string) *Client {
	t.Helper()
	base := ncbi.NewBaseClient(
		ncbi.WithBaseURL(srvURL),
		ncbi.WithAPIKey("test-key"),
		ncbi.WithTool("medlit"),
		ncbi.WithEmail("test@example.com"),
		ncbi.WithRateLimit(0),
	)
	return NewClient(base, WithOrigin(srvURL))
}

func TestSuggest_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/lookup/descriptor" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		q := r.URL.Query()
		if got := q.Get("label"); got != "fragile" {
			t.Errorf("expected label=fragile, got %q", got)
		}
		if got := q.Get("match"); got != "contains" {
			t.Errorf("expected match=contains, got %q", got)
		}
		if got := q.Get("limit"); got != "10" {
			t.Errorf("expected limit=10, got %q", got)
		}
		if q.Has("api_key") {
			t.Error("api_key must not be sent to the terminology service")
		}
		w.Write([]byte(`[{"resource":"http://id.nlm.nih.gov/mesh/D005600","label":"Fragile X Syndrome"},{"resource":"http://id.nlm.nih.gov/mesh/D000071","label":"Fragile X Tremor Ataxia Syndrome"}]`))
	}))
	defer srv.Close()

	labels, err := newTestClient(t, srv.URL).Suggest(context.Background(), " fragile ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(labels) != 2 || labels[0] != "Fragile X Syndrome" {
		t.Errorf("unexpected labels: %v", labels)
	}
}

func TestSuggest_CapsAtTen(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		items := make([]string, 25)
		for i := range items {
			items[i] = fmt.Sprintf(`{"label":"Term %d"}`, i)
		}
		w.Write([]byte("[" + strings.Join(items, ",") + "]"))
	}))
	defer srv.Close()

	labels, err := newTestClient(t, srv.URL).Suggest(context.Background(), "term")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(labels) != MaxSuggestions {
		t.Errorf("expected %d labels, got %d", MaxSuggestions, len(labels))
	}
}

func TestSuggest_EmptyPrefixMakesNoRequest(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	labels, err := newTestClient(t, srv.URL).Suggest(context.Background(), "   ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if labels == nil || len(labels) != 0 {
		t.Errorf("expected empty non-nil list, got %v", labels)
	}
	if calls.Load() != 0 {
		t.Errorf("expected no request, got %d", calls.Load())
	}
}

func TestSuggest_FailureModes(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) }},
		{"malformed body", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`{"label":`)) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := newTestClient(t, srv.URL)
			if _, err := c.Suggest(context.Background(), "x"); !ncbi.IsTransport(err) {
				t.Errorf("expected transport error, got %v", err)
			}
			if got := c.SuggestOrEmpty(context.Background(), "x"); got == nil || len(got) != 0 {
				t.Errorf("expected empty list from lenient lookup, got %v", got)
			}
		})
	}
}

func TestDescribe_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if got := q.Get("db"); got != "mesh" {
			t.Errorf("expected db=mesh, got %q", got)
		}
		switch r.URL.Path {
		case "/esearch.fcgi":
			if got := q.Get("term"); got != "Fragile X Syndrome" {
				t.Errorf("expected term='Fragile X Syndrome', got %q", got)
			}
			w.Write([]byte(meshSearchFixture))
		case "/efetch.fcgi":
			if got := q.Get("id"); got != "68005600" {
				t.Errorf("expected id=68005600, got %q", got)
			}
			w.Write([]byte(meshFetchFixture))
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	d, err := newTestClient(t, srv.URL).Describe(context.Background(), "Fragile X Syndrome")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.UI != "D005600" {
		t.Errorf("expected UI 'D005600', got %q", d.UI)
	}
	if d.Name != "Fragile X Syndrome" {
		t.Errorf("expected name 'Fragile X Syndrome', got %q", d.Name)
	}
	if d.ScopeNote == "" || d.Annotation == "" {
		t.Error("expected scope note and annotation")
	}
	if len(d.TreeNumbers) != 3 || d.TreeNumbers[0] != "C10.597.606.360.320.322" {
		t.Errorf("unexpected tree numbers: %v", d.TreeNumbers)
	}
	if len(d.EntryTerms) != 5 || d.EntryTerms[0] != "FXS" {
		t.Errorf("unexpected entry terms: %v", d.EntryTerms)
	}
}

func TestDescribe_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"esearchresult":{"count":"0","retmax":"20","retstart":"0","idlist":[]}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).Describe(context.Background(), "nonexistent_mesh_term_xyz")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDescribe_EmptyTerm(t *testing.T) {
	c := NewClient(ncbi.NewBaseClient(ncbi.WithBaseURL("http://example.com")))
	if _, err := c.Describe(context.Background(), " "); err == nil {
		t.Error("expected error for empty term, got nil")
	}
}

func TestDescribe_ResponseTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("X", 2048)))
	}))
	defer srv.Close()

	base := ncbi.NewBaseClient(
		ncbi.WithBaseURL(srv.URL),
		ncbi.WithRateLimit(0),
		ncbi.WithMaxResponseBytes(1024),
	)
	_, err := NewClient(base).Describe(context.Background(), "test")
	if err == nil {
		t.Fatal("expected error for oversized response, got nil")
	}
	if !strings.Contains(err.Error(), "exceeds maximum size") {
		t.Errorf("expected 'exceeds maximum size' error, got: %v", err)
	}
}
