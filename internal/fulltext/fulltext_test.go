package fulltext

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/henrybloomingdale/medlit/internal/article"
	"github.com/henrybloomingdale/medlit/internal/ncbi"
)

func TestLink(t *testing.T) {
	rec := article.New("38123456")
	rec.Link = "https://pubmed.ncbi.nlm.nih.gov/38123456/"

	assert.Equal(t, "https://sci-hub.se/https://pubmed.ncbi.nlm.nih.gov/38123456/", Link("https://sci-hub.se/", rec))
	assert.Equal(t, DefaultMirror+"/"+rec.Link, Link("", rec))

	rec.Link = ""
	assert.Equal(t, "https://m.example/38123456", Link("https://m.example", rec))

	assert.Empty(t, Link("https://m.example", article.New("")))
}

func newResolver(origin string) *Resolver {
	return NewResolver(ncbi.NewBaseClient(ncbi.WithRateLimit(0)), WithOrigin(origin))
}

func TestResolve_Iframe(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`<html><body><div id="article"><iframe src="/downloads/paper.pdf#view=FitH"></iframe></div></body></html>`))
	}))
	defer srv.Close()

	rec := article.New("123")
	res := newResolver(srv.URL).Resolve(context.Background(), rec)
	require.NoError(t, res.Err)
	assert.Equal(t, "/123", gotPath)
	assert.Equal(t, srv.URL+"/downloads/paper.pdf#view=FitH", res.URL)
}

func TestResolve_ProtocolRelativeEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><embed type="application/pdf" src="//cdn.example.org/x.pdf"></body></html>`))
	}))
	defer srv.Close()

	res := newResolver(srv.URL).Resolve(context.Background(), article.New("1"))
	require.NoError(t, res.Err)
	assert.Equal(t, "https://cdn.example.org/x.pdf", res.URL)
}

func TestResolve_NoDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><p>article not found</p></body></html>`))
	}))
	defer srv.Close()

	res := newResolver(srv.URL).Resolve(context.Background(), article.New("1"))
	assert.ErrorIs(t, res.Err, ErrNoDocument)
	assert.Empty(t, res.URL)
}

func TestResolve_NoTarget(t *testing.T) {
	res := newResolver("http://127.0.0.1:1").Resolve(context.Background(), article.New(""))
	assert.ErrorIs(t, res.Err, ErrNoTarget)
}

func TestLookup_SwallowsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	assert.Empty(t, newResolver(srv.URL).Lookup(context.Background(), article.New("1")))
}

func TestFrameSource_SkipsEmptySrc(t *testing.T) {
	doc := mustDoc(t, `<iframe src=" "></iframe><embed src="b.pdf">`)
	assert.Equal(t, "b.pdf", FrameSource(doc))
}

func TestAbsolute(t *testing.T) {
	assert.Equal(t, "https://m.example/a.pdf", absolute("https://m.example", "/a.pdf"))
	assert.Equal(t, "https://other.example/a.pdf", absolute("https://m.example", "https://other.example/a.pdf"))
	assert.Equal(t, "https://cdn/a.pdf", absolute("http://m.example", "//cdn/a.pdf"))
	assert.True(t, strings.HasPrefix(absolute("https://m.example/", "a.pdf"), "https://m.example/"))
}

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}
