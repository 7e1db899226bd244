package eutils

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/henrybloomingdale/medlit/internal/article"
	"github.com/henrybloomingdale/medlit/internal/ncbi"
)

const efetchFixture = `<?xml version="1.0" ?>
<!DOCTYPE PubmedArticleSet PUBLIC "-//NLM//DTD PubMedArticle, 1st January 2025//EN" "https://dtd.nlm.nih.gov/ncbi/pubmed/out/pubmed_250101.dtd">
<PubmedArticleSet>
<PubmedArticle>
  <MedlineCitation Status="MEDLINE" Owner="NLM">
    <PMID Version="1">38123456</PMID>
    <Article PubModel="Print-Electronic">
      <Journal>
        <JournalIssue CitedMedium="Internet">
          <Volume>12</Volume>
          <Issue>3</Issue>
          <PubDate><Year>2021</Year><Month>Mar</Month><Day>5</Day></PubDate>
        </JournalIssue>
        <Title>Surgical endoscopy</Title>
        <ISOAbbreviation>Surg Endosc</ISOAbbreviation>
      </Journal>
      <ArticleTitle>Robotic assisted <i>laparoscopic</i> cholecystectomy.</ArticleTitle>
      <Abstract>
        <AbstractText Label="BACKGROUND">Gallbladder surgery is common.</AbstractText>
        <AbstractText Label="RESULTS">Outcomes were <sup>good</sup>.</AbstractText>
      </Abstract>
      <AuthorList CompleteYN="Y">
        <Author ValidYN="Y"><LastName>Doe</LastName><ForeName>John</ForeName><Initials>J</Initials></Author>
        <Author ValidYN="Y"><CollectiveName>Surgical Outcomes Group</CollectiveName></Author>
        <Author ValidYN="Y"><LastName>Roe</LastName><ForeName>Anna</ForeName><Initials>A</Initials></Author>
        <Author ValidYN="Y"><LastName>Solo</LastName></Author>
      </AuthorList>
    </Article>
  </MedlineCitation>
  <PubmedData>
    <ArticleIdList>
      <ArticleId IdType="pubmed">38123456</ArticleId>
      <ArticleId IdType="doi">10.1000/surg.2021.5</ArticleId>
    </ArticleIdList>
  </PubmedData>
</PubmedArticle>
</PubmedArticleSet>`

const efetchNoAbstract = `<PubmedArticleSet>
<PubmedArticle>
  <MedlineCitation>
    <PMID>111</PMID>
    <Article>
      <Journal>
        <JournalIssue><PubDate><Year>2020</Year></PubDate></JournalIssue>
        <Title>J Med</Title>
      </Journal>
      <ArticleTitle>Example Study</ArticleTitle>
      <AuthorList>
        <Author><LastName>Doe</LastName><ForeName>J</ForeName></Author>
        <Author><LastName>Roe</LastName><ForeName>A</ForeName></Author>
      </AuthorList>
    </Article>
  </MedlineCitation>
</PubmedArticle>
</PubmedArticleSet>`

func TestFetchRecord_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if r.URL.Path != "/efetch.fcgi" {
			t.Errorf("expected path /efetch.fcgi, got %q", r.URL.Path)
		}
		if got := q.Get("db"); got != "pubmed" {
			t.Errorf("expected db=pubmed, got %q", got)
		}
		if got := q.Get("id"); got != "38123456" {
			t.Errorf("expected id=38123456, got %q", got)
		}
		if got := q.Get("retmode"); got != "xml" {
			t.Errorf("expected retmode=xml, got %q", got)
		}
		w.Write([]byte(efetchFixture))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithRateLimit(0))
	a, err := c.FetchRecord(context.Background(), "38123456")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !a.Found {
		t.Fatal("expected record to be found")
	}
	if a.ID != "38123456" {
		t.Errorf("expected ID '38123456', got %q", a.ID)
	}
	if a.Title != "Robotic assisted laparoscopic cholecystectomy." {
		t.Errorf("unexpected title %q", a.Title)
	}
	// Collective and half-named authors are skipped.
	if a.Authors != "Doe John, Roe Anna" {
		t.Errorf("expected authors 'Doe John, Roe Anna', got %q", a.Authors)
	}
	if a.Journal != "Surgical endoscopy" {
		t.Errorf("expected journal 'Surgical endoscopy', got %q", a.Journal)
	}
	if a.Date != "2021 Mar 5" {
		t.Errorf("expected date '2021 Mar 5', got %q", a.Date)
	}
	if !strings.HasPrefix(a.Abstract, "BACKGROUND: Gallbladder surgery is common.") {
		t.Errorf("unexpected abstract %q", a.Abstract)
	}
	if !strings.Contains(a.Abstract, "RESULTS: Outcomes were good.") {
		t.Errorf("expected inline markup text in abstract, got %q", a.Abstract)
	}
	if a.Link != "https://pubmed.ncbi.nlm.nih.gov/38123456/" {
		t.Errorf("unexpected link %q", a.Link)
	}
	if a.DOI != "10.1000/surg.2021.5" {
		t.Errorf("unexpected DOI %q", a.DOI)
	}
}

func TestParseRecord_MissingAbstractUsesSentinel(t *testing.T) {
	a, err := ParseRecord([]byte(efetchNoAbstract), "111")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if a.Abstract != article.NoAbstract {
		t.Errorf("expected abstract sentinel, got %q", a.Abstract)
	}
	if a.Title != "Example Study" {
		t.Errorf("expected title 'Example Study', got %q", a.Title)
	}
	if a.Authors != "Doe J, Roe A" {
		t.Errorf("expected authors 'Doe J, Roe A', got %q", a.Authors)
	}
	if a.Journal != "J Med" {
		t.Errorf("expected journal 'J Med', got %q", a.Journal)
	}
	if a.Date != "2020" {
		t.Errorf("expected date '2020', got %q", a.Date)
	}
}

func TestParseRecord_NotFound(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty body", ""},
		{"empty set", "<PubmedArticleSet></PubmedArticleSet>"},
		{"error document", "<eFetchResult><ERROR>Empty id list</ERROR></eFetchResult>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := ParseRecord([]byte(tt.body), "999")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if a.Found {
				t.Error("expected not-found record")
			}
			if a.ID != "999" {
				t.Errorf("expected requested ID '999', got %q", a.ID)
			}
			if a.Title != article.NoTitle || a.Abstract != article.NoAbstract {
				t.Errorf("expected sentinel fields, got %+v", a)
			}
		})
	}
}

func TestParseRecord_MedlineDateFallback(t *testing.T) {
	body := `<PubmedArticleSet><PubmedArticle><MedlineCitation><PMID>5</PMID><Article>
<Journal><JournalIssue><PubDate><MedlineDate>1998 Dec-1999 Jan</MedlineDate></PubDate></JournalIssue></Journal>
</Article></MedlineCitation></PubmedArticle></PubmedArticleSet>`

	a, err := ParseRecord([]byte(body), "5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Date != "1998 Dec-1999 Jan" {
		t.Errorf("expected MedlineDate fallback, got %q", a.Date)
	}
	if a.Title != article.NoTitle || a.Journal != article.NoJournal || a.Authors != article.NoAuthors {
		t.Errorf("expected sentinels for missing nodes, got %+v", a)
	}
}

func TestFetchRecord_MalformedXMLIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<PubmedArticleSet><PubmedArticle>"))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithRateLimit(0))
	_, err := c.FetchRecord(context.Background(), "1")
	if err == nil {
		t.Fatal("expected error for truncated XML")
	}
	if !ncbi.IsTransport(err) {
		t.Errorf("expected transport error, got %T: %v", err, err)
	}
}

func TestFetchRecord_EmptyPMID(t *testing.T) {
	c := NewClient()
	if _, err := c.FetchRecord(context.Background(), "  "); err == nil {
		t.Error("expected error for empty PMID")
	}
}
