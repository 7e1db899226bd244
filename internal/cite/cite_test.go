package cite

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/henrybloomingdale/medlit/internal/article"
)

func sample() article.Record {
	rec := article.New("12345")
	rec.Authors = "Doe J, Roe A"
	rec.Title = "Example Study"
	rec.Journal = "J Med"
	rec.Date = "2020"
	return rec
}

func TestFormatVancouver_Exact(t *testing.T) {
	assert.Equal(t, "Doe J, Roe A. Example Study. J Med. 2020.", FormatVancouver(sample()))
}

func TestFormatAPA(t *testing.T) {
	assert.Equal(t, "Doe J, Roe A (2020). Example Study. J Med.", FormatAPA(sample()))
}

func TestFormatMLA(t *testing.T) {
	assert.Equal(t, `Doe J, Roe A. "Example Study." J Med, 2020.`, FormatMLA(sample()))
}

func TestVancouverWithPMID(t *testing.T) {
	assert.Equal(t, "Doe J, Roe A. Example Study. J Med. 2020. PMID: 12345.", VancouverWithPMID(sample()))

	rec := sample()
	rec.ID = ""
	assert.Equal(t, FormatVancouver(rec), VancouverWithPMID(rec))
}

func TestFormat_TrailingPeriodNotDoubled(t *testing.T) {
	rec := sample()
	rec.Title = "Example Study."
	rec.Authors = "Doe J, Roe A."

	assert.Equal(t, "Doe J, Roe A. Example Study. J Med. 2020.", FormatVancouver(rec))
	assert.Equal(t, `Doe J, Roe A. "Example Study." J Med, 2020.`, FormatMLA(rec))
}

func TestFormat_SentinelsPassThrough(t *testing.T) {
	got := FormatVancouver(article.New(""))
	assert.Equal(t, "No authors. No title. No journal. No date.", got)
}

func TestFormat_AllAuthorsKept(t *testing.T) {
	rec := sample()
	rec.Authors = "A A, B B, C C, D D, E E, F F, G G, H H"
	assert.Contains(t, FormatAPA(rec), "H H (2020)")
}

func TestFormat_SetMatchesStyles(t *testing.T) {
	rec := sample()
	set := Format(rec)
	for _, s := range Styles {
		assert.Equal(t, FormatStyle(rec, s), set.Get(s), s)
	}
}

func TestParseStyle(t *testing.T) {
	tests := []struct {
		in      string
		want    Style
		wantErr bool
	}{
		{"", Vancouver, false},
		{"Vancouver", Vancouver, false},
		{"apa", APA, false},
		{" MLA ", MLA, false},
		{"chicago", "", true},
	}
	for _, tt := range tests {
		got, err := ParseStyle(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestToCSLItem(t *testing.T) {
	rec := sample()
	rec.Date = "2021 Mar 5"
	rec.DOI = "10.1000/xyz"
	rec.Link = article.CanonicalLink("12345")

	item := ToCSLItem(rec)
	assert.Equal(t, "12345", item.ID)
	assert.Equal(t, "article-journal", item.Type)
	assert.Equal(t, "Example Study", item.Title)
	assert.Equal(t, "J Med", item.ContainerTitle)
	assert.Equal(t, "10.1000/xyz", item.DOI)
	assert.Empty(t, item.Abstract, "sentinel abstract is dropped")
	require.Len(t, item.Author, 2)
	assert.Equal(t, CSLName{Family: "Doe", Given: "J"}, item.Author[0])
	require.NotNil(t, item.Issued)
	assert.Equal(t, [][]int{{2021, 3, 5}}, item.Issued.DateParts)
}

func TestToCSLItem_Sentinels(t *testing.T) {
	item := ToCSLItem(article.New("9"))
	assert.Empty(t, item.Title)
	assert.Empty(t, item.Author)
	assert.Empty(t, item.ContainerTitle)
	assert.Nil(t, item.Issued)
}

func TestParseDate(t *testing.T) {
	assert.Equal(t, [][]int{{2020}}, parseDate("2020").DateParts)
	assert.Equal(t, [][]int{{2019, 12}}, parseDate("2019 Dec").DateParts)
	assert.Equal(t, [][]int{{2018}}, parseDate("2018 Spring").DateParts)
	assert.Nil(t, parseDate(article.NoDate))
}

func TestCSL_Encodes(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, CSL(&buf, []article.Record{sample()}))

	var items []CSLItem
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "Example Study", items[0].Title)
	assert.Contains(t, buf.String(), "date-parts")
}
