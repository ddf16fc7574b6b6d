// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/rct-harvester/internal/medline"
	"github.com/pdiddy/rct-harvester/pkg/types"
)

func record(fields map[string][]string) *medline.Record {
	r := medline.NewRecord()
	for tag, vals := range fields {
		r.Add(tag, vals...)
	}
	return r
}

func TestNormalizeFullRecord(t *testing.T) {
	rec := record(map[string][]string{
		medline.TagPMID:         {"33567185"},
		medline.TagJournalTitle: {"The New England journal of medicine"},
		medline.TagJournalAbbr:  {"N Engl J Med"},
		medline.TagTitle:        {"A trial."},
		medline.TagDate:         {"2021 Feb 11"},
		medline.TagIssue:        {"6"},
		medline.TagVolume:       {"384"},
		medline.TagPages:        {"589-599"},
		medline.TagAuthor:       {"Smith J", "Doe A", "Lee K"},
		medline.TagAffiliation:  {"Boston, USA.", "London, UK."},
		medline.TagLocationID:   {"10.1056/NEJMoa2035389 [doi]"},
	})

	row, err := Normalize(rec, DefaultLinkTemplate)
	require.NoError(t, err)
	assert.Equal(t, types.Row{
		JournalTitle:           "The New England journal of medicine",
		JournalAbbrev:          "N Engl J Med",
		Title:                  "A trial.",
		Year:                   "2021",
		Pages:                  "589-599",
		Issue:                  "6",
		Volume:                 "384",
		FirstAuthor:            "Smith J",
		FirstAuthorAffiliation: "Boston, USA.",
		LastAuthor:             "Lee K",
		LastAuthorAffiliation:  "London, UK.",
		DOI:                    "10.1056/NEJMoa2035389",
		Link:                   "https://pubmed.ncbi.nlm.nih.gov/33567185/",
		Authors:                []string{"Smith J", "Doe A", "Lee K"},
		PMID:                   "33567185",
	}, row)
	assert.Len(t, row.Values(), len(types.Columns))
}

func TestNormalizeWrappedLastAffiliation(t *testing.T) {
	text := `PMID- 40000001
FAU - Smith, John
AU  - Smith J
AD  - Dept A, Boston.
FAU - Lee, Kim
AU  - Lee K
AUID- ORCID: 0000-0001
AD  - Intensive Care Unit, Example Hospital,
      London, UK.
`
	recs, err := medline.Parse(strings.NewReader(text))
	require.NoError(t, err)
	require.Len(t, recs, 1)

	row, err := Normalize(recs[0], DefaultLinkTemplate)
	require.NoError(t, err)
	assert.Equal(t, "Lee K", row.LastAuthor)
	assert.Equal(t, "Intensive Care Unit, Example Hospital, London, UK.", row.LastAuthorAffiliation)
	assert.Equal(t, "Dept A, Boston.", row.FirstAuthorAffiliation)
}

func TestNormalizeEmptyRecord(t *testing.T) {
	row, err := Normalize(medline.NewRecord(), DefaultLinkTemplate)
	require.NoError(t, err)

	for i, v := range row.Values() {
		assert.Equal(t, "", v, "column %s", types.Columns[i])
	}
	require.NotNil(t, row.Authors)
	assert.Empty(t, row.Authors)
}

func TestYear(t *testing.T) {
	tests := []struct {
		date string
		want string
	}{
		{"2021 Jun 15", "2021"},
		{"Jun 2021", "2021"},
		{"2019-2020", "2019"},
		{"Winter 2020", "2020"},
		{"Jun", ""},
		{"21 Jun", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			assert.Equal(t, tt.want, Year(tt.date))
		})
	}
}

func TestAuthors(t *testing.T) {
	tests := []struct {
		name      string
		authors   []string
		wantFirst string
		wantLast  string
	}{
		{"three authors", []string{"Smith J", "Doe A", "Lee K"}, "Smith J", "Lee K"},
		{"single author", []string{"Smith J"}, "Smith J", "Smith J"},
		{"no authors", nil, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := medline.NewRecord()
			if tt.authors != nil {
				rec.Add(medline.TagAuthor, tt.authors...)
			}
			row, err := Normalize(rec, "")
			require.NoError(t, err)
			assert.Equal(t, tt.wantFirst, row.FirstAuthor)
			assert.Equal(t, tt.wantLast, row.LastAuthor)
		})
	}
}

func TestAffiliationScalarOrSequence(t *testing.T) {
	single := record(map[string][]string{medline.TagAffiliation: {"Only, Place."}})
	row, err := Normalize(single, "")
	require.NoError(t, err)
	assert.Equal(t, "Only, Place.", row.FirstAuthorAffiliation)
	assert.Equal(t, "Only, Place.", row.LastAuthorAffiliation)

	many := record(map[string][]string{medline.TagAffiliation: {"A", "B", "C"}})
	row, err = Normalize(many, "")
	require.NoError(t, err)
	assert.Equal(t, "A", row.FirstAuthorAffiliation)
	assert.Equal(t, "C", row.LastAuthorAffiliation)
}

func TestDOI(t *testing.T) {
	tests := []struct {
		name       string
		locationID string
		articleIDs []string
		want       string
	}{
		{
			name:       "from location identifier",
			locationID: "10.1056/NEJMoa2035389 [doi]",
			want:       "10.1056/NEJMoa2035389",
		},
		{
			name:       "location identifier with pii first",
			locationID: "S0140-6736(21)00001-0 [pii] 10.1016/S0140-6736(21)00001-0 [doi]",
			want:       "10.1016/S0140-6736(21)00001-0",
		},
		{
			name:       "falls back to article identifiers",
			articleIDs: []string{"S0140-6736(21)00001-0 [doi]", "10.1016/S0140-6736(21)00001-0 [pii]"},
			want:       "S0140-6736(21)00001-0",
		},
		{
			name:       "location identifier without doi falls back",
			locationID: "e2021001 [pii]",
			articleIDs: []string{"e2021001 [pii]", "10.1001/jama.2021.1 [doi]"},
			want:       "10.1001/jama.2021.1",
		},
		{
			name:       "article identifier prefix is not validated",
			articleIDs: []string{"PMC1234567 [doi]"},
			want:       "PMC1234567",
		},
		{
			name:       "marker without leading space keeps whole entry",
			articleIDs: []string{"odd[doi]"},
			want:       "odd[doi]",
		},
		{
			name:       "neither source",
			articleIDs: []string{"S0140-6736(21)00001-0 [pii]"},
			want:       "",
		},
		{
			name: "nothing at all",
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DOI(tt.locationID, tt.articleIDs))
		})
	}
}

func TestLink(t *testing.T) {
	assert.Equal(t, "https://pubmed.ncbi.nlm.nih.gov/123/", Link(DefaultLinkTemplate, "123"))
	assert.Equal(t, "https://pubmed.ncbi.nlm.nih.gov/123/", Link("", "123"))
	assert.Equal(t, "https://example.org/a/123", Link("https://example.org/a/{pmid}", "123"))
	assert.Equal(t, "", Link(DefaultLinkTemplate, ""))
}

func TestNormalizeMalformedRecord(t *testing.T) {
	recs, err := medline.Parse(strings.NewReader("PMID- 1\nTI  - ok\n\nPMID- 2\nnot a field\n\nPMID- 3\n"))
	require.NoError(t, err)
	require.Len(t, recs, 3)

	var rows []types.Row
	for _, rec := range recs {
		row, err := Normalize(rec, DefaultLinkTemplate)
		if err != nil {
			continue
		}
		rows = append(rows, row)
	}
	require.Len(t, rows, 2)
	assert.Equal(t, "1", rows[0].PMID)
	assert.Equal(t, "3", rows[1].PMID)

	_, err = Normalize(recs[1], DefaultLinkTemplate)
	assert.ErrorContains(t, err, "malformed record")
}

func TestNormalizeNilRecord(t *testing.T) {
	_, err := Normalize(nil, DefaultLinkTemplate)
	assert.Error(t, err)
}
