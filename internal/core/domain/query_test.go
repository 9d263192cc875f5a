package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchMode_IsValid(t *testing.T) {
	for _, m := range SearchModes() {
		assert.True(t, m.IsValid(), m)
	}
	assert.False(t, SearchMode("").IsValid())
	assert.False(t, SearchMode("fuzzy").IsValid())
}

func TestSearchMode_Next(t *testing.T) {
	assert.Equal(t, SearchModeSemantic, SearchModeKeyword.Next())
	assert.Equal(t, SearchModeHybrid, SearchModeSemantic.Next())
	assert.Equal(t, SearchModeKeyword, SearchModeHybrid.Next())
}

func TestSearchMode_Description(t *testing.T) {
	for _, m := range SearchModes() {
		assert.NotEqual(t, "Unknown", m.Description(), m)
	}
	assert.Equal(t, "Unknown", SearchMode("fuzzy").Description())
}

func TestParseSearchMode(t *testing.T) {
	tests := []struct {
		input   string
		want    SearchMode
		wantErr bool
	}{
		{input: "keyword", want: SearchModeKeyword},
		{input: " Semantic ", want: SearchModeSemantic},
		{input: "HYBRID", want: SearchModeHybrid},
		{input: "fuzzy", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseSearchMode(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewQueryParameters(t *testing.T) {
	p := NewQueryParameters("leave policy", SearchModeHybrid)

	assert.Equal(t, 1, p.Page)
	assert.Equal(t, DefaultPageSize, p.PageSize)
	assert.Nil(t, p.DocumentIDs)
	assert.NoError(t, p.Validate())
}

func TestQueryParameters_Validate(t *testing.T) {
	valid := NewQueryParameters("q", SearchModeKeyword)

	tests := []struct {
		name    string
		mutate  func(*QueryParameters)
		wantErr error
	}{
		{name: "empty query", mutate: func(p *QueryParameters) { p.Query = "" }, wantErr: ErrInvalidInput},
		{name: "blank query", mutate: func(p *QueryParameters) { p.Query = " \t" }, wantErr: ErrInvalidInput},
		{name: "unknown mode", mutate: func(p *QueryParameters) { p.Mode = "fuzzy" }, wantErr: ErrInvalidInput},
		{name: "page zero", mutate: func(p *QueryParameters) { p.Page = 0 }, wantErr: ErrOutOfRange},
		{name: "page size zero", mutate: func(p *QueryParameters) { p.PageSize = 0 }, wantErr: ErrInvalidInput},
		{name: "negative top-k", mutate: func(p *QueryParameters) { p.TopK = -1 }, wantErr: ErrInvalidInput},
		{name: "filter and top-k", mutate: func(p *QueryParameters) {
			p.DocumentIDs = []string{"d1"}
			p.TopK = 3
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			err := p.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestQueryParameters_WithPage(t *testing.T) {
	p := NewQueryParameters("q", SearchModeHybrid)
	p.DocumentIDs = []string{"a", "b"}
	p.IncludeHighlight = true

	next := p.WithPage(3)
	next.DocumentIDs[0] = "changed"

	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 3, next.Page)
	assert.Equal(t, "a", p.DocumentIDs[0])
	assert.True(t, next.IncludeHighlight)
	assert.True(t, p.HasDocumentFilter())
	assert.False(t, NewQueryParameters("q", SearchModeHybrid).WithPage(2).HasDocumentFilter())
}
