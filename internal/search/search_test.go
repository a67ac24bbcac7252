package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/seasonscope/internal/model"
)

func catalog() []model.Food {
	return []model.Food{
		{ID: "tomato", CanonicalName: "Tomato", Category: model.CategoryProduce},
		{ID: "bell_pepper", CanonicalName: "Bell Pepper", Category: model.CategoryProduce, Synonyms: []string{"capsicum", "sweet pepper"}},
		{ID: "acai", CanonicalName: "Açaí", Category: model.CategoryProduce},
		{ID: "strawberry", CanonicalName: "Strawberry", Category: model.CategoryProduce},
	}
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "acai", NormalizeName("Açaí"))
	assert.Equal(t, "bell pepper", NormalizeName("  Bell-Pepper "))
	assert.Equal(t, "bell pepper", NormalizeName("bell_pepper"))
	assert.Equal(t, "", NormalizeName("   "))
}

func TestLookupExact(t *testing.T) {
	idx := NewIndex(catalog())

	f, ok := idx.Lookup("Tomato")
	require.True(t, ok)
	assert.Equal(t, "tomato", f.ID)
}

func TestLookupSynonym(t *testing.T) {
	idx := NewIndex(catalog())

	f, ok := idx.Lookup("capsicum")
	require.True(t, ok)
	assert.Equal(t, "bell_pepper", f.ID)
}

func TestLookupDiacritics(t *testing.T) {
	idx := NewIndex(catalog())

	f, ok := idx.Lookup("acai")
	require.True(t, ok)
	assert.Equal(t, "acai", f.ID)
}

func TestLookupMisspelling(t *testing.T) {
	idx := NewIndex(catalog())

	f, ok := idx.Lookup("strawbery")
	require.True(t, ok)
	assert.Equal(t, "strawberry", f.ID)
}

func TestLookupNoMatch(t *testing.T) {
	idx := NewIndex(catalog())

	_, ok := idx.Lookup("quinoa")
	assert.False(t, ok)

	_, ok = idx.Lookup("")
	assert.False(t, ok)
}

func TestSearchRanksExactFirst(t *testing.T) {
	idx := NewIndex(catalog())

	matches := idx.Search("tomato", 5)
	require.NotEmpty(t, matches)
	assert.Equal(t, "tomato", matches[0].Food.ID)
	assert.Equal(t, 1.0, matches[0].Score)
}

func TestTrigramSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, TrigramSimilarity("tomato", "tomato"))
	assert.Greater(t, TrigramSimilarity("strawberry", "strawbery"), 0.6)
	assert.Less(t, TrigramSimilarity("tomato", "lentils"), 0.2)
	assert.Equal(t, 0.0, TrigramSimilarity("", "tomato"))
}
