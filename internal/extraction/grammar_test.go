package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProduction(t *testing.T) {
	t.Run("ContractMatchesPattern", func(t *testing.T) {
		p, err := NewProduction("pair", `(\w+)=(\d+)`, "key", "value")
		require.NoError(t, err)
		assert.Equal(t, "pair", p.Name())
		assert.Equal(t, []string{"key", "value"}, p.Groups())
	})

	t.Run("GroupCountMismatch", func(t *testing.T) {
		_, err := NewProduction("pair", `(\w+)=(\d+)`, "key")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "2 capture groups")
	})

	t.Run("InvalidPattern", func(t *testing.T) {
		_, err := NewProduction("broken", `(\w+`, "key")
		assert.Error(t, err)
	})

	t.Run("MustPanics", func(t *testing.T) {
		assert.Panics(t, func() { MustProduction("pair", `(\w+)=(\d+)`) })
	})
}

func TestProduction_Find(t *testing.T) {
	p := MustProduction("pair", `(\w+)=(\d+)(?:/(\w+))?`, "key", "value", "unit")

	t.Run("FirstMatch", func(t *testing.T) {
		m, ok := p.Find("x a=1 b=2/kg")
		require.True(t, ok)
		assert.Equal(t, "a", m.Get("key"))
		assert.Equal(t, "1", m.Get("value"))
		assert.Equal(t, "", m.Get("unit"), "unmatched optional group is empty")
		assert.Equal(t, Span{Start: 2, End: 5}, m.Span)
	})

	t.Run("NoMatch", func(t *testing.T) {
		_, ok := p.Find("nothing here")
		assert.False(t, ok)
	})

	t.Run("FindAllInOrder", func(t *testing.T) {
		matches := p.FindAll("a=1 b=2/kg c=3")
		require.Len(t, matches, 3)
		assert.Equal(t, "a", matches[0].Get("key"))
		assert.Equal(t, "kg", matches[1].Get("unit"))
		assert.Equal(t, "3", matches[2].Get("value"))
		assert.Less(t, matches[0].Span.End, matches[1].Span.Start+1)
	})

	t.Run("FindAllEmpty", func(t *testing.T) {
		matches := p.FindAll("")
		assert.NotNil(t, matches)
		assert.Empty(t, matches)
	})

	t.Run("FindFromKeepsDocumentOffsets", func(t *testing.T) {
		m, ok := p.FindFrom("a=1 b=2/kg", 3)
		require.True(t, ok)
		assert.Equal(t, "b", m.Get("key"))
		assert.Equal(t, Span{Start: 4, End: 10}, m.Span)

		value, ok := m.GroupSpan("value")
		require.True(t, ok)
		assert.Equal(t, Span{Start: 6, End: 7}, value)
	})

	t.Run("FindFromOutOfRange", func(t *testing.T) {
		_, ok := p.FindFrom("a=1", 4)
		assert.False(t, ok)
		_, ok = p.FindFrom("a=1", -1)
		assert.False(t, ok)
	})

	t.Run("UnmatchedGroupHasNoSpan", func(t *testing.T) {
		m, ok := p.Find("a=1")
		require.True(t, ok)
		_, ok = m.GroupSpan("unit")
		assert.False(t, ok)
	})
}

func TestAnchor_Locate(t *testing.T) {
	production := MustProduction("section", `(?is)Transactional\s+Details.*?Card\s+#`)
	text := "Header stuff\nTransactional Details for Card # 1234 rows here"

	t.Run("RegionAfterAnchor", func(t *testing.T) {
		span, ok := NewAnchor(production, RegionAfterAnchor).Locate(text)
		require.True(t, ok)
		assert.Equal(t, " 1234 rows here", span.Slice(text))
		assert.Equal(t, len(text), span.End)
	})

	t.Run("RegionAtAnchor", func(t *testing.T) {
		span, ok := NewAnchor(production, RegionAtAnchor).Locate(text)
		require.True(t, ok)
		assert.Equal(t, "Transactional Details for Card # 1234 rows here", span.Slice(text))
	})

	t.Run("AnchorSpansLines", func(t *testing.T) {
		multi := "Transactional\nDetails\nCard # rest"
		span, ok := NewAnchor(production, RegionAfterAnchor).Locate(multi)
		require.True(t, ok)
		assert.Equal(t, " rest", span.Slice(multi))
	})

	t.Run("Absent", func(t *testing.T) {
		_, ok := NewAnchor(production, RegionAfterAnchor).Locate("Card # without the heading")
		assert.False(t, ok)
	})
}
