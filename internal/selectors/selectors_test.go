package selectors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()

	profile, ok := r.Lookup("domeggook")
	require.True(t, ok)
	assert.Equal(t, "h1#lInfoItemTitle", profile.Title)
	assert.Equal(t, "div.lItemPrice", profile.Price)
	assert.Equal(t, "img.mainThumb", profile.Images)
	assert.Equal(t, "판매종료", profile.SoldOutMarker)
	assert.False(t, profile.Empty())

	profile, ok = r.Lookup("consignment1")
	require.True(t, ok)
	assert.Equal(t, "h1.product-name", profile.Title)
	assert.Empty(t, profile.Options)
}

func TestLookupUnknownSite(t *testing.T) {
	r := DefaultRegistry()

	profile, ok := r.Lookup("no-such-site")
	assert.False(t, ok)
	assert.True(t, profile.Empty())
}

func TestRegisterReplacesProfile(t *testing.T) {
	r := NewRegistry()
	r.Register("site", Profile{Title: "h1.old"})
	r.Register("site", Profile{Title: "h1.new"})

	profile, ok := r.Lookup("site")
	require.True(t, ok)
	assert.Equal(t, "h1.new", profile.Title)
	assert.ElementsMatch(t, []string{"site"}, r.Sites())
}
