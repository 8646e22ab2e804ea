package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storelift/smartstore-lister/internal/models"
	"github.com/storelift/smartstore-lister/internal/selectors"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected int
	}{
		{"currency symbol and separator", "$19.900", 19900},
		{"korean won with comma", "12,500원", 12500},
		{"already clean digits", "19900", 19900},
		{"digits with surrounding text", "판매가 3,000원부터", 3000},
		{"no digits at all", "가격문의", 0},
		{"empty text", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParsePrice(tt.text))
		})
	}
}

func TestParsePriceIdempotent(t *testing.T) {
	once := ParsePrice("$19.900")
	again := ParsePrice("19900")
	assert.Equal(t, once, again)
}

func TestParseOption(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected models.ProductOption
		kept     bool
	}{
		{"name with stock", "Red (5)", models.ProductOption{Name: "Red", Stock: 5}, true},
		{"name without parentheses", "Red", models.ProductOption{Name: "Red", Stock: 0}, true},
		{"large stock", "Blue (123)", models.ProductOption{Name: "Blue", Stock: 123}, true},
		{"parens without digits", "Green (품절임박)", models.ProductOption{Name: "Green", Stock: 0}, true},
		{"whitespace around name", "  화이트 (10) ", models.ProductOption{Name: "화이트", Stock: 10}, true},
		{"sold out excluded", "Blue (판매종료)", models.ProductOption{}, false},
		{"sold out anywhere in text", "판매종료 - Black (3)", models.ProductOption{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			option, ok := ParseOption(tt.text, "판매종료")
			assert.Equal(t, tt.kept, ok)
			if tt.kept {
				assert.Equal(t, tt.expected, option)
			}
		})
	}
}

func TestParseProduct(t *testing.T) {
	html := `<html><body>
		<h1 id="lInfoItemTitle">Shirt</h1>
		<div class="lItemPrice">$19.900</div>
		<div id="lInfoViewItemContents"><p>Nice <b>shirt</b></p></div>
		<img class="mainThumb" src="https://img.example.com/a.jpg">
		<img class="mainThumb" src="/images/b.jpg">
		<img class="mainThumb" src="">
		<ul class="pSelectUIMenu">
			<li><button class="pSelectUIBtn">Red (5)</button></li>
			<li><button class="pSelectUIBtn">Blue (판매종료)</button></li>
		</ul>
		<table><tr><td class="lInfoItemCountryContent">중국</td></tr></table>
	</body></html>`

	profile, ok := selectors.DefaultRegistry().Lookup("domeggook")
	require.True(t, ok)

	info, err := ParseProduct(html, "https://domeggook.com/12345", profile)
	require.NoError(t, err)

	assert.Equal(t, "Shirt", info.Title)
	assert.Equal(t, 19900, info.Price)
	assert.Equal(t, "<p>Nice <b>shirt</b></p>", info.Description)
	assert.Equal(t, []string{
		"https://img.example.com/a.jpg",
		"https://domeggook.com/images/b.jpg",
	}, info.Images)
	assert.Equal(t, []models.ProductOption{{Name: "Red", Stock: 5}}, info.Options)
	assert.Equal(t, "중국", info.Origin)
}

func TestParseProductMissingSecondaryFields(t *testing.T) {
	html := `<html><body>
		<h1 id="lInfoItemTitle">Shirt</h1>
		<div class="lItemPrice">5,000</div>
	</body></html>`

	profile, ok := selectors.DefaultRegistry().Lookup("domeggook")
	require.True(t, ok)

	info, err := ParseProduct(html, "https://domeggook.com/12345", profile)
	require.NoError(t, err)

	assert.Equal(t, "Shirt", info.Title)
	assert.Equal(t, 5000, info.Price)
	assert.Empty(t, info.Description)
	assert.Empty(t, info.Images)
	assert.Empty(t, info.Options)
	assert.Empty(t, info.Origin)
}

func TestParseProductUnselectedFieldsStayEmpty(t *testing.T) {
	html := `<html><body><h1 class="product-name">Bag</h1><span class="price">7,000</span></body></html>`

	profile, ok := selectors.DefaultRegistry().Lookup("consignment1")
	require.True(t, ok)

	info, err := ParseProduct(html, "https://shop.example.com/items/1", profile)
	require.NoError(t, err)

	assert.Equal(t, "Bag", info.Title)
	assert.Equal(t, 7000, info.Price)
	assert.Empty(t, info.Origin)
	assert.Empty(t, info.Options)
}
