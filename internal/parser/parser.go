package parser

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/storelift/smartstore-lister/internal/models"
	"github.com/storelift/smartstore-lister/internal/selectors"
)

// ParseProduct extracts a normalized ProductInfo from a rendered product page
// snapshot using the site's selector profile. Missing elements degrade to
// empty fields; the pipeline decides which of those are fatal. pageURL is
// used to resolve relative image sources.
func ParseProduct(html, pageURL string, profile selectors.Profile) (*models.ProductInfo, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page html: %w", err)
	}

	info := models.NewProductInfo()
	info.Title = elementText(doc, profile.Title)
	info.Price = ParsePrice(elementText(doc, profile.Price))
	info.Description = elementHTML(doc, profile.Description)
	info.Origin = elementText(doc, profile.Origin)

	if profile.Images != "" {
		doc.Find(profile.Images).Each(func(_ int, sel *goquery.Selection) {
			src := strings.TrimSpace(sel.AttrOr("src", ""))
			if src == "" {
				return
			}
			info.Images = append(info.Images, resolveURL(pageURL, src))
		})
	}

	if profile.Options != "" {
		doc.Find(profile.Options).Each(func(_ int, sel *goquery.Selection) {
			option, ok := ParseOption(sel.Text(), profile.SoldOutMarker)
			if !ok {
				return
			}
			info.Options = append(info.Options, option)
		})
	}

	return info, nil
}

// ParsePrice strips every non-digit character from the raw price text and
// interprets the remainder as currency minor units. Text without any digit
// maps to 0.
func ParsePrice(text string) int {
	var digits strings.Builder
	for _, r := range text {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	price, err := strconv.Atoi(digits.String())
	if err != nil {
		return 0
	}
	return price
}

// ParseOption parses one option element's text into a name and stock count.
// Elements carrying the sold-out marker are excluded entirely (ok=false).
// The stock count is the digits inside the trailing parenthesized segment,
// defaulting to 0 when there are none; the name is the text before the first
// parenthesis, trimmed.
func ParseOption(text, soldOutMarker string) (models.ProductOption, bool) {
	if soldOutMarker != "" && strings.Contains(text, soldOutMarker) {
		return models.ProductOption{}, false
	}

	segment := text
	if idx := strings.LastIndex(segment, "("); idx >= 0 {
		segment = segment[idx+1:]
	}
	if idx := strings.Index(segment, ")"); idx >= 0 {
		segment = segment[:idx]
	}

	var digits strings.Builder
	for _, r := range segment {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	stock, err := strconv.Atoi(digits.String())
	if err != nil {
		stock = 0
	}

	name, _, _ := strings.Cut(text, "(")
	return models.ProductOption{
		Name:  strings.TrimSpace(name),
		Stock: stock,
	}, true
}

func elementText(doc *goquery.Document, selector string) string {
	if selector == "" {
		return ""
	}
	return strings.TrimSpace(doc.Find(selector).First().Text())
}

// elementHTML returns the element's inner markup; the listing detail page
// keeps whatever formatting the source description carries.
func elementHTML(doc *goquery.Document, selector string) string {
	if selector == "" {
		return ""
	}
	html, err := doc.Find(selector).First().Html()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(html)
}

func resolveURL(pageURL, src string) string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return src
	}
	ref, err := url.Parse(src)
	if err != nil {
		return src
	}
	return base.ResolveReference(ref).String()
}
