package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storelift/smartstore-lister/internal/commerce"
	"github.com/storelift/smartstore-lister/internal/models"
	"github.com/storelift/smartstore-lister/internal/selectors"
)

type fakeExtractor struct {
	info   *models.ProductInfo
	err    error
	closed int
}

func (f *fakeExtractor) Extract(ctx context.Context, url string, profile selectors.Profile) (*models.ProductInfo, error) {
	return f.info, f.err
}

func (f *fakeExtractor) Close() { f.closed++ }

type fakeAPI struct {
	uploadErr error
	uploads   []string
	payload   *commerce.ListingPayload
	submitted bool
}

func (f *fakeAPI) GetToken(ctx context.Context) (string, error) {
	return "test-token", nil
}

func (f *fakeAPI) UploadImage(ctx context.Context, imageURL string) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	hosted := fmt.Sprintf("v%d", len(f.uploads)+1)
	f.uploads = append(f.uploads, imageURL)
	return hosted, nil
}

func (f *fakeAPI) CreateListing(ctx context.Context, payload *commerce.ListingPayload) (json.RawMessage, error) {
	f.payload = payload
	f.submitted = true
	return json.RawMessage(`{"originProductNo":123}`), nil
}

func testPipeline(extractor *fakeExtractor, api *fakeAPI) *Pipeline {
	p := New(Options{Logger: slog.Default()})
	p.newExtractor = func() Extractor { return extractor }
	p.newAPI = func(clientID, clientSecret string) MarketAPI { return api }
	return p
}

func collect(t *testing.T, events <-chan Event) ([]int, *Event) {
	t.Helper()
	var progress []int
	var terminal *Event
	for ev := range events {
		switch ev.Kind {
		case EventProgress:
			require.Nil(t, terminal, "progress after terminal event")
			progress = append(progress, ev.Progress)
		default:
			require.Nil(t, terminal, "more than one terminal event")
			e := ev
			terminal = &e
		}
	}
	require.NotNil(t, terminal, "stream ended without a terminal event")
	return progress, terminal
}

func request() Request {
	return Request{
		ClientID:     "client-id",
		ClientSecret: "secret",
		Site:         "domeggook",
		ProductURL:   "https://domeggook.com/12345",
	}
}

func TestRunSucceeds(t *testing.T) {
	extractor := &fakeExtractor{info: &models.ProductInfo{
		Title:       "Shirt",
		Price:       19900,
		Description: "<p>desc</p>",
		Images:      []string{"u1", "u2"},
		Options:     []models.ProductOption{{Name: "Red", Stock: 5}},
	}}
	api := &fakeAPI{}
	p := testPipeline(extractor, api)

	progress, terminal := collect(t, p.Run(context.Background(), request()))

	assert.Equal(t, []int{10, 20, 40, 50, 60, 70, 80, 90, 100}, progress)
	assert.Equal(t, EventSucceeded, terminal.Kind)
	assert.JSONEq(t, `{"originProductNo":123}`, string(terminal.Result))

	// Uploads happen in source order; payload carries the relocated URLs.
	assert.Equal(t, []string{"u1", "u2"}, api.uploads)
	require.NotNil(t, api.payload)
	assert.Equal(t, "v1", api.payload.OriginProduct.Images.RepresentativeImage.URL)
	assert.Equal(t, []commerce.ListingImage{{URL: "v2"}}, api.payload.OriginProduct.Images.OptionalImages)
	assert.Contains(t, api.payload.OriginProduct.DetailContent, `<img src="v1"`)
	assert.Contains(t, api.payload.OriginProduct.DetailContent, "<p>desc</p>")

	assert.Equal(t, 1, extractor.closed)
}

func TestRunProgressIsMonotonic(t *testing.T) {
	images := []string{"u1", "u2", "u3", "u4", "u5", "u6", "u7"}
	extractor := &fakeExtractor{info: &models.ProductInfo{
		Title:  "Shirt",
		Price:  1000,
		Images: images,
	}}
	p := testPipeline(extractor, &fakeAPI{})

	progress, terminal := collect(t, p.Run(context.Background(), request()))

	assert.Equal(t, EventSucceeded, terminal.Kind)
	last := -1
	for _, pct := range progress {
		assert.GreaterOrEqual(t, pct, last)
		assert.LessOrEqual(t, pct, 100)
		last = pct
	}
	assert.Equal(t, 100, last)
}

func TestRunFailsWithoutImages(t *testing.T) {
	extractor := &fakeExtractor{info: &models.ProductInfo{Title: "Shirt", Price: 19900}}
	api := &fakeAPI{}
	p := testPipeline(extractor, api)

	_, terminal := collect(t, p.Run(context.Background(), request()))

	assert.Equal(t, EventFailed, terminal.Kind)
	assert.ErrorIs(t, terminal.Err, ErrNoImages)
	assert.Empty(t, api.uploads, "image relocation must never start")
	assert.False(t, api.submitted)
	assert.Equal(t, 1, extractor.closed, "browser session must be released on failure")
}

func TestRunFailsWithoutTitle(t *testing.T) {
	extractor := &fakeExtractor{info: &models.ProductInfo{Price: 19900, Images: []string{"u1"}}}
	p := testPipeline(extractor, &fakeAPI{})

	_, terminal := collect(t, p.Run(context.Background(), request()))

	assert.Equal(t, EventFailed, terminal.Kind)
	assert.ErrorIs(t, terminal.Err, ErrNoTitle)
}

func TestRunFailsWithZeroPrice(t *testing.T) {
	extractor := &fakeExtractor{info: &models.ProductInfo{Title: "Shirt", Images: []string{"u1"}}}
	p := testPipeline(extractor, &fakeAPI{})

	_, terminal := collect(t, p.Run(context.Background(), request()))

	assert.Equal(t, EventFailed, terminal.Kind)
	assert.ErrorIs(t, terminal.Err, ErrZeroPrice)
}

func TestRunFailsWhenUploadFails(t *testing.T) {
	extractor := &fakeExtractor{info: &models.ProductInfo{
		Title:  "Shirt",
		Price:  19900,
		Images: []string{"u1", "u2"},
	}}
	api := &fakeAPI{uploadErr: fmt.Errorf("%w: status 500", commerce.ErrImageUpload)}
	p := testPipeline(extractor, api)

	_, terminal := collect(t, p.Run(context.Background(), request()))

	assert.Equal(t, EventFailed, terminal.Kind)
	assert.ErrorIs(t, terminal.Err, commerce.ErrImageUpload)
	assert.False(t, api.submitted, "no listing may be created after an upload failure")
	assert.Equal(t, 1, extractor.closed)
}

func TestRunFailsForUnknownSite(t *testing.T) {
	extractor := &fakeExtractor{}
	p := testPipeline(extractor, &fakeAPI{})

	req := request()
	req.Site = "no-such-site"
	_, terminal := collect(t, p.Run(context.Background(), req))

	assert.Equal(t, EventFailed, terminal.Kind)
	assert.ErrorIs(t, terminal.Err, ErrUnknownSite)
	assert.Zero(t, extractor.closed, "no browser session is started for unknown sites")
}

func TestRunFailsWhenExtractionFails(t *testing.T) {
	extractor := &fakeExtractor{err: fmt.Errorf("navigation failed")}
	api := &fakeAPI{}
	p := testPipeline(extractor, api)

	_, terminal := collect(t, p.Run(context.Background(), request()))

	assert.Equal(t, EventFailed, terminal.Kind)
	assert.EqualError(t, terminal.Err, "navigation failed")
	assert.Equal(t, 1, extractor.closed)
}

func TestRenderDetailHTML(t *testing.T) {
	detail := renderDetailHTML("Shirt & Co", "<p>raw</p>", []string{"v1", "v2"})

	assert.Contains(t, detail, "<h2>Shirt &amp; Co</h2>")
	assert.Contains(t, detail, `<img src="v1"`)
	assert.Contains(t, detail, `<img src="v2"`)
	assert.Contains(t, detail, "<div><p>raw</p></div>")
}
