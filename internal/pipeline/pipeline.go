package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"github.com/storelift/smartstore-lister/internal/browser"
	"github.com/storelift/smartstore-lister/internal/commerce"
	"github.com/storelift/smartstore-lister/internal/crawler"
	"github.com/storelift/smartstore-lister/internal/models"
	"github.com/storelift/smartstore-lister/internal/selectors"
)

var (
	ErrUnknownSite = errors.New("no selector profile for site")
	ErrNoImages    = errors.New("no product images were extracted")
	ErrNoTitle     = errors.New("no product title was extracted")
	ErrZeroPrice   = errors.New("no product price was extracted")
)

// EventKind tags a pipeline event.
type EventKind int

const (
	EventProgress EventKind = iota
	EventSucceeded
	EventFailed
)

// Event is one entry in a run's event stream: a monotonically non-decreasing
// progress percentage, or exactly one terminal success/failure event after
// which the stream closes.
type Event struct {
	Kind     EventKind
	Progress int
	Result   json.RawMessage
	Err      error
}

// Request carries everything one submission run needs.
type Request struct {
	ClientID     string
	ClientSecret string
	Site         string
	ProductURL   string
}

// Extractor is what the pipeline needs from the page extractor.
type Extractor interface {
	Extract(ctx context.Context, url string, profile selectors.Profile) (*models.ProductInfo, error)
	Close()
}

// MarketAPI is what the pipeline needs from the marketplace client.
type MarketAPI interface {
	GetToken(ctx context.Context) (string, error)
	UploadImage(ctx context.Context, imageURL string) (string, error)
	CreateListing(ctx context.Context, payload *commerce.ListingPayload) (json.RawMessage, error)
}

// Pipeline turns a source product URL into a created marketplace listing.
// Every run constructs its own extractor and API client, so runs share no
// mutable state.
type Pipeline struct {
	registry     *selectors.Registry
	logger       *slog.Logger
	newExtractor func() Extractor
	newAPI       func(clientID, clientSecret string) MarketAPI
}

// Options configures the collaborators each run is built from.
type Options struct {
	Registry       *selectors.Registry
	BrowserOptions *browser.Options
	BaseURL        string
	Logger         *slog.Logger
}

func New(opts Options) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	registry := opts.Registry
	if registry == nil {
		registry = selectors.DefaultRegistry()
	}

	return &Pipeline{
		registry: registry,
		logger:   logger.With("component", "pipeline"),
		newExtractor: func() Extractor {
			return crawler.New(opts.BrowserOptions, logger)
		},
		newAPI: func(clientID, clientSecret string) MarketAPI {
			return commerce.NewClient(clientID, clientSecret, opts.BaseURL, logger)
		},
	}
}

// Run starts one submission run on its own goroutine and returns its event
// stream. The caller reads progress events followed by exactly one terminal
// event; the channel is closed afterwards. Runs are not cancellable beyond
// the context handed in here.
func (p *Pipeline) Run(ctx context.Context, req Request) <-chan Event {
	events := make(chan Event, 16)
	go func() {
		defer close(events)
		p.run(ctx, req, events)
	}()
	return events
}

func (p *Pipeline) run(ctx context.Context, req Request, events chan<- Event) {
	fail := func(err error) {
		p.logger.Error("run failed", "site", req.Site, "url", req.ProductURL, "error", err)
		events <- Event{Kind: EventFailed, Err: err}
	}
	progress := func(pct int) {
		events <- Event{Kind: EventProgress, Progress: pct}
	}

	profile, ok := p.registry.Lookup(req.Site)
	if !ok || profile.Empty() {
		fail(fmt.Errorf("%w: %q", ErrUnknownSite, req.Site))
		return
	}

	progress(10)

	extractor := p.newExtractor()
	defer extractor.Close()

	progress(20)

	info, err := extractor.Extract(ctx, req.ProductURL, profile)
	if err != nil {
		fail(err)
		return
	}

	// A nameless, free, or imageless listing is certainly wrong; refuse to
	// submit rather than publish garbage.
	if len(info.Images) == 0 {
		fail(ErrNoImages)
		return
	}
	if info.Title == "" {
		fail(ErrNoTitle)
		return
	}
	if info.Price <= 0 {
		fail(ErrZeroPrice)
		return
	}

	api := p.newAPI(req.ClientID, req.ClientSecret)

	progress(40)

	if _, err := api.GetToken(ctx); err != nil {
		fail(err)
		return
	}

	progress(50)

	total := len(info.Images)
	uploaded := make([]string, 0, total)
	for i, imageURL := range info.Images {
		hosted, err := api.UploadImage(ctx, imageURL)
		if err != nil {
			fail(err)
			return
		}
		uploaded = append(uploaded, hosted)
		progress(50 + (i+1)*20/total)
	}

	progress(80)

	detail := renderDetailHTML(info.Title, info.Description, uploaded)
	payload := commerce.AssembleListing(info, uploaded, detail)

	progress(90)

	result, err := api.CreateListing(ctx, payload)
	if err != nil {
		fail(err)
		return
	}

	progress(100)
	p.logger.Info("run succeeded", "site", req.Site, "url", req.ProductURL)
	events <- Event{Kind: EventSucceeded, Result: result}
}

// renderDetailHTML builds the listing detail page: title heading, one image
// block per relocated image, then the raw source description.
func renderDetailHTML(title, description string, images []string) string {
	var b strings.Builder
	b.WriteString(`<div style="width:100%; margin:0 auto; text-align:center;">`)
	b.WriteString("<h2>")
	b.WriteString(html.EscapeString(title))
	b.WriteString("</h2>")
	for _, img := range images {
		b.WriteString(`<div style="margin:30px 0;"><img src="`)
		b.WriteString(img)
		b.WriteString(`" style="max-width:100%;" /></div>`)
	}
	b.WriteString("<div>")
	b.WriteString(description)
	b.WriteString("</div></div>")
	return b.String()
}
