package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/storelift/smartstore-lister/internal/browser"
	"github.com/storelift/smartstore-lister/internal/config"
	"github.com/storelift/smartstore-lister/internal/pipeline"
	"github.com/storelift/smartstore-lister/pkg/logger"
)

func main() {
	var (
		productURL   = flag.String("url", "", "Source product URL to publish")
		site         = flag.String("site", "domeggook", "Site identifier selecting the extraction profile")
		credFile     = flag.String("credentials", "", "Credentials JSON file (defaults to COMMERCE_CREDENTIALS_FILE)")
		clientID     = flag.String("client-id", "", "Marketplace client ID (overrides the credentials file)")
		clientSecret = flag.String("client-secret", "", "Marketplace client secret (overrides the credentials file)")
		saveCreds    = flag.Bool("save-credentials", false, "Persist the given client ID/secret to the credentials file")
		headless     = flag.Bool("headless", true, "Run the browser in headless mode")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	if *credFile == "" {
		*credFile = cfg.Commerce.CredentialsFile
	}
	creds, err := config.LoadCredentials(*credFile)
	if err != nil {
		log.Error("failed to load credentials", "file", *credFile, "error", err)
		os.Exit(1)
	}
	if *clientID != "" {
		creds.ClientID = *clientID
	}
	if *clientSecret != "" {
		creds.ClientSecret = *clientSecret
	}

	if *saveCreds {
		if err := config.SaveCredentials(*credFile, creds); err != nil {
			log.Error("failed to save credentials", "file", *credFile, "error", err)
			os.Exit(1)
		}
		log.Info("credentials saved", "file", *credFile)
		if *productURL == "" {
			return
		}
	}

	if *productURL == "" {
		fmt.Fprintln(os.Stderr, "-url is required")
		flag.Usage()
		os.Exit(2)
	}
	if creds.ClientID == "" || creds.ClientSecret == "" {
		log.Error("marketplace credentials are missing", "file", *credFile)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("shutdown signal received")
		cancel()
	}()

	browserOpts := browser.DefaultOptions()
	browserOpts.Headless = *headless && cfg.Browser.Headless
	browserOpts.Timeout = cfg.Browser.Timeout
	browserOpts.ViewportWidth = cfg.Browser.ViewportWidth
	browserOpts.ViewportHeight = cfg.Browser.ViewportHeight
	browserOpts.Locale = cfg.Browser.Locale

	p := pipeline.New(pipeline.Options{
		BrowserOptions: browserOpts,
		BaseURL:        cfg.Commerce.BaseURL,
		Logger:         log,
	})

	log.Info("publishing listing", "site", *site, "url", *productURL)

	events := p.Run(ctx, pipeline.Request{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		Site:         *site,
		ProductURL:   *productURL,
	})

	exitCode := 0
	for ev := range events {
		switch ev.Kind {
		case pipeline.EventProgress:
			log.Info("progress", "percent", ev.Progress)
		case pipeline.EventSucceeded:
			log.Info("listing created")
			fmt.Println(string(ev.Result))
		case pipeline.EventFailed:
			log.Error("listing failed", "error", ev.Err)
			exitCode = 1
		}
	}

	os.Exit(exitCode)
}
