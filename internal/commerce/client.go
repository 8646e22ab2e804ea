package commerce

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/jameskeane/bcrypt"
)

var (
	ErrTokenIssuance     = errors.New("token issuance failed")
	ErrImageDownload     = errors.New("image download failed")
	ErrImageUpload       = errors.New("image upload failed")
	ErrListingSubmission = errors.New("listing submission failed")
)

const (
	DefaultBaseURL = "https://api.commerce.naver.com/external"

	// tokenSafetyMargin forces a refresh while the cached token still has
	// this much lifetime left.
	tokenSafetyMargin = 30 * time.Minute
)

// Client talks to the marketplace seller API. One client serves one
// submission run; the only state it mutates is its cached access token, which
// is never shared outside the client.
type Client struct {
	clientID     string
	clientSecret string
	http         *resty.Client
	logger       *slog.Logger

	token          string
	tokenExpiresAt time.Time
	now            func() time.Time
}

func NewClient(clientID, clientSecret, baseURL string, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second)

	return &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
		http:         httpClient,
		logger:       logger.With("component", "commerce_client"),
		now:          time.Now,
	}
}

// Sign produces the credential-issuance signature the marketplace verifies:
// bcrypt over "{clientID}_{timestamp}" keyed with the client secret as the
// salt, then standard base64 of the hash text.
func Sign(clientID, clientSecret string, timestamp int64) (string, error) {
	hashed, err := bcrypt.Hash(fmt.Sprintf("%s_%d", clientID, timestamp), clientSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign credentials: %w", err)
	}
	return base64.StdEncoding.EncodeToString([]byte(hashed)), nil
}

// GetToken returns the cached bearer token while it is comfortably inside its
// lifetime, otherwise requests a fresh one.
func (c *Client) GetToken(ctx context.Context) (string, error) {
	if c.token != "" && c.now().Before(c.tokenExpiresAt.Add(-tokenSafetyMargin)) {
		return c.token, nil
	}

	timestamp := c.now().UnixMilli()
	signature, err := Sign(c.clientID, c.clientSecret, timestamp)
	if err != nil {
		return "", err
	}

	res, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"client_id":          c.clientID,
			"timestamp":          strconv.FormatInt(timestamp, 10),
			"grant_type":         "client_credentials",
			"client_secret_sign": signature,
			"type":               "SELF",
		}).
		Post("/v1/oauth2/token")
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	if res.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("%w: %s", ErrTokenIssuance, res.String())
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(res.Body(), &payload); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}

	c.token = payload.AccessToken
	c.tokenExpiresAt = c.now().Add(time.Duration(payload.ExpiresIn) * time.Second)

	c.logger.Info("access token issued", "expires_in", payload.ExpiresIn)
	return c.token, nil
}
