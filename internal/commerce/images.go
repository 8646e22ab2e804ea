package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// UploadImage relocates one source image: it downloads the bytes from the
// source site and re-uploads them to the marketplace's asset host, returning
// the marketplace-owned URL. Calls block and are made once per source image;
// any failure is terminal for the run.
func (c *Client) UploadImage(ctx context.Context, imageURL string) (string, error) {
	token, err := c.GetToken(ctx)
	if err != nil {
		return "", err
	}

	download, err := c.http.R().
		SetContext(ctx).
		Get(imageURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrImageDownload, err)
	}
	if download.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("%w: status %d for %s", ErrImageDownload, download.StatusCode(), imageURL)
	}

	res, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetMultipartField("imageFiles", "image.jpg", "image/jpeg", bytes.NewReader(download.Body())).
		Post("/v1/product-images/upload")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrImageUpload, err)
	}
	if res.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("%w: %s", ErrImageUpload, res.String())
	}

	var payload struct {
		Images []struct {
			URL string `json:"url"`
		} `json:"images"`
	}
	if err := json.Unmarshal(res.Body(), &payload); err != nil {
		return "", fmt.Errorf("%w: invalid response: %v", ErrImageUpload, err)
	}
	if len(payload.Images) == 0 {
		return "", fmt.Errorf("%w: no image URL in response", ErrImageUpload)
	}

	c.logger.Info("image relocated", "source", imageURL, "hosted", payload.Images[0].URL)
	return payload.Images[0].URL, nil
}
