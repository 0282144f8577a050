package feed

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/rben01/covid19-sub000/internal/models"
)

// Feed filenames carry the sha1 of their contents, e.g.
// covid_data-3f2c9a...json. When a name matches, the digest is verified
// after download; names without a digest are accepted as-is.
var digestNameRe = regexp.MustCompile(`^[a-z_]+-([0-9a-f]{40})\.json$`)

const defaultRetryElapsed = 1 * time.Minute

// Client fetches the data and boundary feeds over HTTP with retry and
// digest verification.
type Client struct {
	httpClient   *http.Client
	retryElapsed time.Duration
	logger       *zap.SugaredLogger
}

func NewClient(timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		httpClient:   &http.Client{Timeout: timeout},
		retryElapsed: defaultRetryElapsed,
		logger:       logger.Sugar(),
	}
}

// FetchDatasets downloads and decodes the data feed, returning one dataset
// per scope.
func (c *Client) FetchDatasets(ctx context.Context, rawURL string) (map[string]*models.Dataset, error) {
	body, err := c.fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	doc, err := decodeDocument(body)
	if err != nil {
		return nil, err
	}
	datasets, err := buildDatasets(ctx, doc)
	if err != nil {
		return nil, err
	}
	for scope, ds := range datasets {
		c.logger.Infow("loaded dataset",
			"scope", scope,
			"regions", len(ds.Regions),
			"days", ds.Days(),
		)
	}
	return datasets, nil
}

// FetchBoundaries downloads and decodes the GeoJSON boundary feed.
func (c *Client) FetchBoundaries(ctx context.Context, rawURL string) (Boundaries, error) {
	body, err := c.fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	return decodeBoundaries(body)
}

func (c *Client) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse feed url: %w", err)
	}

	op := func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.Warnw("feed fetch failed, retrying", "url", rawURL, "error", err)
			return nil, err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode >= 500:
			c.logger.Warnw("feed fetch failed, retrying", "url", rawURL, "status", resp.StatusCode)
			return nil, fmt.Errorf("fetch %s: status %d", rawURL, resp.StatusCode)
		case resp.StatusCode != http.StatusOK:
			return nil, backoff.Permanent(fmt.Errorf("fetch %s: status %d", rawURL, resp.StatusCode))
		}
		return io.ReadAll(resp.Body)
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = c.retryElapsed
	body, err := backoff.RetryWithData(op, backoff.WithContext(bo, ctx))
	if err != nil {
		return nil, err
	}

	if err := verifyDigest(path.Base(u.Path), body); err != nil {
		return nil, err
	}
	return body, nil
}

// verifyDigest checks the body against the sha1 hex embedded in the feed
// filename, when present.
func verifyDigest(name string, body []byte) error {
	m := digestNameRe.FindStringSubmatch(name)
	if m == nil {
		return nil
	}
	sum := sha1.Sum(body)
	if got := hex.EncodeToString(sum[:]); got != m[1] {
		return fmt.Errorf("digest mismatch for %s: got %s", name, got)
	}
	return nil
}

// LoadDatasetsFile decodes a local copy of the data feed. The filename's
// digest, if any, is verified the same way as for downloads.
func LoadDatasetsFile(ctx context.Context, filePath string) (map[string]*models.Dataset, error) {
	body, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read feed file: %w", err)
	}
	if err := verifyDigest(filepath.Base(filePath), body); err != nil {
		return nil, err
	}
	doc, err := decodeDocument(body)
	if err != nil {
		return nil, err
	}
	return buildDatasets(ctx, doc)
}

// LoadBoundariesFile decodes a local copy of the boundary feed.
func LoadBoundariesFile(filePath string) (Boundaries, error) {
	body, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read boundary file: %w", err)
	}
	if err := verifyDigest(filepath.Base(filePath), body); err != nil {
		return nil, err
	}
	return decodeBoundaries(body)
}
