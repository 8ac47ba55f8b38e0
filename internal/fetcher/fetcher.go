package fetcher

import (
	"context"
	"io"
)

// Fetcher defines the interface for downloading remote data.
type Fetcher interface {
	// Download fetches the URL and returns the response body. Non-200
	// statuses are errors.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// Get fetches the URL with extra request headers and returns the
	// status code alongside the body. Non-2xx responses are returned
	// rather than turned into errors: the indicator source encodes
	// dimension rejections in the error body, and callers need to read
	// it.
	Get(ctx context.Context, url string, headers map[string]string) (int, io.ReadCloser, error)
}
