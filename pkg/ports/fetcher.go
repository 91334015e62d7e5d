package ports

import "context"

// Fetcher performs outbound GET requests against image endpoints.
type Fetcher interface {
	// Get downloads the body of url. Non-2xx responses are errors.
	Get(ctx context.Context, url string) ([]byte, error)
}
