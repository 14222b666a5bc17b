package httpclient

import "context"

// Response is the part of an HTTP response callers need: the raw body and status.
type Response interface {
	Body() []byte
	StatusCode() int
}

// Client abstracts outbound GET calls so the catalog client and tests can swap transports.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (Response, error)
}
