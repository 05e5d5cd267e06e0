package webclient

import (
	"context"
	"errors"
)

var (
	ErrNilRequest           = errors.New("nil request")
	ErrMethodNotSupported   = errors.New("method not supported")
	ErrBackendNotRegistered = errors.New("webclient backend not registered")
)

// WebClient fetches pages on behalf of the page analyzer.
type WebClient interface {
	Do(ctx context.Context, req *Request) (*Response, error)

	// Get is a convenience wrapper for a plain GET.
	Get(ctx context.Context, url string) (*Response, error)

	Close() error
}
