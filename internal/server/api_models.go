package server

import "github.com/raysh454/netshield/internal/assessor"

// CheckRequest asks for a URL score, optionally with signals the caller
// already observed on the page.
type CheckRequest struct {
	URL         string                `json:"url" example:"http://192.168.1.1/login"`
	PageSignals *assessor.PageSignals `json:"pageSignals,omitempty"`
}

// PageCheckRequest asks the server to fetch and analyse a page itself.
type PageCheckRequest struct {
	URL string `json:"url" example:"https://example.com/signin"`
}

// BatchCheckRequest asks for page checks of several URLs, e.g. the link
// targets found on the current page.
type BatchCheckRequest struct {
	URLs        []string `json:"urls" example:"[\"https://example.com/\"]"`
	Concurrency int      `json:"concurrency,omitempty" example:"4"`
}

// HealthResponse is returned by /healthz.
type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}

// ErrorResponse is a uniform error payload returned by the API.
type ErrorResponse struct {
	Error string `json:"error" example:"not found"`
}

// WebSocket message types, named after the browser extension's runtime
// messages.
const (
	MsgCheckPhishing  = "CHECK_PHISHING"
	MsgGetNetworkInfo = "GET_NETWORK_INFO"
	MsgGetPageInfo    = "GET_PAGE_INFO"
)

// WSRequest is one message received on /ws.
type WSRequest struct {
	ID          string                `json:"id"`
	Type        string                `json:"type"`
	URL         string                `json:"url,omitempty"`
	PageSignals *assessor.PageSignals `json:"pageSignals,omitempty"`
}

// WSResponse answers a WSRequest with the same id and type. Exactly one of
// Result and Error is set.
type WSResponse struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}
