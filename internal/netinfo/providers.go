package netinfo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/raysh454/netshield/internal/webclient"
)

const (
	IPWhoIsEndpoint = "https://ipwho.is/"
	IPAPICoEndpoint = "https://ipapi.co/json/"
)

// IPWhoIs queries ipwho.is.
type IPWhoIs struct {
	Client   webclient.WebClient
	Endpoint string
}

type ipWhoIsResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	IP         string `json:"ip"`
	Country    string `json:"country"`
	Region     string `json:"region"`
	City       string `json:"city"`
	Connection struct {
		ISP string `json:"isp"`
		Org string `json:"org"`
	} `json:"connection"`
	Timezone struct {
		ID string `json:"id"`
	} `json:"timezone"`
}

func (p *IPWhoIs) Name() string { return "ipwho.is" }

func (p *IPWhoIs) Lookup(ctx context.Context) (*Info, error) {
	var body ipWhoIsResponse
	if err := getJSON(ctx, p.Client, endpointOr(p.Endpoint, IPWhoIsEndpoint), &body); err != nil {
		return nil, fmt.Errorf("%s: %w", p.Name(), err)
	}
	if !body.Success {
		msg := firstNonEmpty(body.Message, "API returned failure")
		return nil, fmt.Errorf("%s: %w: %s", p.Name(), ErrProviderError, msg)
	}

	info := &Info{
		IP:       body.IP,
		ISP:      firstNonEmpty(body.Connection.ISP, body.Connection.Org),
		Country:  body.Country,
		Region:   body.Region,
		City:     body.City,
		Timezone: body.Timezone.ID,
		Source:   p.Name(),
	}
	info.fillUnknown()
	return info, nil
}

// IPAPICo queries ipapi.co.
type IPAPICo struct {
	Client   webclient.WebClient
	Endpoint string
}

type ipAPICoResponse struct {
	Error       bool   `json:"error"`
	Reason      string `json:"reason"`
	IP          string `json:"ip"`
	Org         string `json:"org"`
	CountryName string `json:"country_name"`
	Region      string `json:"region"`
	City        string `json:"city"`
	Timezone    string `json:"timezone"`
	ASN         any    `json:"asn"`
}

func (p *IPAPICo) Name() string { return "ipapi.co" }

func (p *IPAPICo) Lookup(ctx context.Context) (*Info, error) {
	var body ipAPICoResponse
	if err := getJSON(ctx, p.Client, endpointOr(p.Endpoint, IPAPICoEndpoint), &body); err != nil {
		return nil, fmt.Errorf("%s: %w", p.Name(), err)
	}
	if body.Error {
		msg := firstNonEmpty(body.Reason, "API returned error")
		return nil, fmt.Errorf("%s: %w: %s", p.Name(), ErrProviderError, msg)
	}

	info := &Info{
		IP:       body.IP,
		ISP:      firstNonEmpty(body.Org, asnOrg(body.ASN)),
		Country:  body.CountryName,
		Region:   body.Region,
		City:     body.City,
		Timezone: body.Timezone,
		Source:   p.Name(),
	}
	info.fillUnknown()
	return info, nil
}

// asnOrg reads asn.org when the provider sends asn as an object; ipapi.co
// usually sends a plain "AS1234" string instead.
func asnOrg(v any) string {
	m, ok := v.(map[string]any)
	if !ok {
		return ""
	}
	s, _ := m["org"].(string)
	return s
}

func endpointOr(endpoint, def string) string {
	if endpoint != "" {
		return endpoint
	}
	return def
}

func getJSON(ctx context.Context, client webclient.WebClient, url string, out any) error {
	if client == nil {
		return fmt.Errorf("nil web client")
	}
	resp, err := client.Do(ctx, &webclient.Request{
		Method:  http.MethodGet,
		URL:     url,
		Headers: http.Header{"Accept": []string{"application/json"}, "Cache-Control": []string{"no-store"}},
	})
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
