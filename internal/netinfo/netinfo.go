// Package netinfo reports the public network identity of the machine running
// NetShield (IP, ISP, location) using public lookup providers.
package netinfo

import (
	"context"
	"errors"
)

// Unknown replaces any field a provider left empty.
const Unknown = "Unknown"

var (
	ErrNoProvider    = errors.New("netinfo: no provider configured")
	ErrLookupFailed  = errors.New("netinfo: all providers failed")
	ErrProviderError = errors.New("netinfo: provider reported failure")
)

// Info is the public network identity as seen by a lookup provider.
type Info struct {
	IP       string `json:"ip"`
	ISP      string `json:"isp"`
	Country  string `json:"country"`
	Region   string `json:"region"`
	City     string `json:"city"`
	Timezone string `json:"timezone"`

	// Source names the provider that answered.
	Source string `json:"source"`
}

func (i *Info) fillUnknown() {
	for _, f := range []*string{&i.IP, &i.ISP, &i.Country, &i.Region, &i.City, &i.Timezone} {
		if *f == "" {
			*f = Unknown
		}
	}
}

// Provider resolves the caller's public network identity.
type Provider interface {
	Name() string
	Lookup(ctx context.Context) (*Info, error)
}

// firstNonEmpty returns the first non-empty string.
func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
