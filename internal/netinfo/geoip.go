package netinfo

import (
	"errors"
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"
)

var ErrInvalidIP = errors.New("netinfo: invalid ip address")

// Location is what the offline GeoLite2 databases know about an address.
type Location struct {
	IP       string `json:"ip"`
	Country  string `json:"country"`
	Region   string `json:"region"`
	City     string `json:"city"`
	Timezone string `json:"timezone"`
	ASN      uint   `json:"asn,omitempty"`
	ASNOrg   string `json:"asnOrg,omitempty"`
}

// GeoIPLocator looks up arbitrary addresses in GeoLite2 City and ASN
// databases. Either database may be absent.
type GeoIPLocator struct {
	cityReader *geoip2.Reader
	asnReader  *geoip2.Reader
}

// NewGeoIPLocator opens the given .mmdb files. Empty paths are skipped; when
// both are empty the locator is nil and Locate reports nothing.
func NewGeoIPLocator(cityDBPath, asnDBPath string) (*GeoIPLocator, error) {
	if cityDBPath == "" && asnDBPath == "" {
		return nil, nil
	}
	l := &GeoIPLocator{}
	if cityDBPath != "" {
		r, err := geoip2.Open(cityDBPath)
		if err != nil {
			return nil, fmt.Errorf("open city database: %w", err)
		}
		l.cityReader = r
	}
	if asnDBPath != "" {
		r, err := geoip2.Open(asnDBPath)
		if err != nil {
			l.Close()
			return nil, fmt.Errorf("open asn database: %w", err)
		}
		l.asnReader = r
	}
	return l, nil
}

// Locate returns what the databases know about ipAddress. A nil locator
// returns (nil, nil).
func (l *GeoIPLocator) Locate(ipAddress string) (*Location, error) {
	if l == nil {
		return nil, nil
	}
	ip := net.ParseIP(ipAddress)
	if ip == nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidIP, ipAddress)
	}

	loc := &Location{IP: ipAddress}
	if l.cityReader != nil {
		rec, err := l.cityReader.City(ip)
		if err != nil {
			return nil, fmt.Errorf("city lookup: %w", err)
		}
		loc.Country = rec.Country.Names["en"]
		loc.City = rec.City.Names["en"]
		if len(rec.Subdivisions) > 0 {
			loc.Region = rec.Subdivisions[0].Names["en"]
		}
		loc.Timezone = rec.Location.TimeZone
	}
	if l.asnReader != nil {
		rec, err := l.asnReader.ASN(ip)
		if err != nil {
			return nil, fmt.Errorf("asn lookup: %w", err)
		}
		loc.ASN = rec.AutonomousSystemNumber
		loc.ASNOrg = rec.AutonomousSystemOrganization
	}

	for _, f := range []*string{&loc.Country, &loc.Region, &loc.City, &loc.Timezone} {
		if *f == "" {
			*f = Unknown
		}
	}
	return loc, nil
}

// Close releases the database readers.
func (l *GeoIPLocator) Close() {
	if l == nil {
		return
	}
	if l.cityReader != nil {
		_ = l.cityReader.Close()
	}
	if l.asnReader != nil {
		_ = l.asnReader.Close()
	}
}
