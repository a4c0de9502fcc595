package geolocation

import (
	"context"
	"errors"
	"time"

	"github.com/patrickmn/go-cache"
)

var (
	ErrDatabaseUnavailable = errors.New("geolocation database is not available")
	ErrLookupIPInvalid     = errors.New("invalid IP address to lookup")
)

type GeoInfo struct {
	// Name of the geo location data provider.
	Vendor string

	Continent  string
	Country    string
	Region     string
	RegionCode int
	City       string
	Zip        string
	Lat        float64
	Lon        float64
	TimeZone   string
}

type GeoLocation interface {
	Lookup(ctx context.Context, ip string) (*GeoInfo, error)
}

// IPResolver discovers the public address of the host the SDK runs on.
type IPResolver interface {
	GetIP(ctx context.Context) (string, error)
}

// CachedGeoLocation remembers successful lookups per IP for a fixed time.
type CachedGeoLocation struct {
	geoloc GeoLocation
	cache  *cache.Cache
	ttl    time.Duration
}

func NewCachedGeoLocation(geoloc GeoLocation, ttl, cleanupInterval time.Duration) *CachedGeoLocation {
	return &CachedGeoLocation{
		geoloc: geoloc,
		cache:  cache.New(ttl, cleanupInterval),
		ttl:    ttl,
	}
}

func (c *CachedGeoLocation) Lookup(ctx context.Context, ip string) (*GeoInfo, error) {
	if cached, ok := c.cache.Get(ip); ok {
		if info, ok := cached.(*GeoInfo); ok {
			return info, nil
		}
	}

	info, err := c.geoloc.Lookup(ctx, ip)
	if err != nil {
		return nil, err
	}
	c.cache.Set(ip, info, c.ttl)
	return info, nil
}
