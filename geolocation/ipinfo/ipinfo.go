package ipinfo

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/digital-lumenspei/renovi-web-sdk/errortypes"
	"github.com/digital-lumenspei/renovi-web-sdk/geolocation"
	"github.com/digital-lumenspei/renovi-web-sdk/metrics"
	"github.com/tidwall/gjson"
	"golang.org/x/net/context/ctxhttp"
)

const Vendor = "ipinfo"

const DefaultURL = "https://ipinfo.io"

// GeoLocation resolves the host address and its location through the ipinfo.io API.
type GeoLocation struct {
	httpClient *http.Client
	baseURL    string
	metrics    metrics.MetricsEngine
}

func New(httpClient *http.Client, baseURL string, me metrics.MetricsEngine) *GeoLocation {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	return &GeoLocation{
		httpClient: httpClient,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		metrics:    me,
	}
}

// GetIP returns the public IP address of the caller.
func (g *GeoLocation) GetIP(ctx context.Context) (string, error) {
	body, err := g.get(ctx, metrics.BackendIP, g.baseURL+"/ip")
	if err != nil {
		return "", err
	}
	ip := strings.TrimSpace(string(body))
	if net.ParseIP(ip) == nil {
		return "", &errortypes.BadServerResponse{Message: fmt.Sprintf("ipinfo returned %q which is not an IP address", ip), StatusCode: http.StatusOK}
	}
	return ip, nil
}

func (g *GeoLocation) Lookup(ctx context.Context, ip string) (*geolocation.GeoInfo, error) {
	if net.ParseIP(ip) == nil {
		return nil, geolocation.ErrLookupIPInvalid
	}

	body, err := g.get(ctx, metrics.BackendLocation, g.baseURL+"/"+ip+"/json")
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(body) {
		return nil, &errortypes.FailedToUnmarshal{Message: "ipinfo returned invalid json"}
	}

	result := gjson.GetManyBytes(body, "country", "city", "region", "postal", "timezone", "loc")
	info := &geolocation.GeoInfo{
		Vendor:   Vendor,
		Country:  result[0].String(),
		City:     result[1].String(),
		Region:   result[2].String(),
		Zip:      result[3].String(),
		TimeZone: result[4].String(),
	}
	info.Lat, info.Lon = parseLoc(result[5].String())
	return info, nil
}

// parseLoc reads the "lat,lon" pair ipinfo returns.
func parseLoc(loc string) (float64, float64) {
	lat, lon, ok := strings.Cut(loc, ",")
	if !ok {
		return 0, 0
	}
	latitude, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return 0, 0
	}
	longitude, err := strconv.ParseFloat(lon, 64)
	if err != nil {
		return 0, 0
	}
	return latitude, longitude
}

func (g *GeoLocation) get(ctx context.Context, call metrics.BackendCall, url string) ([]byte, error) {
	httpReq, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, &errortypes.FailedToRequest{Message: err.Error()}
	}
	httpReq.Header.Set("Accept", "application/json")

	startTime := time.Now()
	resp, err := ctxhttp.Do(ctx, g.httpClient, httpReq)
	elapsedTime := time.Since(startTime)
	if err != nil {
		g.metrics.RecordBackendRequest(call, false, elapsedTime)
		return nil, &errortypes.FailedToRequest{Message: fmt.Sprintf("ipinfo %s request failed: %v", call, err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		g.metrics.RecordBackendRequest(call, false, elapsedTime)
		return nil, &errortypes.FailedToRequest{Message: fmt.Sprintf("ipinfo %s response could not be read: %v", call, err)}
	}
	if resp.StatusCode != http.StatusOK {
		g.metrics.RecordBackendRequest(call, false, elapsedTime)
		return nil, &errortypes.BadServerResponse{
			Message:    fmt.Sprintf("ipinfo %s request returned %d", call, resp.StatusCode),
			StatusCode: resp.StatusCode,
		}
	}

	g.metrics.RecordBackendRequest(call, true, elapsedTime)
	return body, nil
}
