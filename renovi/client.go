package renovi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/buger/jsonparser"
	"github.com/digital-lumenspei/renovi-web-sdk/config"
	"github.com/digital-lumenspei/renovi-web-sdk/errortypes"
	"github.com/digital-lumenspei/renovi-web-sdk/impression"
	"github.com/digital-lumenspei/renovi-web-sdk/logger"
	"github.com/digital-lumenspei/renovi-web-sdk/metrics"
	"golang.org/x/net/context/ctxhttp"
)

const (
	loginPath      = "/v1/active-players/create"
	campaignsPath  = "/v1/engine/prebid-ads"
	impressionPath = "/v1/impressions/create-programmatic"

	// loginCountry is sent on login; the real location is only known after the IP lookup.
	loginCountry = "OTHER"
	// panelSeparator joins panel names in the campaigns query.
	panelSeparator = "~"
)

// Client talks to the Renovi backend. Every call is made once; failures are returned to the caller.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	email      string
	gameID     string
	panelNames []string
	timeout    time.Duration
	metrics    metrics.MetricsEngine
}

func NewClient(httpClient *http.Client, cfg *config.Configuration, me metrics.MetricsEngine) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    cfg.BaseURL(),
		apiKey:     cfg.APIKey,
		email:      cfg.Email,
		gameID:     cfg.GameID,
		panelNames: cfg.PanelNames,
		timeout:    cfg.Backend.Timeout(),
		metrics:    me,
	}
}

type loginRequest struct {
	DeviceID string `json:"deviceId"`
	GameID   string `json:"gameId"`
	Country  string `json:"country"`
}

// Login registers the device as an active player and returns the session id. The backend
// may answer with an empty session id; that is not treated as an error here.
func (c *Client) Login(ctx context.Context, deviceID string) (string, error) {
	body, err := json.Marshal(loginRequest{
		DeviceID: deviceID,
		GameID:   c.gameID,
		Country:  loginCountry,
	})
	if err != nil {
		return "", &errortypes.FailedToMarshal{Message: err.Error()}
	}

	respBody, err := c.do(ctx, metrics.BackendLogin, http.MethodPost, c.baseURL+loginPath, body)
	if err != nil {
		return "", err
	}

	sessionID, err := jsonparser.GetString(respBody, "data")
	if err != nil && !errors.Is(err, jsonparser.KeyPathNotFoundError) {
		return "", &errortypes.FailedToUnmarshal{Message: fmt.Sprintf("login response: %v", err)}
	}
	return sessionID, nil
}

// GetCampaigns returns the programmatic campaigns for the configured panels.
func (c *Client) GetCampaigns(ctx context.Context, sessionID string) ([]Panel, error) {
	respBody, err := c.do(ctx, metrics.BackendCampaigns, http.MethodGet, c.campaignsURL(sessionID), nil)
	if err != nil {
		return nil, err
	}

	data, dataType, _, err := jsonparser.Get(respBody, "data")
	if err != nil {
		return nil, &errortypes.FailedToUnmarshal{Message: fmt.Sprintf("campaigns response has no data: %v", err)}
	}
	if dataType == jsonparser.Null {
		return nil, nil
	}

	var panels []Panel
	if err := json.Unmarshal(data, &panels); err != nil {
		return nil, &errortypes.FailedToUnmarshal{Message: fmt.Sprintf("campaigns response: %v", err)}
	}
	return panels, nil
}

func (c *Client) campaignsURL(sessionID string) string {
	// panel names are joined raw; the separator must survive unescaped
	query := "gameId=" + url.QueryEscape(c.gameID) + "&sessionId=" + url.QueryEscape(sessionID)
	if len(c.panelNames) > 0 {
		escaped := make([]string, 0, len(c.panelNames))
		for _, name := range c.panelNames {
			escaped = append(escaped, url.QueryEscape(name))
		}
		query += "&panels=" + strings.Join(escaped, panelSeparator)
	}
	return c.baseURL + campaignsPath + "?" + query
}

// CreateImpression reports one programmatic impression.
func (c *Client) CreateImpression(ctx context.Context, report impression.Report) error {
	body, err := json.Marshal(report)
	if err != nil {
		return &errortypes.FailedToMarshal{Message: err.Error()}
	}
	_, err = c.do(ctx, metrics.BackendImpression, http.MethodPost, c.baseURL+impressionPath, body)
	return err
}

func (c *Client) do(ctx context.Context, call metrics.BackendCall, method, endpoint string, body []byte) ([]byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var reqBody io.Reader
	if body != nil {
		reqBody = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequest(method, endpoint, reqBody)
	if err != nil {
		return nil, &errortypes.FailedToRequest{Message: fmt.Sprintf("%s request: %v", call, err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Key", c.apiKey)
	httpReq.Header.Set("Email", c.email)

	startTime := time.Now()
	resp, err := ctxhttp.Do(ctx, c.httpClient, httpReq)
	elapsedTime := time.Since(startTime)
	if err != nil {
		c.metrics.RecordBackendRequest(call, false, elapsedTime)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &errortypes.Timeout{Message: fmt.Sprintf("%s request timed out after %v", call, elapsedTime)}
		}
		return nil, &errortypes.FailedToRequest{Message: fmt.Sprintf("%s request failed: %v", call, err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.RecordBackendRequest(call, false, elapsedTime)
		return nil, &errortypes.FailedToRequest{Message: fmt.Sprintf("%s response could not be read: %v", call, err)}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		c.metrics.RecordBackendRequest(call, false, elapsedTime)
		logger.Debugf("%s call to %s returned %d: %s", call, endpoint, resp.StatusCode, respBody)
		return nil, &errortypes.BadServerResponse{
			Message:    fmt.Sprintf("%s call returned unexpected status %d", call, resp.StatusCode),
			StatusCode: resp.StatusCode,
		}
	}

	c.metrics.RecordBackendRequest(call, true, elapsedTime)
	return respBody, nil
}
