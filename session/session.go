package session

import (
	"context"
	"fmt"

	"github.com/digital-lumenspei/renovi-web-sdk/config"
	"github.com/digital-lumenspei/renovi-web-sdk/errortypes"
	"github.com/digital-lumenspei/renovi-web-sdk/geolocation"
	"github.com/digital-lumenspei/renovi-web-sdk/impression"
	"github.com/digital-lumenspei/renovi-web-sdk/logger"
	"github.com/digital-lumenspei/renovi-web-sdk/metrics"
	metricsConf "github.com/digital-lumenspei/renovi-web-sdk/metrics/config"
	"github.com/digital-lumenspei/renovi-web-sdk/renovi"
	"github.com/gofrs/uuid"
)

// Context is the per-session identity attached to every impression. It is built once by
// Setup and never changes afterwards.
type Context struct {
	SessionID string
	DeviceID  string
	Country   string
	City      string
	GameID    string
}

// ReportTemplate returns a report carrying the session fields, ready for a panel name and url.
func (c *Context) ReportTemplate(dwell int, walletAddress string) impression.Report {
	return impression.Report{
		DeviceID:      c.DeviceID,
		SessionID:     c.SessionID,
		Dwell:         dwell,
		GameID:        c.GameID,
		City:          c.City,
		Country:       c.Country,
		WalletAddress: walletAddress,
	}
}

// Backend is the subset of the Renovi API used during setup.
type Backend interface {
	Login(ctx context.Context, deviceID string) (string, error)
	GetCampaigns(ctx context.Context, sessionID string) ([]renovi.Panel, error)
}

type Dependencies struct {
	Backend     Backend
	IPResolver  geolocation.IPResolver
	GeoLocation geolocation.GeoLocation
	Metrics     metrics.MetricsEngine
}

// Setup validates the configuration, registers the device and resolves everything an
// impression needs. Any error means tracking must not be started.
func Setup(ctx context.Context, cfg *config.Configuration, deps Dependencies) (*Context, []renovi.Panel, error) {
	if deps.Metrics == nil {
		deps.Metrics = &metricsConf.NilMetricsEngine{}
	}
	sess, panels, err := setup(ctx, cfg, deps)
	deps.Metrics.RecordSetup(err == nil)
	if err != nil {
		return nil, nil, err
	}
	return sess, panels, nil
}

func setup(ctx context.Context, cfg *config.Configuration, deps Dependencies) (*Context, []renovi.Panel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	deviceID, err := resolveDeviceID(cfg.DeviceID)
	if err != nil {
		return nil, nil, err
	}
	sess := &Context{
		DeviceID: deviceID,
		GameID:   cfg.GameID,
	}

	// a failed login leaves the session empty; reporting continues without it
	sess.SessionID, err = deps.Backend.Login(ctx, deviceID)
	if err != nil {
		logger.Errorf("login failed: %v", err)
	}
	if sess.SessionID == "" {
		warning := &errortypes.Warning{
			Message:     fmt.Sprintf("login for device %s returned no session id", deviceID),
			WarningCode: errortypes.EmptySessionWarningCode,
		}
		logger.Warnf("%v", warning)
	}

	panels, err := deps.Backend.GetCampaigns(ctx, sess.SessionID)
	if err != nil {
		return nil, nil, fmt.Errorf("fetching campaigns: %w", err)
	}

	ip, err := deps.IPResolver.GetIP(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("resolving ip: %w", err)
	}

	info, err := deps.GeoLocation.Lookup(ctx, ip)
	if err != nil {
		return nil, nil, fmt.Errorf("resolving location of %s: %w", ip, err)
	}
	sess.Country = info.Country
	sess.City = info.City

	logger.Infof("session %q ready for device %s in %s/%s with %d panels", sess.SessionID, deviceID, sess.Country, sess.City, len(panels))
	return sess, panels, nil
}

func resolveDeviceID(configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	id, err := uuid.NewV4()
	if err != nil {
		return "", fmt.Errorf("generating device id: %w", err)
	}
	return id.String(), nil
}
