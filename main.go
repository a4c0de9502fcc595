package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"time"

	"github.com/digital-lumenspei/renovi-web-sdk/config"
	"github.com/digital-lumenspei/renovi-web-sdk/dom"
	"github.com/digital-lumenspei/renovi-web-sdk/geolocation"
	"github.com/digital-lumenspei/renovi-web-sdk/geolocation/ipinfo"
	"github.com/digital-lumenspei/renovi-web-sdk/geolocation/maxmind"
	"github.com/digital-lumenspei/renovi-web-sdk/impression"
	metricsconfig "github.com/digital-lumenspei/renovi-web-sdk/metrics/config"
	"github.com/digital-lumenspei/renovi-web-sdk/render"
	"github.com/digital-lumenspei/renovi-web-sdk/renovi"
	"github.com/digital-lumenspei/renovi-web-sdk/router"
	"github.com/digital-lumenspei/renovi-web-sdk/server"
	"github.com/digital-lumenspei/renovi-web-sdk/session"
	"github.com/digital-lumenspei/renovi-web-sdk/viewability"

	"github.com/golang/glog"
	"github.com/spf13/viper"
)

// Rev holds binary revision string
// Set manually at build time using:
//
//	go build -ldflags "-X main.Rev=`git rev-parse --short HEAD`"
var Rev string

// Version is set at build time alongside Rev.
var Version string

func main() {
	flag.Parse() // required for glog flags and testing package flags

	cfg, err := loadConfig()
	if err != nil {
		glog.Exitf("Configuration could not be loaded or did not pass validation: %v", err)
	}

	err = serve(cfg)
	if err != nil {
		glog.Exitf("renovi sdk failed: %v", err)
	}
}

const configFileName = "renovi"

func loadConfig() (*config.Configuration, error) {
	v := viper.New()
	config.SetupViper(v, configFileName)
	return config.New(v)
}

func serve(cfg *config.Configuration) error {
	ctx := context.Background()
	metricsEngine := metricsconfig.NewMetricsEngine(cfg)
	httpClient := &http.Client{}

	backend := renovi.NewClient(httpClient, cfg, metricsEngine)
	ipResolver := ipinfo.New(httpClient, cfg.Geolocation.IPInfoURL, metricsEngine)
	geoloc, err := newGeoLocation(cfg.Geolocation, ipResolver)
	if err != nil {
		return err
	}

	sess, panels, err := session.Setup(ctx, cfg, session.Dependencies{
		Backend:     backend,
		IPResolver:  ipResolver,
		GeoLocation: geoloc,
		Metrics:     metricsEngine,
	})
	if err != nil {
		return fmt.Errorf("setup failed, tracking is disabled: %w", err)
	}

	doc, err := newDocument(panels, cfg.Tracking.Markers)
	if err != nil {
		return err
	}

	dispatcher := impression.NewDispatcher(backend, sess.ReportTemplate(cfg.Tracking.Dwell, cfg.WalletAddress))
	tracker := viewability.NewTracker(doc, dispatcher, viewability.Options{
		Tracking: cfg.Tracking,
		Dispatch: cfg.Dispatch,
		Metrics:  metricsEngine,
	})
	if err := tracker.Start(ctx); err != nil {
		return err
	}

	r := router.New(router.Options{
		Tracker:        tracker,
		Body:           doc.Body(),
		StatusResponse: "ok",
		Version:        Version,
		Revision:       Rev,
	})
	return server.Listen(cfg, router.SupportCORS(r), metricsEngine, tracker.Shutdown)
}

// newGeoLocation picks the configured vendor and puts a cache in front of it.
func newGeoLocation(cfg config.Geolocation, ipResolver *ipinfo.GeoLocation) (geolocation.GeoLocation, error) {
	var geoloc geolocation.GeoLocation
	switch cfg.Vendor {
	case config.GeoVendorMaxMind:
		offline := &maxmind.GeoLocation{}
		if err := offline.SetDataPath(cfg.MaxMindPath); err != nil {
			return nil, fmt.Errorf("loading maxmind database %s: %w", cfg.MaxMindPath, err)
		}
		geoloc = offline
	default:
		geoloc = ipResolver
	}

	if cfg.CacheTTLSeconds == 0 {
		return geoloc, nil
	}
	return geolocation.NewCachedGeoLocation(geoloc,
		time.Duration(cfg.CacheTTLSeconds)*time.Second,
		time.Duration(cfg.CacheCleanupSeconds)*time.Second), nil
}

// newDocument renders every campaign panel into a fresh page. Tracking picks them up when it starts.
func newDocument(panels []renovi.Panel, markers config.Markers) (*dom.Document, error) {
	doc := dom.NewDocument()
	for _, panel := range panels {
		fragment, err := render.Panel(panel, markers)
		if err != nil {
			return nil, err
		}
		if fragment == "" {
			glog.Warningf("panel %q has no campaigns", panel.PanelName)
			continue
		}
		if _, err := doc.AppendHTML(doc.Body(), fragment); err != nil {
			return nil, err
		}
	}
	return doc, nil
}
