package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/digital-lumenspei/renovi-web-sdk/config"
	"github.com/digital-lumenspei/renovi-web-sdk/logger"
	metricsconfig "github.com/digital-lumenspei/renovi-web-sdk/metrics/config"
)

// Listen serves the host bridge, and the Prometheus endpoint when configured, until the
// process receives SIGINT or SIGTERM. onStop runs after every server has shut down.
func Listen(cfg *config.Configuration, handler http.Handler, metrics *metricsconfig.DetailedMetricsEngine, onStop func()) error {
	stopSignals := make(chan os.Signal, 1)
	signal.Notify(stopSignals, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(stopSignals)

	// Run the servers. Fan any process-stopper signals out to each server for graceful shutdowns.
	stopMain := make(chan os.Signal)
	stopPrometheus := make(chan os.Signal)
	done := make(chan struct{})

	mainServer := newMainServer(cfg, handler)
	mainListener, err := newListener(mainServer.Addr)
	if err != nil {
		return err
	}
	go shutdownAfterSignals(mainServer, stopMain, done)
	go runServer(mainServer, "Main", mainListener)

	if cfg.Metrics.Prometheus.Port != 0 {
		prometheusServer, err := newPrometheusServer(cfg, metrics)
		if err != nil {
			mainServer.Close()
			return err
		}
		prometheusListener, err := newListener(prometheusServer.Addr)
		if err != nil {
			mainServer.Close()
			return err
		}
		go shutdownAfterSignals(prometheusServer, stopPrometheus, done)
		go runServer(prometheusServer, "Prometheus", prometheusListener)

		wait(stopSignals, done, stopMain, stopPrometheus)
	} else {
		wait(stopSignals, done, stopMain)
	}

	if onStop != nil {
		onStop()
	}
	return nil
}

func newMainServer(cfg *config.Configuration, handler http.Handler) *http.Server {
	var serverHandler = handler
	if cfg.EnableGzip {
		serverHandler = gziphandler.GzipHandler(handler)
	}

	return &http.Server{
		Addr:         cfg.Host + ":" + strconv.Itoa(cfg.Port),
		Handler:      serverHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
}

func runServer(server *http.Server, name string, listener net.Listener) {
	logger.Infof("%s server starting on: %s", name, server.Addr)
	err := server.Serve(listener)
	if err != http.ErrServerClosed {
		logger.Errorf("%s server quit with error: %v", name, err)
	}
}

func newListener(address string) (net.Listener, error) {
	ln, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("error listening for TCP connections on %s: %v", address, err)
	}

	if casted, ok := ln.(*net.TCPListener); ok {
		ln = &tcpKeepAliveListener{casted}
	} else {
		logger.Warnf("net.Listen(\"tcp\", %q) didn't return a TCPListener; connections will not use keep-alive", address)
	}
	return ln, nil
}

func wait(inbound <-chan os.Signal, done <-chan struct{}, outbound ...chan<- os.Signal) {
	sig := <-inbound

	for i := 0; i < len(outbound); i++ {
		go sendSignal(outbound[i], sig)
	}

	for i := 0; i < len(outbound); i++ {
		<-done
	}
}

func shutdownAfterSignals(server *http.Server, stopper <-chan os.Signal, done chan<- struct{}) {
	sig := <-stopper

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var s struct{}
	logger.Infof("Stopping %s because of signal: %s", server.Addr, sig.String())
	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("Failed to shutdown %s: %v", server.Addr, err)
	}
	done <- s
}

func sendSignal(to chan<- os.Signal, sig os.Signal) {
	to <- sig
}
