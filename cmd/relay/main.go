package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"parley/internal/log"
	"parley/internal/relay"
)

func main() {
	listen := flag.String("listen", ":8080", "listen address")
	logFile := flag.String("log-file", "", "log file (default stderr)")
	logLevel := flag.String("log-level", "INFO", "log level (DEBUG, INFO, WARNING, ERROR)")
	flag.Parse()

	if err := run(*listen, *logFile, *logLevel); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(listen, logFile, logLevel string) error {
	backend, err := log.New(logFile, logLevel, false)
	if err != nil {
		return err
	}
	logger := backend.GetLogger("relay")

	mux := http.NewServeMux()
	mux.Handle("/ws/", relay.NewHub(backend.GetLogger("hub")))

	srv := &http.Server{
		Addr:        listen,
		Handler:     mux,
		ReadTimeout: 0, // websocket connections are long-lived
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	logger.Infof("relay listening on %s", listen)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}
