// Standalone mock ops backend for testing the CLI.
//
// Usage:
//
//	go run ./example/cmd/mockserver
//
// Then in another terminal:
//
//	go run ./cmd/tcup serve -c example/config.yaml
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/jpalmerr/tcup/example/opsmock"
)

func main() {
	addr := flag.String("addr", ":5000", "listen address")
	latency := flag.Duration("latency", 0, "delay added to every response")
	flag.Parse()

	fmt.Printf("Mock ops backend starting on %s\n", *addr)
	fmt.Println("GET /api/status drifts every request; /api/private always answers 401")
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	backend := opsmock.New(opsmock.WithLatency(*latency))
	srv := &http.Server{
		Addr:              *addr,
		Handler:           backend.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
