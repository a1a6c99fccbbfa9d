package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/tcup"
	"github.com/jpalmerr/tcup/example/opsmock"
	"github.com/jpalmerr/tcup/internal/session"
)

func main() {
	// start the fake ops backend the probes and the proxy read from
	go func() {
		if err := http.ListenAndServe(":5000", opsmock.New().Handler()); err != nil {
			slog.Error("mock backend error", "error", err)
		}
	}()
	time.Sleep(100 * time.Millisecond)

	// probe names match the seeded monitor configs, so their thresholds apply
	cpu, err := tcup.NewProbe("CPU高负载阈值", "/api/status",
		tcup.WithExtractor(tcup.JSONAverageExtractor("cpu_data.cpu_percent")),
	)
	if err != nil {
		slog.Error("failed to create probe", "error", err)
		os.Exit(1)
	}
	memory, _ := tcup.NewProbe("内存使用率告警", "/api/status",
		tcup.WithValuePath("memory_data.basic_info.percent"),
	)
	disk, _ := tcup.NewProbe("disk", "/api/status",
		tcup.WithValuePath("disk_data.disk_usage.percent"),
		tcup.WithInterval(30*time.Second),
	)

	hash, err := session.HashPassword("admin")
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		os.Exit(1)
	}

	board, err := tcup.New(
		tcup.WithProbes(cpu, memory, disk),
		tcup.WithPollingInterval(5*time.Second),
		tcup.WithPort(8080),
		tcup.WithBackend("http://localhost:5000"),
		tcup.WithUser("admin", hash),
	)
	if err != nil {
		slog.Error("failed to create board", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  ╔═══════════════════════════════════════════════════════╗")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   tcup Demo                                           ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Open http://localhost:8080 in your browser          ║")
	fmt.Println("  ║   Login: admin / admin                                ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Probes: CPU, memory (seeded thresholds), disk       ║")
	fmt.Println("  ║   Mock ops backend on :5000                           ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Press Ctrl+C to stop                                ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ╚═══════════════════════════════════════════════════════╝")
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := board.Start(ctx); err != nil {
		slog.Error("tcup error", "error", err)
		os.Exit(1)
	}
}
