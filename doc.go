// Package tcup provides an embeddable operations dashboard with guarded
// navigation, a persisted monitor-config store and a realtime metric feed.
//
// tcup is SDK-first: a [Board] is configured with functional options and
// started with a context that controls its lifetime.
//
// # Quick Start
//
//	cpu, _ := tcup.NewProbe("CPU高负载阈值", "/api/status",
//	    tcup.WithExtractor(tcup.JSONAverageExtractor("cpu_data.cpu_percent")),
//	)
//	board, _ := tcup.New(
//	    tcup.WithProbe(cpu),
//	    tcup.WithUser("admin", hash),
//	    tcup.WithStorage("file", "tcup-data.json"),
//	)
//
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	board.Start(ctx) // blocks until context is cancelled
//
// # Navigation
//
// Every page request is a navigation. Before any access check runs, the
// requests still in flight for that browser are cancelled. A browser without
// the login flag is redirected to /login?redirect=<path>, except on public
// pages such as /overview/configs. A logged-in browser visiting /login is sent
// to the landing page (default /realtime).
//
// # Probes
//
// A [Probe] polls a path on the ops backend, reads a number from the response
// with a [ValueExtractor] and compares it with the threshold of the monitor
// config of the same name. A reading at or above the threshold is a breach.
//
// Built-in extractors:
//
//   - [JSONValueExtractor]: reads a number, or a numeric string such as "30%", at a gjson path
//   - [JSONAverageExtractor]: averages a numeric JSON array
//   - [RegexValueExtractor]: parses the first capture group of a pattern
//   - [FirstValue]: tries extractors in order
//   - [DefaultValueExtractor]: reads "value", then "percent"
//
// # Architecture
//
//   - internal/router: route table, guards and navigator
//   - internal/pending: per-client pending-request registries
//   - internal/configstore: monitor configs persisted as one JSON blob
//   - internal/slot: durable key-value slots (memory, file, postgres, sql)
//   - internal/session: login flags and credential checks
//   - internal/request: backend HTTP client
//   - internal/poller: probe scheduler with a worker pool
//   - internal/feed: latest samples with pub/sub for SSE
//   - internal/server: dashboard HTTP server
//   - internal/chat: chat proxy server
//   - dashboard, widget: embedded web assets
package tcup
