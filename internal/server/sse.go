package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jpalmerr/tcup/internal/feed"
)

// eventStream writes SSE frames to one client.
type eventStream struct {
	w          http.ResponseWriter
	rc         *http.ResponseController
	deadlines  bool
	noDeadline func(error)
}

// frame writes one SSE frame and flushes it. A stalled client fails the
// write once the deadline passes instead of blocking the handler.
func (es *eventStream) frame(format string, args ...any) error {
	if es.deadlines {
		if err := es.rc.SetWriteDeadline(time.Now().Add(sseWriteTimeout)); err != nil {
			es.deadlines = false
			es.noDeadline(err)
		}
	}
	if _, err := fmt.Fprintf(es.w, format, args...); err != nil {
		return err
	}
	return es.rc.Flush()
}

func (es *eventStream) sample(s feed.Sample) error {
	data, err := json.Marshal(s)
	if err != nil {
		// nothing in a Sample fails to encode; skip rather than drop the stream
		return nil
	}
	return es.frame("data: %s\n\n", data)
}

// handleSSE streams realtime samples: the current snapshot first, then every
// update until the client goes away or the feed closes.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	if _, ok := w.(http.Flusher); !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	es := &eventStream{
		w:         w,
		rc:        http.NewResponseController(w),
		deadlines: true,
		noDeadline: func(err error) {
			s.logger.Warn("sse write deadlines not supported", "error", err)
		},
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if err := es.frame("retry: 3000\n\n"); err != nil {
		return
	}

	updates := s.feed.Subscribe()
	defer s.feed.Unsubscribe(updates)

	for _, sample := range s.feed.GetAll() {
		if err := es.sample(sample); err != nil {
			return
		}
	}

	keepAlive := time.NewTicker(sseKeepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case sample, ok := <-updates:
			if !ok {
				return
			}
			if err := es.sample(sample); err != nil {
				return
			}
		case <-keepAlive.C:
			if err := es.frame(": ping\n\n"); err != nil {
				return
			}
		case <-r.Context().Done():
			return
		}
	}
}
