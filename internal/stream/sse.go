package stream

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/murmur-chat/murmur/internal/hub"
)

const keepAliveInterval = 15 * time.Second

// ServeSSE writes the receiver's events to the response as server-sent
// events until the client disconnects, the receiver is closed, or the
// receiver falls behind. A lagged receiver ends the stream so the client
// reconnects and resyncs instead of silently missing events.
func ServeSSE(w http.ResponseWriter, r *http.Request, logger *log.Logger, rcv *hub.Receiver) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case ev, open := <-rcv.Events():
			if !open {
				return
			}

			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Kind, ev.Payload); err != nil {
				return
			}
			flusher.Flush()

			if rcv.Lagged() {
				logger.Printf("ending lagged event stream for %s", r.RemoteAddr)
				return
			}
		}
	}
}
