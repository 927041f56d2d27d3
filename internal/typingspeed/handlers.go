package typingspeed

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-http-utils/headers"
	"go.uber.org/zap"
)

const maxBatchBytes = 1 << 20

type eventBatch struct {
	// Unix milliseconds, in the order the keys were pressed.
	Timestamps []int64 `json:"timestamps"`
}

// handleEvents records keystrokes. An empty body is one keystroke at server
// time; a JSON batch replays the given timestamps in order.
func (t *TypingSpeed) handleEvents(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBatchBytes))
	if err != nil {
		http.Error(w, "cannot read request body", http.StatusBadRequest)

		return
	}

	if len(bytes.TrimSpace(body)) == 0 {
		t.hub.Publish(t.clock())
		t.writeReading(w)

		return
	}

	var batch eventBatch
	if err := json.Unmarshal(body, &batch); err != nil {
		zap.L().Debug("invalid event batch", zap.Error(err))
		http.Error(w, "invalid JSON event batch", http.StatusBadRequest)

		return
	}

	for _, ts := range batch.Timestamps {
		t.hub.Publish(time.UnixMilli(ts))
	}

	t.writeReading(w)
}

func (t *TypingSpeed) handleSpeed(w http.ResponseWriter, _ *http.Request) {
	t.writeReading(w)
}

func (t *TypingSpeed) writeReading(w http.ResponseWriter) {
	w.Header().Set(headers.ContentType, "application/json")

	if err := json.NewEncoder(w).Encode(t.session.Current()); err != nil {
		zap.L().Error("cannot encode reading", zap.Error(err))
	}
}

func healthzHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set(headers.ContentType, "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"healthy":   true,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
