package run

import (
	"encoding/json"
	"io"
	"time"

	"github.com/pajamadot/recall/pkg/model"
)

// Emitter writes progress events as JSON lines to the progress sink. It is
// observability only: write failures are swallowed, and a nil emitter is a
// valid no-op, because event loss must never affect run correctness.
type Emitter struct {
	w         io.Writer
	sessionID string
	now       func() time.Time
}

// NewEmitter creates an emitter for one run. A nil writer yields a no-op
// emitter.
func NewEmitter(w io.Writer, sessionID string) *Emitter {
	if w == nil {
		return nil
	}
	return &Emitter{w: w, sessionID: sessionID, now: time.Now}
}

// Emit writes one event line. Safe on a nil receiver.
func (e *Emitter) Emit(eventType string, data map[string]any) {
	if e == nil {
		return
	}

	line, err := json.Marshal(model.ProgressEvent{
		Time:      e.now(),
		Type:      eventType,
		SessionID: e.sessionID,
		Data:      data,
	})
	if err != nil {
		return
	}
	_, _ = e.w.Write(append(line, '\n'))
}
