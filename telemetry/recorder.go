package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/forgebots/station"
)

const uploadTimeout = 5 * time.Second

// Recorder adapts controller hooks into telemetry uploads. Uploads run on
// their own goroutine with a bounded timeout so a slow or absent server
// never stalls the control loop.
type Recorder struct {
	client *Client
	log    *slog.Logger
}

func NewRecorder(client *Client, log *slog.Logger) *Recorder {
	if log == nil {
		log = slog.Default()
	}
	return &Recorder{client: client, log: log}
}

// StateChanged uploads each workflow state as a stage
func (r *Recorder) StateChanged(from, to station.State, now time.Time) {
	go r.upload(func(ctx context.Context) error {
		return r.client.AddStage(ctx, to.String(), now)
	})
}

// PlatePlaced uploads a placement as a point event
func (r *Recorder) PlatePlaced(plate int, cell station.Cell, now time.Time) {
	note := fmt.Sprintf("plate %d placed at row %d, col %d", plate+1, cell.Row, cell.Col)
	go r.upload(func(ctx context.Context) error {
		return r.client.AddEvent(ctx, note, now)
	})
}

func (r *Recorder) upload(fn func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), uploadTimeout)
	defer cancel()

	if err := fn(ctx); err != nil {
		r.log.Warn("telemetry upload failed", "err", err)
	}
}
