// Package vision delivers camera detections to the workflow. The camera
// module emits newline-delimited reports over a USB serial link or UDP
// datagrams; both transports parse them and push complete events onto the
// controller's queue.
package vision

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/forgebots/station/protocol"
)

// Reader pumps a byte stream of newline-delimited detection lines into the
// event queue. It owns the stream and closes it when the context ends.
type Reader struct {
	src    io.ReadCloser
	events chan<- protocol.Event
	log    *slog.Logger
}

func NewReader(src io.ReadCloser, events chan<- protocol.Event, log *slog.Logger) *Reader {
	if log == nil {
		log = slog.Default()
	}
	return &Reader{src: src, events: events, log: log}
}

// Run reads until the stream ends or the context is cancelled. Unparseable
// lines are dropped by the line reader, so a noisy link only costs events,
// never a crash.
func (r *Reader) Run(ctx context.Context) error {
	// unblock the pending Read on cancellation
	go func() {
		<-ctx.Done()
		r.src.Close()
	}()

	var lr protocol.LineReader
	buf := make([]byte, 256)

	for {
		n, err := r.src.Read(buf)
		for _, ev := range lr.FeedAll(buf[:n]) {
			r.deliver(ev)
		}

		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

// deliver drops events instead of blocking when the queue is full; a stale
// detection is worse than a missed one
func (r *Reader) deliver(ev protocol.Event) {
	select {
	case r.events <- ev:
	default:
		r.log.Warn("event queue full, detection dropped")
	}
}
