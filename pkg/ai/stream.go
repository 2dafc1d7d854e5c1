package ai

import (
	"context"
	"log/slog"
)

// StreamEvent is one item of an inference result delivered to the UI loop.
type StreamEvent struct {
	Delta string
	Done  bool
	Err   error
}

// StartStream runs req against provider in a background goroutine and returns
// the event channel plus a cancel function. The channel is closed after the
// final event (Done or Err) or after cancellation. When streaming is false the
// provider's Run result is delivered as a single delta.
//
// Cancelling stops the producer and closes the underlying stream; no further
// events are guaranteed after cancel returns.
func StartStream(ctx context.Context, provider Provider, req PredictionRequest, streaming bool) (<-chan StreamEvent, context.CancelFunc) {
	streamCtx, cancel := context.WithCancel(ctx)
	ch := make(chan StreamEvent, 8)

	go func() {
		defer close(ch)
		defer cancel()

		if err := req.Validate(); err != nil {
			send(streamCtx, ch, StreamEvent{Err: err, Done: true})
			return
		}

		if !streaming {
			out, err := provider.Run(streamCtx, req)
			if err != nil {
				send(streamCtx, ch, StreamEvent{Err: err, Done: true})
				return
			}
			if out != "" && !send(streamCtx, ch, StreamEvent{Delta: out}) {
				return
			}
			send(streamCtx, ch, StreamEvent{Done: true})
			return
		}

		stream, err := provider.Stream(streamCtx, req)
		if err != nil {
			slog.Error("inference_stream_create_error", "error", err)
			send(streamCtx, ch, StreamEvent{Err: err, Done: true})
			return
		}
		defer stream.Close()

		for stream.Next() {
			delta := stream.Content()
			if delta == "" {
				continue
			}
			if !send(streamCtx, ch, StreamEvent{Delta: delta}) {
				return
			}
		}

		if err := stream.Err(); err != nil {
			if streamCtx.Err() != nil {
				return
			}
			slog.Error("inference_stream_error", "error", err)
			send(streamCtx, ch, StreamEvent{Err: err, Done: true})
			return
		}

		send(streamCtx, ch, StreamEvent{Done: true})
	}()

	return ch, cancel
}

// send delivers ev unless ctx is cancelled first.
func send(ctx context.Context, ch chan<- StreamEvent, ev StreamEvent) bool {
	select {
	case ch <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
