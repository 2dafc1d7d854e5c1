package ai

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"
)

type fakeStream struct {
	ctx       context.Context
	fragments chan string
	current   string
	err       error
	closed    chan struct{}
}

func (s *fakeStream) Next() bool {
	select {
	case f, ok := <-s.fragments:
		if !ok {
			return false
		}
		s.current = f
		return true
	case <-s.ctx.Done():
		s.err = s.ctx.Err()
		return false
	}
}

func (s *fakeStream) Content() string { return s.current }
func (s *fakeStream) Err() error      { return s.err }
func (s *fakeStream) Close() error {
	close(s.closed)
	return nil
}

type fakeProvider struct {
	runOut    string
	runErr    error
	streamErr error
	fragments chan string
	stream    *fakeStream
	runCalls  int
}

func (p *fakeProvider) Run(ctx context.Context, req PredictionRequest) (string, error) {
	p.runCalls++
	return p.runOut, p.runErr
}

func (p *fakeProvider) Stream(ctx context.Context, req PredictionRequest) (ChatStream, error) {
	if p.streamErr != nil {
		return nil, p.streamErr
	}
	p.stream = &fakeStream{ctx: ctx, fragments: p.fragments, closed: make(chan struct{})}
	return p.stream, nil
}

func validRequest() PredictionRequest {
	return PredictionRequest{
		Model:             "owner/model:v1",
		Prompt:            "hello Assistant: ",
		Temperature:       0.1,
		TopP:              0.9,
		MaxLength:         512,
		RepetitionPenalty: 1,
	}
}

func collect(t *testing.T, ch <-chan StreamEvent) []StreamEvent {
	t.Helper()
	var events []StreamEvent
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return events
			}
			events = append(events, ev)
		case <-timeout:
			t.Fatal("timed out waiting for stream events")
		}
	}
}

func TestStartStream_DeliversFragments(t *testing.T) {
	defer goleak.VerifyNone(t)

	fragments := make(chan string, 3)
	fragments <- "Hello"
	fragments <- ""
	fragments <- " world"
	close(fragments)
	p := &fakeProvider{fragments: fragments}

	ch, cancel := StartStream(context.Background(), p, validRequest(), true)
	defer cancel()

	events := collect(t, ch)
	var sb strings.Builder
	for _, ev := range events[:len(events)-1] {
		sb.WriteString(ev.Delta)
	}
	if sb.String() != "Hello world" {
		t.Fatalf("expected 'Hello world', got %q", sb.String())
	}
	last := events[len(events)-1]
	if !last.Done || last.Err != nil {
		t.Fatalf("expected clean Done event, got %+v", last)
	}
	if len(events) != 3 {
		t.Fatalf("expected empty fragments to be skipped, got %d events", len(events))
	}
}

func TestStartStream_NonStreamingUsesRun(t *testing.T) {
	defer goleak.VerifyNone(t)

	p := &fakeProvider{runOut: "whole reply"}
	ch, cancel := StartStream(context.Background(), p, validRequest(), false)
	defer cancel()

	events := collect(t, ch)
	if len(events) != 2 {
		t.Fatalf("expected delta and done, got %+v", events)
	}
	if events[0].Delta != "whole reply" || !events[1].Done {
		t.Fatalf("unexpected events %+v", events)
	}
	if p.runCalls != 1 {
		t.Fatalf("expected one Run call, got %d", p.runCalls)
	}
}

func TestStartStream_ReportsErrors(t *testing.T) {
	defer goleak.VerifyNone(t)

	boom := errors.New("boom")
	for name, p := range map[string]*fakeProvider{
		"stream create": {streamErr: boom},
		"run":           {runErr: boom},
	} {
		t.Run(name, func(t *testing.T) {
			ch, cancel := StartStream(context.Background(), p, validRequest(), name == "stream create")
			defer cancel()

			events := collect(t, ch)
			if len(events) != 1 {
				t.Fatalf("expected a single event, got %+v", events)
			}
			if !errors.Is(events[0].Err, boom) || !events[0].Done {
				t.Fatalf("expected terminal boom error, got %+v", events[0])
			}
		})
	}
}

func TestStartStream_RejectsInvalidRequest(t *testing.T) {
	defer goleak.VerifyNone(t)

	p := &fakeProvider{runOut: "never"}
	req := validRequest()
	req.Temperature = 9

	ch, cancel := StartStream(context.Background(), p, req, false)
	defer cancel()

	events := collect(t, ch)
	if len(events) != 1 || !errors.Is(events[0].Err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %+v", events)
	}
	if p.runCalls != 0 {
		t.Fatal("expected provider not to be called")
	}
}

func TestStartStream_CancelStopsProducer(t *testing.T) {
	defer goleak.VerifyNone(t)

	fragments := make(chan string, 1)
	fragments <- "partial"
	p := &fakeProvider{fragments: fragments}

	ch, cancel := StartStream(context.Background(), p, validRequest(), true)

	select {
	case ev := <-ch:
		if ev.Delta != "partial" {
			t.Fatalf("expected first fragment, got %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for first fragment")
	}

	cancel()

	for range ch {
	}
	select {
	case <-p.stream.closed:
	case <-time.After(2 * time.Second):
		t.Fatal("expected underlying stream to be closed")
	}
}
