package ui

import (
	"errors"
	"log/slog"
	"time"

	"llama_chat/pkg/ai"
	"llama_chat/pkg/commands"
	"llama_chat/pkg/intake"

	tea "charm.land/bubbletea/v2"
)

// errStreamClosed reports a channel that closed without a final event, which
// happens when the request timeout fires.
var errStreamClosed = errors.New("inference stream closed before completion")

// inferenceEventMsg carries one event of inference seq. closed is set when
// the channel was closed without a final event.
type inferenceEventMsg struct {
	seq    int
	event  ai.StreamEvent
	closed bool
}

type streamThrottleFlushMsg struct{}

// listenInference reads the next event from ch.
func listenInference(seq int, ch <-chan ai.StreamEvent) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return inferenceEventMsg{seq: seq, closed: true}
		}
		return inferenceEventMsg{seq: seq, event: ev}
	}
}

func (m Model) startInference(effect intake.RunInference) (Model, tea.Cmd) {
	m.stopStream()

	ch, cancel, err := m.runner.Start(
		m.ctx,
		m.sidebar.Token(),
		m.sidebar.Preset(),
		m.sidebar.Sampling(),
		effect.Prompt,
	)
	if err != nil {
		next, _, dispatchErr := m.controller.Dispatch(m.session, intake.InferenceFailed{Seq: effect.Seq, Err: err})
		if dispatchErr == nil {
			m.session = next
		}
		m.statusBar.SetMessage("Inference failed: " + err.Error())
		return m, nil
	}

	m.stream = ch
	m.streamSeq = effect.Seq
	m.cancelStream = cancel
	m.streamThrottlePending = false
	return m, tea.Batch(listenInference(effect.Seq, ch), m.spinner.Tick)
}

// stopStream releases the inference in flight, if any. Events still queued
// for it are dropped by handleInferenceEvent.
func (m *Model) stopStream() {
	if m.cancelStream != nil {
		m.cancelStream()
	}
	m.stream = nil
	m.cancelStream = nil
	m.streamThrottlePending = false
}

func (m Model) cancelInference() (tea.Model, tea.Cmd) {
	if m.session.Pending == nil {
		return m, nil
	}
	seq := m.session.Pending.Seq
	slog.Info("inference_cancel", "seq", seq)
	m.stopStream()
	model, cmd := m.dispatch(intake.InferenceCanceled{Seq: seq})
	m = model.(Model)
	m.statusBar.SetMessage("Stopped")
	return m, cmd
}

func (m Model) handleInferenceEvent(msg inferenceEventMsg) (tea.Model, tea.Cmd) {
	if m.stream == nil || msg.seq != m.streamSeq {
		return m, nil
	}

	if msg.closed {
		m.stopStream()
		slog.Error("inference_error", "seq", msg.seq, "error", errStreamClosed)
		return m.dispatch(intake.InferenceFailed{Seq: msg.seq, Err: errStreamClosed})
	}

	ev := commands.ToEvent(msg.seq, msg.event)
	if delta, ok := ev.(intake.InferenceDelta); ok {
		next, _, err := m.controller.Dispatch(m.session, delta)
		if err == nil {
			m.session = next
		}
		cmds := []tea.Cmd{listenInference(msg.seq, m.stream)}
		if !m.streamThrottlePending {
			m.refresh()
			m.streamThrottlePending = true
			cmds = append(cmds, tea.Tick(m.streamThrottleDelay, func(time.Time) tea.Msg {
				return streamThrottleFlushMsg{}
			}))
		}
		return m, tea.Batch(cmds...)
	}

	m.stopStream()
	return m.dispatch(ev)
}
