// Package session orchestrates one live call: caller audio is transcribed
// incrementally, finalized utterances drive streamed model completions, and
// synthesized reply segments are played back in generation order with
// support for the caller interrupting mid-playback.
package session

import (
	"context"
	"fmt"
	"slices"

	"github.com/vancelk/switchboard/core/events"
	"github.com/vancelk/switchboard/core/llms"
	"github.com/vancelk/switchboard/core/speechtotext"
	"github.com/vancelk/switchboard/core/texttospeech"
	"github.com/vancelk/switchboard/core/tools"
)

// bargeNoiseThreshold filters out recognizer noise; interim text at or below
// this length never counts as an interruption.
const bargeNoiseThreshold = 5

const (
	SpeakerCustomer = "Customer"
	SpeakerAgent    = "Agent"
)

// TelephonyLeg is the bidirectional audio channel to the caller.
type TelephonyLeg interface {
	PlaybackSink
	// Clear abandons all audio queued on the leg but not yet played.
	Clear() error
}

// Transcriber is the speech recognition engine consuming caller audio.
type Transcriber interface {
	Transcribe(ctx context.Context, opts ...speechtotext.TranscriptionOption) error
	SendAudio(audio []byte) error
	StopStream() error
}

// Recorder starts call recording on the telephony provider.
type Recorder interface {
	StartRecording(ctx context.Context, callSID string) (string, error)
}

// Session wires one call's pipeline together and runs its event loop. All
// mutable session state is confined to that loop; producers post typed
// events onto the session channel.
type Session struct {
	leg          TelephonyLeg
	transcriber  Transcriber
	synthesizer  texttospeech.Synthesizer
	orchestrator *Orchestrator
	emitter      *AudioEmitter
	assembler    *TranscriptAssembler

	recorder         Recorder
	onTranscriptLine func(callSID, speaker, text string)
	onEvent          func(events.Event)

	eventCh chan events.Event

	streamSID        string
	callSID          string
	marks            []string
	interactionCount int
}

type SessionOption func(*Session)

// WithRecorder enables call recording: the recorder is started on call start
// and a spoken recording notice precedes the greeting.
func WithRecorder(recorder Recorder) SessionOption {
	return func(s *Session) {
		s.recorder = recorder
	}
}

// WithTranscriptLineCallback registers an observer for the call transcript,
// one line per finalized caller utterance or spoken agent segment.
func WithTranscriptLineCallback(callback func(callSID, speaker, text string)) SessionOption {
	return func(s *Session) {
		s.onTranscriptLine = callback
	}
}

// WithSessionEventCallback registers an observer for session lifecycle and
// tool-call events.
func WithSessionEventCallback(callback func(events.Event)) SessionOption {
	return func(s *Session) {
		s.onEvent = callback
	}
}

func NewSession(
	leg TelephonyLeg,
	transcriber Transcriber,
	synthesizer texttospeech.Synthesizer,
	client llms.StreamingClient,
	registry *tools.Registry,
	opts ...SessionOption,
) *Session {
	s := &Session{
		leg:         leg,
		transcriber: transcriber,
		synthesizer: synthesizer,
		eventCh:     make(chan events.Event, 64),
	}

	s.orchestrator = NewOrchestrator(client, registry,
		func(interaction int, index *int, text string) {
			s.post(events.NewAssistantReplySegment(interaction, index, text))
		},
		WithEventCallback(s.post),
	)
	s.emitter = NewAudioEmitter(leg, func(token string) {
		s.post(events.NewPlaybackAudioSent(token))
	})
	s.assembler = NewTranscriptAssembler(
		func(text string) { s.post(events.NewUserUtteranceInterim(text)) },
		func(text string) { s.post(events.NewUserTranscriptFinal(text)) },
	)

	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) post(event events.Event) {
	s.eventCh <- event
}

// OnStart implements telephony.StreamHandler.
func (s *Session) OnStart(streamSID, callSID string) {
	s.post(events.NewCallStarted(streamSID, callSID))
}

// OnMedia implements telephony.StreamHandler. Caller audio goes straight to
// the recognizer; it never touches session state.
func (s *Session) OnMedia(audio []byte) {
	if err := s.transcriber.SendAudio(audio); err != nil {
		logger.Warn("Failed to forward caller audio to recognizer", "error", err)
	}
}

// OnMark implements telephony.StreamHandler.
func (s *Session) OnMark(name string) {
	s.post(events.NewPlaybackMarkConfirmed(name))
}

// OnStop implements telephony.StreamHandler.
func (s *Session) OnStop() {
	s.post(events.NewCallEnded())
}

// Run opens the recognition stream and drives the session's event loop until
// the call ends or ctx is cancelled.
func (s *Session) Run(ctx context.Context) error {
	if err := s.transcriber.Transcribe(ctx,
		speechtotext.WithEventCallback(s.assembler.Consume),
	); err != nil {
		return fmt.Errorf("failed to start transcription: %w", err)
	}
	defer func() {
		if err := s.transcriber.StopStream(); err != nil {
			logger.Warn("Failed to stop recognition stream", "error", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-s.eventCh:
			if done := s.handle(ctx, event); done {
				return nil
			}
		}
	}
}

func (s *Session) handle(ctx context.Context, event events.Event) (done bool) {
	if s.onEvent != nil {
		s.onEvent(event)
	}

	switch event := event.(type) {
	case events.CallStarted:
		s.streamSID = event.StreamSID
		s.callSID = event.CallSID
		s.orchestrator.SetCallSID(event.CallSID)
		logger.InfoContext(ctx, "Media stream started",
			"streamSid", event.StreamSID, "callSid", event.CallSID)

		if s.recorder != nil {
			s.orchestrator.Announce(0, recordingNotice)
			go func() {
				if _, err := s.recorder.StartRecording(ctx, event.CallSID); err != nil {
					logger.Warn("Failed to start call recording", "error", err, "callSid", event.CallSID)
				}
			}()
		}
		s.orchestrator.Announce(0, s.orchestrator.Greeting())

	case events.UserUtteranceInterim:
		if len(s.marks) > 0 && len(event.Transcript) > bargeNoiseThreshold {
			logger.InfoContext(ctx, "Caller interruption, clearing playback", "callSid", s.callSID)
			if err := s.leg.Clear(); err != nil {
				logger.Warn("Failed to clear playback", "error", err)
			}
		}

	case events.UserTranscriptFinal:
		s.recordLine(SpeakerCustomer, event.Transcript)
		interaction := s.interactionCount
		s.interactionCount++
		go func() {
			if err := s.orchestrator.Complete(ctx, event.Transcript, interaction); err != nil {
				logger.Warn("Completion failed", "error", err, "interaction", interaction)
			}
		}()

	case events.AssistantReplySegment:
		s.recordLine(SpeakerAgent, event.Text)
		go s.speak(ctx, event.Index, event.Text)

	case events.PlaybackAudioSent:
		s.marks = append(s.marks, event.Token)

	case events.PlaybackMarkConfirmed:
		s.marks = slices.DeleteFunc(s.marks, func(mark string) bool {
			return mark == event.Token
		})

	case events.CallEnded:
		logger.InfoContext(ctx, "Media stream ended",
			"streamSid", s.streamSID, "callSid", s.callSID)
		return true
	}
	return false
}

func (s *Session) recordLine(speaker, text string) {
	if s.onTranscriptLine != nil {
		s.onTranscriptLine(s.callSID, speaker, text)
	}
}

func (s *Session) speak(ctx context.Context, index *int, text string) {
	audio, err := s.synthesizer.Synthesize(ctx, text)
	if err != nil {
		logger.Warn("Failed to synthesize reply segment", "error", err)
		return
	}
	s.emitter.Submit(index, audio)
}
