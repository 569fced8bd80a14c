package httpserver

import (
	"context"
	"log"

	"github.com/labstack/echo/v4"

	session "github.com/vancelk/switchboard/core"
	"github.com/vancelk/switchboard/core/events"
	"github.com/vancelk/switchboard/core/llms/openai"
	sttdeepgram "github.com/vancelk/switchboard/core/speechtotext/deepgram"
	"github.com/vancelk/switchboard/core/telephony"
	ttsdeepgram "github.com/vancelk/switchboard/core/texttospeech/deepgram"
)

// handleConnection upgrades Twilio's media-stream websocket and runs one
// conversation pipeline for the lifetime of the call.
func (s *Server) handleConnection(c echo.Context) error {
	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Println("Failed to upgrade media stream websocket", "error", err)
		return err
	}
	defer conn.Close()

	stream := telephony.NewMediaStream(conn)
	transcriber := sttdeepgram.NewTranscriptionClient(s.cfg.DeepgramKey)

	var ttsOpts []ttsdeepgram.TextToSpeechClientOption
	if s.cfg.TTSVoice != "" {
		ttsOpts = append(ttsOpts, ttsdeepgram.WithVoice(s.cfg.TTSVoice))
	}
	synthesizer := ttsdeepgram.NewTextToSpeechClient(s.cfg.DeepgramKey, ttsOpts...)

	var clientOpts []openai.ClientOption
	if s.cfg.OpenAIModel != "" {
		clientOpts = append(clientOpts, openai.WithModel(s.cfg.OpenAIModel))
	}
	client := openai.NewClient(s.cfg.OpenAIKey, clientOpts...)

	sessionOpts := []session.SessionOption{
		session.WithTranscriptLineCallback(func(callSID, speaker, text string) {
			s.store.Append(callSID, speaker, text)
		}),
		session.WithSessionEventCallback(func(event events.Event) {
			if started, ok := event.(events.CallStarted); ok {
				s.store.Open(started.CallSID)
			}
		}),
	}
	if s.cfg.RecordingEnabled {
		sessionOpts = append(sessionOpts, session.WithRecorder(s.controller))
	}

	sess := session.NewSession(stream, transcriber, synthesizer, client, s.registry, sessionOpts...)

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := sess.Run(ctx); err != nil && ctx.Err() == nil {
			log.Println("Session ended with error", "error", err)
		}
	}()

	if err := stream.Run(ctx, sess); err != nil {
		log.Println("Media stream ended with error", "error", err)
	}
	<-done

	return nil
}
