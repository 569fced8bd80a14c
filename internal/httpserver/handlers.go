package httpserver

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vancelk/switchboard/core/telephony"
	"github.com/vancelk/switchboard/internal/transcripts"
)

// handleIncoming answers Twilio's voice webhook with TwiML bridging the call
// into the media-stream websocket.
func (s *Server) handleIncoming(c echo.Context) error {
	wsURL := fmt.Sprintf("wss://%s/connection", s.cfg.Server)
	doc, err := telephony.AnswerTwiML(wsURL)
	if err != nil {
		log.Println("Failed to build answer twiml", "error", err)
		return c.NoContent(http.StatusInternalServerError)
	}
	return c.Blob(http.StatusOK, "text/xml", []byte(doc))
}

func (s *Server) handleListTranscripts(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string][]string{
		"callSids": s.store.CallSIDs(),
	})
}

func (s *Server) handleTranscript(c echo.Context) error {
	callSID := c.Param("callSid")
	lines, ok := s.store.Lines(callSID)
	if !ok {
		return c.String(http.StatusNotFound, "Transcription not found for this callSid")
	}
	return c.JSON(http.StatusOK, map[string][]string{
		"transcription": lines,
	})
}

// handleTranscriptUpdates streams the transcript store over SSE: the current
// state immediately, then a fresh snapshot on every change.
func (s *Server) handleTranscriptUpdates(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderContentType, "text/event-stream")
	c.Response().Header().Set("Cache-Control", "no-cache")
	c.Response().Header().Set("Connection", "keep-alive")
	c.Response().WriteHeader(http.StatusOK)

	write := func(snapshot transcripts.Snapshot) error {
		data, err := json.Marshal(snapshot)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(c.Response(), "data: %s\n\n", data); err != nil {
			return err
		}
		c.Response().Flush()
		return nil
	}

	updates, cancel := s.store.Subscribe()
	defer cancel()

	if err := write(s.store.Snapshot()); err != nil {
		return err
	}

	for {
		select {
		case <-c.Request().Context().Done():
			return nil
		case snapshot := <-updates:
			if err := write(snapshot); err != nil {
				return err
			}
		}
	}
}
