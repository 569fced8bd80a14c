// Package telephony speaks Twilio's media-stream websocket protocol and
// drives calls through Twilio's REST API: answering, recording, and
// transferring.
package telephony

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

// StreamHandler receives decoded inbound media-stream events.
type StreamHandler interface {
	// OnStart is called once, when Twilio announces the stream and call SIDs.
	OnStart(streamSID, callSID string)
	// OnMedia delivers a chunk of caller audio (mulaw, 8kHz).
	OnMedia(audio []byte)
	// OnMark confirms that playback reached the named mark.
	OnMark(name string)
	// OnStop is called when the caller hangs up or Twilio ends the stream.
	OnStop()
}

// MediaStream wraps one Twilio media-stream websocket connection. Outbound
// writes are serialized; inbound events are decoded by Run and handed to the
// StreamHandler in arrival order.
type MediaStream struct {
	conn      *websocket.Conn
	writeMu   sync.Mutex
	streamSID string
}

func NewMediaStream(conn *websocket.Conn) *MediaStream {
	return &MediaStream{conn: conn}
}

type inboundMessage struct {
	Event string `json:"event"`
	Start struct {
		StreamSID string `json:"streamSid"`
		CallSID   string `json:"callSid"`
	} `json:"start"`
	Media struct {
		Payload string `json:"payload"`
	} `json:"media"`
	Mark struct {
		Name string `json:"name"`
	} `json:"mark"`
}

// Run reads the websocket until the stream stops, the connection drops, or
// ctx is cancelled. It always delivers OnStop exactly once before returning.
func (s *MediaStream) Run(ctx context.Context, handler StreamHandler) error {
	defer handler.OnStop()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			s.conn.Close()
		case <-done:
		}
	}()

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed to read media stream message: %w", err)
		}

		var msg inboundMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Println("Failed to unmarshal media stream message", "error", err)
			continue
		}

		switch msg.Event {
		case "start":
			s.streamSID = msg.Start.StreamSID
			handler.OnStart(msg.Start.StreamSID, msg.Start.CallSID)
		case "media":
			audio, err := base64.StdEncoding.DecodeString(msg.Media.Payload)
			if err != nil {
				log.Println("Failed to decode media payload", "error", err)
				continue
			}
			handler.OnMedia(audio)
		case "mark":
			handler.OnMark(msg.Mark.Name)
		case "stop":
			return nil
		}
	}
}

// SendAudio plays an audio payload to the caller.
func (s *MediaStream) SendAudio(audio []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	return s.conn.WriteJSON(struct {
		Event     string `json:"event"`
		StreamSID string `json:"streamSid"`
		Media     struct {
			Payload string `json:"payload"`
		} `json:"media"`
	}{
		Event:     "media",
		StreamSID: s.streamSID,
		Media: struct {
			Payload string `json:"payload"`
		}{Payload: base64.StdEncoding.EncodeToString(audio)},
	})
}

// SendMark asks Twilio to confirm, via a mark event, when playback of
// everything queued so far has completed.
func (s *MediaStream) SendMark(name string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	return s.conn.WriteJSON(struct {
		Event     string `json:"event"`
		StreamSID string `json:"streamSid"`
		Mark      struct {
			Name string `json:"name"`
		} `json:"mark"`
	}{
		Event:     "mark",
		StreamSID: s.streamSID,
		Mark: struct {
			Name string `json:"name"`
		}{Name: name},
	})
}

// Clear discards all audio Twilio has buffered but not yet played.
func (s *MediaStream) Clear() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	return s.conn.WriteJSON(struct {
		Event     string `json:"event"`
		StreamSID string `json:"streamSid"`
	}{
		Event:     "clear",
		StreamSID: s.streamSID,
	})
}
