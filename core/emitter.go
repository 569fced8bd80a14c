package session

import (
	"sync"

	"github.com/google/uuid"
)

// PlaybackSink is the outbound leg audio is played through.
type PlaybackSink interface {
	SendAudio(audio []byte) error
	// SendMark queues a named marker behind the audio written so far; the
	// sink confirms it once playback reaches it.
	SendMark(name string) error
}

// AudioEmitter restores generation order over synthesized audio chunks.
// Synthesis latency varies per segment, so chunks arrive in arbitrary order;
// the emitter holds early arrivals until every lower index has been sent.
// Chunks submitted without an index bypass ordering entirely.
type AudioEmitter struct {
	sink   PlaybackSink
	onSent func(token string)

	mu           sync.Mutex
	expectedNext int
	pending      map[int][]byte
}

func NewAudioEmitter(sink PlaybackSink, onSent func(token string)) *AudioEmitter {
	return &AudioEmitter{
		sink:    sink,
		onSent:  onSent,
		pending: map[int][]byte{},
	}
}

// Submit hands one synthesized chunk to the emitter. A nil index marks an
// out-of-band announcement, sent immediately. Indexed chunks are sent the
// moment they become contiguous with everything sent before them; stale
// indices are dropped, never resent.
func (e *AudioEmitter) Submit(index *int, audio []byte) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if index == nil {
		e.send(audio)
		return
	}

	switch {
	case *index == e.expectedNext:
		e.send(audio)
		e.expectedNext++
		for {
			next, ok := e.pending[e.expectedNext]
			if !ok {
				break
			}
			delete(e.pending, e.expectedNext)
			e.send(next)
			e.expectedNext++
		}

	case *index > e.expectedNext:
		e.pending[*index] = audio

	default:
		logger.Warn("Dropping stale audio chunk", "index", *index, "expectedNext", e.expectedNext)
	}
}

func (e *AudioEmitter) send(audio []byte) {
	token := uuid.NewString()
	if err := e.sink.SendAudio(audio); err != nil {
		logger.Warn("Failed to send audio to playback sink", "error", err)
		return
	}
	if err := e.sink.SendMark(token); err != nil {
		logger.Warn("Failed to send playback mark", "error", err, "token", token)
		return
	}
	if e.onSent != nil {
		e.onSent(token)
	}
}
