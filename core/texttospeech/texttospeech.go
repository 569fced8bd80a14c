// Package texttospeech defines the speech synthesis boundary used by the
// conversation pipeline. Each reply segment is synthesized independently so
// segments can be generated concurrently and reordered on playback.
package texttospeech

import "context"

// Synthesizer converts a text segment into a complete audio payload in the
// telephony encoding (mulaw, 8kHz).
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}
