package session

import (
	"strings"

	"github.com/vancelk/switchboard/core/speechtotext"
)

// TranscriptAssembler folds raw recognition events into caller utterances.
// Interim text is surfaced immediately for interruption detection; final
// fragments accumulate until the recognizer signals a natural pause or the
// end of the utterance, at which point the whole utterance is emitted once.
type TranscriptAssembler struct {
	buffer string
	// flushed guards against a trailing UtteranceEnd re-emitting text that a
	// pause-triggered final already delivered.
	flushed bool

	onUtterance  func(text string)
	onTranscript func(text string)
}

func NewTranscriptAssembler(onUtterance, onTranscript func(text string)) *TranscriptAssembler {
	return &TranscriptAssembler{
		onUtterance:  onUtterance,
		onTranscript: onTranscript,
	}
}

// Consume processes one recognition event. Events must be delivered in
// arrival order; the assembler is confined to its session's event loop.
func (a *TranscriptAssembler) Consume(event speechtotext.RecognitionEvent) {
	switch event.Kind {
	case speechtotext.KindUtteranceEnd:
		if !a.flushed {
			a.flush()
		}

	case speechtotext.KindTranscript:
		if !event.IsFinal {
			if a.onUtterance != nil {
				a.onUtterance(event.Transcript)
			}
			return
		}

		a.buffer += " " + event.Transcript
		if event.SpeechFinal {
			a.flushed = true
			a.flush()
		} else {
			a.flushed = false
		}
	}
}

func (a *TranscriptAssembler) flush() {
	transcript := strings.TrimSpace(a.buffer)
	a.buffer = ""
	if transcript == "" {
		return
	}
	if a.onTranscript != nil {
		a.onTranscript(transcript)
	}
}
