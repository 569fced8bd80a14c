package speechtotext

// EventKind classifies a recognition event.
type EventKind string

const (
	// KindTranscript carries recognized text, interim or final.
	KindTranscript EventKind = "transcript"
	// KindUtteranceEnd signals the recognizer decided the utterance ended
	// without a pause-triggered final result.
	KindUtteranceEnd EventKind = "utterance_end"
)

// RecognitionEvent is one event from the recognition engine, delivered in
// arrival order.
type RecognitionEvent struct {
	Kind EventKind
	// IsFinal marks the transcript text as final for its audio span.
	IsFinal bool
	// SpeechFinal marks a natural pause in the caller's speech.
	SpeechFinal bool
	Transcript  string
}

type TranscriptionOptions struct {
	EventCallback func(RecognitionEvent)
}

type TranscriptionOption func(*TranscriptionOptions)

// WithEventCallback registers the callback invoked per recognition event.
func WithEventCallback(callback func(RecognitionEvent)) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.EventCallback = callback
	}
}
