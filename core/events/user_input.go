package events

const (
	// KindUserUtteranceInterim identifies an interim recognition snapshot.
	KindUserUtteranceInterim Kind = "user_input.utterance_interim"
	// KindUserTranscriptFinal identifies a finalized utterance transcript.
	KindUserTranscriptFinal Kind = "user_input.transcript_final"
)

// UserUtteranceInterim carries interim recognition text. It exists purely so
// the session can detect the caller speaking over queued playback; it never
// reaches the completion loop.
type UserUtteranceInterim struct {
	Base
	Transcript string
}

func NewUserUtteranceInterim(transcript string) UserUtteranceInterim {
	return UserUtteranceInterim{Base: NewBase(KindUserUtteranceInterim), Transcript: transcript}
}

// UserTranscriptFinal carries one finalized utterance from the caller.
type UserTranscriptFinal struct {
	Base
	Transcript string
}

func NewUserTranscriptFinal(transcript string) UserTranscriptFinal {
	return UserTranscriptFinal{Base: NewBase(KindUserTranscriptFinal), Transcript: transcript}
}
