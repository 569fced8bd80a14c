package events

const (
	// KindPlaybackAudioSent identifies an audio chunk handed to the leg.
	KindPlaybackAudioSent Kind = "playback.audio_sent"
	// KindPlaybackMarkConfirmed identifies playback completion of a chunk.
	KindPlaybackMarkConfirmed Kind = "playback.mark_confirmed"
)

// PlaybackAudioSent marks one audio chunk as in flight to the caller's ear.
type PlaybackAudioSent struct {
	Base
	Token string
}

func NewPlaybackAudioSent(token string) PlaybackAudioSent {
	return PlaybackAudioSent{Base: NewBase(KindPlaybackAudioSent), Token: token}
}

// PlaybackMarkConfirmed reports that the telephony leg finished playing the
// chunk identified by Token.
type PlaybackMarkConfirmed struct {
	Base
	Token string
}

func NewPlaybackMarkConfirmed(token string) PlaybackMarkConfirmed {
	return PlaybackMarkConfirmed{Base: NewBase(KindPlaybackMarkConfirmed), Token: token}
}
