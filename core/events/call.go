package events

const (
	// KindCallStarted identifies the media stream start signal.
	KindCallStarted Kind = "call.started"
	// KindCallEnded identifies the media stream stop signal.
	KindCallEnded Kind = "call.ended"
)

// CallStarted carries the telephony identifiers assigned to the session.
type CallStarted struct {
	Base
	StreamSID string
	CallSID   string
}

func NewCallStarted(streamSID, callSID string) CallStarted {
	return CallStarted{Base: NewBase(KindCallStarted), StreamSID: streamSID, CallSID: callSID}
}

// CallEnded signals that the telephony leg closed the media stream.
type CallEnded struct {
	Base
}

func NewCallEnded() CallEnded {
	return CallEnded{Base: NewBase(KindCallEnded)}
}
