package events

const (
	// KindAssistantReplySegment identifies a speakable reply segment.
	KindAssistantReplySegment Kind = "assistant_reply.segment"
)

// AssistantReplySegment carries one speakable span of assistant text ready
// for synthesis. Index is nil for out-of-band announcements (greeting,
// recording notice, tool announcements); otherwise it is the position the
// synthesized audio must take in the playback order.
type AssistantReplySegment struct {
	Base
	Interaction int
	Index       *int
	Text        string
}

func NewAssistantReplySegment(interaction int, index *int, text string) AssistantReplySegment {
	return AssistantReplySegment{Base: NewBase(KindAssistantReplySegment), Interaction: interaction, Index: index, Text: text}
}
