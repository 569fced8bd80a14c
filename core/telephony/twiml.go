package telephony

import (
	"fmt"

	"github.com/twilio/twilio-go/twiml"
)

// AnswerTwiML builds the voice-webhook response that bridges the call into
// the media-stream websocket at wsURL.
func AnswerTwiML(wsURL string) (string, error) {
	connect := &twiml.VoiceConnect{
		InnerElements: []twiml.Element{
			&twiml.VoiceStream{Url: wsURL},
		},
	}

	doc, err := twiml.Voice([]twiml.Element{connect})
	if err != nil {
		return "", fmt.Errorf("failed to render twiml: %w", err)
	}
	return doc, nil
}

// transferTwiML builds the redirect document handed to Twilio when a live
// call is transferred to a human agent.
func transferTwiML(number string) (string, error) {
	verbs := []twiml.Element{
		&twiml.VoiceSay{Message: "Transferring you to a live agent now. One moment please."},
		&twiml.VoiceDial{Number: number},
	}

	doc, err := twiml.Voice(verbs)
	if err != nil {
		return "", fmt.Errorf("failed to render twiml: %w", err)
	}
	return doc, nil
}
