package telephony

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// CallController drives in-progress calls through Twilio's REST API.
type CallController struct {
	client         *twilio.RestClient
	transferNumber string
}

type CallControllerOption func(*CallController)

// WithTransferNumber sets the number live calls are dialed to on transfer.
func WithTransferNumber(number string) CallControllerOption {
	return func(c *CallController) {
		c.transferNumber = number
	}
}

func NewCallController(accountSID, authToken string, opts ...CallControllerOption) *CallController {
	controller := &CallController{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSID,
			Password: authToken,
		}),
	}
	for _, opt := range opts {
		opt(controller)
	}
	return controller
}

// StartRecording begins a dual-channel recording on an in-progress call.
func (c *CallController) StartRecording(ctx context.Context, callSID string) (string, error) {
	ctx, span := tracer.Start(ctx, "start call recording")
	defer span.End()
	span.SetAttributes(attribute.String("call.sid", callSID))

	params := &twilioApi.CreateCallRecordingParams{}
	params.SetRecordingChannels("dual")

	recording, err := c.client.Api.CreateCallRecording(callSID, params)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to start recording")
		return "", fmt.Errorf("failed to start recording for call %s: %w", callSID, err)
	}

	sid := ""
	if recording.Sid != nil {
		sid = *recording.Sid
	}
	logger.InfoContext(ctx, "Recording started", "callSid", callSID, "recordingSid", sid)
	return sid, nil
}

// Transfer redirects the caller's leg to the configured live agent number.
func (c *CallController) Transfer(ctx context.Context, callSID string) (string, error) {
	ctx, span := tracer.Start(ctx, "transfer call")
	defer span.End()
	span.SetAttributes(attribute.String("call.sid", callSID))

	if c.transferNumber == "" {
		err := fmt.Errorf("no transfer number configured")
		span.RecordError(err)
		span.SetStatus(codes.Error, "transfer unavailable")
		return "", err
	}

	doc, err := transferTwiML(c.transferNumber)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to render twiml")
		return "", err
	}

	params := &twilioApi.UpdateCallParams{}
	params.SetTwiml(doc)

	if _, err := c.client.Api.UpdateCall(callSID, params); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to update call")
		return "", fmt.Errorf("failed to transfer call %s: %w", callSID, err)
	}

	logger.InfoContext(ctx, "Call transferred", "callSid", callSID)
	return "transferred", nil
}
