package deepgram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/codes"
)

const (
	defaultVoice = "aura-asteria-en"
	speakURL     = "https://api.deepgram.com/v1/speak"
)

// TextToSpeechClient synthesizes speech through deepgram's speak REST API,
// one request per text segment.
type TextToSpeechClient struct {
	apiKey string
	voice  string

	httpClient *http.Client
}

type TextToSpeechClientOption func(*TextToSpeechClient)

func WithVoice(voice string) TextToSpeechClientOption {
	return func(c *TextToSpeechClient) {
		c.voice = voice
	}
}

func NewTextToSpeechClient(apiKey string, opts ...TextToSpeechClientOption) *TextToSpeechClient {
	client := &TextToSpeechClient{
		apiKey:     apiKey,
		voice:      defaultVoice,
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

func (c *TextToSpeechClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "synthesize speech")
	defer span.End()

	body, err := json.Marshal(struct {
		Text string `json:"text"`
	}{Text: text})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to marshal request body")
		return nil, fmt.Errorf("failed to marshal speak request: %w", err)
	}

	speakUrl, _ := url.Parse(speakURL)
	queryParams := speakUrl.Query()
	queryParams.Set("model", c.voice)
	queryParams.Set("encoding", "mulaw")
	queryParams.Set("sample_rate", "8000")
	queryParams.Set("container", "none")
	speakUrl.RawQuery = queryParams.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, speakUrl.String(), bytes.NewReader(body))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create request")
		return nil, fmt.Errorf("failed to create speak request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return nil, fmt.Errorf("speak request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(resp.Body)
		err := fmt.Errorf("speak request returned %d: %s", resp.StatusCode, payload)
		span.RecordError(err)
		span.SetStatus(codes.Error, "unexpected status")
		return nil, err
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read audio")
		return nil, fmt.Errorf("failed to read speak response: %w", err)
	}
	return audio, nil
}
