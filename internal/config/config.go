package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	HTTPAddress string
	// Server is the public hostname callers' media streams connect back to.
	Server string

	OpenAIKey   string
	OpenAIModel string

	DeepgramKey string
	TTSVoice    string

	TwilioAccountSID string
	TwilioAuthToken  string
	TransferNumber   string

	RecordingEnabled bool
}

// Load reads environment variables and returns Config with sane defaults.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file loaded")
	}

	addr := os.Getenv("HTTP_ADDRESS")
	if addr == "" {
		addr = ":3000"
	}

	server := os.Getenv("SERVER")
	if server == "" {
		log.Println("Warning: SERVER not set - Twilio cannot reach the media stream websocket")
	}

	openAIKey := os.Getenv("OPENAI_API_KEY")
	if openAIKey == "" {
		log.Println("Warning: OPENAI_API_KEY not set - completions will not work")
	}

	deepgramKey := os.Getenv("DEEPGRAM_API_KEY")
	if deepgramKey == "" {
		log.Println("Warning: DEEPGRAM_API_KEY not set - transcription and speech will not work")
	}

	accountSID := os.Getenv("TWILIO_ACCOUNT_SID")
	authToken := os.Getenv("TWILIO_AUTH_TOKEN")
	if accountSID == "" || authToken == "" {
		log.Println("Warning: TWILIO_ACCOUNT_SID or TWILIO_AUTH_TOKEN not set - recording and transfer will not work")
	}

	log.Printf("config: HTTP_ADDRESS=%s SERVER=%s", addr, server)
	return Config{
		HTTPAddress:      addr,
		Server:           server,
		OpenAIKey:        openAIKey,
		OpenAIModel:      os.Getenv("OPENAI_MODEL"),
		DeepgramKey:      deepgramKey,
		TTSVoice:         os.Getenv("TTS_VOICE"),
		TwilioAccountSID: accountSID,
		TwilioAuthToken:  authToken,
		TransferNumber:   os.Getenv("TRANSFER_NUMBER"),
		RecordingEnabled: os.Getenv("RECORDING_ENABLED") == "true",
	}
}
