package soniox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/coder/websocket"
)

// testTimeout is how long TestConnection waits for a server response before
// declaring the key valid. A well-configured session produces no immediate
// reply, so silence means success.
const testTimeout = 5 * time.Second

// TestConnection validates an API key by opening a throwaway session and
// watching for an immediate error response. It returns ErrInvalidAPIKey when
// the server rejects the key, nil when the handshake is accepted.
func TestConnection(ctx context.Context, apiKey string) error {
	if apiKey == "" {
		return ErrMissingAPIKey
	}

	conn, _, err := websocket.Dial(ctx, endpoint, nil)
	if err != nil {
		return fmt.Errorf("soniox: dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "connection test done")

	cfg := sessionConfig{
		APIKey:                  apiKey,
		Model:                   defaultModel,
		AudioFormat:             "pcm_s16le",
		SampleRate:              sampleRate,
		NumChannels:             channels,
		LanguageHints:           []string{"en"},
		EnableEndpointDetection: false,
		EnableLanguageID:        false,
	}
	payload, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("soniox: marshal config: %w", err)
	}
	if err := conn.Write(ctx, websocket.MessageText, payload); err != nil {
		return fmt.Errorf("soniox: send config: %w", err)
	}

	readCtx, cancel := context.WithTimeout(ctx, testTimeout)
	defer cancel()

	_, msg, err := conn.Read(readCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			// No immediate error from the server: the key was accepted.
			return nil
		}
		status := websocket.CloseStatus(err)
		if status != -1 {
			return fmt.Errorf("soniox: connection closed (status %d), possibly invalid api key", status)
		}
		return fmt.Errorf("soniox: read response: %w", err)
	}

	var resp response
	if err := json.Unmarshal(msg, &resp); err != nil {
		return fmt.Errorf("soniox: parse response: %w", err)
	}
	if resp.ErrorCode != nil {
		if *resp.ErrorCode == 401 {
			return ErrInvalidAPIKey
		}
		return fmt.Errorf("soniox: server error %d: %s", *resp.ErrorCode, resp.ErrorMessage)
	}
	return nil
}
