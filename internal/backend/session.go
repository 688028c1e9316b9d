package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"p2p-social/internal/message"
)

// OpenSession asks the backend at baseURL for a session token. An existing
// token is renewed for the same identity; an empty one creates a new identity.
func OpenSession(ctx context.Context, httpClient *http.Client, baseURL, token string) (message.Session, error) {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	body, err := json.Marshal(map[string]string{"token": token})
	if err != nil {
		return message.Session{}, err
	}
	endpoint := strings.TrimRight(baseURL, "/") + "/session"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return message.Session{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := httpClient.Do(req)
	if err != nil {
		return message.Session{}, fmt.Errorf("open session: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return message.Session{}, fmt.Errorf("open session: %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}
	var sess message.Session
	if err := json.NewDecoder(resp.Body).Decode(&sess); err != nil {
		return message.Session{}, fmt.Errorf("decode session: %w", err)
	}
	return sess, nil
}

// WebsocketURL derives the websocket endpoint from an http(s) base URL.
func WebsocketURL(baseURL string) string {
	base := strings.TrimRight(baseURL, "/")
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base + "/ws"
}
