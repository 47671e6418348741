package network

import (
	"encoding/json"
	"fmt"
)

// StatusInfo is the JSON document carried in a StatusResponse payload.
// The description is a chat component and travels undecoded.
type StatusInfo struct {
	Version            StatusVersion   `json:"version"`
	Players            StatusPlayers   `json:"players"`
	Description        json.RawMessage `json:"description,omitempty"`
	Favicon            string          `json:"favicon,omitempty"`
	EnforcesSecureChat bool            `json:"enforcesSecureChat"`
}

// StatusVersion names the server version and its protocol number.
type StatusVersion struct {
	Name     string `json:"name"`
	Protocol int32  `json:"protocol"`
}

// StatusPlayers carries player counts and an optional name sample.
type StatusPlayers struct {
	Max    int                 `json:"max"`
	Online int                 `json:"online"`
	Sample []StatusPlayerEntry `json:"sample,omitempty"`
}

// StatusPlayerEntry is one entry of the player sample.
type StatusPlayerEntry struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// Payload renders the status document for a StatusResponse.
func (s StatusInfo) Payload() (string, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("failed to render status payload: %w", err)
	}
	return string(raw), nil
}

// ParseStatus decodes a StatusResponse payload.
func ParseStatus(payload string) (*StatusInfo, error) {
	var info StatusInfo
	if err := json.Unmarshal([]byte(payload), &info); err != nil {
		return nil, fmt.Errorf("failed to parse status payload: %w", err)
	}
	return &info, nil
}

// TextDescription renders a plain-text chat component for the status
// description field.
func TextDescription(text string) json.RawMessage {
	raw, _ := json.Marshal(struct {
		Text string `json:"text"`
	}{Text: text})
	return raw
}
