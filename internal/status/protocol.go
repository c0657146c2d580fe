package status

import "github.com/musicord/musicord/internal/track"

type MessageType string

const (
	// MsgPresence carries the current presence; sent as a snapshot on
	// connect and as a delta on every confirmed transition.
	MsgPresence MessageType = "presence"
)

type Message struct {
	Type    MessageType `json:"type"`
	Payload any         `json:"payload"`
}

type PresencePayload struct {
	Presence track.Presence `json:"presence"`
}
