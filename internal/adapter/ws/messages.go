package ws

import "encoding/json"

// Message types (client -> server)
const (
	MsgTypeCreateSession = "create_session"
	MsgTypeJoinSession   = "join_session"
	MsgTypeReconnect     = "reconnect"
	MsgTypeCommand       = "command"
	MsgTypeGhostChat     = "ghost_chat"
)

// Event types (server -> client)
const (
	EventTypeConnected = "connected"
	EventTypeError     = "error"

	EventTypeSessionCreated = "session_created"
	EventTypeSessionJoined  = "session_joined"
	EventTypeSessionState   = "session_state"
	EventTypeCommandAck     = "command_ack"

	EventTypeParticipantJoined = "participant_joined"
	EventTypeParticipantLeft   = "participant_left"

	EventTypeGhostChatBroadcast = "ghost_chat_broadcast"
)

// Message is the envelope for all WebSocket traffic.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func NewMessage(msgType string, payload any) (*Message, error) {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		raw = data
	}
	return &Message{Type: msgType, Payload: raw}, nil
}

func MustMessage(msgType string, payload any) *Message {
	msg, err := NewMessage(msgType, payload)
	if err != nil {
		panic(err)
	}
	return msg
}

func (m *Message) Bytes() []byte {
	data, _ := json.Marshal(m)
	return data
}

// --- Client -> server payloads ---

type CreateSessionPayload struct {
	HostName string `json:"hostName"`
}

type JoinSessionPayload struct {
	JoinCode    string `json:"joinCode"`
	DisplayName string `json:"displayName"`
}

// CommandPayload is the generic envelope for every game command; Data is
// forwarded as-is to the dispatcher, which decodes it per action.
type CommandPayload struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data"`
}

type GhostChatPayload struct {
	Message string `json:"message"`
}

// --- Server -> client payloads ---

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ConnectedPayload echoes back the clientId the connection will be
// identified by, so a first-time caller can persist one it didn't supply.
type ConnectedPayload struct {
	ClientID string `json:"clientId"`
}

type SessionCreatedPayload struct {
	SessionID     string `json:"sessionId"`
	JoinCode      string `json:"joinCode"`
	ParticipantID string `json:"participantId"`
	Token         string `json:"token,omitempty"`
}

type SessionJoinedPayload struct {
	SessionID     string `json:"sessionId"`
	ParticipantID string `json:"participantId"`
	Token         string `json:"token,omitempty"`
}

type CommandAckPayload struct {
	Action string `json:"action"`
	Data   any    `json:"data,omitempty"`
}

type ParticipantJoinedPayload struct {
	ParticipantID string `json:"participantId"`
	DisplayName   string `json:"displayName"`
}

type ParticipantLeftPayload struct {
	ParticipantID string `json:"participantId"`
}

type GhostChatBroadcastPayload struct {
	FromID          string `json:"fromId"`
	FromDisplayName string `json:"fromDisplayName"`
	Message         string `json:"message"`
	TimestampMillis int64  `json:"timestampMillis"`
}
