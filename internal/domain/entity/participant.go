package entity

// Participant is a member of a Session: the host or one of its non-host
// players. Roles are never populated for the host.
type Participant struct {
	ID          string
	SessionID   string
	ClientID    string
	DisplayName string
	Role        Role
	Alive       bool
	IsHost      bool
	IsConnected bool
}

// NewParticipant creates a participant (host or non-host, per isHost), alive
// and connected by default.
func NewParticipant(id, sessionID, clientID, displayName string, isHost bool) *Participant {
	return &Participant{
		ID:          id,
		SessionID:   sessionID,
		ClientID:    clientID,
		DisplayName: displayName,
		Role:        RoleNone,
		Alive:       true,
		IsHost:      isHost,
		IsConnected: true,
	}
}

// ParticipantDTO is the transport representation before role masking is
// applied by the projection package. Nothing outside that package should
// serialize a Participant directly to a non-host viewer.
type ParticipantDTO struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Role        string `json:"role,omitempty"`
	Alive       bool   `json:"alive"`
	IsHost      bool   `json:"isHost"`
	IsConnected bool   `json:"isConnected"`
}

func (p *Participant) ToDTO() ParticipantDTO {
	return ParticipantDTO{
		ID:          p.ID,
		DisplayName: p.DisplayName,
		Role:        string(p.Role),
		Alive:       p.Alive,
		IsHost:      p.IsHost,
		IsConnected: p.IsConnected,
	}
}
