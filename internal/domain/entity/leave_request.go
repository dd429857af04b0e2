package entity

import "time"

type LeaveRequestStatus string

const (
	LeaveRequestPending  LeaveRequestStatus = "pending"
	LeaveRequestApproved LeaveRequestStatus = "approved"
	LeaveRequestDenied   LeaveRequestStatus = "denied"
)

// LeaveRequest is created by a non-host participant asking to leave; the
// host approves or denies it. At most one pending request per participant.
type LeaveRequest struct {
	SessionID     string
	ParticipantID string
	Status        LeaveRequestStatus
	ProcessedBy   string
	CreatedAt     time.Time
	ProcessedAt   time.Time
}

func NewLeaveRequest(sessionID, participantID string, now time.Time) *LeaveRequest {
	return &LeaveRequest{
		SessionID:     sessionID,
		ParticipantID: participantID,
		Status:        LeaveRequestPending,
		CreatedAt:     now,
	}
}
