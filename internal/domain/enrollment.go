package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EnrollmentState type for the enrollment lifecycle
type EnrollmentState string

const (
	StateBooked     EnrollmentState = "booked"
	StateWaitlisted EnrollmentState = "waitlisted"
	StateCancelled  EnrollmentState = "cancelled" // terminal, kept for audit history
	StateAttended   EnrollmentState = "attended"  // terminal, set via check-in
	StateWalkIn     EnrollmentState = "walkin"    // front-desk registration, may exceed capacity
)

// Enrollment is one participant's relationship to one session.
// Enrollments are never deleted; cancellation only flips the state.
type Enrollment struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	SessionID     primitive.ObjectID  `bson:"sessionId" json:"sessionId"`
	ParticipantID *primitive.ObjectID `bson:"participantId,omitempty" json:"participantId,omitempty"` // nil for walk-ins without an account
	DisplayName   string              `bson:"displayName" json:"displayName"`
	State         EnrollmentState     `bson:"state" json:"state"`
	Plan          string              `bson:"plan,omitempty" json:"plan,omitempty"` // membership tag, informational only
	JoinedAt      time.Time           `bson:"joinedAt" json:"joinedAt"`             // waitlist ordering key
	UpdatedAt     time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// OccupiesSlot reports whether the enrollment counts toward session capacity.
// Waitlisted and cancelled entries never do.
func (e *Enrollment) OccupiesSlot() bool {
	return e.State == StateBooked || e.State == StateWalkIn || e.State == StateAttended
}

// Active reports whether the enrollment is still live (not cancelled).
func (e *Enrollment) Active() bool {
	return e.State != StateCancelled
}

// RosterSnapshot is the derived, read-only view of a session's roster.
// It is recomputed on every read and never stored, so counts cannot drift
// from the enrollments they are derived from.
type RosterSnapshot struct {
	SessionID primitive.ObjectID `json:"sessionId"`
	Capacity  int                `json:"capacity"`
	Enrolled  int                `json:"enrolled"` // count of slot-occupying states; may exceed Capacity via walk-ins
	Entries   []Enrollment       `json:"entries"`  // every enrollment, cancelled included
	Waitlist  []Enrollment       `json:"waitlist"` // waitlisted entries by joinedAt ascending
}
