package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Session represents one scheduled, capacity-bounded class occurrence.
// Immutable after creation except through an explicit reschedule flow.
type Session struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title     string             `bson:"title" json:"title"`
	StartTime time.Time          `bson:"startTime" json:"startTime"`
	Duration  time.Duration      `bson:"duration" json:"duration"` // e.g. 60m class slot
	Capacity  int                `bson:"capacity" json:"capacity"` // nominal booked capacity, must be > 0
	CoachID   primitive.ObjectID `bson:"coachId" json:"coachId"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}
