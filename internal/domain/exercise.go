package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Exercise is a catalog entry describing a single movement. Session plans
// reference exercises by ID only and never copy these fields.
type Exercise struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CoachID     primitive.ObjectID `bson:"coachId" json:"coachId"` // coach who created/owns this entry
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	ImageRef    string             `bson:"imageRef,omitempty" json:"imageRef,omitempty"` // object key or URL, upload handled elsewhere
	Category    string             `bson:"category,omitempty" json:"category,omitempty"` // e.g. "Strength", "Cardio"
	MuscleGroup string             `bson:"muscleGroup,omitempty" json:"muscleGroup,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}
