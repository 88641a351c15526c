package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Report stores metadata about a generated session report archived in S3.
// The actual PDF resides in the bucket under S3ObjectKey.
type Report struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SessionID   primitive.ObjectID `bson:"sessionId" json:"sessionId"`
	S3ObjectKey string             `bson:"s3ObjectKey" json:"-"` // internal use
	FileName    string             `bson:"fileName" json:"fileName"`
	ContentType string             `bson:"contentType" json:"contentType"`
	Size        int64              `bson:"size" json:"size"`
	GeneratedAt time.Time          `bson:"generatedAt" json:"generatedAt"`
}
