package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Event struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title           string             `bson:"title" json:"title"`
	Type            EventType          `bson:"type" json:"type"`
	Description     string             `bson:"description" json:"description"`
	Date            time.Time          `bson:"date" json:"date"`
	Time            string             `bson:"time" json:"time"`
	Duration        int                `bson:"duration" json:"duration"` // minutes
	Tags            []string           `bson:"tags" json:"tags"`
	Price           float64            `bson:"price" json:"price"`
	MaxParticipants int                `bson:"maxParticipants,omitempty" json:"maxParticipants,omitempty"`

	VideoCallStartLink string `bson:"videoCallStartLink" json:"videoCallStartLink,omitempty"`
	VideoCallLink      string `bson:"videoCallLink" json:"videoCallLink"`

	HostID        primitive.ObjectID `bson:"host" json:"hostId"`
	Registrations []Registration     `bson:"registrations" json:"registrations"`

	Version   int64     `bson:"version" json:"-"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

type Registration struct {
	UserID       primitive.ObjectID `bson:"user" json:"userId"`
	RegisteredAt time.Time          `bson:"registeredAt" json:"registeredAt"`
}

func (e *Event) IsRegistered(userID primitive.ObjectID) bool {
	for _, r := range e.Registrations {
		if r.UserID == userID {
			return true
		}
	}
	return false
}

// Full reports whether the participant cap has been reached. Zero means uncapped.
func (e *Event) Full() bool {
	return e.MaxParticipants > 0 && len(e.Registrations) >= e.MaxParticipants
}

type Job struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title        string             `bson:"title" json:"title"`
	Company      string             `bson:"company" json:"company"`
	Type         JobType            `bson:"type" json:"type"`
	Description  string             `bson:"description" json:"description"`
	Location     string             `bson:"location" json:"location"`
	Duration     string             `bson:"duration" json:"duration"` // for internships
	Deadline     string             `bson:"deadline" json:"deadline"`
	Applicants   string             `bson:"applicants" json:"applicants"`
	Stipend      string             `bson:"stipend" json:"stipend"`
	Requirements []string           `bson:"requirements" json:"requirements"`
	Tags         []string           `bson:"tags" json:"tags"`
	PostedBy     primitive.ObjectID `bson:"postedBy" json:"postedBy"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
