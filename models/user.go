package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Role         Role               `bson:"role" json:"role"`
	Email        string             `bson:"email,omitempty" json:"email"`
	Phone        string             `bson:"phone,omitempty" json:"phone"`
	PasswordHash string             `bson:"passwordHash" json:"-"`

	// Profile fields
	FullName     string     `bson:"fullName" json:"fullName"`
	DOB          *time.Time `bson:"dob,omitempty" json:"dob,omitempty"`
	Gender       string     `bson:"gender" json:"gender"`
	School       string     `bson:"school" json:"school"`
	City         string     `bson:"city" json:"city"`
	State        string     `bson:"state" json:"state"`
	ProfilePic   string     `bson:"profilePic" json:"profilePic"`
	PointsEarned int        `bson:"pointsEarned" json:"pointsEarned"`

	Milestones []Milestone `bson:"milestones" json:"milestones"`

	// Follow graph, kept as mirror images across accounts.
	Following []primitive.ObjectID `bson:"following" json:"following"`
	Followers []primitive.ObjectID `bson:"followers" json:"followers"`

	Version   int64     `bson:"version" json:"-"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

func (u *User) IsFollowing(id primitive.ObjectID) bool {
	return ContainsID(u.Following, id)
}

// Milestone finds an embedded milestone by id.
func (u *User) Milestone(id primitive.ObjectID) *Milestone {
	for i := range u.Milestones {
		if u.Milestones[i].ID == id {
			return &u.Milestones[i]
		}
	}
	return nil
}

type Milestone struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Date        time.Time          `bson:"date" json:"date"`
	Location    string             `bson:"location" json:"location"`
	Type        string             `bson:"type" json:"type"` // e.g. Award, Certificate
	Description string             `bson:"description" json:"description"`
	AwardedBy   string             `bson:"awardedBy" json:"awardedBy"`
	Grade       string             `bson:"grade" json:"grade"`
	Image       string             `bson:"image,omitempty" json:"image"`
}

// UserSummary is the public slice of an account embedded in other responses.
type UserSummary struct {
	ID         primitive.ObjectID `json:"id"`
	FullName   string             `json:"fullName"`
	ProfilePic string             `json:"profilePic,omitempty"`
	School     string             `json:"school,omitempty"`
	Email      string             `json:"email,omitempty"`
}

// PushSubscription is a browser push endpoint registered by a user.
type PushSubscription struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	Endpoint  string             `bson:"endpoint" json:"endpoint"`
	P256dh    string             `bson:"p256dh" json:"p256dh"`
	Auth      string             `bson:"auth" json:"auth"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// OTP is a one-time password issued to an email address.
type OTP struct {
	Email     string    `bson:"_id" json:"email"`
	Code      string    `bson:"code" json:"-"`
	ExpiresAt time.Time `bson:"expiresAt" json:"expiresAt"`
	// Verified is set once the code was confirmed; reset still needs it.
	Verified bool `bson:"verified" json:"verified"`
}

func ContainsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// RemoveID returns ids without any occurrence of id and whether anything was removed.
func RemoveID(ids []primitive.ObjectID, id primitive.ObjectID) ([]primitive.ObjectID, bool) {
	out := ids[:0:0]
	removed := false
	for _, v := range ids {
		if v == id {
			removed = true
			continue
		}
		out = append(out, v)
	}
	return out, removed
}
