package services

import (
	"context"
	"io"
	"strings"
	"time"

	"learnerslogue/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const milestoneFolder = "milestones"

// Milestones edits the milestone list embedded in a user document.
type Milestones struct {
	deps Deps
}

// Image is an optional file attached to a milestone.
type Image struct {
	Reader   io.Reader
	Filename string
}

type MilestoneInput struct {
	Title       *string
	Date        *time.Time
	Location    *string
	Type        *string
	Description *string
	AwardedBy   *string
	Grade       *string
}

func (m *Milestones) List(ctx context.Context, userID primitive.ObjectID) ([]models.Milestone, error) {
	u, err := m.deps.Stores.Users.FindByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	if u.Milestones == nil {
		return []models.Milestone{}, nil
	}
	return u.Milestones, nil
}

func (m *Milestones) Add(ctx context.Context, userID primitive.ObjectID, in MilestoneInput, img *Image) (*models.Milestone, error) {
	if in.Title == nil || strings.TrimSpace(*in.Title) == "" || in.Date == nil {
		return nil, validationError("Title and date are required")
	}
	ms := models.Milestone{ID: primitive.NewObjectID()}
	applyMilestone(&ms, in)

	if img != nil {
		url, err := m.image(ctx, img)
		if err != nil {
			return nil, err
		}
		ms.Image = url
	}

	var added *models.Milestone
	_, err := m.edit(ctx, userID, func(u *models.User) error {
		u.Milestones = append(u.Milestones, ms)
		added = u.Milestone(ms.ID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

func (m *Milestones) Update(ctx context.Context, userID, milestoneID primitive.ObjectID, in MilestoneInput, img *Image) (*models.Milestone, error) {
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return nil, validationError("Title cannot be empty")
	}
	var url string
	if img != nil {
		var err error
		if url, err = m.image(ctx, img); err != nil {
			return nil, err
		}
	}

	var updated models.Milestone
	_, err := m.edit(ctx, userID, func(u *models.User) error {
		ms := u.Milestone(milestoneID)
		if ms == nil {
			return ErrMilestoneNotFound
		}
		applyMilestone(ms, in)
		if url != "" {
			ms.Image = url
		}
		updated = *ms
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (m *Milestones) Delete(ctx context.Context, userID, milestoneID primitive.ObjectID) error {
	_, err := m.edit(ctx, userID, func(u *models.User) error {
		for i := range u.Milestones {
			if u.Milestones[i].ID == milestoneID {
				u.Milestones = append(u.Milestones[:i:i], u.Milestones[i+1:]...)
				return nil
			}
		}
		return ErrMilestoneNotFound
	})
	return err
}

func (m *Milestones) image(ctx context.Context, img *Image) (string, error) {
	if err := checkImage(img.Filename); err != nil {
		return "", err
	}
	return uploadImage(ctx, m.deps.Uploader, img.Reader, img.Filename, milestoneFolder)
}

func (m *Milestones) edit(ctx context.Context, userID primitive.ObjectID, mutate func(*models.User) error) (*models.User, error) {
	return (&Accounts{deps: m.deps}).edit(ctx, userID, mutate)
}

func applyMilestone(ms *models.Milestone, in MilestoneInput) {
	setString(&ms.Title, in.Title)
	setString(&ms.Location, in.Location)
	setString(&ms.Type, in.Type)
	setString(&ms.Description, in.Description)
	setString(&ms.AwardedBy, in.AwardedBy)
	setString(&ms.Grade, in.Grade)
	if in.Date != nil {
		ms.Date = in.Date.UTC()
	}
}
