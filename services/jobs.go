package services

import (
	"context"
	"html"
	"strings"

	"learnerslogue/mailer"
	"learnerslogue/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Jobs struct {
	deps Deps
}

type NewJob struct {
	Title        string
	Company      string
	Type         string
	Description  string
	Location     string
	Duration     string
	Deadline     string
	Applicants   string
	Stipend      string
	Requirements []string
	Tags         []string
}

func (j *Jobs) Create(ctx context.Context, posterID primitive.ObjectID, in NewJob) (*models.Job, error) {
	poster, err := (&Events{deps: j.deps}).school(ctx, posterID, "Only companies can create jobs.")
	if err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	company := strings.TrimSpace(in.Company)
	if title == "" || company == "" || strings.TrimSpace(in.Description) == "" {
		return nil, validationError("Title, company and description are required.")
	}
	jobType, err := models.ParseJobType(in.Type)
	if err != nil {
		return nil, validationError("Type must be internship or full-time.")
	}

	job := &models.Job{
		Title:        title,
		Company:      company,
		Type:         jobType,
		Description:  in.Description,
		Location:     strings.TrimSpace(in.Location),
		Duration:     strings.TrimSpace(in.Duration),
		Deadline:     strings.TrimSpace(in.Deadline),
		Applicants:   strings.TrimSpace(in.Applicants),
		Stipend:      strings.TrimSpace(in.Stipend),
		Requirements: cleanTags(in.Requirements),
		Tags:         cleanTags(in.Tags),
		PostedBy:     poster.ID,
	}
	if err := j.deps.Stores.Jobs.Create(ctx, job); err != nil {
		return nil, err
	}

	if poster.Email != "" {
		mailer.Deliver(j.deps.Mailer, mailer.Message{
			To:      poster.Email,
			Subject: "You Created A Job: " + title,
			HTML:    "<h2>Your job has been created: " + html.EscapeString(title) + "</h2>",
		})
	}
	return job, nil
}

// List returns every job, newest first.
func (j *Jobs) List(ctx context.Context) ([]models.Job, error) {
	return j.deps.Stores.Jobs.FindAll(ctx)
}

func (j *Jobs) Get(ctx context.Context, id primitive.ObjectID) (*models.Job, error) {
	job, err := j.deps.Stores.Jobs.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrJobNotFound)
	}
	return job, nil
}
