package models

import (
	"fmt"
	"strings"
)

// Role is the account category chosen at registration.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleSchool  Role = "school"
)

func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleStudent, RoleTeacher, RoleSchool:
		return r, nil
	}
	return "", fmt.Errorf("invalid role %q", s)
}

// PostType is the closed set of feed post kinds.
type PostType string

const (
	PostQuestion     PostType = "question"
	PostIdea         PostType = "idea"
	PostPoll         PostType = "poll"
	PostHomeworkHelp PostType = "homework help"
	PostNormal       PostType = "normal"
)

// ParsePostType maps client input to a PostType. Empty input is a normal post.
func ParsePostType(s string) (PostType, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "":
		return PostNormal, nil
	case "homework-help", "homework_help":
		return PostHomeworkHelp, nil
	}
	switch t := PostType(v); t {
	case PostQuestion, PostIdea, PostPoll, PostHomeworkHelp, PostNormal:
		return t, nil
	}
	return "", fmt.Errorf("invalid post type %q", s)
}

type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

func ParseVisibility(s string) (Visibility, error) {
	switch v := Visibility(strings.ToLower(strings.TrimSpace(s))); v {
	case "":
		return VisibilityPublic, nil
	case VisibilityPublic, VisibilityPrivate:
		return v, nil
	}
	return "", fmt.Errorf("invalid visibility %q", s)
}

// EventType is the closed set of hosted event kinds.
type EventType string

const (
	EventWebinar      EventType = "webinar"
	EventCompetitions EventType = "competitions"
	EventLiveClasses  EventType = "live classes"
	EventStudyGroups  EventType = "study groups"
)

func ParseEventType(s string) (EventType, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "live-classes", "live_classes":
		return EventLiveClasses, nil
	case "study-groups", "study_groups":
		return EventStudyGroups, nil
	}
	switch t := EventType(v); t {
	case EventWebinar, EventCompetitions, EventLiveClasses, EventStudyGroups:
		return t, nil
	}
	return "", fmt.Errorf("invalid event type %q", s)
}

type JobType string

const (
	JobInternship JobType = "internship"
	JobFullTime   JobType = "full-time"
)

// ParseJobType defaults to an internship when s is empty.
func ParseJobType(s string) (JobType, error) {
	switch v := JobType(strings.ToLower(strings.TrimSpace(s))); v {
	case "":
		return JobInternship, nil
	case JobInternship, JobFullTime:
		return v, nil
	case "full_time", "fulltime":
		return JobFullTime, nil
	}
	return "", fmt.Errorf("invalid job type %q", s)
}
