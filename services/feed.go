package services

import (
	"context"
	"strings"
	"time"

	"learnerslogue/database"
	"learnerslogue/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Feed struct {
	deps Deps
}

type NewPost struct {
	Type          string
	Title         string
	Description   string
	Tags          []string
	Visibility    string
	PollOptions   []string
	PollExpiresAt *time.Time
}

func (f *Feed) CreatePost(ctx context.Context, authorID primitive.ObjectID, in NewPost) (*models.Post, error) {
	postType, err := models.ParsePostType(in.Type)
	if err != nil {
		return nil, validationError("Invalid post type.")
	}
	visibility, err := models.ParseVisibility(in.Visibility)
	if err != nil {
		return nil, validationError("Invalid visibility.")
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, validationError("Title is required.")
	}

	post := &models.Post{
		UserID:      authorID,
		Type:        postType,
		Title:       title,
		Description: in.Description,
		Tags:        cleanTags(in.Tags),
		Visibility:  visibility,
		PollOptions: []models.PollOption{},
		Likes:       []primitive.ObjectID{},
		Comments:    []models.Comment{},
		Answers:     []models.Comment{},
	}

	if postType == models.PostPoll {
		for _, label := range in.PollOptions {
			label = strings.TrimSpace(label)
			if label == "" {
				return nil, validationError("Poll options cannot be blank.")
			}
			post.PollOptions = append(post.PollOptions, models.PollOption{Option: label, Votes: []primitive.ObjectID{}})
		}
		if len(post.PollOptions) < MinPollOptions {
			return nil, validationError("Poll must have at least %d options.", MinPollOptions)
		}
		if in.PollExpiresAt != nil {
			exp := in.PollExpiresAt.UTC()
			post.PollExpiresAt = &exp
		}
	}

	if err := f.deps.Stores.Posts.Create(ctx, post); err != nil {
		return nil, err
	}

	f.deps.Realtime.Broadcast("post_created", map[string]interface{}{
		"postId": post.ID.Hex(),
		"userId": authorID.Hex(),
		"type":   post.Type,
		"title":  post.Title,
	})
	return post, nil
}

func cleanTags(tags []string) []string {
	out := []string{}
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// ListPublic returns the public feed, newest first.
func (f *Feed) ListPublic(ctx context.Context) ([]models.Post, error) {
	return f.list(ctx, database.PostFilter{Visibility: models.VisibilityPublic})
}

// ListByAuthor returns every post of an author, private ones included.
func (f *Feed) ListByAuthor(ctx context.Context, authorID primitive.ObjectID) ([]models.Post, error) {
	return f.list(ctx, database.PostFilter{AuthorID: authorID})
}

func (f *Feed) Get(ctx context.Context, postID primitive.ObjectID) (*models.Post, error) {
	p, err := f.deps.Stores.Posts.FindByID(ctx, postID)
	if err != nil {
		return nil, notFound(err, ErrPostNotFound)
	}
	return p, nil
}

func (f *Feed) DeletePost(ctx context.Context, callerID, postID primitive.ObjectID) error {
	p, err := f.Get(ctx, postID)
	if err != nil {
		return err
	}
	if p.UserID != callerID {
		return forbidden("Not authorized to delete this post")
	}
	return notFound(f.deps.Stores.Posts.Delete(ctx, postID), ErrPostNotFound)
}

// ToggleLike adds the user to the like set, or removes them if present.
func (f *Feed) ToggleLike(ctx context.Context, postID, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	var likes []primitive.ObjectID
	var liked bool
	err := retryOnConflict(ctx, f.deps.SaveAttempts, func() error {
		p, err := f.Get(ctx, postID)
		if err != nil {
			return err
		}
		var removed bool
		p.Likes, removed = models.RemoveID(p.Likes, userID)
		if !removed {
			p.Likes = append(p.Likes, userID)
		}
		if err := f.deps.Stores.Posts.Save(ctx, p); err != nil {
			return err
		}
		likes, liked = p.Likes, !removed
		return nil
	})
	if err != nil {
		return nil, err
	}

	f.deps.Realtime.Broadcast("post_liked", map[string]interface{}{
		"postId": postID.Hex(),
		"userId": userID.Hex(),
		"liked":  liked,
		"likes":  len(likes),
	})
	return likes, nil
}

func (f *Feed) AddComment(ctx context.Context, postID, userID primitive.ObjectID, text string) ([]models.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, validationError("Comment text is required")
	}
	var post *models.Post
	err := retryOnConflict(ctx, f.deps.SaveAttempts, func() error {
		p, err := f.Get(ctx, postID)
		if err != nil {
			return err
		}
		p.Comments = append(p.Comments, models.Comment{
			ID:        primitive.NewObjectID(),
			UserID:    userID,
			Text:      text,
			CreatedAt: f.deps.Now().UTC(),
		})
		if err := f.deps.Stores.Posts.Save(ctx, p); err != nil {
			return err
		}
		post = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	f.deps.Realtime.Broadcast("comment_added", map[string]interface{}{
		"postId": postID.Hex(),
		"userId": userID.Hex(),
		"text":   text,
	})
	if post.UserID != userID {
		f.deps.Push.NotifyUser(post.UserID, "New comment", "Someone commented on "+post.Title)
	}

	return f.populate(ctx, post.Comments)
}

func (f *Feed) Comments(ctx context.Context, postID primitive.ObjectID) ([]models.Comment, error) {
	p, err := f.Get(ctx, postID)
	if err != nil {
		return nil, err
	}
	return f.populate(ctx, p.Comments)
}

// AddAnswer records an answer on a question post.
func (f *Feed) AddAnswer(ctx context.Context, postID, userID primitive.ObjectID, text string) ([]models.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, validationError("Answer text is required")
	}
	var answers []models.Comment
	err := retryOnConflict(ctx, f.deps.SaveAttempts, func() error {
		p, err := f.Get(ctx, postID)
		if err != nil {
			return err
		}
		if p.Type != models.PostQuestion {
			return validationError("Only questions can be answered.")
		}
		p.Answers = append(p.Answers, models.Comment{
			ID:        primitive.NewObjectID(),
			UserID:    userID,
			Text:      text,
			CreatedAt: f.deps.Now().UTC(),
		})
		if err := f.deps.Stores.Posts.Save(ctx, p); err != nil {
			return err
		}
		answers = p.Answers
		return nil
	})
	if err != nil {
		return nil, err
	}
	return f.populate(ctx, answers)
}

func (f *Feed) populate(ctx context.Context, comments []models.Comment) ([]models.Comment, error) {
	ids := make([]primitive.ObjectID, 0, len(comments))
	for _, c := range comments {
		ids = append(ids, c.UserID)
	}
	cards, err := summaries(ctx, f.deps.Stores.Users, ids, contactCard)
	if err != nil {
		return nil, err
	}
	out := make([]models.Comment, len(comments))
	for i, c := range comments {
		c.User = summaryFor(cards, c.UserID)
		out[i] = c
	}
	return out, nil
}

func (f *Feed) list(ctx context.Context, filter database.PostFilter) ([]models.Post, error) {
	posts, err := f.deps.Stores.Posts.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.UserID)
	}
	cards, err := summaries(ctx, f.deps.Stores.Users, ids, authorCard)
	if err != nil {
		return nil, err
	}
	for i := range posts {
		posts[i].User = summaryFor(cards, posts[i].UserID)
	}
	return posts, nil
}
