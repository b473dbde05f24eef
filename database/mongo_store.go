package database

import (
	"context"
	"errors"
	"time"

	"learnerslogue/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// collection is the typed CRUD shared by the Mongo stores.
type collection[T any] struct {
	coll *mongo.Collection
}

func (c collection[T]) findOne(ctx context.Context, filter interface{}) (*T, error) {
	var doc T
	err := c.coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c collection[T]) find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]T, error) {
	cursor, err := c.coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	docs := []T{}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (c collection[T]) insert(ctx context.Context, doc *T) error {
	_, err := c.coll.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

// replaceVersion overwrites the document only if it still carries version prev.
func (c collection[T]) replaceVersion(ctx context.Context, id primitive.ObjectID, prev int64, doc *T) error {
	res, err := c.coll.ReplaceOne(ctx, bson.M{"_id": id, "version": prev}, doc)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrVersionConflict
	}
	return nil
}

func (c collection[T]) delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := c.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

var newestFirst = options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

type mongoUserStore struct {
	c collection[models.User]
}

func (s *mongoUserStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.c.findOne(ctx, bson.M{"_id": id})
}

func (s *mongoUserStore) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	return s.c.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

func (s *mongoUserStore) FindByEmailOrPhone(ctx context.Context, email, phone string) (*models.User, error) {
	var or bson.A
	if email != "" {
		or = append(or, bson.M{"email": email})
	}
	if phone != "" {
		or = append(or, bson.M{"phone": phone})
	}
	if len(or) == 0 {
		return nil, ErrNotFound
	}
	return s.c.findOne(ctx, bson.M{"$or": or})
}

func (s *mongoUserStore) Create(ctx context.Context, u *models.User) error {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	return s.c.insert(ctx, u)
}

func (s *mongoUserStore) Save(ctx context.Context, u *models.User) error {
	prev, prevUpdated := u.Version, u.UpdatedAt
	u.Version++
	u.UpdatedAt = time.Now().UTC()
	if err := s.c.replaceVersion(ctx, u.ID, prev, u); err != nil {
		u.Version, u.UpdatedAt = prev, prevUpdated
		return err
	}
	return nil
}

type mongoPostStore struct {
	c collection[models.Post]
}

func (s *mongoPostStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	return s.c.findOne(ctx, bson.M{"_id": id})
}

func (s *mongoPostStore) Find(ctx context.Context, f PostFilter) ([]models.Post, error) {
	filter := bson.M{}
	if !f.AuthorID.IsZero() {
		filter["user"] = f.AuthorID
	}
	if f.Visibility != "" {
		filter["visibility"] = f.Visibility
	}
	return s.c.find(ctx, filter, newestFirst)
}

func (s *mongoPostStore) Create(ctx context.Context, p *models.Post) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	return s.c.insert(ctx, p)
}

func (s *mongoPostStore) Save(ctx context.Context, p *models.Post) error {
	prev, prevUpdated := p.Version, p.UpdatedAt
	p.Version++
	p.UpdatedAt = time.Now().UTC()
	if err := s.c.replaceVersion(ctx, p.ID, prev, p); err != nil {
		p.Version, p.UpdatedAt = prev, prevUpdated
		return err
	}
	return nil
}

func (s *mongoPostStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	return s.c.delete(ctx, id)
}

type mongoEventStore struct {
	c collection[models.Event]
}

func (s *mongoEventStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Event, error) {
	return s.c.findOne(ctx, bson.M{"_id": id})
}

func (s *mongoEventStore) Find(ctx context.Context, hostID primitive.ObjectID) ([]models.Event, error) {
	filter := bson.M{}
	if !hostID.IsZero() {
		filter["host"] = hostID
	}
	return s.c.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "date", Value: 1}}))
}

func (s *mongoEventStore) Create(ctx context.Context, e *models.Event) error {
	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	e.CreatedAt, e.UpdatedAt = now, now
	return s.c.insert(ctx, e)
}

func (s *mongoEventStore) Save(ctx context.Context, e *models.Event) error {
	prev, prevUpdated := e.Version, e.UpdatedAt
	e.Version++
	e.UpdatedAt = time.Now().UTC()
	if err := s.c.replaceVersion(ctx, e.ID, prev, e); err != nil {
		e.Version, e.UpdatedAt = prev, prevUpdated
		return err
	}
	return nil
}

func (s *mongoEventStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	return s.c.delete(ctx, id)
}

type mongoJobStore struct {
	c collection[models.Job]
}

func (s *mongoJobStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Job, error) {
	return s.c.findOne(ctx, bson.M{"_id": id})
}

func (s *mongoJobStore) FindAll(ctx context.Context) ([]models.Job, error) {
	return s.c.find(ctx, bson.M{}, newestFirst)
}

func (s *mongoJobStore) Create(ctx context.Context, j *models.Job) error {
	if j.ID.IsZero() {
		j.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	j.CreatedAt, j.UpdatedAt = now, now
	return s.c.insert(ctx, j)
}

type mongoOTPStore struct {
	c collection[models.OTP]
}

func (s *mongoOTPStore) Put(ctx context.Context, otp models.OTP) error {
	_, err := s.c.coll.ReplaceOne(ctx, bson.M{"_id": otp.Email}, otp, options.Replace().SetUpsert(true))
	return err
}

func (s *mongoOTPStore) Get(ctx context.Context, email string) (*models.OTP, error) {
	return s.c.findOne(ctx, bson.M{"_id": email})
}

func (s *mongoOTPStore) Delete(ctx context.Context, email string) error {
	_, err := s.c.coll.DeleteOne(ctx, bson.M{"_id": email})
	return err
}

type mongoPushStore struct {
	c collection[models.PushSubscription]
}

func (s *mongoPushStore) Upsert(ctx context.Context, sub *models.PushSubscription) error {
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}
	_, err := s.c.coll.ReplaceOne(ctx, bson.M{"userId": sub.UserID}, sub, options.Replace().SetUpsert(true))
	return err
}

func (s *mongoPushStore) FindByUser(ctx context.Context, userID primitive.ObjectID) (*models.PushSubscription, error) {
	return s.c.findOne(ctx, bson.M{"userId": userID})
}

func (s *mongoPushStore) DeleteByUser(ctx context.Context, userID primitive.ObjectID) error {
	_, err := s.c.coll.DeleteOne(ctx, bson.M{"userId": userID})
	return err
}
