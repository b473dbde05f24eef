package database

import (
	"context"
	"sort"
	"sync"
	"time"

	"learnerslogue/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NewMemoryStores returns stores with the same semantics as the Mongo ones,
// held in process memory. Documents are stored BSON-encoded so callers never
// share slices with the store.
func NewMemoryStores() *Stores {
	return &Stores{
		Users:    &memUserStore{c: newMemCollection[primitive.ObjectID, models.User]()},
		Posts:    &memPostStore{c: newMemCollection[primitive.ObjectID, models.Post]()},
		Events:   &memEventStore{c: newMemCollection[primitive.ObjectID, models.Event]()},
		Jobs:     &memJobStore{c: newMemCollection[primitive.ObjectID, models.Job]()},
		OTPs:     &memOTPStore{c: newMemCollection[string, models.OTP]()},
		PushSubs: &memPushStore{c: newMemCollection[primitive.ObjectID, models.PushSubscription]()},
	}
}

type memDoc struct {
	raw     []byte
	version int64
	seq     int
}

type memCollection[K comparable, T any] struct {
	mu   sync.RWMutex
	docs map[K]memDoc
	seq  int
}

func newMemCollection[K comparable, T any]() *memCollection[K, T] {
	return &memCollection[K, T]{docs: make(map[K]memDoc)}
}

func (c *memCollection[K, T]) get(key K) (*T, error) {
	c.mu.RLock()
	d, ok := c.docs[key]
	c.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	var doc T
	if err := bson.Unmarshal(d.raw, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c *memCollection[K, T]) insert(key K, version int64, doc *T) error {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.docs[key]; ok {
		return ErrDuplicate
	}
	c.seq++
	c.docs[key] = memDoc{raw: raw, version: version, seq: c.seq}
	return nil
}

// put inserts or overwrites without a version check.
func (c *memCollection[K, T]) put(key K, doc *T) error {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.docs[key]
	if !ok {
		c.seq++
		d.seq = c.seq
	}
	d.raw = raw
	c.docs[key] = d
	return nil
}

func (c *memCollection[K, T]) replaceVersion(key K, prev int64, doc *T) error {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.docs[key]
	if !ok || d.version != prev {
		return ErrVersionConflict
	}
	d.raw = raw
	d.version = prev + 1
	c.docs[key] = d
	return nil
}

func (c *memCollection[K, T]) delete(key K) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.docs[key]; !ok {
		return ErrNotFound
	}
	delete(c.docs, key)
	return nil
}

// filter returns matching documents, most recently inserted first.
func (c *memCollection[K, T]) filter(match func(*T) bool) ([]T, error) {
	c.mu.RLock()
	entries := make([]memDoc, 0, len(c.docs))
	for _, d := range c.docs {
		entries = append(entries, d)
	}
	c.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].seq > entries[j].seq })

	out := []T{}
	for _, d := range entries {
		var doc T
		if err := bson.Unmarshal(d.raw, &doc); err != nil {
			return nil, err
		}
		if match == nil || match(&doc) {
			out = append(out, doc)
		}
	}
	return out, nil
}

type memUserStore struct {
	c *memCollection[primitive.ObjectID, models.User]

	// mu serializes writes so the email and phone checks hold
	mu sync.Mutex
}

// taken reports whether another account already uses u's email or phone.
func (s *memUserStore) taken(u *models.User) (bool, error) {
	if u.Email == "" && u.Phone == "" {
		return false, nil
	}
	clash, err := s.c.filter(func(o *models.User) bool {
		if o.ID == u.ID {
			return false
		}
		return (u.Email != "" && o.Email == u.Email) || (u.Phone != "" && o.Phone == u.Phone)
	})
	return len(clash) > 0, err
}

func (s *memUserStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.c.get(id)
}

func (s *memUserStore) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	return s.c.filter(func(u *models.User) bool { return models.ContainsID(ids, u.ID) })
}

func (s *memUserStore) FindByEmailOrPhone(_ context.Context, email, phone string) (*models.User, error) {
	if email == "" && phone == "" {
		return nil, ErrNotFound
	}
	users, err := s.c.filter(func(u *models.User) bool {
		return (email != "" && u.Email == email) || (phone != "" && u.Phone == phone)
	})
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, ErrNotFound
	}
	return &users[len(users)-1], nil
}

func (s *memUserStore) Create(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if taken, err := s.taken(u); err != nil {
		return err
	} else if taken {
		return ErrDuplicate
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	return s.c.insert(u.ID, u.Version, u)
}

func (s *memUserStore) Save(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if taken, err := s.taken(u); err != nil {
		return err
	} else if taken {
		return ErrDuplicate
	}
	prev, prevUpdated := u.Version, u.UpdatedAt
	u.Version++
	u.UpdatedAt = time.Now().UTC()
	if err := s.c.replaceVersion(u.ID, prev, u); err != nil {
		u.Version, u.UpdatedAt = prev, prevUpdated
		return err
	}
	return nil
}

type memPostStore struct {
	c *memCollection[primitive.ObjectID, models.Post]
}

func (s *memPostStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Post, error) {
	return s.c.get(id)
}

func (s *memPostStore) Find(_ context.Context, f PostFilter) ([]models.Post, error) {
	posts, err := s.c.filter(func(p *models.Post) bool {
		if !f.AuthorID.IsZero() && p.UserID != f.AuthorID {
			return false
		}
		return f.Visibility == "" || p.Visibility == f.Visibility
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(posts, func(i, j int) bool { return posts[i].CreatedAt.After(posts[j].CreatedAt) })
	return posts, nil
}

func (s *memPostStore) Create(_ context.Context, p *models.Post) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	return s.c.insert(p.ID, p.Version, p)
}

func (s *memPostStore) Save(_ context.Context, p *models.Post) error {
	prev, prevUpdated := p.Version, p.UpdatedAt
	p.Version++
	p.UpdatedAt = time.Now().UTC()
	if err := s.c.replaceVersion(p.ID, prev, p); err != nil {
		p.Version, p.UpdatedAt = prev, prevUpdated
		return err
	}
	return nil
}

func (s *memPostStore) Delete(_ context.Context, id primitive.ObjectID) error {
	return s.c.delete(id)
}

type memEventStore struct {
	c *memCollection[primitive.ObjectID, models.Event]
}

func (s *memEventStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Event, error) {
	return s.c.get(id)
}

func (s *memEventStore) Find(_ context.Context, hostID primitive.ObjectID) ([]models.Event, error) {
	events, err := s.c.filter(func(e *models.Event) bool {
		return hostID.IsZero() || e.HostID == hostID
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].Date.Before(events[j].Date) })
	return events, nil
}

func (s *memEventStore) Create(_ context.Context, e *models.Event) error {
	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	e.CreatedAt, e.UpdatedAt = now, now
	return s.c.insert(e.ID, e.Version, e)
}

func (s *memEventStore) Save(_ context.Context, e *models.Event) error {
	prev, prevUpdated := e.Version, e.UpdatedAt
	e.Version++
	e.UpdatedAt = time.Now().UTC()
	if err := s.c.replaceVersion(e.ID, prev, e); err != nil {
		e.Version, e.UpdatedAt = prev, prevUpdated
		return err
	}
	return nil
}

func (s *memEventStore) Delete(_ context.Context, id primitive.ObjectID) error {
	return s.c.delete(id)
}

type memJobStore struct {
	c *memCollection[primitive.ObjectID, models.Job]
}

func (s *memJobStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Job, error) {
	return s.c.get(id)
}

func (s *memJobStore) FindAll(_ context.Context) ([]models.Job, error) {
	jobs, err := s.c.filter(nil)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(jobs, func(i, j int) bool { return jobs[i].CreatedAt.After(jobs[j].CreatedAt) })
	return jobs, nil
}

func (s *memJobStore) Create(_ context.Context, j *models.Job) error {
	if j.ID.IsZero() {
		j.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	j.CreatedAt, j.UpdatedAt = now, now
	return s.c.insert(j.ID, 0, j)
}

type memOTPStore struct {
	c *memCollection[string, models.OTP]
}

func (s *memOTPStore) Put(_ context.Context, otp models.OTP) error {
	return s.c.put(otp.Email, &otp)
}

func (s *memOTPStore) Get(_ context.Context, email string) (*models.OTP, error) {
	return s.c.get(email)
}

func (s *memOTPStore) Delete(_ context.Context, email string) error {
	if err := s.c.delete(email); err != nil && err != ErrNotFound {
		return err
	}
	return nil
}

type memPushStore struct {
	c *memCollection[primitive.ObjectID, models.PushSubscription]
}

func (s *memPushStore) Upsert(_ context.Context, sub *models.PushSubscription) error {
	if sub.ID.IsZero() {
		sub.ID = primitive.NewObjectID()
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}
	return s.c.put(sub.UserID, sub)
}

func (s *memPushStore) FindByUser(_ context.Context, userID primitive.ObjectID) (*models.PushSubscription, error) {
	return s.c.get(userID)
}

func (s *memPushStore) DeleteByUser(_ context.Context, userID primitive.ObjectID) error {
	if err := s.c.delete(userID); err != nil && err != ErrNotFound {
		return err
	}
	return nil
}
