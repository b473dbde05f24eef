package database

import (
	"context"
	"log"
	"time"

	"learnerslogue/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo holds the client and the collections the stores are built on.
type Mongo struct {
	Client   *mongo.Client
	Users    *mongo.Collection
	Posts    *mongo.Collection
	Events   *mongo.Collection
	Jobs     *mongo.Collection
	OTPs     *mongo.Collection
	PushSubs *mongo.Collection
}

func ConnectMongo(uri, dbName string) (*Mongo, error) {
	if uri == "" {
		log.Println("MONGODB_URI not set, using default localhost")
		uri = "mongodb://127.0.0.1:27017"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	// Ping MongoDB
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	db := client.Database(dbName)
	m := &Mongo{
		Client:   client,
		Users:    db.Collection("users"),
		Posts:    db.Collection("posts"),
		Events:   db.Collection("events"),
		Jobs:     db.Collection("jobs"),
		OTPs:     db.Collection("otps"),
		PushSubs: db.Collection("push_subscriptions"),
	}

	if err := m.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	log.Println("Connected to MongoDB successfully")
	return m, nil
}

func (m *Mongo) ensureIndexes(ctx context.Context) error {
	indexes := []struct {
		coll  *mongo.Collection
		model mongo.IndexModel
	}{
		{m.Posts, mongo.IndexModel{Keys: bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}}}},
		{m.Posts, mongo.IndexModel{Keys: bson.D{{Key: "visibility", Value: 1}, {Key: "createdAt", Value: -1}}}},
		{m.Events, mongo.IndexModel{Keys: bson.D{{Key: "host", Value: 1}}}},
		{m.Jobs, mongo.IndexModel{Keys: bson.D{{Key: "createdAt", Value: -1}}}},
		// expired one-time passwords are reaped by the server
		{m.OTPs, mongo.IndexModel{
			Keys:    bson.D{{Key: "expiresAt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		}},
		{m.PushSubs, mongo.IndexModel{
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
	}
	for _, model := range userIndexes() {
		if _, err := m.Users.Indexes().CreateOne(ctx, model); err != nil {
			return err
		}
	}
	for _, idx := range indexes {
		if _, err := idx.coll.Indexes().CreateOne(ctx, idx.model); err != nil {
			return err
		}
	}
	return nil
}

// userIndexes makes email and phone unique among the accounts that have
// them. Both fields are omitted when empty, so the filter skips missing ones.
func userIndexes() []mongo.IndexModel {
	out := make([]mongo.IndexModel, 0, 2)
	for _, field := range []string{"email", "phone"} {
		out = append(out, mongo.IndexModel{
			Keys: bson.D{{Key: field, Value: 1}},
			Options: options.Index().
				SetName(field + "_unique").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{field: bson.M{"$type": "string"}}),
		})
	}
	return out
}

// Stores wires the Mongo-backed stores.
func (m *Mongo) Stores() *Stores {
	return &Stores{
		Users:    &mongoUserStore{c: collection[models.User]{m.Users}},
		Posts:    &mongoPostStore{c: collection[models.Post]{m.Posts}},
		Events:   &mongoEventStore{c: collection[models.Event]{m.Events}},
		Jobs:     &mongoJobStore{c: collection[models.Job]{m.Jobs}},
		OTPs:     &mongoOTPStore{c: collection[models.OTP]{m.OTPs}},
		PushSubs: &mongoPushStore{c: collection[models.PushSubscription]{m.PushSubs}},
	}
}

func (m *Mongo) Ping(ctx context.Context) error {
	return m.Client.Ping(ctx, nil)
}

func (m *Mongo) Disconnect() error {
	if m == nil || m.Client == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := m.Client.Disconnect(ctx); err != nil {
		return err
	}

	log.Println("Disconnected from MongoDB")
	return nil
}
