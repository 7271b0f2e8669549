package shelf

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// LibraryCollection is the collection holding shelf entries.
const LibraryCollection = "library"

// libraryDoc is the stored form of an entry. _id is "<uid>/<id>".
type libraryDoc struct {
	DocID   string    `bson:"_id"`
	UserID  string    `bson:"user_id"`
	ID      string    `bson:"id"`
	AddedAt time.Time `bson:"added_at"`
}

// MongoStore keeps shelf entries in a MongoDB collection.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	now        func() time.Time
}

// NewMongoStore creates a store on db's library collection.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		collection: db.Collection(LibraryCollection),
		now:        time.Now,
	}
}

// ConnectMongo connects to uri, verifies the connection and returns a store
// on dbName. Close releases the connection.
func ConnectMongo(ctx context.Context, uri, dbName string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	s := NewMongoStore(client.Database(dbName))
	s.client = client
	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

// EnsureIndexes creates the per-user listing index.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "added_at", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("create library index: %w", err)
	}
	return nil
}

// Close disconnects a store created by ConnectMongo.
func (s *MongoStore) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

func docID(userID, id string) string {
	return userID + "/" + id
}

func (s *MongoStore) Add(ctx context.Context, userID string, entry Entry) (err error) {
	defer func() { record("mongo", "add", err) }()

	entry, err = prepare(userID, entry, s.now())
	if err != nil {
		return err
	}

	_, err = s.collection.UpdateOne(ctx,
		bson.M{"_id": docID(userID, entry.ID)},
		bson.M{"$setOnInsert": bson.M{
			"user_id":  userID,
			"id":       entry.ID,
			"added_at": entry.AddedAt,
		}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("mongo upsert: %w", err)
	}
	return nil
}

func (s *MongoStore) List(ctx context.Context, userID string) (entries []Entry, err error) {
	defer func() { record("mongo", "list", err) }()

	opts := options.Find().SetSort(bson.D{{Key: "added_at", Value: 1}, {Key: "id", Value: 1}})
	cursor, err := s.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo find: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []libraryDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo decode: %w", err)
	}

	entries = make([]Entry, 0, len(docs))
	for _, d := range docs {
		entries = append(entries, Entry{ID: d.ID, AddedAt: d.AddedAt.UTC()})
	}
	// Mongo stores millisecond precision; re-sort so ties order by id.
	sortEntries(entries)
	return entries, nil
}

func (s *MongoStore) Remove(ctx context.Context, userID, id string) (err error) {
	defer func() { record("mongo", "remove", err) }()

	res, err := s.collection.DeleteOne(ctx, bson.M{"_id": docID(userID, id)})
	if err != nil {
		return fmt.Errorf("mongo delete: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
