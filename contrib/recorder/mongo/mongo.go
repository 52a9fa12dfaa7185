// Package mongo implements pipeline.Recorder on MongoDB, persisting every
// completed run for later audit.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/veracity-ai/veracity/rag/pipeline"
)

// Config holds MongoDB recorder configuration.
type Config struct {
	URI        string
	Database   string
	Collection string
}

// DefaultConfig returns a local-development MongoDB configuration.
func DefaultConfig() *Config {
	return &Config{
		URI:        "mongodb://localhost:27017",
		Database:   "veracity",
		Collection: "runs",
	}
}

// Recorder persists pipeline runs to a MongoDB collection.
type Recorder struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// runDocument wraps a run with storage metadata.
type runDocument struct {
	Run        *pipeline.Run `bson:"run"`
	Mode       string        `bson:"mode"`
	RecordedAt time.Time     `bson:"recorded_at"`
}

// New connects to MongoDB and prepares the runs collection.
func New(ctx context.Context, config *Config) (*Recorder, error) {
	if config == nil {
		config = DefaultConfig()
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(config.URI))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	collection := client.Database(config.Database).Collection(config.Collection)

	r := &Recorder{client: client, collection: collection}
	if err := r.createIndexes(connectCtx); err != nil {
		return nil, fmt.Errorf("create run indexes: %w", err)
	}
	return r, nil
}

func (r *Recorder) createIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "recorded_at", Value: -1}}},
		{Keys: bson.D{{Key: "mode", Value: 1}}},
	}
	_, err := r.collection.Indexes().CreateMany(ctx, models)
	return err
}

// Record implements pipeline.Recorder.
func (r *Recorder) Record(ctx context.Context, run *pipeline.Run) error {
	if run == nil {
		return fmt.Errorf("run cannot be nil")
	}
	doc := runDocument{
		Run:        run,
		Mode:       string(run.Mode),
		RecordedAt: time.Now(),
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Recent returns the latest n recorded runs, newest first.
func (r *Recorder) Recent(ctx context.Context, n int64) ([]*pipeline.Run, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "recorded_at", Value: -1}}).
		SetLimit(n)

	cursor, err := r.collection.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find runs: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []runDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode runs: %w", err)
	}
	runs := make([]*pipeline.Run, len(docs))
	for i, d := range docs {
		runs[i] = d.Run
	}
	return runs, nil
}

// Close disconnects from MongoDB.
func (r *Recorder) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

var _ pipeline.Recorder = (*Recorder)(nil)
