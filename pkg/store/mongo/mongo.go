// Package mongo stores package graphs in MongoDB.
//
// Nodes live in the "nodes" collection keyed by their identity key, with a
// unique index over the five identity fields. Edges live in "edges" under a
// deterministic id (see store.EdgeRecord.ID), so rewriting an edge is an
// idempotent upsert. Node merges use $set for FULL writes and $setOnInsert
// for DANGLING ones, which gives the create-or-match with conditional
// overwrite that concurrent workers depend on.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/matzehuels/pomgraph/pkg/artifact"
	"github.com/matzehuels/pomgraph/pkg/store"
)

const (
	// DefaultDatabase is used when no database name is configured.
	DefaultDatabase = "pomgraph"

	nodesCollection = "nodes"
	edgesCollection = "edges"

	connectTimeout = 10 * time.Second
	mergeAttempts  = 3
)

// Backend is a MongoDB graph store.
type Backend struct {
	client *mongo.Client
	nodes  *mongo.Collection
	edges  *mongo.Collection
}

var _ store.Backend = (*Backend)(nil)

// Connect dials uri and returns a backend over database.
func Connect(ctx context.Context, uri, database string) (*Backend, error) {
	if database == "" {
		database = DefaultDatabase
	}
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	b := New(client.Database(database))
	b.client = client
	return b, nil
}

// New returns a backend over an existing database handle. Close does not
// disconnect a client it did not create.
func New(db *mongo.Database) *Backend {
	return &Backend{
		nodes: db.Collection(nodesCollection),
		edges: db.Collection(edgesCollection),
	}
}

type nodeDoc struct {
	ID               string `bson:"_id"`
	store.NodeRecord `bson:",inline"`
}

type edgeDoc struct {
	ID               string `bson:"_id"`
	store.EdgeRecord `bson:",inline"`
}

// EnsureSchema creates the identity uniqueness constraint and edge indexes.
func (b *Backend) EnsureSchema(ctx context.Context) error {
	_, err := b.nodes.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "group", Value: 1},
			{Key: "artifact", Value: 1},
			{Key: "version", Value: 1},
			{Key: "classifier", Value: 1},
			{Key: "packaging", Value: 1},
		},
		Options: options.Index().SetUnique(true).SetName("identity"),
	})
	if err != nil {
		return fmt.Errorf("create node index: %w", err)
	}
	_, err = b.edges.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "src", Value: 1}, {Key: "kind", Value: 1}}, Options: options.Index().SetName("src_kind")},
		{Keys: bson.D{{Key: "dst", Value: 1}, {Key: "kind", Value: 1}}, Options: options.Index().SetName("dst_kind")},
	})
	if err != nil {
		return fmt.Errorf("create edge indexes: %w", err)
	}
	return nil
}

// FindNode returns the node stored under key, or nil.
func (b *Backend) FindNode(ctx context.Context, key string) (*store.NodeRecord, error) {
	var doc nodeDoc
	err := b.nodes.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &doc.NodeRecord, nil
}

// FindParent follows the PARENT edge into key.
func (b *Backend) FindParent(ctx context.Context, key string) (*store.NodeRecord, error) {
	var doc edgeDoc
	err := b.edges.FindOne(ctx, bson.M{"dst": key, "kind": store.EdgeParent}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return b.FindNode(ctx, doc.Src)
}

// FindEdges returns the outgoing edges of key with one of kinds.
func (b *Backend) FindEdges(ctx context.Context, key string, kinds ...store.EdgeKind) ([]store.EdgeRecord, error) {
	filter := bson.M{"src": key}
	if len(kinds) > 0 {
		filter["kind"] = bson.M{"$in": kinds}
	}
	cur, err := b.edges.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "profile", Value: 1}, {Key: "position", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []edgeDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]store.EdgeRecord, len(docs))
	for i, d := range docs {
		out[i] = d.EdgeRecord
	}
	return out, nil
}

// Apply merges nodes one by one, then replaces and upserts edges.
func (b *Backend) Apply(ctx context.Context, batch store.Batch) error {
	for _, n := range batch.Nodes {
		if err := b.mergeNode(ctx, n); err != nil {
			return fmt.Errorf("merge node %s: %w", n.Key(), err)
		}
	}

	if batch.Replace != "" {
		if _, err := b.edges.DeleteMany(ctx, bson.M{"src": batch.Replace, "kind": bson.M{"$ne": store.EdgeParent}}); err != nil {
			return fmt.Errorf("drop edges of %s: %w", batch.Replace, err)
		}
		if _, err := b.edges.DeleteMany(ctx, bson.M{"dst": batch.Replace, "kind": store.EdgeParent}); err != nil {
			return fmt.Errorf("drop parent edge of %s: %w", batch.Replace, err)
		}
	}
	if len(batch.Edges) == 0 {
		return nil
	}

	models := make([]mongo.WriteModel, len(batch.Edges))
	for i, e := range batch.Edges {
		doc := edgeDoc{ID: e.ID(), EdgeRecord: e}
		models[i] = mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": doc.ID}).
			SetReplacement(doc).
			SetUpsert(true)
	}
	if _, err := b.edges.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false)); err != nil {
		return fmt.Errorf("write edges: %w", err)
	}
	return nil
}

// mergeNode is create-or-match on identity. Two workers upserting the same
// missing node can race on the unique index; the loser retries and then
// matches the winner's document.
func (b *Backend) mergeNode(ctx context.Context, n store.NodeRecord) error {
	op := "$setOnInsert"
	if n.Resolution == artifact.Full {
		op = "$set"
	}
	update := bson.M{op: n}
	opts := options.Update().SetUpsert(true)

	var err error
	for range mergeAttempts {
		_, err = b.nodes.UpdateOne(ctx, bson.M{"_id": n.Key()}, update, opts)
		if !mongo.IsDuplicateKeyError(err) {
			return err
		}
	}
	return err
}

// Drop removes both collections.
func (b *Backend) Drop(ctx context.Context) error {
	if err := b.nodes.Drop(ctx); err != nil {
		return err
	}
	return b.edges.Drop(ctx)
}

// Close disconnects the client when the backend owns it.
func (b *Backend) Close(ctx context.Context) error {
	if b.client == nil {
		return nil
	}
	return b.client.Disconnect(ctx)
}
