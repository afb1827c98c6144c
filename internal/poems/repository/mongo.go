package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/versebook/versebook/internal/poems"
)

// MongoRepo implements a MongoDB-backed poem repository. Owner joins are done
// with a $lookup against the users collection on the owner's subject id.
// Poems are stored with a string _id (ObjectID hex assigned on create).
type MongoRepo struct {
	col      *mongo.Collection
	usersCol string
}

func NewMongoRepo(col *mongo.Collection, usersCol string) *MongoRepo {
	// index supporting the public listings (status filter + createdAt sort)
	idx := mongo.IndexModel{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}}
	col.Indexes().CreateOne(context.Background(), idx)
	if usersCol == "" {
		usersCol = "users"
	}
	return &MongoRepo{col: col, usersCol: usersCol}
}

func (m *MongoRepo) Create(ctx context.Context, p *poems.Poem) (string, error) {
	if p.ID == "" {
		p.ID = primitive.NewObjectID().Hex()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	if _, err := m.col.InsertOne(ctx, p); err != nil {
		return "", err
	}
	return p.ID, nil
}

func (m *MongoRepo) ownerLookup() []bson.D {
	return []bson.D{
		{{Key: "$lookup", Value: bson.M{
			"from":         m.usersCol,
			"localField":   "user",
			"foreignField": "sub",
			"as":           "owner",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$owner", "preserveNullAndEmptyArrays": true}}},
	}
}

func (m *MongoRepo) aggregate(ctx context.Context, pipeline []bson.D) ([]*poems.PoemWithOwner, error) {
	cur, err := m.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*poems.PoemWithOwner{}
	for cur.Next(ctx) {
		var p poems.PoemWithOwner
		if err := cur.Decode(&p); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, cur.Err()
}

func (m *MongoRepo) FindPublic(ctx context.Context) ([]*poems.PoemWithOwner, error) {
	pipeline := []bson.D{
		{{Key: "$match", Value: bson.M{"status": poems.StatusPublic}}},
		{{Key: "$sort", Value: bson.M{"createdAt": -1}}},
	}
	return m.aggregate(ctx, append(pipeline, m.ownerLookup()...))
}

func (m *MongoRepo) FindByID(ctx context.Context, id string) (*poems.PoemWithOwner, error) {
	pipeline := []bson.D{
		{{Key: "$match", Value: bson.M{"_id": id}}},
	}
	res, err := m.aggregate(ctx, append(pipeline, m.ownerLookup()...))
	if err != nil {
		return nil, err
	}
	if len(res) == 0 {
		return nil, ErrNotFound
	}
	return res[0], nil
}

func (m *MongoRepo) Get(ctx context.Context, id string) (*poems.Poem, error) {
	var p poems.Poem
	if err := m.col.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// classifyMiss distinguishes a missing record from an ownership mismatch
// after an owner-scoped write matched nothing.
func (m *MongoRepo) classifyMiss(ctx context.Context, id string) error {
	err := m.col.FindOne(ctx, bson.M{"_id": id}, options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if err == mongo.ErrNoDocuments {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return ErrForbidden
}

func (m *MongoRepo) UpdateOwned(ctx context.Context, id, owner string, in *poems.Input) error {
	set := bson.M{
		"title":     in.Title,
		"body":      in.Body,
		"status":    in.Status,
		"updatedAt": time.Now().UTC(),
	}
	res, err := m.col.UpdateOne(ctx, bson.M{"_id": id, "user": owner}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return m.classifyMiss(ctx, id)
	}
	return nil
}

func (m *MongoRepo) DeleteOwned(ctx context.Context, id, owner string) error {
	res, err := m.col.DeleteOne(ctx, bson.M{"_id": id, "user": owner})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return m.classifyMiss(ctx, id)
	}
	return nil
}

func (m *MongoRepo) FindPublicByUser(ctx context.Context, userID string) ([]*poems.PoemWithOwner, error) {
	pipeline := []bson.D{
		{{Key: "$match", Value: bson.M{"user": userID, "status": poems.StatusPublic}}},
	}
	return m.aggregate(ctx, append(pipeline, m.ownerLookup()...))
}

func (m *MongoRepo) FindByOwner(ctx context.Context, owner string) ([]*poems.Poem, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := m.col.Find(ctx, bson.M{"user": owner}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*poems.Poem{}
	for cur.Next(ctx) {
		var p poems.Poem
		if err := cur.Decode(&p); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, cur.Err()
}

func (m *MongoRepo) SetCover(ctx context.Context, id, owner, key string) error {
	set := bson.M{"coverKey": key, "updatedAt": time.Now().UTC()}
	res, err := m.col.UpdateOne(ctx, bson.M{"_id": id, "user": owner}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return m.classifyMiss(ctx, id)
	}
	return nil
}
