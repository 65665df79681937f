package subscribers

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Finder is satisfied by *mongo.Collection.
type Finder interface {
	Find(ctx context.Context, filter any, opts ...options.Lister[options.FindOptions]) (*mongo.Cursor, error)
}

// Mongo reads active recipients from a collection of
// {email: string, active: bool, subscribed_at: date} documents.
type Mongo struct {
	coll Finder
}

// NewMongo creates a directory backed by coll.
func NewMongo(coll Finder) *Mongo {
	return &Mongo{coll: coll}
}

type subscriberDoc struct {
	Email string `bson:"email"`
}

func (m *Mongo) ActiveRecipients(ctx context.Context) ([]string, error) {
	opts := options.Find().
		SetProjection(bson.D{{Key: "email", Value: 1}}).
		SetSort(bson.D{{Key: "subscribed_at", Value: 1}, {Key: "_id", Value: 1}})

	cur, err := m.coll.Find(ctx, bson.D{{Key: "active", Value: true}}, opts)
	if err != nil {
		return nil, errors.Join(ErrQuery, err)
	}
	defer func() { _ = cur.Close(context.WithoutCancel(ctx)) }()

	var docs []subscriberDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errors.Join(ErrQuery, err)
	}

	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.Email)
	}
	return clean(out), nil
}
