package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo stores each collection in the MongoDB collection of the same name,
// with the document key in _id.
type Mongo struct {
	db *mongo.Database
}

func NewMongo(db *mongo.Database) *Mongo {
	return &Mongo{db: db}
}

func (m *Mongo) Get(ctx context.Context, collection, key string) (Document, error) {
	var doc bson.M
	err := m.db.Collection(collection).FindOne(ctx, bson.M{KeyField: key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, unavailable(err)
	}
	return Document(doc), nil
}

func (m *Mongo) Set(ctx context.Context, collection, key string, doc Document, opts SetOptions) error {
	coll := m.db.Collection(collection)
	filter := bson.M{KeyField: key}

	var err error
	if opts.Merge {
		fields := bson.M{}
		for k, v := range doc {
			if k != KeyField {
				fields[k] = v
			}
		}
		_, err = coll.UpdateOne(ctx, filter, bson.M{"$set": fields}, options.Update().SetUpsert(true))
	} else {
		full := bson.M{KeyField: key}
		for k, v := range doc {
			full[k] = v
		}
		full[KeyField] = key
		_, err = coll.ReplaceOne(ctx, filter, full, options.Replace().SetUpsert(true))
	}
	if err != nil {
		return unavailable(err)
	}
	return nil
}

func (m *Mongo) Delete(ctx context.Context, collection, key string) error {
	if _, err := m.db.Collection(collection).DeleteOne(ctx, bson.M{KeyField: key}); err != nil {
		return unavailable(err)
	}
	return nil
}

func (m *Mongo) Query(ctx context.Context, q Query) (Page, error) {
	offset, err := decodeCursor(q.Cursor)
	if err != nil {
		return Page{}, err
	}
	limit := limitOf(q)

	opts := options.Find().SetSkip(int64(offset)).SetLimit(int64(limit + 1))
	if q.OrderBy != "" {
		opts.SetSort(bson.D{{Key: q.OrderBy, Value: 1}})
	}

	cur, err := m.db.Collection(q.Collection).Find(ctx, mongoFilter(q.Filters), opts)
	if err != nil {
		return Page{}, unavailable(err)
	}
	defer cur.Close(ctx)

	var rows []bson.M
	if err := cur.All(ctx, &rows); err != nil {
		return Page{}, unavailable(err)
	}

	page := Page{Documents: make([]Document, 0, len(rows))}
	if len(rows) > limit {
		rows = rows[:limit]
		page.NextCursor = encodeCursor(offset + limit)
	}
	for _, r := range rows {
		page.Documents = append(page.Documents, Document(r))
	}
	return page, nil
}

func mongoFilter(filters []Filter) bson.M {
	out := bson.M{}
	for _, f := range filters {
		ops, _ := out[f.Field].(bson.M)
		if ops == nil {
			ops = bson.M{}
			out[f.Field] = ops
		}
		switch f.Op {
		case Eq:
			ops["$eq"] = f.Value
		case Gte:
			ops["$gte"] = f.Value
		case Lte:
			ops["$lte"] = f.Value
		default:
			panic(fmt.Sprintf("store: unsupported operator %q", f.Op))
		}
	}
	return out
}

func unavailable(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
