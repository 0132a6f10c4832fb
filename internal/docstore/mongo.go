package docstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoCollection stores documents in a MongoDB collection keyed by _id.
// Document types map their id field to bson "_id".
type MongoCollection[T any] struct {
	coll *mongo.Collection
	now  func() time.Time
}

// NewMongoCollection binds a collection by name.
func NewMongoCollection[T any](db *mongo.Database, name string) *MongoCollection[T] {
	return &MongoCollection[T]{coll: db.Collection(name), now: time.Now}
}

func (c *MongoCollection[T]) Create(ctx context.Context, id string, doc *T) error {
	_, err := c.coll.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

func (c *MongoCollection[T]) Get(ctx context.Context, id string) (*T, error) {
	var doc T
	if err := c.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &doc, nil
}

func (c *MongoCollection[T]) Patch(ctx context.Context, id string, fields Patch) (*T, error) {
	if err := validatePatch(fields); err != nil {
		return nil, err
	}
	set := bson.M{}
	for k, v := range withUpdatedAt(fields, c.now()) {
		set[k] = v
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc T
	err := c.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &doc, nil
}

func (c *MongoCollection[T]) Replace(ctx context.Context, id string, doc *T) (*T, error) {
	opts := options.FindOneAndReplace().SetReturnDocument(options.After)
	var out T
	if err := c.coll.FindOneAndReplace(ctx, bson.M{"_id": id}, doc, opts).Decode(&out); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

func (c *MongoCollection[T]) Delete(ctx context.Context, id string) (bool, error) {
	res, err := c.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (c *MongoCollection[T]) Query(ctx context.Context, q Query) (Page[T], error) {
	offset, err := decodeToken(q.ContinuationToken)
	if err != nil {
		return Page[T]{}, err
	}
	filter, err := buildMongoFilter(q.Filter)
	if err != nil {
		return Page[T]{}, err
	}
	sort, err := buildMongoSort(q.Sort)
	if err != nil {
		return Page[T]{}, err
	}
	size := pageSize(q.PageSize)

	opts := options.Find().
		SetSort(sort).
		SetSkip(int64(offset)).
		SetLimit(int64(size + 1))
	cursor, err := c.coll.Find(ctx, filter, opts)
	if err != nil {
		return Page[T]{}, err
	}
	defer cursor.Close(ctx)

	var items []T
	if err := cursor.All(ctx, &items); err != nil {
		return Page[T]{}, err
	}
	fetched := len(items)
	if fetched > size {
		items = items[:size]
	}
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, ContinuationToken: nextToken(offset, size, fetched)}, nil
}

// buildMongoFilter translates a Filter into a bson query document.
func buildMongoFilter(filter Filter) (bson.M, error) {
	if err := filter.validate(); err != nil {
		return nil, err
	}
	and := make([]bson.M, 0, len(filter))
	for _, cond := range filter {
		field := mongoField(cond.Field)
		switch cond.Op {
		case OpEq, OpContains:
			and = append(and, bson.M{field: cond.Value})
		case OpIn:
			and = append(and, bson.M{field: bson.M{"$in": cond.Value}})
		case OpSearch:
			term := fmt.Sprint(cond.Value)
			if term == "" || len(cond.Fields) == 0 {
				continue
			}
			regex := primitive.Regex{Pattern: regexp.QuoteMeta(term), Options: "i"}
			or := make([]bson.M, 0, len(cond.Fields))
			for _, f := range cond.Fields {
				or = append(or, bson.M{mongoField(f): bson.M{"$regex": regex}})
			}
			and = append(and, bson.M{"$or": or})
		case OpGte:
			and = append(and, bson.M{field: bson.M{"$gte": cond.Value}})
		case OpLte:
			and = append(and, bson.M{field: bson.M{"$lte": cond.Value}})
		case OpMissing:
			and = append(and, bson.M{field: nil})
		case OpNotEmpty:
			and = append(and, bson.M{field + ".0": bson.M{"$exists": true}})
		default:
			return nil, fmt.Errorf("unsupported filter op %q", cond.Op)
		}
	}
	switch len(and) {
	case 0:
		return bson.M{}, nil
	case 1:
		return and[0], nil
	}
	return bson.M{"$and": and}, nil
}

func buildMongoSort(sorts []Sort) (bson.D, error) {
	if len(sorts) == 0 {
		return bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}}, nil
	}
	out := make(bson.D, 0, len(sorts)+1)
	for _, s := range sorts {
		if err := validateField(s.Field); err != nil {
			return nil, err
		}
		dir := 1
		if s.Desc {
			dir = -1
		}
		out = append(out, bson.E{Key: mongoField(s.Field), Value: dir})
	}
	return append(out, bson.E{Key: "_id", Value: 1}), nil
}

func mongoField(field string) string {
	if field == "id" {
		return "_id"
	}
	return field
}
