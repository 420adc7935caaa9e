package manager

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/redbco/redb-connect/pkg/adapter"
)

type mongoStrategy struct {
	db *mongo.Database
}

func (s *mongoStrategy) insertOne(ctx context.Context, table string, rec Record) (InsertResult, error) {
	res, err := s.db.Collection(table).InsertOne(ctx, toBSON(rec))
	if err != nil {
		return InsertResult{}, err
	}
	return InsertResult{ID: fromBSON(res.InsertedID), Acknowledged: res.Acknowledged}, nil
}

// insertMany issues one unordered InsertMany so one bad document does not
// stop the rest. Ids are assigned up front to report them per record.
func (s *mongoStrategy) insertMany(ctx context.Context, table string, recs []Record) (InsertManyResult, error) {
	docs := make([]interface{}, len(recs))
	res := InsertManyResult{Results: make([]RecordResult, len(recs))}
	for i, rec := range recs {
		doc := toBSON(rec)
		if _, ok := doc["_id"]; !ok {
			doc["_id"] = bson.NewObjectID()
		}
		docs[i] = doc
		res.Results[i] = RecordResult{Index: i, ID: fromBSON(doc["_id"])}
	}

	_, err := s.db.Collection(table).InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err == nil {
		return res, nil
	}

	var bulk mongo.BulkWriteException
	if !errors.As(err, &bulk) || len(bulk.WriteErrors) == 0 {
		for i := range res.Results {
			res.Results[i].Err = err
		}
		return res, fmt.Errorf("%w: %v", adapter.ErrPartialInsert, err)
	}
	for _, we := range bulk.WriteErrors {
		if we.Index >= 0 && we.Index < len(res.Results) {
			res.Results[we.Index].Err = errors.New(we.Message)
		}
	}
	return res, fmt.Errorf("%w: %d of %d records failed", adapter.ErrPartialInsert, len(res.Failed()), len(recs))
}

func (s *mongoStrategy) findOne(ctx context.Context, table string, filter Filter) (Record, error) {
	var doc bson.M
	err := s.db.Collection(table).FindOne(ctx, mongoFilter(filter)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return fromBSONDoc(doc), nil
}

func (s *mongoStrategy) findAll(ctx context.Context, table string, filter Filter, limit int) ([]Record, error) {
	opts := options.Find()
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := s.db.Collection(table).Find(ctx, mongoFilter(filter), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]Record, len(docs))
	for i, doc := range docs {
		out[i] = fromBSONDoc(doc)
	}
	return out, nil
}

// updateOne reports the matched count, so an update that leaves the
// document unchanged still counts as one.
func (s *mongoStrategy) updateOne(ctx context.Context, table string, filter Filter, changes Record) (int64, error) {
	update := bson.D{{Key: "$set", Value: toBSON(changes)}}
	res, err := s.db.Collection(table).UpdateOne(ctx, mongoFilter(filter), update)
	if err != nil {
		return 0, err
	}
	return res.MatchedCount, nil
}

func (s *mongoStrategy) deleteOne(ctx context.Context, table string, filter Filter) (int64, error) {
	res, err := s.db.Collection(table).DeleteOne(ctx, mongoFilter(filter))
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// mongoFilter converts a hex string _id to an ObjectID.
func mongoFilter(filter Filter) bson.M {
	out := bson.M{}
	for k, v := range filter {
		out[k] = v
	}
	if hex, ok := out["_id"].(string); ok && len(hex) == 24 {
		if oid, err := bson.ObjectIDFromHex(hex); err == nil {
			out["_id"] = oid
		}
	}
	return out
}

func toBSON(rec Record) bson.M {
	doc := make(bson.M, len(rec))
	for k, v := range rec {
		doc[k] = v
	}
	if hex, ok := doc["_id"].(string); ok && len(hex) == 24 {
		if oid, err := bson.ObjectIDFromHex(hex); err == nil {
			doc["_id"] = oid
		}
	}
	return doc
}

func fromBSONDoc(doc bson.M) Record {
	out := make(Record, len(doc))
	for k, v := range doc {
		out[k] = fromBSON(v)
	}
	return out
}

// fromBSON converts driver types to plain Go values.
func fromBSON(v interface{}) interface{} {
	switch val := v.(type) {
	case bson.ObjectID:
		return val.Hex()
	case bson.DateTime:
		return val.Time().UTC()
	case bson.Timestamp:
		return time.Unix(int64(val.T), 0).UTC()
	case bson.Decimal128:
		return val.String()
	case bson.Binary:
		return val.Data
	case bson.M:
		return fromBSONDoc(val)
	case map[string]interface{}:
		return fromBSONDoc(val)
	case bson.D:
		m := make(Record, len(val))
		for _, elem := range val {
			m[elem.Key] = fromBSON(elem.Value)
		}
		return m
	case bson.A:
		arr := make([]interface{}, len(val))
		for i, item := range val {
			arr[i] = fromBSON(item)
		}
		return arr
	case []interface{}:
		arr := make([]interface{}, len(val))
		for i, item := range val {
			arr[i] = fromBSON(item)
		}
		return arr
	default:
		return v
	}
}
