package resumes

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

// MongoRepo implements Repo on a MongoDB collection. Documents are keyed by
// the string "id" field rather than _id.
type MongoRepo struct {
	col *mongo.Collection
}

var _ Repo = (*MongoRepo)(nil)

// NewMongoRepo ensures the id and uploadedAt indexes exist.
func NewMongoRepo(ctx context.Context, col *mongo.Collection) (*MongoRepo, error) {
	_, err := col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: string(FieldUploadedAt), Value: 1}}},
	})
	if err != nil {
		return nil, fmt.Errorf("ensure resume indexes: %w", err)
	}
	return &MongoRepo{col: col}, nil
}

// Save upserts by id. uploadedAt is only written on insert.
func (m *MongoRepo) Save(ctx context.Context, res Resume) (Resume, error) {
	if res.ID == "" {
		return Resume{}, fmt.Errorf("%w: id required", ErrInvalidInput)
	}
	update, err := saveUpdate(res)
	if err != nil {
		return Resume{}, err
	}
	_, err = m.col.UpdateOne(ctx, bson.M{"id": res.ID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return Resume{}, fmt.Errorf("save resume %s: %w", res.ID, err)
	}
	return m.FindByID(ctx, res.ID)
}

func (m *MongoRepo) FindByID(ctx context.Context, id string) (Resume, error) {
	var res Resume
	err := m.col.FindOne(ctx, bson.M{"id": id}).Decode(&res)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Resume{}, ErrNotFound
		}
		return Resume{}, fmt.Errorf("find resume %s: %w", id, err)
	}
	return res, nil
}

func (m *MongoRepo) FindAll(ctx context.Context) ([]Resume, error) {
	return m.find(ctx, bson.M{})
}

func (m *MongoRepo) Find(ctx context.Context, l Lookup) ([]Resume, error) {
	filter, err := lookupFilter(l)
	if err != nil {
		return nil, err
	}
	return m.find(ctx, filter)
}

func (m *MongoRepo) DeleteByID(ctx context.Context, id string) error {
	res, err := m.col.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return fmt.Errorf("delete resume %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoRepo) DeleteUploadedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := m.col.DeleteMany(ctx, bson.M{string(FieldUploadedAt): bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, fmt.Errorf("delete resumes before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	return res.DeletedCount, nil
}

func (m *MongoRepo) find(ctx context.Context, filter bson.M) ([]Resume, error) {
	cur, err := m.col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []Resume{}
	for cur.Next(ctx) {
		var res Resume
		if err := cur.Decode(&res); err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, cur.Err()
}

func saveUpdate(res Resume) (bson.M, error) {
	raw, err := bson.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("encode resume %s: %w", res.ID, err)
	}
	set := bson.M{}
	if err := bson.Unmarshal(raw, &set); err != nil {
		return nil, fmt.Errorf("encode resume %s: %w", res.ID, err)
	}
	delete(set, string(FieldUploadedAt))
	return bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{string(FieldUploadedAt): res.UploadedAt},
	}, nil
}

// lookupFilter translates a Lookup into a query document. User input is
// quoted so it is always matched literally.
func lookupFilter(l Lookup) (bson.M, error) {
	switch l.Kind {
	case MatchEquals:
		return bson.M{string(l.Field): exactRegex(l.Value)}, nil
	case MatchEitherName:
		re := exactRegex(l.Value)
		return bson.M{"$or": bson.A{
			bson.M{string(FieldFirstName): re},
			bson.M{string(FieldLastName): re},
		}}, nil
	case MatchContains:
		re := containsRegex(l.Value)
		if l.Field == FieldContent {
			return bson.M{"$or": bson.A{
				bson.M{string(FieldContent): re},
				bson.M{"text": re},
			}}, nil
		}
		return bson.M{string(l.Field): re}, nil
	case MatchAnyOf:
		in := bson.A{}
		for _, v := range l.Values {
			in = append(in, exactRegex(v))
		}
		return bson.M{string(l.Field): bson.M{"$in": in}}, nil
	case MatchAnySkill:
		re := containsRegex(l.Value)
		or := bson.A{}
		for _, c := range AllSkillCategories {
			or = append(or, bson.M{string(SkillField(c)): re})
		}
		return bson.M{"$or": or}, nil
	case MatchUploadedBetween:
		return bson.M{string(FieldUploadedAt): bson.M{"$gte": l.From, "$lte": l.To}}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported lookup %s", ErrInvalidCriteria, l)
	}
}

func exactRegex(v string) primitive.Regex {
	return primitive.Regex{Pattern: "^" + regexp.QuoteMeta(v) + "$", Options: "i"}
}

func containsRegex(v string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(v), Options: "i"}
}
