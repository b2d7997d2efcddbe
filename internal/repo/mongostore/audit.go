package mongostore

import (
	"context"
	"fmt"
	"time"

	"github.com/crucial707/hci-catalog/internal/apperr"
	"github.com/crucial707/hci-catalog/internal/models"
	"github.com/crucial707/hci-catalog/internal/repo"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const auditSeqCounter = "audit_seq"

// AuditRepo is the MongoDB AuditLog. The insertion sequence comes from a
// counter document so ties on timestamp can be ordered.
type AuditRepo struct {
	col      *mongo.Collection
	counters *mongo.Collection
	now      repo.Clock
}

var _ repo.AuditLog = (*AuditRepo)(nil)

func NewAuditRepo(db *mongo.Database) *AuditRepo {
	return &AuditRepo{
		col:      db.Collection(AuditCollection),
		counters: db.Collection(CountersCollection),
		now:      time.Now,
	}
}

func (r *AuditRepo) Append(ctx context.Context, action models.ActionType, entityID, entityName string) (models.AuditRecord, error) {
	if !action.Valid() {
		return models.AuditRecord{}, fmt.Errorf("audit append: unknown action %q", action)
	}

	seq, err := r.nextSeq(ctx)
	if err != nil {
		return models.AuditRecord{}, apperr.Storage("next audit sequence", err)
	}
	rec := models.AuditRecord{
		ID:         uuid.NewString(),
		ActionType: action,
		EntityID:   entityID,
		EntityName: entityName,
		Timestamp:  r.now().UTC().Truncate(time.Millisecond),
		Seq:        seq,
	}
	if _, err := r.col.InsertOne(ctx, rec); err != nil {
		return models.AuditRecord{}, apperr.Storage("append audit record", err)
	}
	return rec, nil
}

func (r *AuditRepo) nextSeq(ctx context.Context) (int64, error) {
	var counter struct {
		Value int64 `bson:"value"`
	}
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": auditSeqCounter},
		bson.M{"$inc": bson.M{"value": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	return counter.Value, err
}

func (r *AuditRepo) List(ctx context.Context) ([]models.AuditRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "seq", Value: -1}})
	cursor, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, apperr.Storage("list audit records", err)
	}
	defer cursor.Close(ctx)

	records := []models.AuditRecord{}
	if err := cursor.All(ctx, &records); err != nil {
		return nil, apperr.Storage("list audit records", err)
	}
	return records, nil
}

// EnsureIndexes creates the listing and per-product indexes.
func (r *AuditRepo) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "timestamp", Value: -1}, {Key: "seq", Value: -1}}},
		{Keys: bson.D{{Key: "product_id", Value: 1}}},
	}
	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
