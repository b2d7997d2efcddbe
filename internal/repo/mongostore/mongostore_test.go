package mongostore

import (
	"context"
	"testing"
	"time"

	"github.com/crucial707/hci-catalog/internal/apperr"
	"github.com/crucial707/hci-catalog/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 123456789, time.UTC)

func fixedClock() time.Time { return fixedNow }

func strPtr(s string) *string      { return &s }
func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }

func widget() models.ProductFields {
	return models.ProductFields{Name: strPtr("Widget"), Price: floatPtr(9.99), Stock: intPtr(5), Category: strPtr("Tools")}
}

// toDoc round-trips v through BSON so mock responses carry the stored field names.
func toDoc(mt *mtest.T, v interface{}) bson.D {
	raw, err := bson.Marshal(v)
	require.NoError(mt, err)
	var d bson.D
	require.NoError(mt, bson.Unmarshal(raw, &d))
	return d
}

func storedWidget(id string) models.Product {
	at := fixedNow.Truncate(time.Millisecond)
	return models.Product{ID: id, Name: "Widget", Price: 9.99, Stock: 5, Category: "Tools", CreatedAt: at, UpdatedAt: at}
}

func newMock(t *testing.T) *mtest.T {
	return mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
}

var badValue = mtest.CommandError{Code: 2, Name: "BadValue", Message: "bad value"}

func TestProductRepo(t *testing.T) {
	mt := newMock(t)
	ctx := context.Background()

	mt.Run("create inserts truncated timestamps", func(mt *mtest.T) {
		r := NewProductRepo(mt.DB)
		r.now = fixedClock
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		p, err := r.Create(ctx, widget())
		require.NoError(mt, err)
		assert.NotEmpty(mt, p.ID)
		assert.True(mt, p.CreatedAt.Equal(fixedNow.Truncate(time.Millisecond)))
		assert.True(mt, p.UpdatedAt.Equal(p.CreatedAt))

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		assert.Equal(mt, "insert", evt.CommandName)
		doc := evt.Command.Lookup("documents").Array().Index(0).Value().Document()
		assert.Equal(mt, p.ID, doc.Lookup("_id").StringValue())
		assert.Equal(mt, "Widget", doc.Lookup("name").StringValue())
	})

	mt.Run("create rejects invalid input without a round trip", func(mt *mtest.T) {
		r := NewProductRepo(mt.DB)

		_, err := r.Create(ctx, models.ProductFields{Name: strPtr("  ")})
		ve, ok := apperr.IsValidation(err)
		require.True(mt, ok)
		assert.Contains(mt, ve.Fields, "name")
		assert.Nil(mt, mt.GetStartedEvent())
	})

	mt.Run("create write error is a storage error", func(mt *mtest.T) {
		r := NewProductRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "duplicate key"}))

		_, err := r.Create(ctx, widget())
		var se *apperr.StorageError
		assert.ErrorAs(mt, err, &se)
	})

	mt.Run("get decodes the document", func(mt *mtest.T) {
		r := NewProductRepo(mt.DB)
		want := storedWidget("p-1")
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.products", mtest.FirstBatch, toDoc(mt, want)))

		got, err := r.Get(ctx, "p-1")
		require.NoError(mt, err)
		assert.Equal(mt, "p-1", got.ID)
		assert.Equal(mt, "Widget", got.Name)
		assert.Equal(mt, 5, got.Stock)
		assert.True(mt, got.UpdatedAt.Equal(want.UpdatedAt))
	})

	mt.Run("get missing is not found", func(mt *mtest.T) {
		r := NewProductRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.products", mtest.FirstBatch))

		_, err := r.Get(ctx, "missing")
		assert.ErrorIs(mt, err, apperr.ErrNotFound)
	})

	mt.Run("get command error is a storage error", func(mt *mtest.T) {
		r := NewProductRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(badValue))

		_, err := r.Get(ctx, "p-1")
		var se *apperr.StorageError
		assert.ErrorAs(mt, err, &se)
		assert.NotErrorIs(mt, err, apperr.ErrNotFound)
	})

	mt.Run("update bumps updated_at from its previous value", func(mt *mtest.T) {
		r := NewProductRepo(mt.DB)
		r.now = fixedClock
		after := storedWidget("p-1")
		after.Stock = 7
		after.UpdatedAt = after.UpdatedAt.Add(time.Millisecond)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: toDoc(mt, after)}))

		got, err := r.Update(ctx, "p-1", models.ProductFields{Stock: intPtr(7)})
		require.NoError(mt, err)
		assert.Equal(mt, 7, got.Stock)
		assert.Equal(mt, "Widget", got.Name)

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		assert.Equal(mt, "findAndModify", evt.CommandName)
		assert.True(mt, evt.Command.Lookup("new").Boolean())
		set := evt.Command.Lookup("update").Array().Index(0).Value().Document().Lookup("$set").Document()
		_, err = set.LookupErr("updated_at", "$max")
		assert.NoError(mt, err, "updated_at must be computed with $max")
		assert.Equal(mt, int64(7), set.Lookup("stock", "$literal").AsInt64())
		_, err = set.LookupErr("name")
		assert.Error(mt, err, "absent fields must not be set")
	})

	mt.Run("update missing is not found", func(mt *mtest.T) {
		r := NewProductRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))

		_, err := r.Update(ctx, "missing", models.ProductFields{Stock: intPtr(1)})
		assert.ErrorIs(mt, err, apperr.ErrNotFound)
	})

	mt.Run("update rejects blank name without a round trip", func(mt *mtest.T) {
		r := NewProductRepo(mt.DB)

		_, err := r.Update(ctx, "p-1", models.ProductFields{Name: strPtr("")})
		_, ok := apperr.IsValidation(err)
		assert.True(mt, ok)
		assert.Nil(mt, mt.GetStartedEvent())
	})

	mt.Run("delete returns the removed snapshot", func(mt *mtest.T) {
		r := NewProductRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: toDoc(mt, storedWidget("p-1"))}))

		removed, err := r.Delete(ctx, "p-1")
		require.NoError(mt, err)
		assert.Equal(mt, "Widget", removed.Name)

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		assert.True(mt, evt.Command.Lookup("remove").Boolean())
	})

	mt.Run("delete missing is not found", func(mt *mtest.T) {
		r := NewProductRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))

		_, err := r.Delete(ctx, "missing")
		assert.ErrorIs(mt, err, apperr.ErrNotFound)
	})

	mt.Run("delete command error is a storage error", func(mt *mtest.T) {
		r := NewProductRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(badValue))

		_, err := r.Delete(ctx, "p-1")
		var se *apperr.StorageError
		assert.ErrorAs(mt, err, &se)
	})

	mt.Run("list returns every document", func(mt *mtest.T) {
		r := NewProductRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.products", mtest.FirstBatch,
			toDoc(mt, storedWidget("p-1")), toDoc(mt, storedWidget("p-2"))))

		got, err := r.List(ctx)
		require.NoError(mt, err)
		require.Len(mt, got, 2)
		assert.Equal(mt, "p-1", got[0].ID)
		assert.Equal(mt, "p-2", got[1].ID)
	})

	mt.Run("list of empty collection is empty not nil", func(mt *mtest.T) {
		r := NewProductRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.products", mtest.FirstBatch))

		got, err := r.List(ctx)
		require.NoError(mt, err)
		assert.NotNil(mt, got)
		assert.Empty(mt, got)
	})
}

func TestAuditRepo(t *testing.T) {
	mt := newMock(t)
	ctx := context.Background()

	mt.Run("append takes the next sequence", func(mt *mtest.T) {
		r := NewAuditRepo(mt.DB)
		r.now = fixedClock
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
				{Key: "_id", Value: auditSeqCounter},
				{Key: "value", Value: int64(7)},
			}}),
			mtest.CreateSuccessResponse(),
		)

		rec, err := r.Append(ctx, models.ActionAdded, "p-1", "Widget")
		require.NoError(mt, err)
		assert.Equal(mt, int64(7), rec.Seq)
		assert.Equal(mt, models.ActionAdded, rec.ActionType)
		assert.Equal(mt, "p-1", rec.EntityID)
		assert.Equal(mt, "Widget", rec.EntityName)
		assert.True(mt, rec.Timestamp.Equal(fixedNow.Truncate(time.Millisecond)))

		counter := mt.GetStartedEvent()
		require.NotNil(mt, counter)
		assert.Equal(mt, "findAndModify", counter.CommandName)
		assert.Equal(mt, CountersCollection, counter.Command.Lookup("findAndModify").StringValue())
		assert.True(mt, counter.Command.Lookup("upsert").Boolean())
		assert.Equal(mt, int64(1), counter.Command.Lookup("update", "$inc", "value").AsInt64())

		insert := mt.GetStartedEvent()
		require.NotNil(mt, insert)
		assert.Equal(mt, "insert", insert.CommandName)
		assert.Equal(mt, AuditCollection, insert.Command.Lookup("insert").StringValue())
		doc := insert.Command.Lookup("documents").Array().Index(0).Value().Document()
		assert.Equal(mt, int64(7), doc.Lookup("seq").AsInt64())
		assert.Equal(mt, "Added", doc.Lookup("action_type").StringValue())
	})

	mt.Run("append fails when the counter fails", func(mt *mtest.T) {
		r := NewAuditRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(badValue))

		_, err := r.Append(ctx, models.ActionDeleted, "p-1", "Widget")
		var se *apperr.StorageError
		require.ErrorAs(mt, err, &se)
		assert.Equal(mt, "next audit sequence", se.Op)

		require.NotNil(mt, mt.GetStartedEvent())
		assert.Nil(mt, mt.GetStartedEvent(), "no insert after a counter failure")
	})

	mt.Run("append insert error is a storage error", func(mt *mtest.T) {
		r := NewAuditRepo(mt.DB)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{{Key: "value", Value: int64(1)}}}),
			mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "duplicate key"}),
		)

		_, err := r.Append(ctx, models.ActionUpdated, "p-1", "Widget")
		var se *apperr.StorageError
		require.ErrorAs(mt, err, &se)
		assert.Equal(mt, "append audit record", se.Op)
	})

	mt.Run("append rejects unknown actions without a round trip", func(mt *mtest.T) {
		r := NewAuditRepo(mt.DB)

		_, err := r.Append(ctx, models.ActionType("Renamed"), "p-1", "Widget")
		assert.Error(mt, err)
		assert.Nil(mt, mt.GetStartedEvent())
	})

	mt.Run("list sorts newest first with seq tie-break", func(mt *mtest.T) {
		r := NewAuditRepo(mt.DB)
		at := fixedNow.Truncate(time.Millisecond)
		newer := models.AuditRecord{ID: "a-2", ActionType: models.ActionUpdated, EntityID: "p-1", EntityName: "Gadget", Timestamp: at, Seq: 2}
		older := models.AuditRecord{ID: "a-1", ActionType: models.ActionAdded, EntityID: "p-1", EntityName: "Widget", Timestamp: at, Seq: 1}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.audit_logs", mtest.FirstBatch, toDoc(mt, newer), toDoc(mt, older)))

		got, err := r.List(ctx)
		require.NoError(mt, err)
		require.Len(mt, got, 2)
		assert.Equal(mt, "a-2", got[0].ID)
		assert.Equal(mt, int64(2), got[0].Seq)
		assert.Equal(mt, "a-1", got[1].ID)

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		assert.Equal(mt, "find", evt.CommandName)
		elems, err := evt.Command.Lookup("sort").Document().Elements()
		require.NoError(mt, err)
		require.Len(mt, elems, 2)
		assert.Equal(mt, "timestamp", elems[0].Key())
		assert.Equal(mt, int64(-1), elems[0].Value().AsInt64())
		assert.Equal(mt, "seq", elems[1].Key())
		assert.Equal(mt, int64(-1), elems[1].Value().AsInt64())
	})

	mt.Run("list command error is a storage error", func(mt *mtest.T) {
		r := NewAuditRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(badValue))

		_, err := r.List(ctx)
		var se *apperr.StorageError
		assert.ErrorAs(mt, err, &se)
	})
}
