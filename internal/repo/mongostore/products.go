// Package mongostore implements the product store and audit log on MongoDB.
// Dates are stored with millisecond precision, so every time value is
// truncated before it is written.
package mongostore

import (
	"context"
	"errors"
	"time"

	"github.com/crucial707/hci-catalog/internal/apperr"
	"github.com/crucial707/hci-catalog/internal/models"
	"github.com/crucial707/hci-catalog/internal/repo"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	ProductsCollection = "products"
	AuditCollection    = "audit_logs"
	CountersCollection = "counters"
)

// ProductRepo is the MongoDB ProductStore. Each write is a single-document
// operation, which gives per-key atomicity.
type ProductRepo struct {
	col *mongo.Collection
	now repo.Clock
}

var _ repo.ProductStore = (*ProductRepo)(nil)

func NewProductRepo(db *mongo.Database) *ProductRepo {
	return &ProductRepo{col: db.Collection(ProductsCollection), now: time.Now}
}

func (r *ProductRepo) Create(ctx context.Context, fields models.ProductFields) (models.Product, error) {
	fields, err := repo.ValidateCreate(fields)
	if err != nil {
		return models.Product{}, err
	}

	now := r.now().UTC().Truncate(time.Millisecond)
	p := models.Product{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now}
	fields.Apply(&p)

	if _, err := r.col.InsertOne(ctx, p); err != nil {
		return models.Product{}, apperr.Storage("insert product", err)
	}
	return p, nil
}

func (r *ProductRepo) Get(ctx context.Context, id string) (models.Product, error) {
	var p models.Product
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Product{}, apperr.ErrNotFound
	}
	if err != nil {
		return models.Product{}, apperr.Storage("get product", err)
	}
	return p, nil
}

func (r *ProductRepo) Update(ctx context.Context, id string, fields models.ProductFields) (models.Product, error) {
	fields, err := repo.ValidatePatch(fields)
	if err != nil {
		return models.Product{}, err
	}

	now := r.now().UTC().Truncate(time.Millisecond)
	set := updateSet(fields)
	// Pipeline form so updated_at can be computed from its previous value.
	set["updated_at"] = bson.M{"$max": bson.A{now, bson.M{"$add": bson.A{"$updated_at", 1}}}}
	pipeline := mongo.Pipeline{{{Key: "$set", Value: set}}}

	var p models.Product
	err = r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, pipeline,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Product{}, apperr.ErrNotFound
	}
	if err != nil {
		return models.Product{}, apperr.Storage("update product", err)
	}
	return p, nil
}

// updateSet maps the present fields to $set entries. Values are wrapped in
// $literal so a name starting with "$" is not read as a field path.
func updateSet(fields models.ProductFields) bson.M {
	set := bson.M{}
	if fields.Name != nil {
		set["name"] = bson.M{"$literal": *fields.Name}
	}
	if fields.Price != nil {
		set["price"] = bson.M{"$literal": *fields.Price}
	}
	if fields.Stock != nil {
		set["stock"] = bson.M{"$literal": *fields.Stock}
	}
	if fields.Category != nil {
		set["category"] = bson.M{"$literal": *fields.Category}
	}
	return set
}

func (r *ProductRepo) Delete(ctx context.Context, id string) (models.Product, error) {
	var p models.Product
	err := r.col.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Product{}, apperr.ErrNotFound
	}
	if err != nil {
		return models.Product{}, apperr.Storage("delete product", err)
	}
	return p, nil
}

func (r *ProductRepo) List(ctx context.Context) ([]models.Product, error) {
	cursor, err := r.col.Find(ctx, bson.M{})
	if err != nil {
		return nil, apperr.Storage("list products", err)
	}
	defer cursor.Close(ctx)

	products := []models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, apperr.Storage("list products", err)
	}
	return products, nil
}
