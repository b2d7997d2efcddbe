package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/crucial707/hci-catalog/internal/apperr"
	"github.com/crucial707/hci-catalog/internal/models"
	"github.com/google/uuid"
)

// ========================
// REPOSITORY STRUCT
// ========================

// ProductRepo is the Postgres ProductStore.
type ProductRepo struct {
	DB *sql.DB
}

func NewProductRepo(db *sql.DB) *ProductRepo {
	return &ProductRepo{DB: db}
}

const productColumns = `id, name, price, stock, category, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (models.Product, error) {
	var p models.Product
	err := row.Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.Category, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// validID filters out ids that cannot exist so they read as not found
// instead of a uuid cast error from Postgres.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// ========================
// CREATE PRODUCT
// ========================

func (r *ProductRepo) Create(ctx context.Context, fields models.ProductFields) (models.Product, error) {
	fields, err := ValidateCreate(fields)
	if err != nil {
		return models.Product{}, err
	}

	p, err := scanProduct(r.DB.QueryRowContext(ctx,
		`INSERT INTO products (id, name, price, stock, category)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+productColumns,
		uuid.NewString(), *fields.Name, *fields.Price, *fields.Stock, *fields.Category,
	))
	if err != nil {
		return models.Product{}, apperr.Storage("insert product", err)
	}
	return p, nil
}

// ========================
// GET PRODUCT BY ID
// ========================

func (r *ProductRepo) Get(ctx context.Context, id string) (models.Product, error) {
	if !validID(id) {
		return models.Product{}, apperr.ErrNotFound
	}
	p, err := scanProduct(r.DB.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Product{}, apperr.ErrNotFound
	}
	if err != nil {
		return models.Product{}, apperr.Storage("get product", err)
	}
	return p, nil
}

// ========================
// UPDATE PRODUCT BY ID
// ========================

// Update writes the present fields in one statement, so a missing row is
// detected and the change applied atomically. updated_at always moves
// forward, even when the clock has not.
func (r *ProductRepo) Update(ctx context.Context, id string, fields models.ProductFields) (models.Product, error) {
	fields, err := ValidatePatch(fields)
	if err != nil {
		return models.Product{}, err
	}
	if !validID(id) {
		return models.Product{}, apperr.ErrNotFound
	}

	p, err := scanProduct(r.DB.QueryRowContext(ctx,
		`UPDATE products
		 SET name = COALESCE($2, name),
		     price = COALESCE($3, price),
		     stock = COALESCE($4, stock),
		     category = COALESCE($5, category),
		     updated_at = GREATEST(clock_timestamp(), updated_at + INTERVAL '1 microsecond')
		 WHERE id = $1
		 RETURNING `+productColumns,
		id, fields.Name, fields.Price, fields.Stock, fields.Category,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Product{}, apperr.ErrNotFound
	}
	if err != nil {
		return models.Product{}, apperr.Storage("update product", err)
	}
	return p, nil
}

// ========================
// DELETE PRODUCT BY ID
// ========================

func (r *ProductRepo) Delete(ctx context.Context, id string) (models.Product, error) {
	if !validID(id) {
		return models.Product{}, apperr.ErrNotFound
	}
	p, err := scanProduct(r.DB.QueryRowContext(ctx,
		`DELETE FROM products WHERE id = $1 RETURNING `+productColumns, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Product{}, apperr.ErrNotFound
	}
	if err != nil {
		return models.Product{}, apperr.Storage("delete product", err)
	}
	return p, nil
}

// ========================
// LIST ALL PRODUCTS
// ========================

func (r *ProductRepo) List(ctx context.Context) ([]models.Product, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+productColumns+` FROM products`)
	if err != nil {
		return nil, apperr.Storage("list products", err)
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, apperr.Storage("scan product", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage("list products", err)
	}
	return products, nil
}
