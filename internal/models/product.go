package models

import "time"

// Product is one catalog item.
type Product struct {
	ID        string    `json:"id" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	Price     float64   `json:"price" bson:"price"`
	Stock     int       `json:"stock" bson:"stock"`
	Category  string    `json:"category" bson:"category"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updated_at"`
}

// ProductFields carries the writable product fields. A nil pointer means the
// field was not supplied: Create requires all of them, Update applies only
// the ones present.
type ProductFields struct {
	Name     *string  `json:"name,omitempty" validate:"required,notblank"`
	Price    *float64 `json:"price,omitempty" validate:"required"`
	Stock    *int     `json:"stock,omitempty" validate:"required,min=-2147483648,max=2147483647"`
	Category *string  `json:"category,omitempty" validate:"required,notblank"`
}

// ProductPatch is the update-time view of ProductFields: absent fields are
// skipped, present string fields must still be non-blank. Stock is stored as
// a 32-bit integer.
type ProductPatch struct {
	Name     *string `validate:"omitnil,notblank"`
	Stock    *int    `validate:"omitnil,min=-2147483648,max=2147483647"`
	Category *string `validate:"omitnil,notblank"`
}

// Patch returns the validation view used by updates.
func (f ProductFields) Patch() ProductPatch {
	return ProductPatch{Name: f.Name, Stock: f.Stock, Category: f.Category}
}

// Empty reports whether no field is set.
func (f ProductFields) Empty() bool {
	return f.Name == nil && f.Price == nil && f.Stock == nil && f.Category == nil
}

// Apply copies the present fields onto p.
func (f ProductFields) Apply(p *Product) {
	if f.Name != nil {
		p.Name = *f.Name
	}
	if f.Price != nil {
		p.Price = *f.Price
	}
	if f.Stock != nil {
		p.Stock = *f.Stock
	}
	if f.Category != nil {
		p.Category = *f.Category
	}
}
