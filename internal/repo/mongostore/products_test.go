package mongostore

import (
	"testing"

	"github.com/crucial707/hci-catalog/internal/models"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
)

func TestUpdateSet_OnlyPresentFields(t *testing.T) {
	name := "$Gadget"
	stock := 3
	set := updateSet(models.ProductFields{Name: &name, Stock: &stock})

	assert.Len(t, set, 2)
	assert.Equal(t, bson.M{"$literal": "$Gadget"}, set["name"])
	assert.Equal(t, bson.M{"$literal": 3}, set["stock"])
	assert.NotContains(t, set, "price")
	assert.NotContains(t, set, "category")
}

func TestUpdateSet_Empty(t *testing.T) {
	assert.Empty(t, updateSet(models.ProductFields{}))
}
