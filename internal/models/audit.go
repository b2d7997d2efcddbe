package models

import "time"

// ActionType is the kind of mutation an audit record describes.
type ActionType string

const (
	ActionAdded   ActionType = "Added"
	ActionUpdated ActionType = "Updated"
	ActionDeleted ActionType = "Deleted"
)

// Valid reports whether a is one of the known action types.
func (a ActionType) Valid() bool {
	switch a {
	case ActionAdded, ActionUpdated, ActionDeleted:
		return true
	}
	return false
}

// AuditRecord is one immutable audit log entry. EntityID may point at a
// product that no longer exists; EntityName is the product name at the time
// of the action.
type AuditRecord struct {
	ID         string     `json:"id" bson:"_id"`
	ActionType ActionType `json:"actionType" bson:"action_type"`
	EntityID   string     `json:"productId" bson:"product_id"`
	EntityName string     `json:"productName" bson:"product_name"`
	Timestamp  time.Time  `json:"timestamp" bson:"timestamp"`
	Seq        int64      `json:"-" bson:"seq"`
}
