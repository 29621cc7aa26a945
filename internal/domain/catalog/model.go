package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Item maps to the food_item table. An item referenced by an order is
// never deleted; it is deactivated so historical orders keep resolving.
type Item struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Category    string    `db:"category" json:"category"`
	ADAFriendly bool      `db:"ada_friendly" json:"ada_friendly"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
