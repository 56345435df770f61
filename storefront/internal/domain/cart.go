package domain

import "time"

// CartLine is one priced entry in a cart, unique per Identity.
type CartLine struct {
	Identity  string      `json:"identity" bson:"identity"`
	Item      CatalogItem `json:"item" bson:"item"`
	UnitPrice string      `json:"unitPrice" bson:"unit_price"`
	Currency  string      `json:"currency" bson:"currency"`
	Quantity  int         `json:"quantity" bson:"quantity"`
	AddedAt   time.Time   `json:"addedAt" bson:"added_at"`
}

// CartState is what observers of a cart see after each mutation.
type CartState struct {
	Lines  []CartLine `json:"lines"`
	IsOpen bool       `json:"isOpen"`
}

// CartSnapshot is the persisted form of a user's cart.
type CartSnapshot struct {
	ID        string     `bson:"_id,omitempty" json:"id,omitempty"`
	UserID    string     `bson:"user_id" json:"user_id"`
	Lines     []CartLine `bson:"lines" json:"lines"`
	IsOpen    bool       `bson:"is_open" json:"is_open"`
	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updated_at"`
}
