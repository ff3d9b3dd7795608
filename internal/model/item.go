package model

import (
	"database/sql"
	"encoding/json"
	"time"
)

// Date is a nullable day-granularity timestamp. It stores like
// sql.NullTime but marshals as "YYYY-MM-DD" or null, so items can be
// returned to clients as-is.
type Date struct {
	sql.NullTime
}

func (d Date) MarshalJSON() ([]byte, error) {
	if !d.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(d.Time.Format("2006-01-02"))
}

// Item is a lost-or-found report. Landf is either "lost" or "found".
// Email identifies the reporter; the user-delete cascade removes items by
// this email, not by a key.
type Item struct {
	ID          uint64    `json:"_id"`
	Landf       string    `json:"landf"`
	Title       string    `json:"title"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	HappenedOn  Date      `json:"date"`
	Photo       string    `json:"photo"`
	Contact     string    `json:"contact"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	CreatedAt   time.Time `json:"created_at"`
}

// Claim is a request submitted against an item. ItemID is a plain string,
// not an enforced reference: claims may dangle after their item is deleted
// and readers must tolerate that.
type Claim struct {
	ID          uint64    `json:"_id"`
	ItemID      string    `json:"id"`
	Email       string    `json:"email"`
	Description string    `json:"description"`
	Phone       string    `json:"phone"`
	CreatedAt   time.Time `json:"created_at"`
}

// ClaimWithItem pairs a claim with the item it targets for the admin
// review listing.
type ClaimWithItem struct {
	Item  *Item `json:"foundandlostItem"`
	Claim Claim `json:"claim"`
}

// WallComment is an entry on the lost-and-found comment wall. Posts are
// anonymous: the username is free text, not tied to an account.
type WallComment struct {
	ID        uint64    `json:"_id"`
	Username  string    `json:"username"`
	Body      string    `json:"commentText"`
	CreatedAt time.Time `json:"created_at"`
}
