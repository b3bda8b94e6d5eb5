// Package listings implements the Listing feature: the data model, the
// service holding its business rules (validation, ownership checks,
// cascade delete), and the HTML CRUD handlers. It follows the same
// service-interface / handler split as the other feature packages.
package listings

import "time"

// Listing is a rentable place owned by a user.
type Listing struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Location    string    `json:"location"`
	Country     string    `json:"country"`
	ImageURL    string    `json:"image_url"`
	OwnerID     int       `json:"owner_id"`
	// OwnerName is the owner's username, joined in for display; it is not a
	// column of the listings table.
	OwnerName string    `json:"owner_name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
