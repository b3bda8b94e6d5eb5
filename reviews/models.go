// Package reviews implements the Review feature: ratings and comments that
// users attach to listings. A review belongs to exactly one listing and one
// author; deleting a listing removes its reviews, and a review can be removed
// by its author or by the listing's owner.
package reviews

import "time"

// Review is a rating/comment pair on a listing.
type Review struct {
	ID        int    `json:"id"`
	ListingID int    `json:"listing_id"`
	AuthorID  int    `json:"author_id"`
	// AuthorName is the author's username, joined in for display.
	AuthorName string    `json:"author_name"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment"`
	CreatedAt  time.Time `json:"created_at"`
}
