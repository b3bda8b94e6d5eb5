package reviews

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/wanderlust-go/apperror"
)

// Service is the review business-logic contract.
type Service interface {
	// ListForListing returns a listing's reviews, newest first.
	ListForListing(ctx context.Context, listingID int) ([]Review, error)
	// Create posts a review on a listing; NotFoundError when the listing
	// does not exist.
	Create(ctx context.Context, listingID int, authorID int, form ReviewForm) (*Review, error)
	// Delete removes a review. Allowed for the review's author and for the
	// listing's owner; anyone else gets ForbiddenError and the record stays.
	Delete(ctx context.Context, listingID int, reviewID int, actorID int) error
}

type serviceImpl struct {
	db       *pgxpool.Pool
	validate *validator.Validate
}

// NewService creates the pgx-backed review service.
func NewService(db *pgxpool.Pool) Service {
	return &serviceImpl{db: db, validate: validator.New()}
}

func (s *serviceImpl) ListForListing(ctx context.Context, listingID int) ([]Review, error) {
	rows, err := s.db.Query(ctx,
		`SELECT r.id, r.listing_id, r.author_id, u.username, r.rating, r.comment, r.created_at
		 FROM reviews r JOIN users u ON u.id = r.author_id
		 WHERE r.listing_id = $1
		 ORDER BY r.created_at DESC, r.id DESC`, listingID)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to list reviews", err)
	}
	defer rows.Close()

	var out []Review
	for rows.Next() {
		var rv Review
		if err := rows.Scan(&rv.ID, &rv.ListingID, &rv.AuthorID, &rv.AuthorName, &rv.Rating, &rv.Comment, &rv.CreatedAt); err != nil {
			return nil, apperror.NewDatabaseError("failed to scan review", err)
		}
		out = append(out, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDatabaseError("failed to read reviews", err)
	}
	return out, nil
}

func (s *serviceImpl) Create(ctx context.Context, listingID int, authorID int, form ReviewForm) (*Review, error) {
	if err := s.validate.Struct(form); err != nil {
		return nil, apperror.NewValidationError("a rating between 1 and 5 and a comment are required", err)
	}

	// The listing must exist before the insert so an unknown id surfaces as
	// 404 rather than a raw foreign-key violation.
	var exists bool
	if err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM listings WHERE id = $1)`, listingID).Scan(&exists); err != nil {
		return nil, apperror.NewDatabaseError("failed to check listing", err)
	}
	if !exists {
		return nil, apperror.NewNotFoundError("Listing you requested does not exist!", nil)
	}

	rv := &Review{
		ListingID: listingID,
		AuthorID:  authorID,
		Rating:    form.Rating,
		Comment:   form.Comment,
	}
	err := s.db.QueryRow(ctx,
		`INSERT INTO reviews (listing_id, author_id, rating, comment)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		rv.ListingID, rv.AuthorID, rv.Rating, rv.Comment,
	).Scan(&rv.ID, &rv.CreatedAt)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to create review", err)
	}
	return rv, nil
}

func (s *serviceImpl) Delete(ctx context.Context, listingID int, reviewID int, actorID int) error {
	var authorID, ownerID int
	err := s.db.QueryRow(ctx,
		`SELECT r.author_id, l.owner_id
		 FROM reviews r JOIN listings l ON l.id = r.listing_id
		 WHERE r.id = $1 AND r.listing_id = $2`,
		reviewID, listingID,
	).Scan(&authorID, &ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperror.NewNotFoundError("Review you requested does not exist!", nil)
		}
		return apperror.NewDatabaseError("failed to load review", err)
	}

	// The author wrote it; the listing owner hosts it. Either may remove
	// it, nobody else — checked before any delete reaches the database.
	if actorID != authorID && actorID != ownerID {
		return apperror.NewForbiddenError("You cannot delete this review", nil)
	}

	if _, err := s.db.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, reviewID); err != nil {
		return apperror.NewDatabaseError("failed to delete review", err)
	}
	return nil
}
