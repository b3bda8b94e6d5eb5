package listings

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/wanderlust-go/apperror"
)

// Service is the listing business-logic contract. Handlers depend on this
// interface rather than the pgx implementation so they can be tested against
// a fake.
type Service interface {
	// List returns all listings, newest first.
	List(ctx context.Context) ([]Listing, error)
	// Get returns one listing; NotFoundError for an unknown id.
	Get(ctx context.Context, id int) (*Listing, error)
	// Create persists a new listing owned by ownerID.
	Create(ctx context.Context, ownerID int, form ListingForm) (*Listing, error)
	// Update rewrites a listing. Only the owner may update: a non-owner gets
	// ForbiddenError and the stored record is untouched.
	Update(ctx context.Context, id int, actorID int, form ListingForm) (*Listing, error)
	// Delete removes a listing and all of its reviews. Owner-only, like
	// Update.
	Delete(ctx context.Context, id int, actorID int) error
}

// serviceImpl is the production Service backed by the shared pool.
type serviceImpl struct {
	db       *pgxpool.Pool
	validate *validator.Validate
}

// NewService creates the pgx-backed listing service.
func NewService(db *pgxpool.Pool) Service {
	return &serviceImpl{db: db, validate: validator.New()}
}

const listingColumns = `l.id, l.title, l.description, l.price, l.location, l.country,
	l.image_url, l.owner_id, u.username, l.created_at, l.updated_at`

func scanListing(row pgx.Row) (*Listing, error) {
	l := &Listing{}
	err := row.Scan(&l.ID, &l.Title, &l.Description, &l.Price, &l.Location, &l.Country,
		&l.ImageURL, &l.OwnerID, &l.OwnerName, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (s *serviceImpl) List(ctx context.Context) ([]Listing, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+listingColumns+`
		 FROM listings l JOIN users u ON u.id = l.owner_id
		 ORDER BY l.created_at DESC, l.id DESC`)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to list listings", err)
	}
	defer rows.Close()

	var out []Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, apperror.NewDatabaseError("failed to scan listing", err)
		}
		out = append(out, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDatabaseError("failed to read listings", err)
	}
	return out, nil
}

func (s *serviceImpl) Get(ctx context.Context, id int) (*Listing, error) {
	l, err := scanListing(s.db.QueryRow(ctx,
		`SELECT `+listingColumns+`
		 FROM listings l JOIN users u ON u.id = l.owner_id
		 WHERE l.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFoundError("Listing you requested does not exist!", nil)
		}
		return nil, apperror.NewDatabaseError("failed to load listing", err)
	}
	return l, nil
}

func (s *serviceImpl) Create(ctx context.Context, ownerID int, form ListingForm) (*Listing, error) {
	if err := s.validate.Struct(form); err != nil {
		return nil, apperror.NewValidationError("title, description, location and a non-negative price are required", err)
	}

	l := &Listing{
		Title:       form.Title,
		Description: form.Description,
		Price:       form.Price,
		Location:    form.Location,
		Country:     form.Country,
		ImageURL:    form.ImageURL,
		OwnerID:     ownerID,
	}
	err := s.db.QueryRow(ctx,
		`INSERT INTO listings (title, description, price, location, country, image_url, owner_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at`,
		l.Title, l.Description, l.Price, l.Location, l.Country, l.ImageURL, l.OwnerID,
	).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to create listing", err)
	}
	return l, nil
}

// authorize loads just enough of the listing to decide ownership. The order
// of failures matters: unknown id is 404, wrong owner is 403, and in neither
// case does any mutation reach the database.
func (s *serviceImpl) authorize(ctx context.Context, id int, actorID int) error {
	var ownerID int
	err := s.db.QueryRow(ctx, `SELECT owner_id FROM listings WHERE id = $1`, id).Scan(&ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperror.NewNotFoundError("Listing you requested does not exist!", nil)
		}
		return apperror.NewDatabaseError("failed to load listing", err)
	}
	if ownerID != actorID {
		return apperror.NewForbiddenError("You are not the owner of this listing", nil)
	}
	return nil
}

func (s *serviceImpl) Update(ctx context.Context, id int, actorID int, form ListingForm) (*Listing, error) {
	if err := s.authorize(ctx, id, actorID); err != nil {
		return nil, err
	}
	if err := s.validate.Struct(form); err != nil {
		return nil, apperror.NewValidationError("title, description, location and a non-negative price are required", err)
	}

	tag, err := s.db.Exec(ctx,
		`UPDATE listings
		 SET title = $2, description = $3, price = $4, location = $5, country = $6,
		     image_url = $7, updated_at = now()
		 WHERE id = $1`,
		id, form.Title, form.Description, form.Price, form.Location, form.Country, form.ImageURL,
	)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to update listing", err)
	}
	if tag.RowsAffected() == 0 {
		// Deleted between the ownership check and the update.
		return nil, apperror.NewNotFoundError("Listing you requested does not exist!", nil)
	}
	return s.Get(ctx, id)
}

func (s *serviceImpl) Delete(ctx context.Context, id int, actorID int) error {
	if err := s.authorize(ctx, id, actorID); err != nil {
		return err
	}

	// Reviews and listing go in one transaction. The reviews FK is ON
	// DELETE CASCADE as well, so even a torn run cannot orphan reviews; the
	// explicit delete documents the cascade where it happens.
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return apperror.NewDatabaseError("failed to begin delete transaction", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM reviews WHERE listing_id = $1`, id); err != nil {
		return apperror.NewDatabaseError("failed to delete listing reviews", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM listings WHERE id = $1`, id); err != nil {
		return apperror.NewDatabaseError("failed to delete listing", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return apperror.NewDatabaseError("failed to commit listing delete", err)
	}
	return nil
}
