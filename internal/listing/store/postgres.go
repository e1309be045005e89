package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"veristay/internal/listing/models"
	"veristay/pkg/platform/sentinel"
)

// Schema creates the listings table. Applied by migrations in deployment and
// directly in integration tests.
const Schema = `
CREATE TABLE IF NOT EXISTS listings (
	id                       UUID PRIMARY KEY,
	user_id                  TEXT NOT NULL,
	title                    TEXT NOT NULL,
	description              TEXT NOT NULL DEFAULT '',
	property_type            TEXT NOT NULL,
	city                     TEXT NOT NULL,
	address                  TEXT NOT NULL DEFAULT '',
	price_monthly            BIGINT NOT NULL,
	photo_urls               TEXT[] NOT NULL DEFAULT '{}',
	verification_session_id  UUID NOT NULL,
	id_fragment              TEXT NOT NULL,
	identity_token           TEXT NOT NULL,
	created_at               TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_listings_user_id ON listings (user_id, created_at);
`

// PostgresStore persists listings in PostgreSQL. Pure I/O; the verification
// gate belongs to the service.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed listing store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, listing *models.Listing) error {
	query := `
		INSERT INTO listings (
			id, user_id, title, description, property_type, city, address,
			price_monthly, photo_urls, verification_session_id, id_fragment, identity_token, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := s.db.ExecContext(ctx, query,
		listing.ID,
		listing.UserID,
		listing.Title,
		listing.Description,
		listing.PropertyType,
		listing.City,
		listing.Address,
		listing.PriceMonthly,
		pq.Array(listing.PhotoURLs),
		listing.VerificationSessionID,
		listing.IDFragment,
		listing.IdentityToken,
		listing.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert listing: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	query := `
		SELECT id, user_id, title, description, property_type, city, address,
		       price_monthly, photo_urls, verification_session_id, id_fragment, identity_token, created_at
		FROM listings
		WHERE id = $1
	`
	listing, err := scanListing(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get listing: %w", err)
	}
	return listing, nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID string) ([]models.Listing, error) {
	query := `
		SELECT id, user_id, title, description, property_type, city, address,
		       price_monthly, photo_urls, verification_session_id, id_fragment, identity_token, created_at
		FROM listings
		WHERE user_id = $1
		ORDER BY created_at
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	defer rows.Close()

	var out []models.Listing
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		out = append(out, *listing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate listings: %w", err)
	}
	return out, nil
}

type listingRow interface {
	Scan(dest ...any) error
}

func scanListing(row listingRow) (*models.Listing, error) {
	var listing models.Listing
	if err := row.Scan(
		&listing.ID,
		&listing.UserID,
		&listing.Title,
		&listing.Description,
		&listing.PropertyType,
		&listing.City,
		&listing.Address,
		&listing.PriceMonthly,
		pq.Array(&listing.PhotoURLs),
		&listing.VerificationSessionID,
		&listing.IDFragment,
		&listing.IdentityToken,
		&listing.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &listing, nil
}
