package verification

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RegistrationRepository defines the store operations the verification
// protocol needs. Implementations must enforce a unique constraint on the
// token column and provide an atomic conditional update for MarkVerified.
type RegistrationRepository interface {
	Create(ctx context.Context, payload RegistrationPayload, token string, expiresAt time.Time) (*VerificationRecord, error)
	GetByToken(ctx context.Context, token string) (*VerificationRecord, error)
	// MarkVerified flips the record to verified if and only if it is still
	// unverified and unexpired. It reports whether this call performed the
	// flip, so concurrent redemptions resolve to exactly one winner.
	MarkVerified(ctx context.Context, token string) (bool, error)
	CountRecentByEmail(ctx context.Context, email string, since time.Time) (int64, error)
	CleanupExpired(ctx context.Context) error
}

// Repository handles database operations for registrations
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new registration repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create inserts a new unverified registration record.
func (r *Repository) Create(ctx context.Context, payload RegistrationPayload, token string, expiresAt time.Time) (*VerificationRecord, error) {
	query := `
		INSERT INTO registrations (token, email, name, subscribed, source_ip, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, token, email, name, subscribed, source_ip, verified, created_at, expires_at, verified_at, deleted_at
	`

	var rec VerificationRecord
	err := r.db.QueryRow(ctx, query, token, payload.Email, payload.Name, payload.Subscribed, payload.SourceIP, expiresAt).Scan(
		&rec.ID,
		&rec.Token,
		&rec.Email,
		&rec.Name,
		&rec.Subscribed,
		&rec.SourceIP,
		&rec.Verified,
		&rec.CreatedAt,
		&rec.ExpiresAt,
		&rec.VerifiedAt,
		&rec.DeletedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrDuplicateToken
		}
		return nil, err
	}

	return &rec, nil
}

// GetByToken retrieves a record by its token, verified or not.
func (r *Repository) GetByToken(ctx context.Context, token string) (*VerificationRecord, error) {
	query := `
		SELECT id, token, email, name, subscribed, source_ip, verified, created_at, expires_at, verified_at, deleted_at
		FROM registrations
		WHERE token = $1
		AND deleted_at IS NULL
	`

	var rec VerificationRecord
	err := r.db.QueryRow(ctx, query, token).Scan(
		&rec.ID,
		&rec.Token,
		&rec.Email,
		&rec.Name,
		&rec.Subscribed,
		&rec.SourceIP,
		&rec.Verified,
		&rec.CreatedAt,
		&rec.ExpiresAt,
		&rec.VerifiedAt,
		&rec.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	return &rec, nil
}

// MarkVerified performs the compare-and-flip in a single conditional update.
// The WHERE clause keeps the check and the write atomic, so two concurrent
// redemptions of the same token can never both report true.
func (r *Repository) MarkVerified(ctx context.Context, token string) (bool, error) {
	query := `
		UPDATE registrations
		SET verified = TRUE,
		    verified_at = NOW() AT TIME ZONE 'UTC'
		WHERE token = $1
		AND verified = FALSE
		AND deleted_at IS NULL
		AND expires_at > NOW() AT TIME ZONE 'UTC'
	`

	tag, err := r.db.Exec(ctx, query, token)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() == 1, nil
}

// CountRecentByEmail counts recent registrations for resend limiting.
func (r *Repository) CountRecentByEmail(ctx context.Context, email string, since time.Time) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM registrations
		WHERE email = $1
		AND created_at > $2
		AND deleted_at IS NULL
	`

	var count int64
	err := r.db.QueryRow(ctx, query, email, since).Scan(&count)
	if err != nil {
		return 0, err
	}

	return count, nil
}

// CleanupExpired soft deletes expired unverified records.
func (r *Repository) CleanupExpired(ctx context.Context) error {
	query := `
		UPDATE registrations
		SET deleted_at = NOW() AT TIME ZONE 'UTC'
		WHERE expires_at < NOW() AT TIME ZONE 'UTC'
		AND deleted_at IS NULL
		AND verified = FALSE
	`

	_, err := r.db.Exec(ctx, query)
	return err
}
