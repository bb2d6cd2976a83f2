package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/cbt-dashboard/internal/domain"
)

// UserRepository is the credential store. It never hashes; callers pass finished hashes.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateProfile(ctx context.Context, id string, update domain.ProfileUpdate) (*domain.User, error)
	SetResetToken(ctx context.Context, id, token string, expiresAt time.Time) error
	GetByValidResetToken(ctx context.Context, token string, now time.Time) (*domain.User, error)
	ConsumeResetToken(ctx context.Context, token string, now time.Time, passwordHash string) (*domain.User, error)
	SetRoleByEmail(ctx context.Context, email string, role domain.Role) (*domain.User, error)
	UpsertExternal(ctx context.Context, email, name, provider string) (*domain.User, error)
}

const userColumns = `id, email, name, password_hash, role, reset_token, reset_token_expiry,
        avatar_style, avatar_seed, avatar_key, auth_provider, created_at, updated_at`

type userRepository struct {
	db DBTX
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(db DBTX) UserRepository {
	return &userRepository{db: db}
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&user.Role,
		&user.ResetToken,
		&user.ResetTokenExpiry,
		&user.AvatarStyle,
		&user.AvatarSeed,
		&user.AvatarKey,
		&user.AuthProvider,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (email, name, password_hash, role, auth_provider)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at, updated_at`

	if user.Role == "" {
		user.Role = domain.RoleUser
	}
	err := r.db.QueryRow(ctx, query,
		user.Email,
		user.Name,
		user.PasswordHash,
		user.Role,
		user.AuthProvider,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrEmailTaken
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id=$1`

	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return user, err
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email=$1`

	user, err := scanUser(r.db.QueryRow(ctx, query, email))
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return user, err
}

// UpdateProfile only touches the whitelisted profile columns; COALESCE keeps unset fields.
func (r *userRepository) UpdateProfile(ctx context.Context, id string, update domain.ProfileUpdate) (*domain.User, error) {
	query := `
        UPDATE users SET
            name=COALESCE($1, name),
            avatar_style=COALESCE($2, avatar_style),
            avatar_seed=COALESCE($3, avatar_seed),
            avatar_key=COALESCE($4, avatar_key),
            updated_at=NOW()
        WHERE id=$5
        RETURNING ` + userColumns

	user, err := scanUser(r.db.QueryRow(ctx, query,
		update.Name,
		update.AvatarStyle,
		update.AvatarSeed,
		update.AvatarKey,
		id,
	))
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return user, err
}

func (r *userRepository) SetResetToken(ctx context.Context, id, token string, expiresAt time.Time) error {
	const query = `
        UPDATE users SET reset_token=$1, reset_token_expiry=$2, updated_at=NOW()
        WHERE id=$3`

	cmd, err := r.db.Exec(ctx, query, token, expiresAt, id)
	if err != nil {
		return fmt.Errorf("set reset token: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *userRepository) GetByValidResetToken(ctx context.Context, token string, now time.Time) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE reset_token=$1 AND reset_token_expiry > $2`

	user, err := scanUser(r.db.QueryRow(ctx, query, token, now))
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get user by reset token: %w", err)
	}
	return user, err
}

// ConsumeResetToken sets the new hash and clears the token in one statement.
// Concurrent callers race on the row lock; the loser matches no row and gets ErrNotFound.
func (r *userRepository) ConsumeResetToken(ctx context.Context, token string, now time.Time, passwordHash string) (*domain.User, error) {
	query := `
        UPDATE users SET password_hash=$1, reset_token=NULL, reset_token_expiry=NULL, updated_at=NOW()
        WHERE reset_token=$2 AND reset_token_expiry > $3
        RETURNING ` + userColumns

	user, err := scanUser(r.db.QueryRow(ctx, query, passwordHash, token, now))
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("consume reset token: %w", err)
	}
	return user, err
}

func (r *userRepository) SetRoleByEmail(ctx context.Context, email string, role domain.Role) (*domain.User, error) {
	query := `
        UPDATE users SET role=$1, updated_at=NOW()
        WHERE email=$2
        RETURNING ` + userColumns

	user, err := scanUser(r.db.QueryRow(ctx, query, role, email))
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("set role: %w", err)
	}
	return user, err
}

// UpsertExternal finds the account for an external login or creates one without a password.
// An existing password account keeps its hash; the provider is only recorded when unset.
func (r *userRepository) UpsertExternal(ctx context.Context, email, name, provider string) (*domain.User, error) {
	query := `
        INSERT INTO users (email, name, password_hash, role, auth_provider)
        VALUES ($1, $2, NULL, 'USER', $3)
        ON CONFLICT (email) DO UPDATE SET
            auth_provider=COALESCE(users.auth_provider, EXCLUDED.auth_provider),
            updated_at=NOW()
        RETURNING ` + userColumns

	user, err := scanUser(r.db.QueryRow(ctx, query, email, name, provider))
	if err != nil {
		return nil, fmt.Errorf("upsert external user: %w", err)
	}
	return user, nil
}
