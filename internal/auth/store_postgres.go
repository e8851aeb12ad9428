// Copyright (c) 2026 Sentra. All rights reserved.
// Author: dev@sentra.io

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sentra-app/sentra/internal/platform/apperr"
	"github.com/sentra-app/sentra/internal/platform/dberr"
)

// # User Repository

// userColumns is the shared projection for hydrating a full account entity.
const userColumns = `
	id, email, emailverified, status, passwordhash, username,
	gender, picture, phonenumber, birthdate, mfa, oauthproviders,
	createdat, updatedat`

// PostgresUserRepository implements [UserRepository] using pgx.
//
// # Error Mapping
//
// Storage-specific errors (like pgx.ErrNoRows) are mapped to domain-friendly
// [apperr.AppError] types to avoid leaking storage implementation details.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new PostgreSQL implementation of the [UserRepository].
func NewUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

/*
FindByID retrieves a user record by its primary key.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresUserRepository) FindByID(context context.Context, id string) (*User, error) {
	const query = `
		SELECT` + userColumns + `
		FROM users.account
		WHERE id = $1`

	return repository.scanUser(repository.pool.QueryRow(context, query, id))
}

/*
FindByEmail retrieves a user record by its unique email address.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresUserRepository) FindByEmail(context context.Context, email string) (*User, error) {
	const query = `
		SELECT` + userColumns + `
		FROM users.account
		WHERE email = $1`

	return repository.scanUser(repository.pool.QueryRow(context, query, email))
}

/*
FindByToken retrieves the account holding an outstanding, unexpired action
token session of the given type.

Description: The durable token columns are the fallback redemption path when
the token's cache entry has been evicted. The expiry predicate runs in the
database so clock handling stays in one place.

Parameters:
  - context: context.Context
  - tokenType: TokenType
  - session: string

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresUserRepository) FindByToken(context context.Context, tokenType TokenType, session string) (*User, error) {

	tokenColumn, expiresColumn, err := tokenColumns(tokenType)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT` + userColumns + `
		FROM users.account
		WHERE ` + tokenColumn + ` = $1 AND ` + expiresColumn + ` > now()`

	return repository.scanUser(repository.pool.QueryRow(context, query, session))
}

/*
Create persists a new account together with its initial verification token.

Description: The unique constraint on email is the authoritative guard
against duplicate sign-ups; a violation surfaces as a Conflict.

Parameters:
  - context: context.Context
  - user: *User
  - verificationSession: string
  - verificationExpires: time.Time

Returns:
  - error: Conflict on duplicate email, or persistence failures
*/
func (repository *PostgresUserRepository) Create(context context.Context, user *User, verificationSession string, verificationExpires time.Time) error {
	const query = `
		INSERT INTO users.account (
			id, email, emailverified, status, passwordhash, username,
			gender, picture, phonenumber, birthdate, mfa, oauthproviders,
			emailverificationtoken, emailverificationexpires,
			createdat, updatedat
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	_, err := repository.pool.Exec(context, query,
		user.ID,
		user.Email,
		user.EmailVerified,
		user.Status,
		user.PasswordHash,
		user.Username,
		user.Gender,
		user.Picture,
		user.PhoneNumber,
		user.BirthDate,
		user.MFA,
		user.OAuthProviders,
		verificationSession,
		verificationExpires,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return apperr.Conflict(MsgEmailAlreadyRegistered)
		}
		return fmt.Errorf("postgres_user_repo_create_failed: %w", dberr.Wrap(err))
	}

	return nil
}

/*
SetActionToken overwrites the outstanding token session and expiry of the
given type for the user.

Description: A single UPDATE guarantees "at most one live token per type per
user" — re-issuing replaces the prior token atomically.

Parameters:
  - context: context.Context
  - userID: string
  - tokenType: TokenType
  - session: string
  - expiresAt: time.Time

Returns:
  - error: Persistence failures
*/
func (repository *PostgresUserRepository) SetActionToken(context context.Context, userID string, tokenType TokenType, session string, expiresAt time.Time) error {

	tokenColumn, expiresColumn, err := tokenColumns(tokenType)
	if err != nil {
		return err
	}

	query := `
		UPDATE users.account
		SET ` + tokenColumn + ` = $2, ` + expiresColumn + ` = $3, updatedat = now()
		WHERE id = $1`

	tag, err := repository.pool.Exec(context, query, userID, session, expiresAt)
	if err != nil {
		return fmt.Errorf("postgres_user_repo_set_token_failed: %w", dberr.Wrap(err))
	}

	if tag.RowsAffected() == 0 {
		return apperr.NotFound("User")
	}

	return nil
}

/*
MarkVerified flips the verification flag and clears the verification-token
columns in one statement.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: Persistence failures
*/
func (repository *PostgresUserRepository) MarkVerified(context context.Context, userID string) error {
	const query = `
		UPDATE users.account
		SET emailverified = TRUE,
		    emailverificationtoken = NULL,
		    emailverificationexpires = NULL,
		    updatedat = now()
		WHERE id = $1`

	tag, err := repository.pool.Exec(context, query, userID)
	if err != nil {
		return fmt.Errorf("postgres_user_repo_mark_verified_failed: %w", dberr.Wrap(err))
	}

	if tag.RowsAffected() == 0 {
		return apperr.NotFound("User")
	}

	return nil
}

/*
ResetPassword replaces the password hash and clears the recovery-token
columns in one statement.

Parameters:
  - context: context.Context
  - userID: string
  - newHash: string

Returns:
  - error: Persistence failures
*/
func (repository *PostgresUserRepository) ResetPassword(context context.Context, userID, newHash string) error {
	const query = `
		UPDATE users.account
		SET passwordhash = $2,
		    passwordresettoken = NULL,
		    passwordresetexpires = NULL,
		    updatedat = now()
		WHERE id = $1`

	tag, err := repository.pool.Exec(context, query, userID, newHash)
	if err != nil {
		return fmt.Errorf("postgres_user_repo_reset_password_failed: %w", dberr.Wrap(err))
	}

	if tag.RowsAffected() == 0 {
		return apperr.NotFound("User")
	}

	return nil
}

// # Scan Helpers

// scanUser hydrates a full account entity from a single-row query.
func (repository *PostgresUserRepository) scanUser(row pgx.Row) (*User, error) {
	user := &User{}

	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.EmailVerified,
		&user.Status,
		&user.PasswordHash,
		&user.Username,
		&user.Gender,
		&user.Picture,
		&user.PhoneNumber,
		&user.BirthDate,
		&user.MFA,
		&user.OAuthProviders,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User")
		}
		return nil, fmt.Errorf("postgres_user_repo_scan_failed: %w", dberr.Wrap(err))
	}

	return user, nil
}

// tokenColumns maps a token type onto its durable column pair. Column names
// come from a fixed table, never from input, so string-building the query is safe.
func tokenColumns(tokenType TokenType) (string, string, error) {
	switch tokenType {
	case TokenEmailVerification:
		return "emailverificationtoken", "emailverificationexpires", nil
	case TokenRecover:
		return "passwordresettoken", "passwordresetexpires", nil
	case TokenReActivate:
		return "reactivatetoken", "reactivateexpires", nil
	}
	return "", "", apperr.ValidationError(MsgInvalidTokenType)
}
