package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateLicense signals the unique index on contractors.license_number fired.
	ErrDuplicateLicense = errors.New("contractor license already exists")
	// ErrDuplicateEmail signals the unique index on users.email fired.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrStaleStaging is returned when a staging record was resolved concurrently.
	ErrStaleStaging = errors.New("staging record no longer pending")
)

const (
	uniqueViolation = "23505"
	// malformed uuid literal; no row can match it.
	invalidTextRepresentation = "22P02"
)

const (
	constraintContractorLicense = "contractors_license_number_key"
	constraintUserEmail         = "users_email_key"
)

// translate maps driver errors onto the package sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case invalidTextRepresentation:
		return ErrNotFound
	case uniqueViolation:
		switch pgErr.ConstraintName {
		case constraintContractorLicense:
			return ErrDuplicateLicense
		case constraintUserEmail:
			return ErrDuplicateEmail
		}
	}
	return err
}
