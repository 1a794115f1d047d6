package services

import (
	"errors"

	"shopfront/internal/apperr"
	"shopfront/internal/repos"
)

// notFoundOr maps a missing row to nf and any other failure to a database
// error.
func notFoundOr(err error, nf *apperr.Error, op string) error {
	if err == nil {
		return nil
	}
	if repos.IsNotFound(err) {
		return nf
	}
	return apperr.Database(op, err)
}

// dbErr wraps storage failures that have no domain meaning.
func dbErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperr.As(err); ok {
		return err
	}
	return apperr.Database(op, err)
}

func isDuplicate(err error) bool { return errors.Is(err, repos.ErrDuplicate) }

func isInUse(err error) bool { return errors.Is(err, repos.ErrInUse) }
