package repos

import (
	"database/sql"
	"errors"
)

var (
	ErrDuplicate         = errors.New("duplicate")
	ErrInUse             = errors.New("still referenced")
	ErrInsufficientStock = errors.New("insufficient stock")

	errNoRows = sql.ErrNoRows
)
