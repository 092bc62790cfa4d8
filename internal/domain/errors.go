package domain

import "errors"

var (
	ErrUnknownKind     = errors.New("unknown record kind")
	ErrDataUnavailable = errors.New("no data source available")
)
