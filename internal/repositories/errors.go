package repositories

import "errors"

var (
	ErrNotFound      = errors.New("record not found")
	ErrScoreNegative = errors.New("score cannot become negative")
)

// IsNotFoundError reports whether err signals a missing record
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}
