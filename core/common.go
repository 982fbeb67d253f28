package core

import (
	"time"
)

// Instead of implementing full value objects, I'm using some alias types and helper methods here ...

// UserIDString represents a user identifier
type UserIDString = string

// BookIDString represents a book identifier
type BookIDString = string

// LoanIDString represents a loan identifier
type LoanIDString = string

// Timestamp represents a point in time on a loan record
type Timestamp = time.Time

// ToTimestamp converts a time to Timestamp with UTC normalization and microsecond precision
func ToTimestamp(t time.Time) Timestamp {
	return t.UTC().Truncate(time.Microsecond)
}
