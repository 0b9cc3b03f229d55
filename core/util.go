package core

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// NowFunc is mockable.
var NowFunc = func() time.Time { return time.Now().UTC() }

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

func NewID() string {
	return uuid.NewString()
}

func IsValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
