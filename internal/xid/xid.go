package xid

import (
	"fmt"

	"github.com/google/uuid"
)

// New returns a prefixed identifier backed by a random UUID, matching the
// uuid primary keys the persistence layer uses.
func New(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, uuid.NewString())
}
