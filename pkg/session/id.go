package session

import (
	"strings"

	"github.com/google/uuid"

	"lineadvisor.app/advisor/common/id"
)

// init guarantees the shared Snowflake node is ready before any turn is
// appended. cmd/advisor also calls id.Init(1), but package init runs before
// main and Init is one-shot, so the node is created here with id 1 and that
// later call has no effect.
func init() {
	_ = id.Init(1)
}

// newID generates a session id as sess_ followed by 32 lowercase hex
// characters (no dashes) of a random UUIDv4.
func newID() string {
	return "sess_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
