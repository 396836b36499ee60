// Package idgen generates the opaque identifiers used throughout the
// network: AgentId, UserId, TaskId, ContextId, ArtifactId, FileId, and
// MessageId are all random 128-bit values rendered as lowercase hex.
package idgen

import (
	"strings"

	"github.com/google/uuid"
)

// New returns a fresh random 128-bit identifier as lowercase hex, with no
// separating dashes.
func New() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}
