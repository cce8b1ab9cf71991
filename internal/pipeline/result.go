package pipeline

import (
	"github.com/coal/valvegate/internal/filter"
	"github.com/coal/valvegate/internal/settings"
)

// Result captures the outcome of running one request through the inlet
// chain. Body is the same mapping the caller passed in, mutated in place
// when settings were applied.
type Result struct {
	RequestID       string                 `json:"request_id"`
	Body            map[string]any         `json:"body"`
	User            *filter.User           `json:"user,omitempty"`
	Settings        *settings.UserSettings `json:"settings,omitempty"`
	Applied         bool                   `json:"applied"`
	MetadataCreated bool                   `json:"metadata_created"`
}
