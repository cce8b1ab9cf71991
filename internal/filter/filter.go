package filter

import (
	"github.com/coal/valvegate/internal/settings"
)

// User identifies the authenticated caller a request is processed for.
// Inlet filters receive it for attribution; none of them currently read
// more than the ID.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// Context carries the per-invocation ambient values the host resolved
// before running the inlet chain. Both fields are optional: an
// unattributed request has neither a user nor settings.
type Context struct {
	User     *User
	Settings *settings.UserSettings
}

// Inlet is a request-side hook invoked before the payload reaches the
// backend. Implementations receive the open payload mapping, may mutate it
// in place, and return it. Unknown keys must survive untouched.
type Inlet interface {
	Name() string
	Inlet(ctx *Context, body map[string]any) (map[string]any, error)
}
