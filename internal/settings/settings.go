package settings

// UserSettings are the user-scoped toggles the backend reads from the
// request's metadata container. The host resolves them from stored per-user
// configuration before every call; they have no lifecycle of their own.
type UserSettings struct {
	// SaveMemories controls whether the backend persists the conversation
	// to long-term memory.
	SaveMemories bool `json:"save_memories" yaml:"save_memories"`
	// AnonymousMode asks the backend to anonymize the user's identity for
	// this exchange.
	AnonymousMode bool `json:"anonymous_mode" yaml:"anonymous_mode"`
}

// AdminSettings is the admin-scoped configuration record. No options are
// defined yet; the type keeps the extension point declared.
type AdminSettings struct{}

// Defaults returns the declared default settings: memories saved, identity
// not anonymized.
func Defaults() UserSettings {
	return UserSettings{
		SaveMemories:  true,
		AnonymousMode: false,
	}
}

// Override is a partial settings record. Nil fields inherit from whatever
// base the override is resolved against.
type Override struct {
	SaveMemories  *bool `yaml:"save_memories,omitempty" json:"save_memories,omitempty"`
	AnonymousMode *bool `yaml:"anonymous_mode,omitempty" json:"anonymous_mode,omitempty"`
}

// Resolve applies the override on top of base, field by field.
func (o Override) Resolve(base UserSettings) UserSettings {
	out := base
	if o.SaveMemories != nil {
		out.SaveMemories = *o.SaveMemories
	}
	if o.AnonymousMode != nil {
		out.AnonymousMode = *o.AnonymousMode
	}
	return out
}
