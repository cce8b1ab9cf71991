package filter

import "errors"

// MetadataKey is the payload field reserved for out-of-band settings the
// backend reads.
const MetadataKey = "metadata"

// Metadata field names written by the injector.
const (
	SaveMemoriesKey  = "save_memories"
	AnonymousModeKey = "anonymous_mode"
)

// ErrMetadataShape reports a payload whose metadata field exists but is not
// an object. The merge refuses to clobber whatever the caller put there.
var ErrMetadataShape = errors.New("metadata field is not an object")

// SettingsInjector merges the caller's resolved settings into the payload's
// metadata container. With no settings on the context it is a no-op; the
// payload passes through untouched.
type SettingsInjector struct{}

// NewSettingsInjector creates the injector. It holds no state; every
// invocation works only on its arguments.
func NewSettingsInjector() *SettingsInjector {
	return &SettingsInjector{}
}

// Name returns the filter's registered name.
func (si *SettingsInjector) Name() string {
	return "settings-injector"
}

// Inlet writes save_memories and anonymous_mode into body's metadata
// container, creating the container if absent. All other keys of body and
// of any pre-existing metadata survive. The operation is idempotent.
func (si *SettingsInjector) Inlet(ctx *Context, body map[string]any) (map[string]any, error) {
	if ctx == nil || ctx.Settings == nil {
		return body, nil
	}

	meta, err := metadataContainer(body)
	if err != nil {
		return nil, err
	}

	meta[SaveMemoriesKey] = ctx.Settings.SaveMemories
	meta[AnonymousModeKey] = ctx.Settings.AnonymousMode
	return body, nil
}

// metadataContainer returns body's metadata object, creating it on demand.
// A JSON null counts as absent. Any other non-object shape is the caller's
// data and is never overwritten.
func metadataContainer(body map[string]any) (map[string]any, error) {
	raw, ok := body[MetadataKey]
	if !ok || raw == nil {
		meta := map[string]any{}
		body[MetadataKey] = meta
		return meta, nil
	}
	meta, ok := raw.(map[string]any)
	if !ok {
		return nil, ErrMetadataShape
	}
	return meta, nil
}

// HasMetadata reports whether body already carries a metadata object.
func HasMetadata(body map[string]any) bool {
	raw, ok := body[MetadataKey]
	if !ok || raw == nil {
		return false
	}
	_, ok = raw.(map[string]any)
	return ok
}
