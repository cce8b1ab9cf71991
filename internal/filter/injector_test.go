package filter

import (
	"errors"
	"reflect"
	"testing"

	"github.com/coal/valvegate/internal/settings"
)

func inletCtx(save, anonymous bool) *Context {
	return &Context{
		User:     &User{ID: "alice"},
		Settings: &settings.UserSettings{SaveMemories: save, AnonymousMode: anonymous},
	}
}

func TestInjector_CreatesMetadata(t *testing.T) {
	si := NewSettingsInjector()
	body := map[string]any{"prompt": "hi"}

	out, err := si.Inlet(inletCtx(true, false), body)
	if err != nil {
		t.Fatalf("inlet failed: %v", err)
	}

	meta, ok := out["metadata"].(map[string]any)
	if !ok {
		t.Fatal("expected metadata object to be created")
	}
	if meta["save_memories"] != true {
		t.Errorf("expected save_memories true, got %v", meta["save_memories"])
	}
	if meta["anonymous_mode"] != false {
		t.Errorf("expected anonymous_mode false, got %v", meta["anonymous_mode"])
	}
	if out["prompt"] != "hi" {
		t.Errorf("expected prompt untouched, got %v", out["prompt"])
	}
}

func TestInjector_PreservesExistingMetadata(t *testing.T) {
	si := NewSettingsInjector()
	body := map[string]any{
		"metadata": map[string]any{"trace_id": "abc"},
	}

	out, err := si.Inlet(inletCtx(false, true), body)
	if err != nil {
		t.Fatalf("inlet failed: %v", err)
	}

	meta := out["metadata"].(map[string]any)
	if meta["trace_id"] != "abc" {
		t.Errorf("expected trace_id preserved, got %v", meta["trace_id"])
	}
	if meta["save_memories"] != false {
		t.Errorf("expected save_memories false, got %v", meta["save_memories"])
	}
	if meta["anonymous_mode"] != true {
		t.Errorf("expected anonymous_mode true, got %v", meta["anonymous_mode"])
	}
}

func TestInjector_NoSettings_Unchanged(t *testing.T) {
	si := NewSettingsInjector()
	body := map[string]any{"prompt": "hi"}

	out, err := si.Inlet(&Context{User: &User{ID: "alice"}}, body)
	if err != nil {
		t.Fatalf("inlet failed: %v", err)
	}

	if !reflect.DeepEqual(out, map[string]any{"prompt": "hi"}) {
		t.Errorf("expected payload unchanged, got %v", out)
	}
	if _, ok := out["metadata"]; ok {
		t.Error("expected no metadata key without settings")
	}
}

func TestInjector_NilContext_Unchanged(t *testing.T) {
	si := NewSettingsInjector()
	body := map[string]any{"prompt": "hi"}

	out, err := si.Inlet(nil, body)
	if err != nil {
		t.Fatalf("inlet failed: %v", err)
	}
	if _, ok := out["metadata"]; ok {
		t.Error("expected no metadata key for nil context")
	}
}

func TestInjector_Idempotent(t *testing.T) {
	si := NewSettingsInjector()
	ctx := inletCtx(false, true)
	body := map[string]any{"prompt": "hi", "model": "llama3"}

	once, err := si.Inlet(ctx, body)
	if err != nil {
		t.Fatalf("first inlet failed: %v", err)
	}
	twice, err := si.Inlet(ctx, once)
	if err != nil {
		t.Fatalf("second inlet failed: %v", err)
	}

	if !reflect.DeepEqual(once, twice) {
		t.Errorf("expected idempotent merge, got %v vs %v", once, twice)
	}
}

func TestInjector_OtherKeysSurvive(t *testing.T) {
	si := NewSettingsInjector()
	body := map[string]any{
		"prompt":       "hi",
		"model":        "llama3",
		"temperature":  0.7,
		"custom_field": []any{"a", "b"},
		"metadata":     map[string]any{"trace_id": "abc", "session": "s-1"},
	}

	out, err := si.Inlet(inletCtx(true, true), body)
	if err != nil {
		t.Fatalf("inlet failed: %v", err)
	}

	for _, key := range []string{"prompt", "model", "temperature", "custom_field"} {
		if _, ok := out[key]; !ok {
			t.Errorf("expected key %q to survive the merge", key)
		}
	}
	meta := out["metadata"].(map[string]any)
	if meta["trace_id"] != "abc" || meta["session"] != "s-1" {
		t.Errorf("expected existing metadata keys to survive, got %v", meta)
	}
}

func TestInjector_MetadataShapeError(t *testing.T) {
	si := NewSettingsInjector()
	body := map[string]any{"metadata": "not-an-object"}

	_, err := si.Inlet(inletCtx(true, false), body)
	if err == nil {
		t.Fatal("expected error for scalar metadata")
	}
	if !errors.Is(err, ErrMetadataShape) {
		t.Errorf("expected ErrMetadataShape, got %v", err)
	}
	// The scalar must not be clobbered on the error path
	if body["metadata"] != "not-an-object" {
		t.Errorf("expected metadata left intact after rejection, got %v", body["metadata"])
	}
}

func TestInjector_NullMetadataTreatedAsAbsent(t *testing.T) {
	si := NewSettingsInjector()
	body := map[string]any{"metadata": nil}

	out, err := si.Inlet(inletCtx(true, false), body)
	if err != nil {
		t.Fatalf("inlet failed: %v", err)
	}
	if _, ok := out["metadata"].(map[string]any); !ok {
		t.Fatal("expected null metadata to be replaced with an object")
	}
}

func TestInjector_MutatesInPlace(t *testing.T) {
	si := NewSettingsInjector()
	body := map[string]any{"prompt": "hi"}

	out, err := si.Inlet(inletCtx(true, false), body)
	if err != nil {
		t.Fatalf("inlet failed: %v", err)
	}
	if _, ok := body["metadata"]; !ok {
		t.Error("expected the caller's mapping to carry the merge")
	}
	if reflect.ValueOf(out).Pointer() != reflect.ValueOf(body).Pointer() {
		t.Error("expected the same mapping to be returned")
	}
}

func TestHasMetadata(t *testing.T) {
	tests := []struct {
		name     string
		body     map[string]any
		expected bool
	}{
		{"absent", map[string]any{"prompt": "hi"}, false},
		{"null", map[string]any{"metadata": nil}, false},
		{"object", map[string]any{"metadata": map[string]any{}}, true},
		{"scalar", map[string]any{"metadata": "oops"}, false},
	}

	for _, tc := range tests {
		if got := HasMetadata(tc.body); got != tc.expected {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.expected, got)
		}
	}
}
