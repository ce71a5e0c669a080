package domain

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultTypeRegistry(t *testing.T) {
	reg := DefaultTypeRegistry()

	passport, ok := reg.Lookup("1")
	if !ok || passport.Name != "Passport" {
		t.Fatalf("expected passport descriptor, got %+v (found=%v)", passport, ok)
	}

	custom, ok := reg.Lookup("custom")
	if !ok || !custom.IsCustom {
		t.Fatalf("expected a custom descriptor, got %+v", custom)
	}

	if len(reg.All()) != 10 {
		t.Fatalf("expected 10 built-in types, got %d", len(reg.All()))
	}
}

func TestParseTypeRegistry(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		want    int
		wantErr bool
	}{
		{
			name: "Valid list",
			yaml: "- id: a\n  name: Alpha\n- id: b\n  name: Beta\n  isCustom: true\n",
			want: 2,
		},
		{
			// Duplicate ids keep the first descriptor
			name: "Duplicate ids",
			yaml: "- id: a\n  name: Alpha\n- id: a\n  name: Again\n",
			want: 1,
		},
		{
			name:    "Missing name",
			yaml:    "- id: a\n",
			wantErr: true,
		},
		{
			name:    "Not a list",
			yaml:    "id: [",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, err := ParseTypeRegistry([]byte(tt.yaml))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTypeRegistry() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && len(reg.All()) != tt.want {
				t.Fatalf("expected %d types, got %d", tt.want, len(reg.All()))
			}
		})
	}
}

func TestLoadTypeRegistry_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "types.yaml")
	if err := os.WriteFile(path, []byte("- id: x\n  name: Ferry Ticket\n"), 0o600); err != nil {
		t.Fatalf("write types file: %v", err)
	}

	reg, err := LoadTypeRegistry(path)
	if err != nil {
		t.Fatalf("LoadTypeRegistry() error = %v", err)
	}
	if got, _ := reg.Lookup("x"); got.Name != "Ferry Ticket" {
		t.Fatalf("unexpected descriptor %+v", got)
	}

	if _, err := LoadTypeRegistry(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

// TestReconcile tests the merge of a stored record with the canonical registry.
// It tests:
// - Known type ids pick up the current canonical descriptor
// - Unknown type ids keep the stored descriptor verbatim
// - Other record fields are untouched
func TestReconcile(t *testing.T) {
	reg := NewTypeRegistry([]DocumentType{{ID: "1", Name: "Passport (renamed)"}})

	stored := DocumentRecord{
		ID:         "a",
		Type:       DocumentType{ID: "1", Name: "Passport"},
		Status:     StatusFailed,
		CustomName: strPtr("keep"),
	}
	got := Reconcile(stored, reg)
	if got.Type.Name != "Passport (renamed)" {
		t.Errorf("expected canonical name, got %q", got.Type.Name)
	}
	if got.ID != "a" || got.Status != StatusFailed || *got.CustomName != "keep" {
		t.Errorf("reconcile changed unrelated fields: %+v", got)
	}

	orphan := DocumentRecord{ID: "b", Type: DocumentType{ID: "legacy", Name: "Old Card", IsCustom: true}}
	if got := Reconcile(orphan, reg); got.Type != orphan.Type {
		t.Errorf("expected stored type verbatim, got %+v", got.Type)
	}

	// A nil registry behaves like an empty one
	if got := Reconcile(stored, nil); got.Type != stored.Type {
		t.Errorf("expected stored type with nil registry, got %+v", got.Type)
	}
}
