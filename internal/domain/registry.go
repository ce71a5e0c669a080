package domain

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed document_types.yaml
var defaultDocumentTypes []byte

// TypeRegistry is the canonical, read-only list of known document types.
type TypeRegistry struct {
	types []DocumentType
	byID  map[string]DocumentType
}

// NewTypeRegistry builds a registry from the given descriptors. Later
// duplicates of an id are ignored.
func NewTypeRegistry(types []DocumentType) *TypeRegistry {
	r := &TypeRegistry{byID: make(map[string]DocumentType, len(types))}
	for _, t := range types {
		if t.ID == "" {
			continue
		}
		if _, dup := r.byID[t.ID]; dup {
			continue
		}
		r.byID[t.ID] = t
		r.types = append(r.types, t)
	}
	return r
}

// ParseTypeRegistry decodes a YAML list of document types.
func ParseTypeRegistry(data []byte) (*TypeRegistry, error) {
	var types []DocumentType
	if err := yaml.Unmarshal(data, &types); err != nil {
		return nil, fmt.Errorf("failed to parse document types: %w", err)
	}
	for i, t := range types {
		if t.ID == "" || t.Name == "" {
			return nil, &ValidationError{
				Field:   fmt.Sprintf("types[%d]", i),
				Message: "id and name are required",
			}
		}
	}
	return NewTypeRegistry(types), nil
}

// DefaultTypeRegistry returns the built-in document types.
func DefaultTypeRegistry() *TypeRegistry {
	reg, err := ParseTypeRegistry(defaultDocumentTypes)
	if err != nil {
		panic(err)
	}
	return reg
}

// LoadTypeRegistry reads the registry from path, or returns the built-in
// list when path is empty.
func LoadTypeRegistry(path string) (*TypeRegistry, error) {
	if path == "" {
		return DefaultTypeRegistry(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document types file: %w", err)
	}
	return ParseTypeRegistry(data)
}

// All returns the descriptors in declaration order.
func (r *TypeRegistry) All() []DocumentType {
	if r == nil {
		return nil
	}
	out := make([]DocumentType, len(r.types))
	copy(out, r.types)
	return out
}

// Lookup finds a descriptor by id.
func (r *TypeRegistry) Lookup(id string) (DocumentType, bool) {
	if r == nil {
		return DocumentType{}, false
	}
	t, ok := r.byID[id]
	return t, ok
}

// Reconcile refreshes the type of a stored record from the registry so
// renamed categories show up without migrating stored data. Unknown type
// ids keep the stored descriptor verbatim.
func Reconcile(stored DocumentRecord, registry *TypeRegistry) DocumentRecord {
	if canonical, ok := registry.Lookup(stored.Type.ID); ok {
		stored.Type = canonical
	}
	return stored
}
