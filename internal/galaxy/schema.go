package galaxy

import (
	"errors"
	"fmt"
)

// ErrSchemaFrozen is returned when a property registration arrives after the
// first galaxy record has been instantiated for the run.
var ErrSchemaFrozen = errors.New("galaxy: property schema is frozen")

// ErrDuplicateProperty is returned when two registrations share a name.
var ErrDuplicateProperty = errors.New("galaxy: duplicate property name")

// PropID is the dense, monotonically assigned identifier of a registered
// property. It doubles as the index into the schema's descriptor table.
type PropID int

// PropDescriptor describes one slot of the variable property block attached
// to every galaxy record.
type PropDescriptor struct {
	ID     PropID
	Size   int // bytes
	Offset int // byte offset within the block, assigned at freeze
	Name   string
	Unit   string
	Desc   string
	// Owner is the name of the module that registered the property.
	Owner string
}

// Schema is the set of properties modules have declared for a run. Modules
// register during their Init; the schema freezes the moment the first galaxy
// record is created, after which registration fails.
type Schema struct {
	descs  []PropDescriptor
	byName map[string]PropID
	size   int
	frozen bool
}

// NewSchema returns an empty, unfrozen schema.
func NewSchema() *Schema {
	return &Schema{byName: make(map[string]PropID)}
}

// Register adds a property and returns its dense ID. Size is in bytes and
// must be positive.
func (s *Schema) Register(owner, name, unit, desc string, size int) (PropID, error) {
	if s.frozen {
		return 0, fmt.Errorf("%w: cannot register %q for module %q", ErrSchemaFrozen, name, owner)
	}
	if size <= 0 {
		return 0, fmt.Errorf("galaxy: property %q: size must be positive, got %d", name, size)
	}
	if _, exists := s.byName[name]; exists {
		return 0, fmt.Errorf("%w: %q", ErrDuplicateProperty, name)
	}
	id := PropID(len(s.descs))
	s.descs = append(s.descs, PropDescriptor{
		ID:    id,
		Size:  size,
		Name:  name,
		Unit:  unit,
		Desc:  desc,
		Owner: owner,
	})
	s.byName[name] = id
	return id, nil
}

// RegisterFloat registers an 8-byte property, the common case for physical
// quantities.
func (s *Schema) RegisterFloat(owner, name, unit, desc string) (PropID, error) {
	return s.Register(owner, name, unit, desc, 8)
}

// Freeze lays out block offsets and locks the schema. Freezing twice is a
// no-op.
func (s *Schema) Freeze() {
	if s.frozen {
		return
	}
	off := 0
	for i := range s.descs {
		s.descs[i].Offset = off
		off += s.descs[i].Size
	}
	s.size = off
	s.frozen = true
}

// Frozen reports whether the schema is locked.
func (s *Schema) Frozen() bool { return s.frozen }

// BlockSize returns the total byte size of one property block. Only valid
// after Freeze.
func (s *Schema) BlockSize() int { return s.size }

// NumProperties returns how many properties are registered.
func (s *Schema) NumProperties() int { return len(s.descs) }

// Descriptor returns the descriptor for id.
func (s *Schema) Descriptor(id PropID) (PropDescriptor, error) {
	if id < 0 || int(id) >= len(s.descs) {
		return PropDescriptor{}, fmt.Errorf("galaxy: property id %d out of range", id)
	}
	return s.descs[id], nil
}

// Lookup returns the ID of a property by name.
func (s *Schema) Lookup(name string) (PropID, bool) {
	id, ok := s.byName[name]
	return id, ok
}

// Descriptors returns a copy of the full descriptor table, for output and
// diagnostics collaborators.
func (s *Schema) Descriptors() []PropDescriptor {
	out := make([]PropDescriptor, len(s.descs))
	copy(out, s.descs)
	return out
}
