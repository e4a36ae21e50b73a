package galaxy

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Growth policy bounds. Capacity never starts below DefaultCapacity and a
// single growth step never multiplies by less than MinGrowthFactor.
const (
	DefaultCapacity     = 64
	DefaultGrowthFactor = 2.0
	MinGrowthFactor     = 1.25

	// maxCapacity bounds a single store to keep a corrupt growth request
	// from attempting an absurd allocation.
	maxCapacity = 1 << 31
)

var (
	// ErrCapacity is returned for growth requests that are negative or
	// exceed the store's hard bound. The store is untouched.
	ErrCapacity = errors.New("galaxy: invalid capacity request")

	// ErrIndexRange is returned for out-of-range galaxy indices.
	ErrIndexRange = errors.New("galaxy: index out of range")

	// ErrNoBlock is returned when a property access names a record without
	// an attached block.
	ErrNoBlock = errors.New("galaxy: record has no property block")
)

// buffer is one side of the store's double buffer: a record array plus its
// live count. Capacity is reused across snapshots rather than reallocated.
type buffer struct {
	recs []Galaxy
	n    int
}

// Store owns the contiguous galaxy records for one unit of work and the
// independently allocated property blocks they reference. The store is the
// only resolver of PropRef handles, which is what makes record-array growth
// unable to invalidate property storage.
//
// Two record buffers are kept: the population being evolved at the current
// snapshot and the population of the immediately preceding one. Advancing a
// snapshot swaps them, bounding peak memory to two adjacent populations.
type Store struct {
	schema *Schema

	cur  buffer
	prev buffer

	factor float64

	// blocks is the property-block arena; a PropRef r addresses blocks[r-1].
	// Blocks freed by galaxy death are recycled through free.
	blocks [][]byte
	free   []PropRef
}

// NewStore creates a store with the given schema and initial capacity per
// buffer. A capacity below DefaultCapacity is raised to it.
func NewStore(schema *Schema, capacity int) *Store {
	if capacity < DefaultCapacity {
		capacity = DefaultCapacity
	}
	return &Store{
		schema: schema,
		cur:    buffer{recs: make([]Galaxy, capacity)},
		prev:   buffer{recs: make([]Galaxy, capacity)},
		factor: DefaultGrowthFactor,
	}
}

// SetGrowthFactor overrides the geometric growth multiplier. Values below
// MinGrowthFactor are clamped up to it.
func (s *Store) SetGrowthFactor(f float64) {
	if f < MinGrowthFactor {
		f = MinGrowthFactor
	}
	s.factor = f
}

// Schema returns the property schema the store allocates blocks for.
func (s *Store) Schema() *Schema { return s.schema }

// Len returns the number of live galaxies at the current snapshot.
func (s *Store) Len() int { return s.cur.n }

// Cap returns the current-buffer capacity.
func (s *Store) Cap() int { return len(s.cur.recs) }

// Live returns the live records of the current snapshot. The slice aliases
// store memory and is invalidated by Add, Grow and Advance.
func (s *Store) Live() []Galaxy { return s.cur.recs[:s.cur.n] }

// Galaxy returns a pointer to live record i. The pointer is invalidated by
// Add, Grow and Advance; callers must not retain it across those calls.
func (s *Store) Galaxy(i int) (*Galaxy, error) {
	if i < 0 || i >= s.cur.n {
		return nil, fmt.Errorf("%w: %d of %d", ErrIndexRange, i, s.cur.n)
	}
	return &s.cur.recs[i], nil
}

// Add appends a galaxy record to the current snapshot, growing storage as
// needed, and returns its index. The first Add freezes the property schema.
// A record arriving with Props already assigned (a carried-forward galaxy)
// keeps its block; otherwise a fresh block is allocated.
func (s *Store) Add(g Galaxy) (int, error) {
	if !s.schema.Frozen() {
		s.schema.Freeze()
	}
	if err := s.Grow(s.cur.n + 1); err != nil {
		return 0, err
	}
	if g.Props == NoProps && s.schema.BlockSize() > 0 {
		g.Props = s.allocBlock()
	}
	i := s.cur.n
	s.cur.recs[i] = g
	s.cur.n++
	return i, nil
}

// Grow ensures the current buffer can hold at least min records. It is a
// no-op when capacity already suffices; otherwise capacity is multiplied
// geometrically until min is met.
//
// The growth discipline is fixed: property references of every live record
// are snapshotted before the resize, the records are moved, and the saved
// references are restored into their relocated positions before control
// returns. Slots beyond the live count are zero-valued, so no reference is
// ever read uninitialized.
func (s *Store) Grow(min int) error {
	if min < 0 || min > maxCapacity {
		return fmt.Errorf("%w: %d", ErrCapacity, min)
	}
	if min <= len(s.cur.recs) {
		return nil
	}

	newCap := len(s.cur.recs)
	if newCap < DefaultCapacity {
		newCap = DefaultCapacity
	}
	factor := s.factor
	if factor < MinGrowthFactor {
		factor = MinGrowthFactor
	}
	for newCap < min {
		newCap = int(math.Ceil(float64(newCap) * factor))
	}
	if newCap > maxCapacity {
		return fmt.Errorf("%w: %d exceeds hard bound", ErrCapacity, newCap)
	}

	saved := make([]PropRef, s.cur.n)
	for i := 0; i < s.cur.n; i++ {
		saved[i] = s.cur.recs[i].Props
	}

	next := make([]Galaxy, newCap)
	copy(next, s.cur.recs[:s.cur.n])

	for i := range saved {
		next[i].Props = saved[i]
	}
	s.cur.recs = next
	return nil
}

// Advance swaps the double buffer at a snapshot boundary and returns the
// just-finished population, now the previous side, for carry-forward. The
// new current buffer keeps its storage and restarts empty.
func (s *Store) Advance() []Galaxy {
	s.cur, s.prev = s.prev, s.cur
	s.cur.n = 0
	return s.prev.recs[:s.prev.n]
}

// Release marks galaxy i dead and recycles its property block. The record
// itself stays in place until the next Advance discards the population.
func (s *Store) Release(i int) error {
	g, err := s.Galaxy(i)
	if err != nil {
		return err
	}
	if g.Props != NoProps {
		s.freeBlock(g.Props)
		g.Props = NoProps
	}
	return nil
}

// Reset clears both buffers and the property arena for a new unit of work.
// Record storage is retained.
func (s *Store) Reset() {
	s.cur.n = 0
	s.prev.n = 0
	clear(s.cur.recs)
	clear(s.prev.recs)
	s.blocks = s.blocks[:0]
	s.free = s.free[:0]
}

func (s *Store) allocBlock() PropRef {
	if n := len(s.free); n > 0 {
		ref := s.free[n-1]
		s.free = s.free[:n-1]
		clear(s.blocks[ref-1])
		return ref
	}
	s.blocks = append(s.blocks, make([]byte, s.schema.BlockSize()))
	return PropRef(len(s.blocks))
}

// Recycle returns a property block to the arena. The engine calls this when
// a galaxy's lifetime ends without the record passing through Release, e.g.
// a previous-snapshot galaxy that was not carried forward.
func (s *Store) Recycle(ref PropRef) {
	s.freeBlock(ref)
}

func (s *Store) freeBlock(ref PropRef) {
	if ref > 0 && int(ref) <= len(s.blocks) {
		s.free = append(s.free, ref)
	}
}

// slot bounds-checks a property access and returns the backing bytes.
func (s *Store) slot(ref PropRef, id PropID) ([]byte, error) {
	if ref == NoProps {
		return nil, ErrNoBlock
	}
	if int(ref) > len(s.blocks) || ref < 0 {
		return nil, fmt.Errorf("%w: bad property ref %d", ErrIndexRange, ref)
	}
	d, err := s.schema.Descriptor(id)
	if err != nil {
		return nil, err
	}
	return s.blocks[ref-1][d.Offset : d.Offset+d.Size], nil
}

// Float returns the float64 property id of the record holding ref.
func (s *Store) Float(ref PropRef, id PropID) (float64, error) {
	b, err := s.slot(ref, id)
	if err != nil {
		return 0, err
	}
	if len(b) != 8 {
		return 0, fmt.Errorf("galaxy: property %d is %d bytes, not a float", id, len(b))
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
}

// SetFloat stores a float64 into property id of the record holding ref.
func (s *Store) SetFloat(ref PropRef, id PropID, v float64) error {
	b, err := s.slot(ref, id)
	if err != nil {
		return err
	}
	if len(b) != 8 {
		return fmt.Errorf("galaxy: property %d is %d bytes, not a float", id, len(b))
	}
	binary.LittleEndian.PutUint64(b, math.Float64bits(v))
	return nil
}

// AddFloat adds delta to property id, a convenience for accumulating rates.
func (s *Store) AddFloat(ref PropRef, id PropID, delta float64) error {
	v, err := s.Float(ref, id)
	if err != nil {
		return err
	}
	return s.SetFloat(ref, id, v+delta)
}

// Bytes exposes the raw slot for non-float properties. The slice aliases the
// block; writes through it are visible to later reads.
func (s *Store) Bytes(ref PropRef, id PropID) ([]byte, error) {
	return s.slot(ref, id)
}
