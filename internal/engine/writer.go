package engine

import (
	"context"

	"github.com/vk/galaxevo/internal/galaxy"
)

// SnapshotWriter receives the fully processed galaxy population of one
// snapshot, ready for serialization. The store is passed alongside so the
// writer can resolve property blocks; the slice and store alias engine
// memory and must not be retained past the call.
type SnapshotWriter interface {
	WriteSnapshot(ctx context.Context, treeIndex, snapshot int, galaxies []galaxy.Galaxy, store *galaxy.Store) error
}

// DiscardWriter drops every snapshot. It is the default when no output
// collaborator is attached.
type DiscardWriter struct{}

// WriteSnapshot implements SnapshotWriter.
func (DiscardWriter) WriteSnapshot(context.Context, int, int, []galaxy.Galaxy, *galaxy.Store) error {
	return nil
}

// CountingWriter records how many snapshots and galaxies passed through it.
// Tests and dry runs use it in place of a real serializer.
type CountingWriter struct {
	Snapshots int
	Galaxies  int
}

// WriteSnapshot implements SnapshotWriter.
func (w *CountingWriter) WriteSnapshot(_ context.Context, _, _ int, galaxies []galaxy.Galaxy, _ *galaxy.Store) error {
	w.Snapshots++
	w.Galaxies += len(galaxies)
	return nil
}
