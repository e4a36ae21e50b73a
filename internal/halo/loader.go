package halo

import (
	"context"
	"errors"
)

// ErrNoMoreTrees is returned by a TreeLoader once its catalog is exhausted.
var ErrNoMoreTrees = errors.New("halo: no more trees")

// TreeLoader hands merger trees to the engine one at a time. Parsing of halo
// catalogs and tree files happens behind this interface; the runtime only
// sees fully assembled, read-only trees.
type TreeLoader interface {
	// Next returns the next tree, or ErrNoMoreTrees when the catalog ends.
	Next(ctx context.Context) (*Tree, error)
}

// SliceLoader serves a fixed set of in-memory trees. It backs tests and the
// demo binary; production loaders wrap real tree catalogs.
type SliceLoader struct {
	trees []*Tree
	pos   int
}

// NewSliceLoader returns a loader that hands out the given trees in order.
func NewSliceLoader(trees ...*Tree) *SliceLoader {
	return &SliceLoader{trees: trees}
}

// Next implements TreeLoader.
func (l *SliceLoader) Next(ctx context.Context) (*Tree, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if l.pos >= len(l.trees) {
		return nil, ErrNoMoreTrees
	}
	t := l.trees[l.pos]
	l.pos++
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}
