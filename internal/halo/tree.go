package halo

import "fmt"

// Tree is one halo merger tree: the full progenitor/descendant history of a
// halo across snapshots. A tree is the unit of distributable work; the
// runtime processes it one snapshot at a time.
type Tree struct {
	// Index identifies the tree within its source file or catalog.
	Index int

	// Halos holds every halo of the tree across all snapshots.
	Halos []Halo

	// BySnapshot maps a snapshot number to the indices of the halos present
	// at that snapshot, in catalog order.
	BySnapshot [][]int

	// Groups maps a snapshot number to its FOF groups.
	Groups [][]FOFGroup

	// Redshifts gives the redshift of each snapshot.
	Redshifts []float64

	// Times gives the age of the universe at each snapshot, in the run's
	// time unit. Integration sub-step lengths derive from adjacent entries.
	Times []float64

	// progenitors[i] lists the halos whose Descendant is i, built lazily.
	progenitors [][]int
}

// NumSnapshots returns how many snapshots the tree spans.
func (t *Tree) NumSnapshots() int { return len(t.BySnapshot) }

// Progenitors returns the indices of the halos at the previous snapshot that
// merge into or evolve into halo hi. The reverse index is built on first use.
func (t *Tree) Progenitors(hi int) []int {
	if t.progenitors == nil {
		t.progenitors = make([][]int, len(t.Halos))
		for i := range t.Halos {
			d := t.Halos[i].Descendant
			if d >= 0 && d < len(t.Halos) {
				t.progenitors[d] = append(t.progenitors[d], i)
			}
		}
	}
	if hi < 0 || hi >= len(t.progenitors) {
		return nil
	}
	return t.progenitors[hi]
}

// Validate checks the structural invariants an external loader must supply:
// snapshot indices in range, descendants pointing strictly forward in time,
// and group members agreeing with their snapshot.
func (t *Tree) Validate() error {
	for i := range t.Halos {
		h := &t.Halos[i]
		if h.Snapshot < 0 || h.Snapshot >= len(t.BySnapshot) {
			return fmt.Errorf("halo %d: snapshot %d out of range [0,%d)", i, h.Snapshot, len(t.BySnapshot))
		}
		if h.Descendant >= len(t.Halos) {
			return fmt.Errorf("halo %d: descendant %d out of range", i, h.Descendant)
		}
		if h.Descendant >= 0 && t.Halos[h.Descendant].Snapshot <= h.Snapshot {
			return fmt.Errorf("halo %d: descendant %d does not advance in time", i, h.Descendant)
		}
	}
	for snap, groups := range t.Groups {
		for gi, g := range groups {
			for _, m := range g.Members {
				if m < 0 || m >= len(t.Halos) {
					return fmt.Errorf("snapshot %d group %d: member %d out of range", snap, gi, m)
				}
				if t.Halos[m].Snapshot != snap {
					return fmt.Errorf("snapshot %d group %d: member %d belongs to snapshot %d", snap, gi, m, t.Halos[m].Snapshot)
				}
			}
		}
	}
	return nil
}
