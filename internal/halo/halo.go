package halo

// Class distinguishes how a halo sits inside its friends-of-friends group.
type Class int

const (
	// Central is the most massive halo of its FOF group.
	Central Class = iota
	// Satellite is any other halo bound to the group.
	Satellite
)

func (c Class) String() string {
	switch c {
	case Central:
		return "central"
	case Satellite:
		return "satellite"
	default:
		return "unknown"
	}
}

// Halo is one read-only dark-matter halo record at a single snapshot.
// The runtime never mutates halos; they are produced by an external tree
// loader and consumed by physics modules through the step context.
type Halo struct {
	ID       int64
	Snapshot int
	Class    Class

	// Len is the particle count backing this halo.
	Len int

	// Group is the index of the halo's FOF group within its snapshot.
	Group int

	// Descendant is the index (into Tree.Halos) of the halo this one merges
	// into or evolves into at the next snapshot, or -1 at the tip of a branch.
	Descendant int

	Mvir float64 // virial mass, 1e10 Msun/h
	Rvir float64 // virial radius, Mpc/h
	Vvir float64 // virial velocity, km/s
	Vmax float64 // maximum circular velocity, km/s
	Spin float64 // dimensionless spin parameter

	Pos [3]float64 // comoving position, Mpc/h
	Vel [3]float64 // peculiar velocity, km/s
}

// FOFGroup is the per-snapshot friends-of-friends grouping of halos that is
// processed together within one phase cycle.
type FOFGroup struct {
	// Central is the index (into Tree.Halos) of the group's central halo.
	Central int
	// Members lists the indices of every halo in the group, central first.
	Members []int
}
