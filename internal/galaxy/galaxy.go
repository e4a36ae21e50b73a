package galaxy

// Class tracks how a galaxy relates to its host halo.
type Class int

const (
	// TypeCentral is the galaxy at the centre of a FOF group's main halo.
	TypeCentral Class = iota
	// TypeSatellite sits in a subhalo bound to the group.
	TypeSatellite
	// TypeOrphan has lost its subhalo and awaits merging.
	TypeOrphan
)

func (c Class) String() string {
	switch c {
	case TypeCentral:
		return "central"
	case TypeSatellite:
		return "satellite"
	case TypeOrphan:
		return "orphan"
	default:
		return "unknown"
	}
}

// PropRef is the stable, opaque handle of a galaxy's property block. The
// zero value means no block is attached, so zero-initialized records are
// always safe to inspect. Handles survive any relocation of the record
// array; they are resolved only through the owning Store.
type PropRef int32

// NoProps is the PropRef of a record without an attached property block.
const NoProps PropRef = 0

// Galaxy is the fixed-size part of one galaxy record: identity, kinematics,
// halo linkage and classification. Everything modules compute lives in the
// variable property block reached through Props.
type Galaxy struct {
	ID       int64
	Class    Class
	Snapshot int

	// HaloIndex links the galaxy to its halo within the current tree;
	// GroupIndex identifies the FOF group it is processed with.
	HaloIndex  int
	GroupIndex int

	Mvir float64
	Rvir float64
	Vvir float64
	Vmax float64

	Pos [3]float64
	Vel [3]float64

	// MergeTarget is the index of the galaxy this one will merge into, or -1.
	MergeTarget int

	// Props addresses the galaxy's property block inside its Store. Once
	// assigned it must stay attached to this record through any growth or
	// carry-forward of the containing array.
	Props PropRef
}
