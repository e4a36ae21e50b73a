// Package halo defines the read-only halo merger-tree data model consumed by
// the runtime, and the TreeLoader boundary behind which catalog parsing lives.
package halo
