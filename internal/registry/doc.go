// Package registry catalogs the physics modules available to one runtime
// instance, validates their descriptors against the plugin contract, and
// drives dependency-ordered initialization with full rollback on failure.
package registry
