// Package depgraph is the pure dependency-resolution algorithm: it expands
// a requested set of module names through their declared dependencies and
// emits a valid initialization/execution order, or fails on cycles and
// missing requirements.
package depgraph
