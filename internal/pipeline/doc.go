// Package pipeline holds the ordered, mutable step sequence a run executes
// and the phase executor that resolves steps to concrete modules and
// dispatches them by phase tag.
package pipeline
