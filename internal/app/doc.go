// Package app assembles one runtime instance from its parts and owns its
// lifecycle: construction, the run, and module shutdown.
package app
