// Package module defines the plugin contract physics modules implement to
// participate in a run: the descriptor, the phase bitmask, the optional
// per-phase entry-point interfaces, and the shared step context. This is the
// stable boundary the runtime guarantees across module implementations.
package module
