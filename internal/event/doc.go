// Package event provides the synchronous publish/dispatch bus physics
// modules use to notify each other without direct coupling.
package event
