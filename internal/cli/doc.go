// Package cli parses command-line arguments into app settings.
package cli
