// Package config defines the format-agnostic run-description model: the
// resolved parameter value set every module receives at Init, and the
// declarative pipeline layout consumed through the Pipeline's mutators.
// Concrete formats sit behind the Loader interface.
package config
