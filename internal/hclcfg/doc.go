// Package hclcfg is the HCL implementation of the run-description loader:
// a params block, an optional TOML parameter-file reference, and step
// blocks that lay out the pipeline declaratively.
package hclcfg
