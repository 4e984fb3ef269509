// Package config defines the format-agnostic model of an experiment matrix:
// the template to resolve, the symbols shared by every run, the runs
// themselves with their expectations, and extra PFT parameter rules.
//
// Concrete loaders live in separate packages; hcl_adapter reads the model
// from HCL files.
package config
