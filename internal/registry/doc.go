// Package registry provides the central "glue" for the check system.
//
// Check modules register named checks into a Registry. The application runs
// every registered check against a resolved document, in registration
// order, and aggregates their findings into a Report.
package registry
