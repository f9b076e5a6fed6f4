// Package errors provides the classified error primitives used across sitegen.
//
// Every failure that reaches the command line carries a category (config,
// metadata, assets, ...) and a severity. The CLI adapter turns the category
// into a process exit code and decides how much detail to print.
//
// Example usage:
//
//	err := errors.NewError(errors.CategoryMetadata, "duplicate route").
//		WithContext("route", post.Route).
//		WithCause(cause).
//		Build()
package errors
