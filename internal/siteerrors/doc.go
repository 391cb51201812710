// Package siteerrors provides the classified error kinds used across a site build.
//
// Load-phase (config, content) and render-phase errors are fatal: a static
// site is published as a whole or not at all. Lookup misses and out-of-range
// page requests are recoverable and are handled by routing code.
//
//	err := siteerrors.ContentError("duplicate slug").
//		WithContext("slug", slug).
//		Build()
//
//	if errors.Is(err, siteerrors.ErrContent) { ... }
package siteerrors
