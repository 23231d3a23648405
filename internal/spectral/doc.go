// Package spectral provides the default spectral routines consumed by the
// clustering engine: a normalised Nystrom embedding of a sampled similarity
// matrix and a recursive two-way division of the resulting embedding.
//
// Both report numerical trouble through the sentinel errors in errors.go so
// that callers can switch to a fallback instead of failing the video.
package spectral
