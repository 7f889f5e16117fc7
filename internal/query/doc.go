// Package query filters and summarises sets of photos.
//
// Both operations are pure: they never modify their input and depend only
// on the records they are given, so they can run over an Index snapshot or
// over a client-supplied list alike.
package query
