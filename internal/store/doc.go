// Package store persists parsed archives in a SQLite database.
//
// Every archive saved becomes an import identified by a UUID, with one row
// per matrix holding its shape and a little-endian float64 blob. Loading an
// import rebuilds the archive in its original record order, so the store
// can stand in for the text file when rendering archives back out.
package store
