// Package main hosts the kaldiark CLI entrypoint and command graph.
//
// The Cobra-based command tree converts Kaldi text archives to NumPy .npz
// files, renders .npz files back to archive text, summarizes archives, and
// manages the SQLite archive store. It centralizes configuration resolution
// and structured logging setup so subcommands only wire files to the
// internal ark, npz, and store packages.
package main
