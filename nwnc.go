// Package nwnc implements a resource-aware compiler driver for the
// NWScript bytecode language: a priority-ordered virtual filesystem over
// directories, ERF/HAK/MOD archives, and KEY/BIF base-game archives
// (internal/resource and its provider packages), a structured hierarchical
// container codec bit-exact with the original "GFF" format
// (internal/bytestream, internal/gff), and a driver (cmd/nwnc) that
// resolves include files against that virtual filesystem, hands source to
// a pluggable external compiler (internal/compiler), and optionally
// verifies the resulting bytecode (internal/ncs) before writing it out.
package nwnc

// BuildIdentifier is the toolchain identifier string. No package in this
// module reads it.
const BuildIdentifier = "nwnc"
