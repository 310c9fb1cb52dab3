// Package toolchain obtains and stages the native library at build
// time: it probes the external tools the build needs (git, cmake) with
// minimum-version checks, runs the library's own build system, and
// gathers the built artifacts and header tree into the output layout
// with filtered recursive copies.
//
// The package shells out; it never reimplements the native build. Any
// step failure is fatal to the build, and nothing is gathered from a
// failed one.
package toolchain
