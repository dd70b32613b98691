// Package compile translates an EditJob into the ffmpeg argument vector
// and filter graph that realize it.
//
// Compilation runs a fixed pipeline of independent operation handlers
// over a fresh Context; each handler reads only the operations relevant
// to it. Filter chains are collected in a small typed graph whose label
// wiring is validated structurally before rendering, so a broken graph
// fails at compile time instead of inside the tool.
package compile
