// Package blocks is the builtin block library: the registry entries for the
// block types Kinetic graphs are authored from.
//
// Every entry satisfies the graph.BlockSpec contract - declared ports plus a
// pure Lower function that emits IR and requests effects. Nothing in this
// package touches compiler or engine internals; the compiler sees these
// blocks exactly as it would see externally registered ones.
package blocks
