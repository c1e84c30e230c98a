// Package arena implements a fixed-capacity byte region tiled by blocks with
// boundary tags.
//
// # Layout
//
// The first block starts at offset 4 and initially spans the whole arena
// (capacity - 8 bytes). A block of size s at pointer p is laid out as:
//
//	[p-4, p)       leading size tag
//	[p, p+s)       payload
//	[p+s, p+s+4)   trailing size tag
//
// The next block starts at p+s+8; the previous block is found by reading the
// trailing tag just before p-4. Tags are written with the arena's byte order
// (little-endian by default).
//
// # Backing memory
//
// Arenas live on the Go heap unless WithMmap is given, in which case an
// anonymous private mapping is used and Release unmaps it.
//
// The arena does not track which blocks are in use; that is the job of the
// allocator built on top of it.
package arena
