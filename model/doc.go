// Package model contains the in-memory representation of the scheduler
// state: jobs arriving from the arena, the machines they are packed onto, the
// session budget and the per-turn feed.
//
// Records are plain structs with named fields; the stores that own them live
// under service/dao and are the only place where they are mutated.
package model
