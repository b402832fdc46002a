// Package state defines the run aggregate shared by every stage and the
// reducer that folds stage updates into it.
//
// Collections such as RawDocs and Evidence are merged by appending. Single
// value fields are written through Value and belong to the first branch that
// writes them; a later write from another branch fails with *ConflictError.
// Mainline stages, which run after the branches join, write with an empty
// origin and never take ownership.
package state
