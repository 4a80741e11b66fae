// Package model defines the read-only input tree (projects, compositions,
// layers, animatable properties) and the evaluated output types (FrameState
// and friends) shared by every stage of the evaluation core.
//
// Everything in this package is a plain value or an immutable snapshot.
// The editing layer that produces projects lives outside this module; the
// evaluator never mutates an input entity, and nothing here carries hidden
// state between evaluations.
package model
