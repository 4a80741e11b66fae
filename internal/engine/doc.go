// Package engine is the frame evaluator: the single entry point that turns
// a project plus a frame number into a complete FrameState.
//
// Evaluation is a pure function of its inputs. The evaluator instance holds
// no per-frame state; the graph cache and the particle checkpoint cache it
// carries are accelerators keyed by content hashes, so their warmth changes
// cost, never results. The interactive preview (random scrub order) and the
// export pipeline (sequential order) call the same method and get
// structurally equal FrameStates for equal inputs.
//
// Recoverable failures (expression errors, missing link targets, invalid
// particle configs) degrade the smallest affected unit and surface as
// diagnostics next to the FrameState. Only a dependency cycle aborts the
// whole evaluation, because a cycle invalidates the evaluation order for
// every dependent property.
package engine
