// Package harness provides conformance testing for the animation evaluator.
//
// The harness loads a scenario, evaluates the frames it names, and checks
// declarative assertions against the resulting frame states. Scenarios
// double as regression fixtures: RunWithGolden snapshots a digest of every
// evaluated frame and compares it against a committed golden file.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: linked_opacity
//	description: "A pickwhip link halves the driver's opacity"
//	project: projects/demo.yaml
//	comp: main
//	frames: [0, 25, 50]
//	scrub: [50, 10]
//	assertions:
//	  - type: property_value
//	    frame: 25
//	    layer: title
//	    property: opacity
//	    value: [25]
//	  - type: layer_visible
//	    frame: 25
//	    layer: title
//	    visible: true
//	  - type: particle_count
//	    frame: 25
//	    layer: sparks
//	    count: 20
//	  - type: diagnostic
//	    frame: 25
//	    code: MISSING_REFERENCE
//
// The project and audio paths resolve relative to the scenario file.
//
// # Assertion Types
//
//   - property_value: a resolved value on a visible layer matches the
//     expected components within a tolerance
//   - layer_visible: a layer is (or is not) visible at a frame
//   - particle_count: a particle layer's snapshot holds exactly N particles
//   - diagnostic: a diagnostic with the given code was emitted at a frame
//
// # Deterministic Execution
//
// The optional scrub list warms the evaluator's caches in an arbitrary
// order before the recorded frames run. Because evaluation is pure, the
// scrub must not change any result; running the same scenario with and
// without it is itself a determinism check, and golden files stay stable
// across runs and machines.
package harness
