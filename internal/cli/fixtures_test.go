package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const demoProjectYAML = `
name: demo
seed: 7
fps: 30
compositions:
  - id: main
    name: Main
    width: 1920
    height: 1080
    duration: 60
    layers:
      - id: bg
        name: Background
        kind: solid
        opacity:
          value: 100
          keyframes:
            - {frame: 0, value: 0}
            - {frame: 50, value: 100}
      - id: title
        name: Title
        kind: text
        opacity:
          value: 100
          link: {target: "main/bg/opacity", mapping: "value / 2"}
      - id: sparks
        name: Sparks
        kind: particles
        particles:
          seed: 3
          emitter: {shape: point, rate: 1, speed: 4, direction: -90}
          lifetime: {frames: 20}
          checkpoint_interval: 10
`

const cycleProjectYAML = `
name: cyclic
compositions:
  - id: main
    name: Main
    width: 100
    height: 100
    duration: 10
    layers:
      - id: a
        name: A
        kind: solid
        opacity:
          value: 100
          link: {target: "main/b/opacity"}
      - id: b
        name: B
        kind: solid
        opacity:
          value: 100
          link: {target: "main/a/opacity"}
`

const danglingLinkProjectYAML = `
name: dangling
compositions:
  - id: main
    name: Main
    width: 100
    height: 100
    duration: 10
    layers:
      - id: a
        name: A
        kind: solid
        opacity:
          value: 100
          link: {target: "main/gone/opacity"}
`

// writeProject drops a project document into a temp dir and returns its path.
func writeProject(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "project.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return path
}
