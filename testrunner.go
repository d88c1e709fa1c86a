package ikpose

import (
	"encoding/json"
	"fmt"
)

// testStep represents a single action in a test script.
type testStep struct {
	Action string     `json:"action"`
	Chain  string     `json:"chain,omitempty"`
	Bone   string     `json:"bone,omitempty"`
	To     [3]float64 `json:"to,omitempty"`
	Deg    [3]float64 `json:"deg,omitempty"`
	Frames int        `json:"frames,omitempty"`
}

// testScript is the top-level JSON structure for a test script.
type testScript struct {
	Steps []testStep `json:"steps"`
}

var knownActions = map[string]bool{
	"select": true, "clear": true, "press": true, "move": true,
	"release": true, "drag": true, "rotate": true, "wait": true,
}

// TestRunner sequences injected posing input across frames for scripted
// drags. Attach to a Controller via SetTestRunner.
type TestRunner struct {
	steps     []testStep
	cursor    int
	waitCount int
	done      bool
}

// LoadTestScript parses a JSON test script and returns a TestRunner ready
// to be attached to a Controller via SetTestRunner.
//
//	{"steps": [
//	  {"action": "drag", "chain": "LeftArm", "to": [0.4, 1.2, 0.1], "frames": 10},
//	  {"action": "rotate", "bone": "head", "deg": [0, 20, 0]},
//	  {"action": "wait", "frames": 2}
//	]}
func LoadTestScript(jsonData []byte) (*TestRunner, error) {
	var script testScript
	if err := json.Unmarshal(jsonData, &script); err != nil {
		return nil, fmt.Errorf("parse test script: %w", err)
	}
	if len(script.Steps) == 0 {
		return nil, fmt.Errorf("parse test script: no steps")
	}
	for i, st := range script.Steps {
		if !knownActions[st.Action] {
			return nil, fmt.Errorf("parse test script: step %d: unknown action %q", i, st.Action)
		}
		if st.Action == "rotate" && !EulerDegrees(st.Deg[0], st.Deg[1], st.Deg[2]).IsFinite() {
			return nil, fmt.Errorf("parse test script: step %d: rotation %v out of range: %w", i, st.Deg, ErrInvalidArgument)
		}
	}
	return &TestRunner{steps: script.Steps}, nil
}

// SetTestRunner attaches a TestRunner to the controller. The runner's step
// method is called from Controller.Update before injected input is
// consumed each frame.
func (c *Controller) SetTestRunner(runner *TestRunner) {
	c.testRunner = runner
}

// Done reports whether all steps in the test script have been executed.
func (r *TestRunner) Done() bool {
	return r.done
}

// step advances the test runner by one frame. Called from Controller.Update.
func (r *TestRunner) step(c *Controller) {
	if r.done {
		return
	}
	// Wait for pending injections to drain before advancing.
	if len(c.injectQueue) > 0 {
		return
	}
	if r.waitCount > 0 {
		r.waitCount--
		return
	}
	if r.cursor >= len(r.steps) {
		r.done = true
		return
	}

	st := r.steps[r.cursor]
	r.cursor++

	switch st.Action {
	case "select":
		c.InjectSelect(st.Chain)
	case "clear":
		c.InjectSelect("")
	case "press":
		c.InjectPress()
	case "move":
		c.InjectMove(Vec3(st.To))
	case "release":
		c.InjectRelease()
	case "drag":
		if err := c.InjectDrag(st.Chain, Vec3(st.To), st.Frames); err != nil {
			c.log.Warn().Err(err).Int("step", r.cursor-1).Msg("test script drag skipped")
		}
	case "rotate":
		e := EulerDegrees(st.Deg[0], st.Deg[1], st.Deg[2])
		if i, ok := c.skel.BoneIndex(st.Bone); ok {
			e.Order = c.skel.Rotation(i).Order
		}
		c.InjectRotate(st.Bone, e)
	case "wait":
		if st.Frames > 0 {
			r.waitCount = st.Frames - 1 // this frame counts as one
		}
	}

	if r.cursor >= len(r.steps) && r.waitCount == 0 && len(c.injectQueue) == 0 {
		r.done = true
	}
}
