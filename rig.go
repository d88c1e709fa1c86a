package ikpose

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Rig is a declarative skeleton and chain setup, usually read from YAML:
//
//	bones:
//	  - {name: hips, position: [0, 1, 0]}
//	  - {name: spine, parent: hips, position: [0, 0.1, 0]}
//	chains:
//	  - {name: Hip, bones: [hips, spine], end_site: true}
//	limits:
//	  spine: {min: [-15, -30, -20], max: [15, 30, 20]}
//	speed_ratios: {spine: 0.5}
//	locked: [hips]
type Rig struct {
	Bones       []RigBone           `yaml:"bones"`
	Chains      []RigChain          `yaml:"chains"`
	Limits      map[string]RigLimit `yaml:"limits"`
	SpeedRatios map[string]float64  `yaml:"speed_ratios"`
	Locked      []string            `yaml:"locked"`
}

// RigBone declares one bone. Parents must be declared before children.
type RigBone struct {
	Name     string     `yaml:"name"`
	Parent   string     `yaml:"parent"`
	Position [3]float64 `yaml:"position"`
	Order    string     `yaml:"order"`
}

// RigChain declares one IK chain by bone names, root to tip.
type RigChain struct {
	Name          string      `yaml:"name"`
	Bones         []string    `yaml:"bones"`
	EndSite       bool        `yaml:"end_site"`
	EndSiteOffset *[3]float64 `yaml:"end_site_offset"`
	Iterations    int         `yaml:"iterations"`
	MaxAngle      float64     `yaml:"max_angle"`
}

// RigLimit is a limit box in degrees.
type RigLimit struct {
	Min [3]float64 `yaml:"min"`
	Max [3]float64 `yaml:"max"`
}

// LoadRig parses a YAML rig document.
func LoadRig(data []byte) (*Rig, error) {
	var r Rig
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("rig: %w", err)
	}
	return &r, nil
}

// LoadRigFile reads and parses a YAML rig file.
func LoadRigFile(path string) (*Rig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	r, err := LoadRig(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// Marshal encodes the rig as YAML.
func (r *Rig) Marshal() ([]byte, error) {
	return yaml.Marshal(r)
}

// Skeleton builds a skeleton from the rig's bone list.
func (r *Rig) Skeleton() (*Skeleton, error) {
	if len(r.Bones) == 0 {
		return nil, fmt.Errorf("ikpose: rig has no bones: %w", ErrConfiguration)
	}
	skel := NewSkeleton()
	for _, b := range r.Bones {
		parent := -1
		if b.Parent != "" {
			p, ok := skel.BoneIndex(b.Parent)
			if !ok {
				return nil, fmt.Errorf("ikpose: rig bone %q: parent %q not declared before it: %w",
					b.Name, b.Parent, ErrConfiguration)
			}
			parent = p
		}
		order, ok := ParseRotationOrder(b.Order)
		if !ok {
			return nil, fmt.Errorf("ikpose: rig bone %q: rotation order %q: %w", b.Name, b.Order, ErrConfiguration)
		}
		i, err := skel.AddBone(b.Name, parent, Vec3(b.Position))
		if err != nil {
			return nil, err
		}
		skel.SetRotationOrder(i, order)
	}
	return skel, nil
}

// Apply registers the rig's chains and writes its limits, speed ratios and
// locks into reg. Limits are applied before chains so chain targets see
// the final setup.
func (r *Rig) Apply(reg *Registry) error {
	for bone, l := range r.Limits {
		if err := reg.SetLimits(bone, Vec3(l.Min), Vec3(l.Max)); err != nil {
			return fmt.Errorf("ikpose: rig: %w", err)
		}
	}
	if len(r.SpeedRatios) > 0 {
		if err := reg.SetSpeedRatios(r.SpeedRatios); err != nil {
			return fmt.Errorf("ikpose: rig: %w", err)
		}
	}
	for _, bone := range r.Locked {
		if err := reg.SetLocked(bone, true); err != nil {
			return fmt.Errorf("ikpose: rig: %w", err)
		}
	}
	for _, ch := range r.Chains {
		if _, err := reg.RegisterChainByNames(ch.Name, ch.Bones); err != nil {
			return fmt.Errorf("ikpose: rig: %w", err)
		}
		if ch.Iterations > 0 {
			if err := reg.SetIterations(ch.Name, ch.Iterations); err != nil {
				return fmt.Errorf("ikpose: rig: %w", err)
			}
		}
		if ch.MaxAngle > 0 {
			if err := reg.SetMaxAngle(ch.Name, ch.MaxAngle); err != nil {
				return fmt.Errorf("ikpose: rig: %w", err)
			}
		}
		if ch.EndSiteOffset != nil {
			if err := reg.SetEndSiteOffset(ch.Name, Vec3(*ch.EndSiteOffset)); err != nil {
				return fmt.Errorf("ikpose: rig: %w", err)
			}
		}
		if ch.EndSite {
			if err := reg.SetEndSiteEnabled(ch.Name, true); err != nil {
				return fmt.Errorf("ikpose: rig: %w", err)
			}
		}
	}
	return nil
}
