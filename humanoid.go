package ikpose

import "fmt"

// Humanoid bone names, following the VRM humanoid naming.
const (
	HumanRoot       = "root"
	HumanHips       = "hips"
	HumanSpine      = "spine"
	HumanChest      = "chest"
	HumanUpperChest = "upperChest"
	HumanNeck       = "neck"
	HumanHead       = "head"

	HumanLeftShoulder  = "leftShoulder"
	HumanLeftUpperArm  = "leftUpperArm"
	HumanLeftLowerArm  = "leftLowerArm"
	HumanLeftHand      = "leftHand"
	HumanRightShoulder = "rightShoulder"
	HumanRightUpperArm = "rightUpperArm"
	HumanRightLowerArm = "rightLowerArm"
	HumanRightHand     = "rightHand"

	HumanLeftUpperLeg  = "leftUpperLeg"
	HumanLeftLowerLeg  = "leftLowerLeg"
	HumanLeftFoot      = "leftFoot"
	HumanRightUpperLeg = "rightUpperLeg"
	HumanRightLowerLeg = "rightLowerLeg"
	HumanRightFoot     = "rightFoot"
)

type humanChain struct {
	name     string
	bones    []string
	required []string
	minBones int
}

var humanChains = []humanChain{
	{
		name:     "Head",
		bones:    []string{HumanSpine, HumanChest, HumanUpperChest, HumanNeck, HumanHead},
		required: []string{HumanSpine, HumanChest, HumanNeck, HumanHead},
		minBones: 1,
	},
	{name: "LeftArm", bones: []string{HumanLeftShoulder, HumanLeftUpperArm, HumanLeftLowerArm, HumanLeftHand}, minBones: 1},
	{name: "RightArm", bones: []string{HumanRightShoulder, HumanRightUpperArm, HumanRightLowerArm, HumanRightHand}, minBones: 1},
	{name: "LeftLeg", bones: []string{HumanLeftUpperLeg, HumanLeftLowerLeg, HumanLeftFoot}, minBones: 1},
	{name: "RightLeg", bones: []string{HumanRightUpperLeg, HumanRightLowerLeg, HumanRightFoot}, minBones: 1},
	{name: "Hip", bones: []string{HumanHips, HumanSpine}, minBones: 2},
}

// humanLimits is the default limit table in degrees: min x, y, z then
// max x, y, z.
var humanLimits = map[string][6]float64{
	HumanRoot:       {-180, -180, -180, 180, 180, 180},
	HumanHips:       {-180, -180, -180, 180, 180, 180},
	HumanSpine:      {-15, -30, -20, 15, 30, 20},
	HumanChest:      {-45, -30, -20, 45, 30, 20},
	HumanUpperChest: {-45, -30, -20, 45, 30, 20},
	HumanNeck:       {-45, -45, -10, 45, 45, 10},
	HumanHead:       {-15, -30, -20, 15, 30, 20},

	HumanLeftShoulder: {0, 0, -45, 0, 15, 0},
	HumanLeftUpperArm: {-45, -75, -45, 45, 45, 85},
	HumanLeftLowerArm: {0, -150, 0, 0, 0, 0},
	HumanLeftHand:     {0, 0, -45, 0, 45, 65},

	HumanRightShoulder: {0, -15, 0, 0, 0, 45},
	HumanRightUpperArm: {-45, -45, -85, 45, 75, 45},
	HumanRightLowerArm: {0, 0, 0, 0, 150, 0},
	HumanRightHand:     {0, -45, -65, 0, 0, 45},

	HumanLeftUpperLeg:  {-60, 0, -75, 120, 0, 75},
	HumanLeftLowerLeg:  {-160, 0, 0, 0, 0, 0},
	HumanLeftFoot:      {-15, -5, -5, 15, 5, 5},
	HumanRightUpperLeg: {-60, 0, -75, 120, 0, 75},
	HumanRightLowerLeg: {-160, 0, 0, 0, 0, 0},
	HumanRightFoot:     {-15, -5, -5, 15, 5, 5},
}

// HumanoidRig builds the humanoid preset for a model whose humanoid bone
// names map to concrete bone names through boneMap. Chains whose bones are
// missing from the map are shortened or skipped; the head chain's required
// bones must all be present. Limits are emitted for every mapped bone.
func HumanoidRig(boneMap map[string]string) (*Rig, error) {
	rig := &Rig{Limits: make(map[string]RigLimit)}
	for _, hc := range humanChains {
		for _, req := range hc.required {
			if boneMap[req] == "" {
				return nil, fmt.Errorf("ikpose: humanoid chain %s: bone %q not mapped: %w", hc.name, req, ErrConfiguration)
			}
		}
		var bones []string
		for _, hb := range hc.bones {
			if name := boneMap[hb]; name != "" {
				bones = append(bones, name)
			}
		}
		if len(bones) < hc.minBones {
			continue
		}
		rig.Chains = append(rig.Chains, RigChain{Name: hc.name, Bones: bones})
	}
	for hb, l := range humanLimits {
		name := boneMap[hb]
		if name == "" {
			continue
		}
		rig.Limits[name] = RigLimit{
			Min: [3]float64{l[0], l[1], l[2]},
			Max: [3]float64{l[3], l[4], l[5]},
		}
	}
	return rig, nil
}

// HumanoidBoneMap maps every humanoid bone name that skel contains to
// itself, for skeletons that already use humanoid names.
func HumanoidBoneMap(skel *Skeleton) map[string]string {
	m := make(map[string]string)
	for hb := range humanLimits {
		if _, ok := skel.BoneIndex(hb); ok {
			m[hb] = hb
		}
	}
	return m
}

// HumanoidSkeleton returns a T-posed humanoid of roughly 1.7 units, y up,
// facing +z, with its left side on +x. Hands, feet and head carry one
// extra leaf bone each so every chain tip has a proxy.
func HumanoidSkeleton() *Skeleton {
	s := NewSkeleton()
	root := s.MustAddBone(HumanRoot, -1, Vec3{0, 0, 0})
	hips := s.MustAddBone(HumanHips, root, Vec3{0, 0.95, 0})
	spine := s.MustAddBone(HumanSpine, hips, Vec3{0, 0.1, 0})
	chest := s.MustAddBone(HumanChest, spine, Vec3{0, 0.12, 0})
	upper := s.MustAddBone(HumanUpperChest, chest, Vec3{0, 0.12, 0})
	neck := s.MustAddBone(HumanNeck, upper, Vec3{0, 0.12, 0})
	head := s.MustAddBone(HumanHead, neck, Vec3{0, 0.1, 0})
	s.MustAddBone("headTop", head, Vec3{0, 0.15, 0})

	for _, side := range []struct {
		sign                          float64
		shoulder, upper, lower, hand  string
		finger                        string
		upperLeg, lowerLeg, foot, toe string
	}{
		{1, HumanLeftShoulder, HumanLeftUpperArm, HumanLeftLowerArm, HumanLeftHand, "leftMiddleProximal",
			HumanLeftUpperLeg, HumanLeftLowerLeg, HumanLeftFoot, "leftToes"},
		{-1, HumanRightShoulder, HumanRightUpperArm, HumanRightLowerArm, HumanRightHand, "rightMiddleProximal",
			HumanRightUpperLeg, HumanRightLowerLeg, HumanRightFoot, "rightToes"},
	} {
		sh := s.MustAddBone(side.shoulder, upper, Vec3{0.03 * side.sign, 0.08, 0})
		ua := s.MustAddBone(side.upper, sh, Vec3{0.1 * side.sign, 0, 0})
		la := s.MustAddBone(side.lower, ua, Vec3{0.25 * side.sign, 0, 0})
		hd := s.MustAddBone(side.hand, la, Vec3{0.22 * side.sign, 0, 0})
		s.MustAddBone(side.finger, hd, Vec3{0.08 * side.sign, 0, 0})

		ul := s.MustAddBone(side.upperLeg, hips, Vec3{0.09 * side.sign, -0.05, 0})
		ll := s.MustAddBone(side.lowerLeg, ul, Vec3{0, -0.42, 0})
		ft := s.MustAddBone(side.foot, ll, Vec3{0, -0.4, 0})
		s.MustAddBone(side.toe, ft, Vec3{0, -0.05, 0.12})
	}
	return s
}
