package ikpose

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

// sameRotation compares two Euler triples by the vectors they rotate.
func sameRotation(t *testing.T, name string, got, want Euler) {
	t.Helper()
	for _, v := range []Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}} {
		g := got.Quat().Rotate(v)
		w := want.Quat().Rotate(v)
		if !vecNear(g, w, 1e-6) {
			t.Errorf("%s: %v rotates to %v, want %v", name, v, g, w)
		}
	}
}

func TestEulerDegrees(t *testing.T) {
	e := EulerDegrees(30, -45, 90)
	assertNear(t, "X", e.X, math.Pi/6)
	assertNear(t, "Y", e.Y, -math.Pi/4)
	assertNear(t, "Z", e.Z, math.Pi/2)
	if e.Order != OrderXYZ {
		t.Errorf("Order = %v, want XYZ", e.Order)
	}
	d := e.Degrees()
	assertNear(t, "deg X", d[0], 30)
	assertNear(t, "deg Y", d[1], -45)
	assertNear(t, "deg Z", d[2], 90)
}

func TestEulerQuatSingleAxis(t *testing.T) {
	tests := []struct {
		name string
		e    Euler
		in   Vec3
		want Vec3
	}{
		{"x90", EulerDegrees(90, 0, 0), Vec3{0, 1, 0}, Vec3{0, 0, 1}},
		{"y90", EulerDegrees(0, 90, 0), Vec3{0, 0, 1}, Vec3{1, 0, 0}},
		{"z90", EulerDegrees(0, 0, 90), Vec3{1, 0, 0}, Vec3{0, 1, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertVec(t, "rotated", tt.e.Quat().Rotate(tt.in), tt.want)
		})
	}
}

func TestEulerQuatOrder(t *testing.T) {
	// XYZ applies Z first to a vector, ZYX applies X first.
	xyz := Euler{X: math.Pi / 2, Z: math.Pi / 2, Order: OrderXYZ}
	zyx := Euler{X: math.Pi / 2, Z: math.Pi / 2, Order: OrderZYX}
	// Rx * Rz * (1,0,0) = Rx * (0,1,0) = (0,0,1)
	assertVec(t, "XYZ", xyz.Quat().Rotate(Vec3{1, 0, 0}), Vec3{0, 0, 1})
	// Rz * Rx * (1,0,0) = Rz * (1,0,0) = (0,1,0)
	assertVec(t, "ZYX", zyx.Quat().Rotate(Vec3{1, 0, 0}), Vec3{0, 1, 0})
}

func TestEulerFromQuatRoundTrip(t *testing.T) {
	orders := []RotationOrder{OrderXYZ, OrderXZY, OrderYXZ, OrderYZX, OrderZXY, OrderZYX}
	for _, order := range orders {
		t.Run(order.String(), func(t *testing.T) {
			e := Euler{X: 0.3, Y: -0.5, Z: 0.7, Order: order}
			got := EulerFromQuat(e.Quat(), order)
			assertNear(t, "X", got.X, e.X)
			assertNear(t, "Y", got.Y, e.Y)
			assertNear(t, "Z", got.Z, e.Z)
			if got.Order != order {
				t.Errorf("Order = %v, want %v", got.Order, order)
			}
		})
	}
}

func TestEulerFromQuatGimbalLock(t *testing.T) {
	e := Euler{X: 0.4, Y: math.Pi / 2, Z: 0.2}
	got := EulerFromQuat(e.Quat(), OrderXYZ)
	// asin is steep next to 1, so allow a looser bound here.
	if math.Abs(got.Y-math.Pi/2) > 1e-6 {
		t.Errorf("Y = %v, want Pi/2", got.Y)
	}
	if got.IsNaN() {
		t.Fatalf("NaN decomposition: %+v", got)
	}
	sameRotation(t, "locked", got, e)
}

func TestEulerIsNaN(t *testing.T) {
	if (Euler{}).IsNaN() {
		t.Error("zero Euler reported NaN")
	}
	if !(Euler{Y: math.NaN()}).IsNaN() {
		t.Error("NaN Y not reported")
	}
}

func TestRotationOrderParse(t *testing.T) {
	for _, o := range []RotationOrder{OrderXYZ, OrderXZY, OrderYXZ, OrderYZX, OrderZXY, OrderZYX} {
		got, ok := ParseRotationOrder(o.String())
		if !ok || got != o {
			t.Errorf("ParseRotationOrder(%q) = %v, %v", o.String(), got, ok)
		}
	}
	if o, ok := ParseRotationOrder(""); !ok || o != OrderXYZ {
		t.Errorf("empty order = %v, %v; want XYZ, true", o, ok)
	}
	if _, ok := ParseRotationOrder("XXY"); ok {
		t.Error("XXY accepted")
	}
}

// --- Angle helpers ---

func TestWrapDegrees(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{0, 0},
		{190, -170},
		{-190, 170},
		{180, 180},
		{-180, 180},
		{540, 180},
		{-721, -1},
	}
	for _, tt := range tests {
		assertNear(t, "wrapDegrees", wrapDegrees(tt.in), tt.want)
	}
}

func TestWrapRadians(t *testing.T) {
	assertNear(t, "3pi/2", wrapRadians(3*math.Pi/2), -math.Pi/2)
	assertNear(t, "-3pi/2", wrapRadians(-3*math.Pi/2), math.Pi/2)
	if got := wrapRadians(-math.Pi); got != -math.Pi {
		t.Errorf("wrapRadians(-Pi) = %v, want -Pi", got)
	}
}

func TestIsD180(t *testing.T) {
	if !isD180(math.Pi) || !isD180(-math.Pi) {
		t.Error("±Pi not detected")
	}
	if isD180(math.Pi - 1e-12) {
		t.Error("near-Pi detected as exactly 180")
	}
}

func TestIkSafeRotation(t *testing.T) {
	tests := []struct {
		name string
		in   Euler
		want Euler
	}{
		{
			name: "x and z at 180",
			in:   Euler{X: math.Pi, Y: 0.3, Z: math.Pi},
			want: Euler{Y: math.Pi - 0.3},
		},
		{
			name: "x and z at 180, negative y",
			in:   Euler{X: -math.Pi, Y: -0.3, Z: math.Pi},
			want: Euler{Y: -math.Pi + 0.3},
		},
		{
			name: "z past 160",
			in:   Euler{X: 0.2, Y: 0.3, Z: mgl64.DegToRad(170)},
			want: Euler{X: 0.2 - math.Pi, Y: math.Pi - 0.3, Z: mgl64.DegToRad(-10)},
		},
		{
			name: "z past -160",
			in:   Euler{X: -0.2, Y: -0.3, Z: mgl64.DegToRad(-170)},
			want: Euler{X: -0.2 + math.Pi, Y: -math.Pi + 0.3, Z: mgl64.DegToRad(10)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ikSafeRotation(tt.in)
			assertNear(t, "X", got.X, tt.want.X)
			assertNear(t, "Y", got.Y, tt.want.Y)
			assertNear(t, "Z", got.Z, tt.want.Z)
			sameRotation(t, "equivalent", got, tt.in)
		})
	}
}

func TestIkSafeRotationUntouched(t *testing.T) {
	in := EulerDegrees(20, -40, 150)
	if got := ikSafeRotation(in); got != in {
		t.Errorf("ikSafeRotation(%v) = %v, want unchanged", in, got)
	}
}

func TestWrapLargeAngles(t *testing.T) {
	for _, d := range []float64{1e18, -1e18, 7.3e15, 1e300} {
		got := wrapDegrees(d)
		if !(got > -180 && got <= 180) {
			t.Errorf("wrapDegrees(%g) = %v, outside (-180, 180]", d, got)
		}
	}
	for _, r := range []float64{1e16, -1e16, 1e300} {
		got := wrapRadians(r)
		if !(got >= -math.Pi && got <= math.Pi) {
			t.Errorf("wrapRadians(%g) = %v, outside [-Pi, Pi]", r, got)
		}
	}
	assertNear(t, "540", wrapDegrees(540), 180)
	assertNear(t, "-540", wrapDegrees(-540), 180)
	if !math.IsNaN(wrapDegrees(math.Inf(1))) || !math.IsNaN(wrapRadians(math.Inf(-1))) {
		t.Error("infinite angles should wrap to NaN")
	}
}

func TestEulerIsFinite(t *testing.T) {
	if !(Euler{X: 1e16}).IsFinite() {
		t.Error("large finite angle reported non-finite")
	}
	if (Euler{Z: math.Inf(-1)}).IsFinite() {
		t.Error("-Inf reported finite")
	}
	if (Euler{Y: math.NaN()}).IsFinite() {
		t.Error("NaN reported finite")
	}
}
