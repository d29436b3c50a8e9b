package common

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestClipSpaceCorrectionMapsDepthRange(t *testing.T) {
	near := ClipSpaceCorrection.Mul4x1(mgl32.Vec4{0, 0, -1, 1})
	far := ClipSpaceCorrection.Mul4x1(mgl32.Vec4{0, 0, 1, 1})
	if near.Z() != 0 {
		t.Errorf("near plane z = %v, want 0", near.Z())
	}
	if far.Z() != 1 {
		t.Errorf("far plane z = %v, want 1", far.Z())
	}
}

func TestModelMatrixTranslatesAndScales(t *testing.T) {
	m := ModelMatrix(mgl32.Vec3{1, 2, 3}, mgl32.Vec3{}, mgl32.Vec3{2, 2, 2})
	got := m.Mul4x1(mgl32.Vec4{1, 1, 1, 1})
	want := mgl32.Vec4{3, 4, 5, 1}
	if !got.ApproxEqual(want) {
		t.Fatalf("transformed point = %v, want %v", got, want)
	}
}

func TestMatrixBytesLength(t *testing.T) {
	m := mgl32.Ident4()
	if n := len(MatrixBytes(&m)); n != 64 {
		t.Fatalf("len = %d, want 64", n)
	}
}

func TestAlignUp(t *testing.T) {
	cases := []struct{ n, align, want uint64 }{
		{0, 4, 0},
		{1, 4, 4},
		{84, 4, 84},
		{85, 256, 256},
		{257, 256, 512},
	}
	for _, c := range cases {
		if got := AlignUp(c.n, c.align); got != c.want {
			t.Errorf("AlignUp(%d, %d) = %d, want %d", c.n, c.align, got, c.want)
		}
	}
}

func TestColorLerpMidpoint(t *testing.T) {
	got := RGB(0, 0, 0).Lerp(RGB(1, 0.5, 0), 0.5)
	want := Color{R: 0.5, G: 0.25, B: 0, A: 1}
	if got != want {
		t.Fatalf("Lerp = %+v, want %+v", got, want)
	}
}

func TestBackgroundClearColor(t *testing.T) {
	def := RGB(0.1, 0.1, 0.1)
	cases := []struct {
		name string
		bg   Background
		want Color
	}{
		{"none", Background{}, def},
		{"solid", SolidBackground(RGB(1, 0, 0)), RGB(1, 0, 0)},
		{"gradient", GradientBackground(RGB(1, 1, 1), RGB(0, 0, 0)), Color{R: 0.5, G: 0.5, B: 0.5, A: 1}},
	}
	for _, tc := range cases {
		if got := tc.bg.ClearColor(def); got != tc.want {
			t.Errorf("%s: ClearColor = %+v, want %+v", tc.name, got, tc.want)
		}
	}
}
