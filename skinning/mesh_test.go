package skinning_test

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gobuffalo/packr"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/devblok/koru/model"
	"github.com/devblok/koru/skinning"
	"github.com/devblok/koru/util/collada"
)

var testdata = packr.NewBox("../model/testdata")

func skinned(t testing.TB) *model.Scene {
	t.Helper()
	raw, err := testdata.Find("skinned.dae")
	if err != nil {
		t.Fatal(err)
	}
	logger, _ := test.NewNullLogger()
	opts := model.DefaultOptions()
	opts.Images = nil
	opts.Log = logger
	scene, err := model.Import(bytes.NewReader(raw), opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(scene.Skins) != 1 {
		t.Fatalf("expected one skin, got %d", len(scene.Skins))
	}
	return scene
}

func triangle(bindShape mgl64.Mat4) *model.SkinBinding {
	s := model.NewSkeleton("Armature", "Armature", mgl64.Ident4())
	s.AddJoint(&model.Joint{ID: "Bone", Bind: mgl64.Ident4()}, -1)
	return &model.SkinBinding{
		Controller: &collada.Controller{
			ID:              "skin",
			BindShapeMatrix: bindShape,
			JointNames:      []string{"Bone"},
			BindPoses:       []mgl64.Mat4{mgl64.Ident4()},
			VertexWeights:   [][]float32{{1, 1, 1}},
		},
		Skeleton:     s,
		JointIndices: []int{0},
		Mesh: &collada.Mesh{
			Points:    []float32{0, 0, 0, 1, 0, 0, 0, 1, 0},
			TexCoords: []float32{0, 0},
			Faces:     []int32{0, 0, 1, 0, 2, 0},
			Format:    collada.PointTexCoord,
		},
	}
}

func assertPoints(t *testing.T, got, want []float32) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d values, want %d", len(got), len(want))
	}
	for i := range got {
		if math.Abs(float64(got[i]-want[i])) > 1e-5 {
			t.Fatalf("value %d: got %v, want %v", i, got, want)
		}
	}
}

func TestBindPoseIdentity(t *testing.T) {
	scene := skinned(t)
	b := &scene.Skins[0]

	mesh, err := skinning.New(b)
	if err != nil {
		t.Fatal(err)
	}
	defer mesh.Close()

	assertPoints(t, mesh.Points(), b.Mesh.Points)
	if mesh.Dirty() {
		t.Error("mesh should be clean after construction")
	}
}

func TestBindShapeAndRoot(t *testing.T) {
	b := triangle(mgl64.Translate3D(0, 0, 2))
	mesh, err := skinning.New(b)
	if err != nil {
		t.Fatal(err)
	}
	defer mesh.Close()

	assertPoints(t, mesh.Points(), b.Mesh.Points)

	b.Skeleton.SetRoot(mgl64.Translate3D(1, 0, 0))
	if !mesh.Dirty() {
		t.Fatal("moving the root should dirty the mesh")
	}
	mesh.Update()
	assertPoints(t, mesh.Points(), []float32{1, 0, 0, 2, 0, 0, 1, 1, 0})
}

func TestUpdateIdempotent(t *testing.T) {
	scene := skinned(t)
	mesh, err := skinning.New(&scene.Skins[0])
	if err != nil {
		t.Fatal(err)
	}
	defer mesh.Close()

	scene.Skeletons[0].SetTransform(1, mgl64.Translate3D(0, 3, 0))
	mesh.Update()
	first := append([]float32(nil), mesh.Points()...)

	mesh.Update()
	assertPoints(t, mesh.Points(), first)

	// marking dirty without a change gives the same result
	scene.Skeletons[0].SetTransform(1, mgl64.Translate3D(0, 3, 0))
	mesh.Update()
	assertPoints(t, mesh.Points(), first)
}

func TestSkeletonChange(t *testing.T) {
	scene := skinned(t)
	s := scene.Skeletons[0]
	mesh, err := skinning.New(&scene.Skins[0])
	if err != nil {
		t.Fatal(err)
	}

	s.SetTransform(1, mgl64.Translate3D(0, 2, 0))
	if !mesh.Dirty() {
		t.Fatal("joint change should dirty the mesh")
	}
	mesh.Update()

	// vertex 1 follows the second bone, vertex 2 is split between both
	assertPoints(t, mesh.Points(), []float32{0, 0, 0, 1, 1, 0, 0, 1.5, 0})
	assertPoints(t, mesh.Normals(), []float32{0, 0, 1})

	mesh.Close()
	s.Reset()
	if mesh.Dirty() {
		t.Error("closed mesh should not follow the skeleton")
	}
}

func TestTimelineDrivesMesh(t *testing.T) {
	scene := skinned(t)
	mesh, err := skinning.New(&scene.Skins[0])
	if err != nil {
		t.Fatal(err)
	}
	defer mesh.Close()

	tl, ok := scene.Timeline("Armature-anim")
	if !ok {
		t.Fatal("animation missing")
	}
	tl.Apply(scene.Skeletons[0], 1000)
	mesh.Update()
	assertPoints(t, mesh.Points(), []float32{0, 0, 0, 1, 1, 0, 0, 1.5, 0})
}

func TestFaceLayout(t *testing.T) {
	mesh, err := skinning.New(triangle(mgl64.Ident4()))
	if err != nil {
		t.Fatal(err)
	}
	defer mesh.Close()

	faces := mesh.Faces()
	want := []int32{0, 0, 0, 1, 0, 0, 2, 0, 0}
	if len(faces) != len(want) {
		t.Fatalf("incorrect faces: %v", faces)
	}
	for i := range want {
		if faces[i] != want[i] {
			t.Fatalf("incorrect faces: %v", faces)
		}
	}
	assertPoints(t, mesh.Normals(), []float32{0, 0, 1})

	snapshot := mesh.Mesh()
	if snapshot.Format != collada.PointNormalTexCoord || snapshot.FaceCount() != 1 {
		t.Fatalf("incorrect snapshot: %v", snapshot)
	}
	if vertices := model.Interleave(snapshot); vertices[2].Normal[2] != 1 {
		t.Fatalf("incorrect interleaved normal: %v", vertices[2].Normal)
	}
}

func TestNotInvertible(t *testing.T) {
	b := triangle(mgl64.Mat4{})
	if _, err := skinning.New(b); !errors.Is(err, skinning.ErrNotInvertible) {
		t.Fatalf("expected ErrNotInvertible, got %v", err)
	}
}

func TestJointCount(t *testing.T) {
	b := triangle(mgl64.Ident4())
	b.JointIndices = nil
	if _, err := skinning.New(b); !errors.Is(err, skinning.ErrJointCount) {
		t.Fatalf("expected ErrJointCount, got %v", err)
	}
}

// grid builds an n by n sheet of quads split between two chained joints
func grid(n int) *model.SkinBinding {
	s := model.NewSkeleton("Armature", "Armature", mgl64.Ident4())
	root := s.AddJoint(&model.Joint{ID: "Bone", Bind: mgl64.Ident4()}, -1)
	s.AddJoint(&model.Joint{ID: "Bone_001", Bind: mgl64.Translate3D(0, 1, 0)}, root)

	points := make([]float32, 0, n*n*3)
	weights := [][]float32{make([]float32, n*n), make([]float32, n*n)}
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			i := y*n + x
			points = append(points, float32(x), float32(y), 0)
			w := float32(y) / float32(n-1)
			weights[0][i], weights[1][i] = 1-w, w
		}
	}
	var faces []int32
	for y := 0; y+1 < n; y++ {
		for x := 0; x+1 < n; x++ {
			a := int32(y*n + x)
			b, c, d := a+1, a+int32(n), a+int32(n)+1
			faces = append(faces, a, 0, b, 0, d, 0, a, 0, d, 0, c, 0)
		}
	}

	return &model.SkinBinding{
		Controller: &collada.Controller{
			ID:              "skin",
			BindShapeMatrix: mgl64.Ident4(),
			JointNames:      []string{"Bone", "Bone_001"},
			BindPoses:       []mgl64.Mat4{mgl64.Ident4(), mgl64.Translate3D(0, -1, 0)},
			VertexWeights:   weights,
		},
		Skeleton:     s,
		JointIndices: []int{0, 1},
		Mesh: &collada.Mesh{
			Points:    points,
			TexCoords: []float32{0, 0},
			Faces:     faces,
			Format:    collada.PointTexCoord,
		},
	}
}

func TestGridBindPose(t *testing.T) {
	b := grid(8)
	mesh, err := skinning.New(b)
	if err != nil {
		t.Fatal(err)
	}
	defer mesh.Close()

	assertPoints(t, mesh.Points(), b.Mesh.Points)
	if len(mesh.Normals()) != b.Mesh.FaceCount()*3 {
		t.Fatalf("got %d normal values for %d faces", len(mesh.Normals()), b.Mesh.FaceCount())
	}
}

func benchmarkUpdate(b *testing.B, n int) {
	binding := grid(n)
	mesh, err := skinning.New(binding)
	if err != nil {
		b.Fatal(err)
	}
	defer mesh.Close()

	b.ResetTimer()
	for idx := 0; idx < b.N; idx++ {
		binding.Skeleton.SetTransform(1, mgl64.HomogRotate3DZ(float64(idx%10)/10))
		mesh.Update()
	}
}

func BenchmarkUpdateSmall(b *testing.B) {
	benchmarkUpdate(b, 10)
}

func BenchmarkUpdateMedium(b *testing.B) {
	benchmarkUpdate(b, 100)
}

func BenchmarkUpdateBig(b *testing.B) {
	benchmarkUpdate(b, 300)
}
