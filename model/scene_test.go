package model_test

import (
	"bytes"
	"math"
	"testing"

	qt "github.com/frankban/quicktest"
	glm "github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/gobuffalo/packr"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/devblok/koru/model"
	"github.com/devblok/koru/util/collada"
)

var testdata = packr.NewBox("./testdata")

func options() model.Options {
	opts := model.DefaultOptions()
	opts.Images = nil
	return opts
}

func load(c *qt.C, opts model.Options) (*model.Scene, *test.Hook) {
	raw, err := testdata.Find("skinned.dae")
	c.Assert(err, qt.IsNil)

	logger, hook := test.NewNullLogger()
	opts.Log = logger
	scene, err := model.Import(bytes.NewReader(raw), opts)
	c.Assert(err, qt.IsNil)
	return scene, hook
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestResolveBindings(t *testing.T) {
	c := qt.New(t)
	scene, _ := load(c, options())

	c.Assert(scene.Nodes, qt.Not(qt.IsNil))
	c.Assert(scene.Nodes.ID, qt.Equals, "Scene")
	c.Assert(scene.Root, qt.DeepEquals, mgl64.HomogRotate3DX(math.Pi/2))
	c.Assert(scene.Asset.UpAxis, qt.Equals, collada.ZUp)

	c.Assert(scene.Meshes, qt.HasLen, 1)
	mesh := scene.Meshes[0]
	c.Assert(mesh.NodeID, qt.Equals, "Plane")
	c.Assert(mesh.GeometryID, qt.Equals, "Tri-mesh")
	c.Assert(mesh.Material, qt.Equals, "Flat-material")
	c.Assert(mesh.Mesh.FaceCount(), qt.Equals, 1)

	c.Assert(scene.Skeletons, qt.HasLen, 1)
	c.Assert(scene.Skins, qt.HasLen, 1)
	skin := scene.Skins[0]
	c.Assert(skin.NodeID, qt.Equals, "Body")
	c.Assert(skin.Material, qt.Equals, "Material-material")
	c.Assert(skin.Skeleton, qt.Equals, scene.Skeletons[0])
	c.Assert(skin.JointIndices, qt.DeepEquals, []int{0, 1})
	c.Assert(skin.Controller.VertexWeights, qt.DeepEquals, [][]float32{
		{1, 0, 0.5},
		{0, 1, 0.5},
	})
}

func TestResolveCameras(t *testing.T) {
	c := qt.New(t)
	scene, _ := load(c, options())

	c.Assert(scene.Cameras, qt.HasLen, 1)
	cam := scene.FirstCamera
	c.Assert(cam, qt.Not(qt.IsNil))
	c.Assert(cam.ID, qt.Equals, "Camera-camera")
	c.Assert(cam.VerticalFOV, qt.Equals, true)
	c.Assert(cam.FieldOfView, qt.Equals, 49.13434)
	c.Assert(cam.NearClip, qt.Equals, 0.1)
	c.Assert(cam.FarClip, qt.Equals, 100.0)
	c.Assert(near(scene.FirstCameraAspectRatio, 1.777778), qt.Equals, true)
}

func TestResolveMaterials(t *testing.T) {
	c := qt.New(t)
	scene, _ := load(c, options())

	flat := scene.Materials["Flat-material"]
	c.Assert(flat, qt.Not(qt.IsNil))
	c.Assert(flat.Name, qt.Equals, "Flat")
	c.Assert(flat.Shading, qt.Equals, "lambert")
	c.Assert(flat.Diffuse, qt.Equals, glm.Vec4{0.8, 0.1, 0.1, 1})
	c.Assert(flat.Specular, qt.Equals, model.DefaultSpecular)

	textured := scene.Materials["Material-material"]
	c.Assert(textured, qt.Not(qt.IsNil))
	c.Assert(textured.EffectID, qt.Equals, "Material-effect")
	c.Assert(textured.Diffuse, qt.Equals, model.DefaultDiffuse)
	c.Assert(textured.Specular, qt.Equals, glm.Vec4{0.5, 0.5, 0.5, 1})
	c.Assert(textured.Shininess, qt.Equals, float32(50))
	// no loader, no images
	c.Assert(textured.DiffuseMap, qt.IsNil)
}

func TestBuildEffectsTextureChain(t *testing.T) {
	c := qt.New(t)

	e := &collada.Effect{
		ID:       "fx",
		Shading:  "blinn",
		Colors:   map[collada.Channel]glm.Vec4{},
		Textures: map[collada.Channel]string{collada.Diffuse: "s", collada.Specular: "broken"},
		Samplers: map[string]string{"s": "surf"},
		Surfaces: map[string]string{"surf": "img"},
	}
	img := "loaded"
	built := model.BuildEffects(map[string]*collada.Effect{"fx": e}, map[string]model.Image{"img": img})

	c.Assert(built["fx"].DiffuseMap, qt.Equals, model.Image(img))
	c.Assert(built["fx"].SpecularMap, qt.IsNil)

	e.Shading = "constant"
	built = model.BuildEffects(map[string]*collada.Effect{"fx": e}, map[string]model.Image{"img": img})
	c.Assert(built["fx"].DiffuseMap, qt.IsNil)
	c.Assert(built["fx"].Diffuse, qt.Equals, model.DefaultDiffuse)
}

func TestResolveAnimations(t *testing.T) {
	c := qt.New(t)
	scene, hook := load(c, options())

	c.Assert(scene.AnimationOrder, qt.DeepEquals, []string{"Armature-anim", "Ghost-anim"})

	keys := scene.Animations["Armature-anim"]
	c.Assert(keys, qt.HasLen, 2)
	c.Assert(keys[0].Joint, qt.Equals, "Armature_Bone_001")
	c.Assert(keys[0].Time, qt.Equals, 0.0)
	c.Assert(keys[1].Time, qt.Equals, 1000.0)
	c.Assert(keys[0].Values[10], qt.Equals, 1.0)
	c.Assert(keys[1].Values[10], qt.Equals, 2.0)
	c.Assert(keys[1].Interpolation, qt.Equals, model.Linear)

	// a target outside every skeleton yields nothing and doesn't fail
	c.Assert(scene.Animations["Ghost-anim"], qt.HasLen, 0)
	var found bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel && e.Data["animation"] == "Ghost-anim" {
			found = true
		}
	}
	c.Assert(found, qt.Equals, true)
}

func TestResolveTimebase(t *testing.T) {
	c := qt.New(t)
	opts := options()
	opts.Timebase = 3000
	scene, _ := load(c, opts)

	keys := scene.Animations["Armature-anim"]
	c.Assert(keys, qt.HasLen, 2)
	c.Assert(keys[1].Time, qt.Equals, 3000.0)
}

func TestResolveOptions(t *testing.T) {
	c := qt.New(t)

	opts := options()
	opts.BuildMeshes = false
	scene, _ := load(c, opts)
	c.Assert(scene.Meshes, qt.HasLen, 0)
	c.Assert(scene.Skins, qt.HasLen, 0)
	c.Assert(scene.Skeletons, qt.HasLen, 1)

	opts = options()
	opts.BuildSkeletons = false
	scene, _ = load(c, opts)
	c.Assert(scene.Meshes, qt.HasLen, 1)
	c.Assert(scene.Skins, qt.HasLen, 0)
	c.Assert(scene.Skeletons, qt.HasLen, 0)
	c.Assert(scene.Animations, qt.HasLen, 0)
}

func TestSkeletonLookup(t *testing.T) {
	c := qt.New(t)
	scene, _ := load(c, options())

	s := scene.Skeleton("Armature")
	c.Assert(s, qt.Not(qt.IsNil))
	c.Assert(s.Roots, qt.DeepEquals, []int{0})
	c.Assert(s.Joints[1].Parent, qt.Equals, 0)

	for _, name := range []string{"Armature_Bone_001", "Bone.001", "Bone_001"} {
		j, ok := s.Lookup(name)
		c.Assert(ok, qt.Equals, true)
		c.Assert(j, qt.Equals, 1)
	}
	_, ok := s.Lookup("Ghost")
	c.Assert(ok, qt.Equals, false)

	c.Assert(s.Transform(1).At(1, 3), qt.Equals, 1.0)
	c.Assert(s.BindTransforms["Armature_Bone_001"], qt.DeepEquals, s.Transform(1))
}

func TestTimelineApply(t *testing.T) {
	c := qt.New(t)
	scene, _ := load(c, options())

	tl, ok := scene.Timeline("Armature-anim")
	c.Assert(ok, qt.Equals, true)
	c.Assert(tl.Duration(), qt.Equals, 1000.0)
	c.Assert(tl.Joints(), qt.DeepEquals, []string{"Armature_Bone_001"})

	m, ok := tl.Sample("Armature_Bone_001", 500)
	c.Assert(ok, qt.Equals, true)
	c.Assert(near(m.At(1, 3), 1.5), qt.Equals, true)

	m, _ = tl.Sample("Armature_Bone_001", -10)
	c.Assert(m.At(1, 3), qt.Equals, 1.0)
	m, _ = tl.Sample("Armature_Bone_001", 5000)
	c.Assert(m.At(1, 3), qt.Equals, 2.0)

	_, ok = tl.Sample("Armature_Bone", 0)
	c.Assert(ok, qt.Equals, false)

	s := scene.Skeletons[0]
	var notified int
	unsubscribe := s.Subscribe(func() { notified++ })

	tl.Apply(s, 250)
	c.Assert(notified, qt.Equals, 1)
	c.Assert(near(s.Transform(1).At(1, 3), 1.25), qt.Equals, true)

	s.Reset()
	c.Assert(notified, qt.Equals, 2)
	c.Assert(s.Transform(1).At(1, 3), qt.Equals, 1.0)

	unsubscribe()
	tl.Apply(s, 1000)
	c.Assert(notified, qt.Equals, 2)

	_, ok = scene.Timeline("missing")
	c.Assert(ok, qt.Equals, false)
}

func TestUpAxisRotation(t *testing.T) {
	c := qt.New(t)

	c.Assert(model.UpAxisRotation(collada.XUp), qt.Equals, mgl64.Ident4())
	c.Assert(model.UpAxisRotation(collada.YUp), qt.Equals, mgl64.HomogRotate3DX(math.Pi))
	c.Assert(model.UpAxisRotation(collada.ZUp), qt.Equals, mgl64.HomogRotate3DX(math.Pi/2))
}

func TestInterleave(t *testing.T) {
	c := qt.New(t)
	scene, _ := load(c, options())

	vertices := model.Interleave(scene.Meshes[0].Mesh)
	c.Assert(vertices, qt.HasLen, 3)
	c.Assert(vertices[1].Pos, qt.Equals, glm.Vec3{1, 0, 0})
	c.Assert(vertices[1].TexCoord, qt.Equals, glm.Vec2{1, 0})
	for _, v := range vertices {
		c.Assert(v.Normal, qt.Equals, glm.Vec3{0, 0, 1})
	}
}

type recorder struct {
	entered []string
	left    []string
	meshes  []string
	skins   []string
	cameras []string
}

func (r *recorder) EnterNode(n *collada.Node, local mgl64.Mat4) bool {
	r.entered = append(r.entered, n.ID)
	return n.ID != "Armature_Bone"
}

func (r *recorder) Mesh(n *collada.Node, b *model.MeshBinding) {
	r.meshes = append(r.meshes, n.ID)
}

func (r *recorder) Skin(n *collada.Node, b *model.SkinBinding) {
	r.skins = append(r.skins, n.ID)
}

func (r *recorder) Camera(n *collada.Node, cam *collada.Camera) {
	r.cameras = append(r.cameras, cam.ID)
}

func (r *recorder) LeaveNode(n *collada.Node) {
	r.left = append(r.left, n.ID)
}

func TestWalk(t *testing.T) {
	c := qt.New(t)
	scene, _ := load(c, options())

	r := &recorder{}
	scene.Walk(r)

	// the bone refuses entry, its child is never reached
	c.Assert(r.entered, qt.DeepEquals, []string{"Armature", "Armature_Bone", "Body", "Plane", "Camera"})
	c.Assert(r.meshes, qt.DeepEquals, []string{"Plane"})
	c.Assert(r.skins, qt.DeepEquals, []string{"Body"})
	c.Assert(r.cameras, qt.DeepEquals, []string{"Camera-camera"})
	c.Assert(r.left, qt.DeepEquals, []string{"Armature", "Body", "Plane", "Camera"})
}

func TestObjects(t *testing.T) {
	c := qt.New(t)
	scene, _ := load(c, options())

	objects := model.Objects(scene)
	c.Assert(objects, qt.HasLen, 2)
	c.Assert(objects[0].Material().ID, qt.Equals, "Material-material")
	c.Assert(objects[1].Material().ID, qt.Equals, "Flat-material")
	c.Assert(objects[1].Vertices(), qt.HasLen, 3)

	// up axis rotation applied on top of the node translation
	pos := objects[1].Position()
	c.Assert(math.Abs(float64(pos[12])) < 1e-6, qt.Equals, true)
	c.Assert(math.Abs(float64(pos[13]+2)) < 1e-6, qt.Equals, true)
	c.Assert(math.Abs(float64(pos[14])) < 1e-6, qt.Equals, true)

	objects[1].SetRotation(glm.HomogRotate3DZ(1))
	c.Assert(objects[1].Rotation(), qt.Equals, glm.HomogRotate3DZ(1))
	c.Assert(objects[1].Position(), qt.Equals, pos)
}

func TestUniform(t *testing.T) {
	c := qt.New(t)
	scene, _ := load(c, options())

	objects := model.Objects(scene)
	u := scene.Uniform(objects[1])
	c.Assert(u.Model, qt.Equals, objects[1].Position())
	c.Assert(u.Projection, qt.Equals, model.Projection(scene.FirstCamera, scene.FirstCameraAspectRatio))

	// the plane sits 5 units in front of the camera and 1 above it
	eye := u.View.Mul4(u.Model).Mul4x1(glm.Vec4{0, 0, 0, 1})
	want := glm.Vec4{0, 5, 1, 1}
	for i := range want {
		c.Assert(math.Abs(float64(eye[i]-want[i])) < 1e-5, qt.Equals, true)
	}

	empty := &model.Scene{}
	u = empty.Uniform(objects[1])
	c.Assert(u.View, qt.Equals, glm.Ident4())
	c.Assert(u.Projection, qt.Equals, glm.Ident4())
}

func TestParseInterpolation(t *testing.T) {
	c := qt.New(t)
	for _, name := range []string{"LINEAR", "linear", "BEZIER", "STEP", "HERMITE", ""} {
		c.Assert(model.ParseInterpolation(name), qt.Equals, model.Linear)
	}
}

func TestProjection(t *testing.T) {
	c := qt.New(t)

	vertical := &collada.Camera{VerticalFOV: true, FieldOfView: 60, NearClip: 0.1, FarClip: 100}
	c.Assert(model.Projection(vertical, 2), qt.Equals,
		glm.Perspective(float32(math.Pi/3), 2, 0.1, 100))

	// a horizontal fov of 90 at aspect 1 is a vertical fov of 90
	horizontal := &collada.Camera{FieldOfView: 90, NearClip: 1, FarClip: 10}
	got := model.Projection(horizontal, 1)
	want := glm.Perspective(float32(math.Pi/2), 1, 1, 10)
	for i := range got {
		c.Assert(math.Abs(float64(got[i]-want[i])) < 1e-5, qt.Equals, true)
	}
}
