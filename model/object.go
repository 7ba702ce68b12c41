package model

import (
	"sync"

	glm "github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/devblok/koru/util/collada"
)

// NewMeshObject creates an Object out of a mesh
func NewMeshObject(mesh *collada.Mesh, material *Material) *MeshObject {
	return &MeshObject{
		position: glm.Ident4(),
		rotation: glm.Ident4(),
		vertices: Interleave(mesh),
		material: material,
	}
}

// MeshObject is imported from a collada (.dae) file.
// Loaded and held in memory
type MeshObject struct {
	mutex    sync.RWMutex
	position glm.Mat4
	rotation glm.Mat4

	vertices []Vertex
	material *Material
}

// SetPosition implements interface
func (mo *MeshObject) SetPosition(pos glm.Mat4) {
	mo.mutex.Lock()
	mo.position = pos
	mo.mutex.Unlock()
}

// Position implements interface
func (mo *MeshObject) Position() glm.Mat4 {
	mo.mutex.RLock()
	defer mo.mutex.RUnlock()
	return mo.position
}

// SetRotation implements interface
func (mo *MeshObject) SetRotation(rot glm.Mat4) {
	mo.mutex.Lock()
	mo.rotation = rot
	mo.mutex.Unlock()
}

// Rotation implements interface
func (mo *MeshObject) Rotation() glm.Mat4 {
	mo.mutex.RLock()
	defer mo.mutex.RUnlock()
	return mo.rotation
}

// Vertices implements interface
func (mo *MeshObject) Vertices() []Vertex {
	return mo.vertices
}

// Material implements interface
func (mo *MeshObject) Material() *Material {
	return mo.material
}

// objectBuilder is a Visitor creating one MeshObject per mesh, positioned
// at the node's world transform.
type objectBuilder struct {
	scene   *Scene
	world   []mgl64.Mat4
	objects []Object
}

// Objects creates an Object for every mesh and skinned mesh of the scene,
// skinned meshes in their bind pose.
func Objects(scene *Scene) []Object {
	b := &objectBuilder{
		scene: scene,
		world: []mgl64.Mat4{scene.Root},
	}
	scene.Walk(b)
	return b.objects
}

func (b *objectBuilder) EnterNode(n *collada.Node, local mgl64.Mat4) bool {
	parent := b.world[len(b.world)-1]
	b.world = append(b.world, parent.Mul4(local))
	return true
}

func (b *objectBuilder) LeaveNode(n *collada.Node) {
	b.world = b.world[:len(b.world)-1]
}

func (b *objectBuilder) Mesh(n *collada.Node, m *MeshBinding) {
	b.add(m.Mesh, m.Material)
}

func (b *objectBuilder) Skin(n *collada.Node, s *SkinBinding) {
	b.add(s.Mesh, s.Material)
}

func (b *objectBuilder) Camera(n *collada.Node, c *collada.Camera) {}

func (b *objectBuilder) add(mesh *collada.Mesh, material string) {
	obj := NewMeshObject(mesh, b.scene.Materials[material])
	obj.SetPosition(ToGLM(b.world[len(b.world)-1]))
	b.objects = append(b.objects, obj)
}

// viewFinder is a Visitor looking for the node that instances a camera
type viewFinder struct {
	camera *collada.Camera
	world  []mgl64.Mat4
	view   mgl64.Mat4
	found  bool
}

func (f *viewFinder) EnterNode(n *collada.Node, local mgl64.Mat4) bool {
	if f.found {
		return false
	}
	f.world = append(f.world, f.world[len(f.world)-1].Mul4(local))
	return true
}

func (f *viewFinder) LeaveNode(n *collada.Node) {
	f.world = f.world[:len(f.world)-1]
}

func (f *viewFinder) Mesh(n *collada.Node, m *MeshBinding) {}

func (f *viewFinder) Skin(n *collada.Node, s *SkinBinding) {}

func (f *viewFinder) Camera(n *collada.Node, c *collada.Camera) {
	if c == f.camera && !f.found {
		f.view = f.world[len(f.world)-1].Inv()
		f.found = true
	}
}

// Uniform fills the model-view-projection of obj as seen through the
// scene's first camera. Without a camera View and Projection are identity.
func (s *Scene) Uniform(obj Object) Uniform {
	u := Uniform{
		Model:      obj.Position().Mul4(obj.Rotation()),
		View:       glm.Ident4(),
		Projection: glm.Ident4(),
	}
	if s.FirstCamera == nil {
		return u
	}

	f := &viewFinder{
		camera: s.FirstCamera,
		world:  []mgl64.Mat4{s.Root},
	}
	s.Walk(f)
	if f.found {
		u.View = ToGLM(f.view)
	}
	u.Projection = Projection(s.FirstCamera, s.FirstCameraAspectRatio)
	return u
}
