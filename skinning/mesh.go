package skinning

import (
	"errors"
	"fmt"
	"math"

	glm "github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/devblok/koru/model"
	"github.com/devblok/koru/util/collada"
)

// package errors
var (
	ErrNotInvertible = errors.New("skinning: bind shape matrix is not invertible")
	ErrJointCount    = errors.New("skinning: controller and skeleton joints differ")
)

// influence is one nonzero weight of a joint on a vertex
type influence struct {
	vertex   int
	weight   float64
	relative mgl64.Vec4
}

// Mesh is a skinned mesh. Its points follow the skeleton it's bound to:
// any change to the skeleton marks the mesh dirty, and Update recomputes
// the points and face normals.
type Mesh struct {
	skeleton *model.Skeleton
	joints   []int

	invBindShape mgl64.Mat4
	influences   [][]influence
	toRoot       []mgl64.Mat4

	points    []float32
	normals   []float32
	texCoords []float32
	faces     []int32
	stride    int

	dirty       bool
	unsubscribe func()
}

// New creates a skinned mesh out of a skin binding and brings it
// into the skeleton's current pose.
func New(b *model.SkinBinding) (*Mesh, error) {
	ctrl := b.Controller
	if len(b.JointIndices) != len(ctrl.JointNames) || len(ctrl.BindPoses) != len(ctrl.JointNames) {
		return nil, fmt.Errorf("%w: %d joint indices for %d joints", ErrJointCount, len(b.JointIndices), len(ctrl.JointNames))
	}
	if math.Abs(ctrl.BindShapeMatrix.Det()) < 1e-12 {
		return nil, fmt.Errorf("%w: %s", ErrNotInvertible, ctrl.ID)
	}

	m := &Mesh{
		skeleton:     b.Skeleton,
		joints:       b.JointIndices,
		invBindShape: ctrl.BindShapeMatrix.Inv(),
		toRoot:       make([]mgl64.Mat4, len(b.Skeleton.Joints)),
		points:       make([]float32, len(b.Mesh.Points)),
		texCoords:    append([]float32(nil), b.Mesh.TexCoords...),
		stride:       3,
	}
	m.buildFaces(b.Mesh)

	m.influences = make([][]influence, len(ctrl.JointNames))
	for j, weights := range ctrl.VertexWeights {
		toJoint := ctrl.BindPoses[j].Mul4(ctrl.BindShapeMatrix)
		for i, w := range weights {
			if w == 0 || 3*i+2 >= len(b.Mesh.Points) {
				continue
			}
			p := mgl64.Vec4{
				float64(b.Mesh.Points[3*i]),
				float64(b.Mesh.Points[3*i+1]),
				float64(b.Mesh.Points[3*i+2]),
				1,
			}
			m.influences[j] = append(m.influences[j], influence{
				vertex:   i,
				weight:   float64(w),
				relative: toJoint.Mul4x1(p),
			})
		}
	}

	m.dirty = true
	m.unsubscribe = b.Skeleton.Subscribe(func() {
		m.dirty = true
	})
	m.Update()
	return m, nil
}

// buildFaces copies the face indices, pointing every face vertex's
// normal slot at the face it belongs to.
func (m *Mesh) buildFaces(mesh *collada.Mesh) {
	in := mesh.InputCount()
	corners := len(mesh.Faces) / in
	m.faces = make([]int32, corners*m.stride)
	m.normals = make([]float32, mesh.FaceCount()*3)
	for c := 0; c < corners; c++ {
		src := mesh.Faces[c*in : (c+1)*in]
		dst := m.faces[c*m.stride : (c+1)*m.stride]
		dst[0] = src[0]
		dst[1] = int32(c / 3)
		dst[2] = src[in-1]
	}
}

// Dirty reports whether the skeleton changed since the last Update
func (m *Mesh) Dirty() bool {
	return m.dirty
}

// Update recomputes the points and normals if the skeleton changed
func (m *Mesh) Update() {
	if !m.dirty {
		return
	}
	m.dirty = false

	s := m.skeleton
	var walk func(j int, parent mgl64.Mat4)
	walk = func(j int, parent mgl64.Mat4) {
		m.toRoot[j] = parent.Mul4(s.Transform(j))
		for _, c := range s.Joints[j].Children {
			walk(c, m.toRoot[j])
		}
	}
	root := m.invBindShape.Mul4(s.Root)
	for _, j := range s.Roots {
		walk(j, root)
	}

	for i := range m.points {
		m.points[i] = 0
	}
	for j, influences := range m.influences {
		t := m.toRoot[m.joints[j]]
		for _, in := range influences {
			p := t.Mul4x1(in.relative)
			o := in.vertex * 3
			m.points[o] += float32(in.weight * p[0])
			m.points[o+1] += float32(in.weight * p[1])
			m.points[o+2] += float32(in.weight * p[2])
		}
	}

	m.updateNormals()
}

func (m *Mesh) updateNormals() {
	faces := len(m.normals) / 3
	for f := 0; f < faces; f++ {
		a := m.point(m.faces[(3*f)*m.stride])
		b := m.point(m.faces[(3*f+1)*m.stride])
		c := m.point(m.faces[(3*f+2)*m.stride])
		n := b.Sub(a).Cross(c.Sub(a))
		if l := n.Len(); l > 0 {
			n = n.Mul(1 / l)
		}
		m.normals[3*f], m.normals[3*f+1], m.normals[3*f+2] = n[0], n[1], n[2]
	}
}

func (m *Mesh) point(idx int32) glm.Vec3 {
	i := int(idx) * 3
	return glm.Vec3{m.points[i], m.points[i+1], m.points[i+2]}
}

// Points returns the skinned positions, three floats per vertex
func (m *Mesh) Points() []float32 {
	return m.points
}

// Normals returns one normal per face
func (m *Mesh) Normals() []float32 {
	return m.normals
}

// TexCoords returns the texture coordinates, two floats each
func (m *Mesh) TexCoords() []float32 {
	return m.texCoords
}

// Faces returns point, normal and texture coordinate indices per face
// vertex, in the collada.PointNormalTexCoord layout.
func (m *Mesh) Faces() []int32 {
	return m.faces
}

// Mesh returns a snapshot of the current pose as a plain mesh
func (m *Mesh) Mesh() *collada.Mesh {
	return &collada.Mesh{
		Points:    append([]float32(nil), m.points...),
		Normals:   append([]float32(nil), m.normals...),
		TexCoords: m.texCoords,
		Faces:     m.faces,
		Format:    collada.PointNormalTexCoord,
	}
}

// Close stops following the skeleton
func (m *Mesh) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
}
