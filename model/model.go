package model

import (
	"math"

	glm "github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/devblok/koru/util/collada"
)

// Object represents the engine supported model
type Object interface {

	// SetPosition sets the object's current position in space.
	// Has to be thread-safe
	SetPosition(glm.Mat4)

	// Position gets the object's current position in space.
	// Has to be thread-safe
	Position() glm.Mat4

	// SetRotation sets the object's rotation matrix.
	// Has to be thread-safe
	SetRotation(glm.Mat4)

	// Rotation gets the object's rotation matrix.
	// Has to be thread-safe
	Rotation() glm.Mat4

	// Vertices returns the vertices for Renderer use,
	// so it has to match the descriptors exactly
	Vertices() []Vertex

	// Material is the shading descriptor, nil if unresolved
	Material() *Material
}

// Vertex is a model vertex
type Vertex struct {
	Pos      glm.Vec3
	Normal   glm.Vec3
	TexCoord glm.Vec2
}

// Uniform defines a model-view-projection object
type Uniform struct {
	Model      glm.Mat4
	View       glm.Mat4
	Projection glm.Mat4
}

// Interleave expands a mesh's faces into one Vertex per face vertex.
// Meshes without normals get the flat normal of each face.
func Interleave(mesh *collada.Mesh) []Vertex {
	stride := mesh.InputCount()
	corners := len(mesh.Faces) / stride
	vertices := make([]Vertex, corners)

	for c := 0; c < corners; c++ {
		f := mesh.Faces[c*stride : (c+1)*stride]
		v := &vertices[c]
		v.Pos = vec3(mesh.Points, f[0])
		if mesh.Format == collada.PointNormalTexCoord {
			v.Normal = vec3(mesh.Normals, f[1])
		}
		t := int(f[stride-1]) * 2
		if t+1 < len(mesh.TexCoords) {
			v.TexCoord = glm.Vec2{mesh.TexCoords[t], mesh.TexCoords[t+1]}
		}
	}

	if mesh.Format == collada.PointTexCoord {
		for c := 0; c+2 < corners; c += 3 {
			a, b, d := vertices[c].Pos, vertices[c+1].Pos, vertices[c+2].Pos
			n := b.Sub(a).Cross(d.Sub(a))
			if n.Len() > 0 {
				n = n.Normalize()
			}
			vertices[c].Normal, vertices[c+1].Normal, vertices[c+2].Normal = n, n, n
		}
	}
	return vertices
}

func vec3(buf []float32, idx int32) glm.Vec3 {
	i := int(idx) * 3
	return glm.Vec3{buf[i], buf[i+1], buf[i+2]}
}

// Projection builds the projection matrix of a perspective camera.
// A horizontal field of view is converted to a vertical one with aspect.
func Projection(cam *collada.Camera, aspect float64) glm.Mat4 {
	fov := mgl64.DegToRad(cam.FieldOfView)
	if !cam.VerticalFOV {
		fov = 2 * math.Atan(math.Tan(fov/2)/aspect)
	}
	return glm.Perspective(float32(fov), float32(aspect), float32(cam.NearClip), float32(cam.FarClip))
}

// ToGLM narrows a double precision affine for upload
func ToGLM(m mgl64.Mat4) glm.Mat4 {
	var out glm.Mat4
	for i, v := range m {
		out[i] = float32(v)
	}
	return out
}
