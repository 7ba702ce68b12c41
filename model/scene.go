package model

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/devblok/koru/util/collada"
)

// MeshBinding places one mesh of a geometry on a node
type MeshBinding struct {
	Node       int
	NodeID     string
	GeometryID string
	Mesh       *collada.Mesh
	Material   string
}

// SkinBinding places a skinned mesh on a node. JointIndices maps the
// controller's joints to indices of Skeleton.Joints.
type SkinBinding struct {
	Node         int
	NodeID       string
	Controller   *collada.Controller
	Skeleton     *Skeleton
	JointIndices []int
	Mesh         *collada.Mesh
	Material     string
}

// Scene is an imported document, ready to be turned into host objects
type Scene struct {
	Asset collada.Asset

	// Root converts the document's up axis into the host's
	Root  mgl64.Mat4
	Nodes *collada.VisualScene

	Meshes      []MeshBinding
	Skins       []SkinBinding
	Skeletons   []*Skeleton
	Controllers map[string]*collada.Controller
	Materials   map[string]*Material

	Cameras                map[string]*collada.Camera
	FirstCamera            *collada.Camera
	FirstCameraAspectRatio float64

	// Animations holds the keyframes of every top level animation id,
	// in AnimationOrder.
	Animations     map[string][]Keyframe
	AnimationOrder []string

	meshesByNode map[int][]int
	skinsByNode  map[int][]int
}

// Skeleton returns the skeleton with the given id
func (s *Scene) Skeleton(id string) *Skeleton {
	for _, sk := range s.Skeletons {
		if sk.ID == id {
			return sk
		}
	}
	return nil
}

// Timeline builds a playable timeline out of an animation's keyframes
func (s *Scene) Timeline(id string) (*Timeline, bool) {
	keys, ok := s.Animations[id]
	if !ok {
		return nil, false
	}
	return NewTimeline(id, keys), true
}

// Visitor receives the scene's nodes from Walk
type Visitor interface {
	// EnterNode is called with the node's own composed transforms.
	// Returning false skips the node's subtree, LeaveNode included.
	EnterNode(n *collada.Node, local mgl64.Mat4) bool
	Mesh(n *collada.Node, b *MeshBinding)
	Skin(n *collada.Node, b *SkinBinding)
	Camera(n *collada.Node, c *collada.Camera)
	LeaveNode(n *collada.Node)
}

// Walk visits the node tree depth first in document order
func (s *Scene) Walk(v Visitor) {
	if s.Nodes == nil {
		return
	}
	for _, idx := range s.Nodes.Roots {
		s.walk(v, idx)
	}
}

func (s *Scene) walk(v Visitor, idx int) {
	n := s.Nodes.Nodes[idx]
	if !v.EnterNode(n, n.Matrix()) {
		return
	}
	for _, b := range s.meshesByNode[idx] {
		v.Mesh(n, &s.Meshes[b])
	}
	for _, b := range s.skinsByNode[idx] {
		v.Skin(n, &s.Skins[b])
	}
	for _, id := range n.Cameras {
		if c, ok := s.Cameras[id]; ok {
			v.Camera(n, c)
		}
	}
	for _, c := range n.Children {
		s.walk(v, c)
	}
	v.LeaveNode(n)
}
