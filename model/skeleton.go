package model

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/devblok/koru/util/collada"
)

// Joint is one bone of a Skeleton. Parent and Children index
// Skeleton.Joints, Parent is -1 for root joints.
type Joint struct {
	ID       string
	Name     string
	SID      string
	Bind     mgl64.Mat4
	Parent   int
	Children []int
}

// Skeleton is a joint hierarchy pruned out of a visual scene. It holds the
// current local transform of every joint; changing one notifies the
// subscribers, which is how skinned meshes know they have to update.
type Skeleton struct {
	ID   string
	Name string

	// Root is the transform of the node the joints hang from
	Root   mgl64.Mat4
	Joints []*Joint
	Roots  []int

	// BindTransforms maps joint ids to their bind transform
	BindTransforms map[string]mgl64.Mat4

	local       []mgl64.Mat4
	byID        map[string]int
	byName      map[string]int
	bySID       map[string]int
	subscribers map[int]func()
	nextID      int
}

// NewSkeleton creates an empty skeleton hanging from root
func NewSkeleton(id, name string, root mgl64.Mat4) *Skeleton {
	return &Skeleton{
		ID:             id,
		Name:           name,
		Root:           root,
		BindTransforms: make(map[string]mgl64.Mat4),
		byID:           make(map[string]int),
		byName:         make(map[string]int),
		bySID:          make(map[string]int),
		subscribers:    make(map[int]func()),
	}
}

// AddJoint appends a joint under parent (-1 for a root) and returns its index
func (s *Skeleton) AddJoint(j *Joint, parent int) int {
	idx := len(s.Joints)
	j.Parent = parent
	s.Joints = append(s.Joints, j)
	s.local = append(s.local, j.Bind)
	if parent < 0 {
		s.Roots = append(s.Roots, idx)
	} else {
		s.Joints[parent].Children = append(s.Joints[parent].Children, idx)
	}

	s.BindTransforms[j.ID] = j.Bind
	index := func(m map[string]int, key string) {
		if _, ok := m[key]; key != "" && !ok {
			m[key] = idx
		}
	}
	index(s.byID, j.ID)
	index(s.byName, j.Name)
	index(s.bySID, j.SID)
	return idx
}

// Lookup finds a joint by id, then by name, then by sid
func (s *Skeleton) Lookup(name string) (int, bool) {
	if i, ok := s.byID[name]; ok {
		return i, true
	}
	if i, ok := s.byName[name]; ok {
		return i, true
	}
	i, ok := s.bySID[name]
	return i, ok
}

// Transform returns the current local transform of joint i
func (s *Skeleton) Transform(i int) mgl64.Mat4 {
	return s.local[i]
}

// SetTransform changes the local transform of joint i
func (s *Skeleton) SetTransform(i int, m mgl64.Mat4) {
	s.local[i] = m
	s.notify()
}

// SetRoot changes the transform the skeleton hangs from
func (s *Skeleton) SetRoot(m mgl64.Mat4) {
	s.Root = m
	s.notify()
}

// Reset puts every joint back into its bind pose
func (s *Skeleton) Reset() {
	for i, j := range s.Joints {
		s.local[i] = j.Bind
	}
	s.notify()
}

// Subscribe registers fn to be called after every transform change.
// The returned func removes the subscription.
func (s *Skeleton) Subscribe(fn func()) (unsubscribe func()) {
	id := s.nextID
	s.nextID++
	s.subscribers[id] = fn
	return func() {
		delete(s.subscribers, id)
	}
}

func (s *Skeleton) notify() {
	for _, fn := range s.subscribers {
		fn()
	}
}

// BuildSkeletons extracts every skeleton of a visual scene. A node that
// has JOINT children becomes the root of a skeleton made of those joints
// and their JOINT descendants. Joints placed directly in the scene hang
// from an identity root named after the scene.
func BuildSkeletons(vs *collada.VisualScene) []*Skeleton {
	var skeletons []*Skeleton

	var topJoints []int
	for _, idx := range vs.Roots {
		if vs.Nodes[idx].IsJoint() {
			topJoints = append(topJoints, idx)
		}
	}
	if len(topJoints) > 0 {
		s := NewSkeleton(vs.ID, vs.Name, mgl64.Ident4())
		for _, idx := range topJoints {
			addJoints(s, vs, idx, -1)
		}
		skeletons = append(skeletons, s)
	}

	var search func(idx int)
	search = func(idx int) {
		n := vs.Nodes[idx]
		var joints []int
		for _, c := range n.Children {
			if vs.Nodes[c].IsJoint() {
				joints = append(joints, c)
			} else {
				search(c)
			}
		}
		if len(joints) == 0 {
			return
		}
		s := NewSkeleton(n.ID, n.Name, n.Matrix())
		for _, c := range joints {
			addJoints(s, vs, c, -1)
		}
		skeletons = append(skeletons, s)
	}
	for _, idx := range vs.Roots {
		if !vs.Nodes[idx].IsJoint() {
			search(idx)
		}
	}
	return skeletons
}

func addJoints(s *Skeleton, vs *collada.VisualScene, idx, parent int) {
	n := vs.Nodes[idx]
	j := s.AddJoint(&Joint{
		ID:   n.ID,
		Name: n.Name,
		SID:  n.SID,
		Bind: n.BindMatrix(),
	}, parent)
	for _, c := range n.Children {
		if vs.Nodes[c].IsJoint() {
			addJoints(s, vs, c, j)
		}
	}
}
