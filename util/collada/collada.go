package collada

import (
	"math"
	"strings"

	glm "github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

// Document is everything read from one COLLADA stream. Cross references
// between libraries are kept as ids, nothing is resolved here.
type Document struct {
	Asset          Asset
	VisualSceneURL string

	Cameras     map[string]*Camera
	CameraOrder []string

	Effects   map[string]*Effect
	Materials map[string]*Material
	Images    map[string]string

	Geometries    map[string][]*Mesh
	GeometryOrder []string

	Controllers     map[string]*Controller
	ControllerOrder []string

	VisualScenes []*VisualScene

	Animations     map[string]*Animation
	AnimationOrder []string
}

func newDocument() *Document {
	return &Document{
		// documents without an <asset> block are taken as Z up
		Asset:       Asset{UpAxis: ZUp, UnitName: "meter", UnitMeter: 1},
		Cameras:     make(map[string]*Camera),
		Effects:     make(map[string]*Effect),
		Materials:   make(map[string]*Material),
		Images:      make(map[string]string),
		Geometries:  make(map[string][]*Mesh),
		Controllers: make(map[string]*Controller),
		Animations:  make(map[string]*Animation),
	}
}

// VisualScene returns the instanced visual scene, or the first one when
// the document doesn't instance any.
func (d *Document) VisualScene() *VisualScene {
	for _, vs := range d.VisualScenes {
		if vs.ID == d.VisualSceneURL {
			return vs
		}
	}
	if len(d.VisualScenes) > 0 {
		return d.VisualScenes[0]
	}
	return nil
}

// Up axis values
const (
	XUp = "X_UP"
	YUp = "Y_UP"
	ZUp = "Z_UP"
)

// Asset is the document metadata
type Asset struct {
	Author        string
	AuthoringTool string
	Created       string
	Modified      string
	UnitName      string
	UnitMeter     float64
	UpAxis        string
}

// Input declares which semantic lives at which offset of an index stream
type Input struct {
	Offset   int
	Semantic string
	Source   string
	Set      int
}

func newInput(el *Element) (Input, error) {
	var (
		in  Input
		err error
	)
	in.Semantic = el.Attr("semantic")
	in.Source = trimRef(el.Attr("source"))
	if in.Offset, err = attrInt(el, "offset", 0); err != nil {
		return in, err
	}
	if in.Set, err = attrInt(el, "set", 0); err != nil {
		return in, err
	}
	return in, nil
}

// Stride is the number of indices one vertex occupies in a stream
// described by inputs.
func Stride(inputs []Input) int {
	max := -1
	for _, in := range inputs {
		if in.Offset > max {
			max = in.Offset
		}
	}
	return max + 1
}

func findInput(inputs []Input, semantic string) (Input, bool) {
	for _, in := range inputs {
		if in.Semantic == semantic {
			return in, true
		}
	}
	return Input{}, false
}

// Source is a raw data array together with its accessor stride
type Source struct {
	ID     string
	Floats []float64
	Names  []string
	Stride int
}

// sources collects the <source> blocks of one scope, keeping document order
type sources struct {
	byID  map[string]*Source
	order []string
}

func newSources() *sources {
	return &sources{byID: make(map[string]*Source)}
}

// start handles the elements shared by every library that carries <source>
func (s *sources) start(ctx *Context, el *Element) (action, bool) {
	if s == nil {
		return unknown, false
	}

	switch el.Tag {
	case TagSource:
		id := el.Attr("id")
		if _, ok := s.byID[id]; !ok {
			s.order = append(s.order, id)
		}
		s.byID[id] = &Source{ID: id, Stride: 1}
		return descend, true
	case TagFloatArray, TagNameArray, TagIDRefArray:
		return descend, true
	case TagTechniqueCommon:
		if ctx.Parent().Tag == TagSource {
			return descend, true
		}
	case TagAccessor:
		if src, ok := s.byID[ctx.ID(TagSource)]; ok {
			stride, err := attrInt(el, "stride", 1)
			if err == nil && stride > 0 {
				src.Stride = stride
			}
		}
		return skip, true
	case TagTechnique:
		if ctx.Parent().Tag == TagSource {
			return skip, true
		}
	}
	return unknown, false
}

func (s *sources) end(ctx *Context, el *Element) (bool, error) {
	if s == nil {
		return false, nil
	}

	src, ok := s.byID[ctx.ID(TagSource)]
	switch el.Tag {
	case TagFloatArray:
		floats, err := parseFloats(el.Text())
		if err != nil {
			return true, err
		}
		if ok {
			src.Floats = floats
		}
		return true, nil
	case TagNameArray, TagIDRefArray:
		if ok {
			src.Names = strings.Fields(el.Text())
		}
		return true, nil
	}
	return false, nil
}

// get returns the source with the given id
func (s *sources) get(id string) (*Source, bool) {
	if s == nil {
		return nil, false
	}
	src, ok := s.byID[id]
	return src, ok
}

// VertexFormat records which attributes a face vertex carries
type VertexFormat int

// Vertex formats
const (
	PointTexCoord VertexFormat = iota
	PointNormalTexCoord
)

// Mesh is one triangle list. Faces holds, per face vertex, a position
// index, a normal index when Format is PointNormalTexCoord, and a
// texture coordinate index.
type Mesh struct {
	Points    []float32
	Normals   []float32
	TexCoords []float32
	Faces     []int32
	Format    VertexFormat
	Material  string
}

// InputCount is the number of indices per face vertex
func (m *Mesh) InputCount() int {
	if m.Format == PointNormalTexCoord {
		return 3
	}
	return 2
}

// FaceCount returns the number of triangles
func (m *Mesh) FaceCount() int {
	return len(m.Faces) / (3 * m.InputCount())
}

// TransformKind is the element a Transform was read from
type TransformKind int

// Transform kinds
const (
	Translate TransformKind = iota
	Rotate
	Scale
	Matrix
	LookAt
	Skew
)

var transformSizes = map[Tag]struct {
	kind TransformKind
	size int
}{
	TagTranslate: {Translate, 3},
	TagRotate:    {Rotate, 4},
	TagScale:     {Scale, 3},
	TagMatrix:    {Matrix, 16},
	TagLookAt:    {LookAt, 9},
	TagSkew:      {Skew, 7},
}

// Transform is one node transformation element
type Transform struct {
	Kind   TransformKind
	SID    string
	Values []float64
}

// Matrix returns the affine the transform describes
func (t Transform) Matrix() mgl64.Mat4 {
	v := t.Values
	switch t.Kind {
	case Translate:
		return mgl64.Translate3D(v[0], v[1], v[2])
	case Rotate:
		axis := mgl64.Vec3{v[0], v[1], v[2]}
		if axis.Len() == 0 {
			return mgl64.Ident4()
		}
		return mgl64.HomogRotate3D(mgl64.DegToRad(v[3]), axis.Normalize())
	case Scale:
		return mgl64.Scale3D(v[0], v[1], v[2])
	case Matrix:
		return RowMajor(v)
	case LookAt:
		eye := mgl64.Vec3{v[0], v[1], v[2]}
		center := mgl64.Vec3{v[3], v[4], v[5]}
		up := mgl64.Vec3{v[6], v[7], v[8]}
		return mgl64.LookAtV(eye, center, up).Inv()
	case Skew:
		// p' = p + tan(angle) * (rotation axis . p) * translation axis
		r := mgl64.Vec3{v[1], v[2], v[3]}
		d := mgl64.Vec3{v[4], v[5], v[6]}
		if r.Len() == 0 || d.Len() == 0 {
			return mgl64.Ident4()
		}
		r, d = r.Normalize(), d.Normalize()
		s := math.Tan(mgl64.DegToRad(v[0]))
		m := mgl64.Ident4()
		for col := 0; col < 3; col++ {
			for row := 0; row < 3; row++ {
				m.Set(row, col, m.At(row, col)+s*d[row]*r[col])
			}
		}
		return m
	}
	return mgl64.Ident4()
}

// Node types
const (
	NodeTypeNode  = "NODE"
	NodeTypeJoint = "JOINT"
)

// InstanceMaterial binds a mesh material symbol to a material id
type InstanceMaterial struct {
	Symbol string
	Target string
}

// Instance references a geometry or controller from a node
type Instance struct {
	URL       string
	Skeletons []string
	Materials []InstanceMaterial
}

// MaterialFor returns the material id bound to symbol, or the symbol
// itself when the instance doesn't bind it.
func (in *Instance) MaterialFor(symbol string) string {
	for _, m := range in.Materials {
		if m.Symbol == symbol {
			return m.Target
		}
	}
	return symbol
}

// Node is one entry of a visual scene's node arena. Parent and Children
// are indices into VisualScene.Nodes, Parent is -1 for roots.
type Node struct {
	ID         string
	Name       string
	SID        string
	Type       string
	Transforms []Transform
	Parent     int
	Children   []int

	Cameras       []string
	Lights        []string
	InstanceNodes []string
	Geometries    []*Instance
	Controllers   []*Instance
}

// IsJoint reports whether the node is part of a skeleton
func (n *Node) IsJoint() bool {
	return n.Type == NodeTypeJoint
}

// Matrix composes the node's transforms in document order
func (n *Node) Matrix() mgl64.Mat4 {
	m := mgl64.Ident4()
	for _, t := range n.Transforms {
		m = m.Mul4(t.Matrix())
	}
	return m
}

// BindMatrix is the first matrix transform of the node, the composed
// transforms if it has none.
func (n *Node) BindMatrix() mgl64.Mat4 {
	for _, t := range n.Transforms {
		if t.Kind == Matrix {
			return t.Matrix()
		}
	}
	return n.Matrix()
}

// VisualScene is a node arena
type VisualScene struct {
	ID    string
	Name  string
	Nodes []*Node
	Roots []int
}

// Camera is a perspective or orthographic camera
type Camera struct {
	ID           string
	Name         string
	Orthographic bool
	VerticalFOV  bool
	FieldOfView  float64
	NearClip     float64
	FarClip      float64
	AspectRatio  float64
}

// Camera defaults when optics leave values out
const (
	DefaultFieldOfView = 30
	DefaultNearClip    = 0.1
	DefaultFarClip     = 100
	DefaultAspectRatio = 4.0 / 3.0
)

// Channel is a shading channel of an effect
type Channel int

// Shading channels
const (
	Ambient Channel = iota
	Diffuse
	Emission
	Specular
)

func (c Channel) String() string {
	switch c {
	case Ambient:
		return "ambient"
	case Diffuse:
		return "diffuse"
	case Emission:
		return "emission"
	case Specular:
		return "specular"
	}
	return "unknown"
}

// Effect is a profile_COMMON shading description
type Effect struct {
	ID           string
	Name         string
	Shading      string
	Colors       map[Channel]glm.Vec4
	Textures     map[Channel]string
	Shininess    float32
	Transparency float32

	// sampler sid -> surface sid
	Samplers map[string]string
	// surface sid -> image id
	Surfaces map[string]string
}

// Image returns the image id a channel's texture refers to, following
// texture -> sampler -> surface -> image.
func (e *Effect) Image(c Channel) (string, bool) {
	ref, ok := e.Textures[c]
	if !ok {
		return "", false
	}
	surface, ok := e.Samplers[ref]
	if !ok {
		return "", false
	}
	image, ok := e.Surfaces[surface]
	return image, ok
}

// Material references the effect it instances
type Material struct {
	ID     string
	Name   string
	Effect string
}

// Controller is a skin binding a geometry to a set of joints.
// VertexWeights is indexed [joint][vertex] and zero where a joint doesn't
// influence a vertex.
type Controller struct {
	ID              string
	Name            string
	SkinID          string
	BindShapeMatrix mgl64.Mat4
	JointNames      []string
	BindPoses       []mgl64.Mat4
	VertexWeights   [][]float32
}

// Animation is a sampled curve targeting "joint/property", possibly with
// nested animations.
type Animation struct {
	ID             string
	Name           string
	Target         string
	Input          []float64
	Output         []float64
	Interpolations []string
	Children       []*Animation
}

// TargetJoint is the part of the target before the first '/'
func (a *Animation) TargetJoint() string {
	if i := strings.Index(a.Target, "/"); i >= 0 {
		return a.Target[:i]
	}
	return a.Target
}
