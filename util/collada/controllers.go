package collada

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

type controllersParser struct {
	controllers map[string]*Controller
	order       []string

	current      *Controller
	sources      *sources
	jointInputs  []Input
	weightInputs []Input
	count        int
	vcount       []int
	v            []int
}

func newControllersParser() *controllersParser {
	return &controllersParser{
		controllers: make(map[string]*Controller),
	}
}

func (p *controllersParser) start(ctx *Context, el *Element) (action, error) {
	switch {
	case el.Tag == TagController, el.Tag == TagExtra:
	case p.current == nil:
		return unknown, nil
	case el.Tag != TagSkin && p.sources == nil:
		return unknown, nil
	}

	if act, ok := p.sources.start(ctx, el); ok {
		return act, nil
	}

	switch el.Tag {
	case TagController:
		p.current = &Controller{
			ID:              el.Attr("id"),
			Name:            el.Attr("name"),
			BindShapeMatrix: mgl64.Ident4(),
		}
		p.sources = nil
		return descend, nil
	case TagSkin:
		p.current.SkinID = trimRef(el.Attr("source"))
		p.sources = newSources()
		p.jointInputs, p.weightInputs = nil, nil
		p.count, p.vcount, p.v = -1, nil, nil
		return descend, nil
	case TagBindShapeMatrix, TagJoints, TagVCount, TagV:
		return descend, nil
	case TagVertexWeights:
		count, err := attrInt(el, "count", -1)
		if err != nil {
			return skip, err
		}
		p.count = count
		return descend, nil
	case TagInput:
		in, err := newInput(el)
		if err != nil {
			return skip, err
		}
		switch ctx.Parent().Tag {
		case TagJoints:
			p.jointInputs = append(p.jointInputs, in)
		case TagVertexWeights:
			p.weightInputs = append(p.weightInputs, in)
		}
		return skip, nil
	case TagExtra:
		return skip, nil
	}
	return unknown, nil
}

func (p *controllersParser) end(ctx *Context, el *Element) error {
	if ok, err := p.sources.end(ctx, el); ok {
		return err
	}

	switch el.Tag {
	case TagBindShapeMatrix:
		m, err := parseMatrix(el.Text())
		if err != nil {
			return err
		}
		p.current.BindShapeMatrix = m
	case TagVCount:
		ints, err := parseInts(el.Text())
		if err != nil {
			return err
		}
		p.vcount = ints
	case TagV:
		ints, err := parseInts(el.Text())
		if err != nil {
			return err
		}
		p.v = ints
	case TagSkin:
		err := p.build()
		p.sources = nil
		if err != nil {
			if errors.Is(err, ErrIndexRange) || errors.Is(err, ErrMissingSource) {
				ctx.Warn("skipping controller ", p.current.ID, ": ", err)
				p.current = nil
				return nil
			}
			return err
		}
	case TagController:
		c := p.current
		p.current = nil
		if c == nil || c.SkinID == "" {
			return nil
		}
		if _, ok := p.controllers[c.ID]; !ok {
			p.order = append(p.order, c.ID)
		}
		p.controllers[c.ID] = c
	}
	return nil
}

// source picks the source bound to semantic, falling back to the first
// source satisfying accept when no input names one.
func (p *controllersParser) source(inputs []Input, semantic string, accept func(*Source) bool) (*Source, error) {
	if in, ok := findInput(inputs, semantic); ok {
		src, ok := p.sources.get(in.Source)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingSource, in.Source)
		}
		return src, nil
	}
	for _, id := range p.sources.order {
		if src := p.sources.byID[id]; accept(src) {
			return src, nil
		}
	}
	return nil, fmt.Errorf("%w: no %s source", ErrMissingSource, semantic)
}

// build fills joint names, bind poses and the dense weight matrix of the
// current controller.
func (p *controllersParser) build() error {
	c := p.current

	names, err := p.source(p.jointInputs, "JOINT", func(s *Source) bool { return s.Names != nil })
	if err != nil {
		return err
	}
	poses, err := p.source(p.jointInputs, "INV_BIND_MATRIX", func(s *Source) bool { return s.Stride == 16 })
	if err != nil {
		return err
	}
	c.JointNames = names.Names

	if len(poses.Floats) != 16*len(c.JointNames) {
		return fmt.Errorf("%w: %d bind pose values for %d joints", ErrIndexRange, len(poses.Floats), len(c.JointNames))
	}
	c.BindPoses = make([]mgl64.Mat4, len(c.JointNames))
	for j := range c.BindPoses {
		c.BindPoses[j] = RowMajor(poses.Floats[j*16 : (j+1)*16])
	}

	jointIn, ok := findInput(p.weightInputs, "JOINT")
	if !ok {
		return fmt.Errorf("%w: vertex_weights without JOINT input", ErrMissingSource)
	}
	weightIn, ok := findInput(p.weightInputs, "WEIGHT")
	if !ok {
		return fmt.Errorf("%w: vertex_weights without WEIGHT input", ErrMissingSource)
	}
	weights, ok := p.sources.get(weightIn.Source)
	if !ok {
		return fmt.Errorf("%w: %s", ErrMissingSource, weightIn.Source)
	}

	count := p.count
	if count < 0 {
		count = len(p.vcount)
	}
	c.VertexWeights = make([][]float32, len(c.JointNames))
	for j := range c.VertexWeights {
		c.VertexWeights[j] = make([]float32, count)
	}

	stride := Stride(p.weightInputs)
	pair := 0
	for vertex, n := range p.vcount {
		if vertex >= count {
			return fmt.Errorf("%w: vcount lists more than %d vertices", ErrIndexRange, count)
		}
		for k := 0; k < n; k, pair = k+1, pair+1 {
			base := pair * stride
			if base+stride > len(p.v) {
				return fmt.Errorf("%w: v has %d entries", ErrIndexRange, len(p.v))
			}
			joint, weight := p.v[base+jointIn.Offset], p.v[base+weightIn.Offset]
			if joint == -1 {
				// bound to the bind shape itself
				continue
			}
			if joint < 0 || joint >= len(c.JointNames) {
				return fmt.Errorf("%w: joint %d of %d", ErrIndexRange, joint, len(c.JointNames))
			}
			if weight < 0 || weight >= len(weights.Floats) {
				return fmt.Errorf("%w: weight %d of %d", ErrIndexRange, weight, len(weights.Floats))
			}
			c.VertexWeights[joint][vertex] = float32(weights.Floats[weight])
		}
	}
	return nil
}

func (p *controllersParser) close(doc *Document) {
	for _, id := range p.order {
		if _, ok := doc.Controllers[id]; !ok {
			doc.ControllerOrder = append(doc.ControllerOrder, id)
		}
		doc.Controllers[id] = p.controllers[id]
	}
}
