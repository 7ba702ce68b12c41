package collada

import "errors"

// primitive is a <polylist> or <triangles> block waiting for assembly
type primitive struct {
	tag      Tag
	material string
	count    int
	inputs   []Input
	vcount   []int
	p        []int
}

type geometriesParser struct {
	geometries map[string][]*Mesh
	order      []string

	sources    *sources
	vertices   map[string][]Input
	primitives []*primitive
}

func newGeometriesParser() *geometriesParser {
	return &geometriesParser{
		geometries: make(map[string][]*Mesh),
	}
}

func (p *geometriesParser) current() *primitive {
	return p.primitives[len(p.primitives)-1]
}

func (p *geometriesParser) start(ctx *Context, el *Element) (action, error) {
	if p.sources == nil && el.Tag != TagGeometry && el.Tag != TagExtra {
		return unknown, nil
	}
	if act, ok := p.sources.start(ctx, el); ok {
		return act, nil
	}

	switch el.Tag {
	case TagGeometry:
		p.sources = newSources()
		p.vertices = make(map[string][]Input)
		p.primitives = nil
		return descend, nil
	case TagMesh, TagVertices:
		return descend, nil
	case TagPolylist, TagTriangles:
		count, err := attrInt(el, "count", 0)
		if err != nil {
			return skip, err
		}
		p.primitives = append(p.primitives, &primitive{
			tag:      el.Tag,
			material: el.Attr("material"),
			count:    count,
		})
		return descend, nil
	case TagPolygons:
		ctx.Warn(ErrUnsupportedGeometry)
		return skip, nil
	case TagInput:
		in, err := newInput(el)
		if err != nil {
			return skip, err
		}
		switch ctx.Parent().Tag {
		case TagVertices:
			id := ctx.ID(TagVertices)
			p.vertices[id] = append(p.vertices[id], in)
		case TagPolylist, TagTriangles:
			prim := p.current()
			prim.inputs = append(prim.inputs, in)
		}
		return skip, nil
	case TagVCount, TagP:
		if parent := ctx.Parent().Tag; parent != TagPolylist && parent != TagTriangles {
			return unknown, nil
		}
		return descend, nil
	case TagExtra:
		return skip, nil
	}
	return unknown, nil
}

func (p *geometriesParser) end(ctx *Context, el *Element) error {
	if ok, err := p.sources.end(ctx, el); ok {
		return err
	}

	switch el.Tag {
	case TagVCount:
		ints, err := parseInts(el.Text())
		if err != nil {
			return err
		}
		p.current().vcount = ints
	case TagP:
		ints, err := parseInts(el.Text())
		if err != nil {
			return err
		}
		prim := p.current()
		prim.p = append(prim.p, ints...)
	case TagGeometry:
		id := el.Attr("id")
		var meshes []*Mesh
		for _, prim := range p.primitives {
			mesh, err := assemble(prim, p.sources, p.vertices)
			if err != nil {
				if errors.Is(err, ErrUnsupportedGeometry) || errors.Is(err, ErrIndexRange) || errors.Is(err, ErrMissingSource) {
					ctx.Warn("skipping mesh: ", err)
					continue
				}
				return err
			}
			meshes = append(meshes, mesh)
		}
		if _, ok := p.geometries[id]; !ok {
			p.order = append(p.order, id)
		}
		p.geometries[id] = meshes
		p.sources, p.vertices, p.primitives = nil, nil, nil
	}
	return nil
}

func (p *geometriesParser) close(doc *Document) {
	for _, id := range p.order {
		if _, ok := doc.Geometries[id]; !ok {
			doc.GeometryOrder = append(doc.GeometryOrder, id)
		}
		doc.Geometries[id] = p.geometries[id]
	}
}
