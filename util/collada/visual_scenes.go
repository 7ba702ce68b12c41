package collada

type visualScenesParser struct {
	scenes []*VisualScene

	current  *VisualScene
	nodes    []int
	instance *Instance
}

func newVisualScenesParser() *visualScenesParser {
	return &visualScenesParser{}
}

func (p *visualScenesParser) node() *Node {
	return p.current.Nodes[p.nodes[len(p.nodes)-1]]
}

func (p *visualScenesParser) start(ctx *Context, el *Element) (action, error) {
	if p.current == nil && el.Tag != TagVisualScene && el.Tag != TagExtra {
		return unknown, nil
	}
	if _, ok := transformSizes[el.Tag]; ok {
		if len(p.nodes) == 0 {
			return unknown, nil
		}
		return descend, nil
	}

	switch el.Tag {
	case TagInstanceCamera, TagInstanceLight, TagInstanceNode, TagInstanceGeometry, TagInstanceController:
		if len(p.nodes) == 0 {
			return unknown, nil
		}
	case TagSkeleton, TagBindMaterial, TagTechniqueCommon, TagInstanceMaterial:
		if p.instance == nil {
			return unknown, nil
		}
	}

	switch el.Tag {
	case TagVisualScene:
		p.current = &VisualScene{
			ID:   el.Attr("id"),
			Name: el.Attr("name"),
		}
		p.nodes = p.nodes[:0]
		return descend, nil
	case TagNode:
		n := &Node{
			ID:     el.Attr("id"),
			Name:   el.Attr("name"),
			SID:    el.Attr("sid"),
			Type:   el.Attr("type"),
			Parent: -1,
		}
		if n.Type == "" {
			n.Type = NodeTypeNode
		}
		idx := len(p.current.Nodes)
		if len(p.nodes) > 0 {
			parent := p.node()
			n.Parent = p.nodes[len(p.nodes)-1]
			parent.Children = append(parent.Children, idx)
		} else {
			p.current.Roots = append(p.current.Roots, idx)
		}
		p.current.Nodes = append(p.current.Nodes, n)
		p.nodes = append(p.nodes, idx)
		return descend, nil
	case TagInstanceCamera:
		n := p.node()
		n.Cameras = append(n.Cameras, trimRef(el.Attr("url")))
		return skip, nil
	case TagInstanceLight:
		n := p.node()
		n.Lights = append(n.Lights, trimRef(el.Attr("url")))
		return skip, nil
	case TagInstanceNode:
		n := p.node()
		n.InstanceNodes = append(n.InstanceNodes, trimRef(el.Attr("url")))
		return skip, nil
	case TagInstanceGeometry, TagInstanceController:
		n := p.node()
		p.instance = &Instance{URL: trimRef(el.Attr("url"))}
		if el.Tag == TagInstanceGeometry {
			n.Geometries = append(n.Geometries, p.instance)
		} else {
			n.Controllers = append(n.Controllers, p.instance)
		}
		return descend, nil
	case TagSkeleton, TagBindMaterial, TagTechniqueCommon:
		return descend, nil
	case TagInstanceMaterial:
		p.instance.Materials = append(p.instance.Materials, InstanceMaterial{
			Symbol: el.Attr("symbol"),
			Target: trimRef(el.Attr("target")),
		})
		return skip, nil
	case TagTechnique, TagExtra:
		return skip, nil
	}
	return unknown, nil
}

func (p *visualScenesParser) end(ctx *Context, el *Element) error {
	if t, ok := transformSizes[el.Tag]; ok {
		values, err := parseFixed(el.Text(), t.size)
		if err != nil {
			return err
		}
		n := p.node()
		n.Transforms = append(n.Transforms, Transform{
			Kind:   t.kind,
			SID:    el.Attr("sid"),
			Values: values,
		})
		return nil
	}

	switch el.Tag {
	case TagSkeleton:
		p.instance.Skeletons = append(p.instance.Skeletons, trimRef(el.Text()))
	case TagInstanceGeometry, TagInstanceController:
		p.instance = nil
	case TagNode:
		p.nodes = p.nodes[:len(p.nodes)-1]
	case TagVisualScene:
		p.scenes = append(p.scenes, p.current)
		p.current = nil
	}
	return nil
}

func (p *visualScenesParser) close(doc *Document) {
	doc.VisualScenes = append(doc.VisualScenes, p.scenes...)
}
