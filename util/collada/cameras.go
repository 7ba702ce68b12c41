package collada

type camerasParser struct {
	cameras map[string]*Camera
	order   []string
	current *Camera

	xfov, yfov       float64
	hasXFov, hasYFov bool
}

func newCamerasParser() *camerasParser {
	return &camerasParser{
		cameras: make(map[string]*Camera),
	}
}

func (p *camerasParser) start(ctx *Context, el *Element) (action, error) {
	if p.current == nil && el.Tag != TagCamera && el.Tag != TagExtra {
		return unknown, nil
	}

	switch el.Tag {
	case TagCamera:
		p.current = &Camera{
			ID:          el.Attr("id"),
			Name:        el.Attr("name"),
			VerticalFOV: true,
			FieldOfView: DefaultFieldOfView,
			NearClip:    DefaultNearClip,
			FarClip:     DefaultFarClip,
			AspectRatio: DefaultAspectRatio,
		}
		p.hasXFov, p.hasYFov = false, false
		return descend, nil
	case TagOptics, TagTechniqueCommon, TagPerspective:
		return descend, nil
	case TagOrthographic:
		p.current.Orthographic = true
		return descend, nil
	case TagXFov, TagYFov, TagAspectRatio, TagZNear, TagZFar, TagXMag, TagYMag:
		return descend, nil
	case TagTechnique, TagExtra:
		return skip, nil
	}
	return unknown, nil
}

func (p *camerasParser) end(ctx *Context, el *Element) error {
	switch el.Tag {
	case TagXFov, TagYFov, TagAspectRatio, TagZNear, TagZFar:
	case TagCamera:
		switch {
		case p.hasYFov:
			p.current.VerticalFOV = true
			p.current.FieldOfView = p.yfov
		case p.hasXFov:
			p.current.VerticalFOV = false
			p.current.FieldOfView = p.xfov
		}
		p.cameras[p.current.ID] = p.current
		p.order = append(p.order, p.current.ID)
		p.current = nil
		return nil
	default:
		return nil
	}

	v, err := parseFloat(el.Text())
	if err != nil {
		return err
	}
	switch el.Tag {
	case TagXFov:
		p.xfov, p.hasXFov = v, true
	case TagYFov:
		p.yfov, p.hasYFov = v, true
	case TagAspectRatio:
		p.current.AspectRatio = v
	case TagZNear:
		p.current.NearClip = v
	case TagZFar:
		p.current.FarClip = v
	}
	return nil
}

func (p *camerasParser) close(doc *Document) {
	for _, id := range p.order {
		doc.Cameras[id] = p.cameras[id]
	}
	doc.CameraOrder = append(doc.CameraOrder, p.order...)
}
