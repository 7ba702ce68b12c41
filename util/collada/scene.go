package collada

type sceneParser struct {
	url string
}

func (p *sceneParser) start(ctx *Context, el *Element) (action, error) {
	switch el.Tag {
	case TagInstanceVisualScene:
		p.url = trimRef(el.Attr("url"))
		return skip, nil
	case TagInstancePhysicsScene, TagInstanceKinematicsScene, TagExtra:
		return skip, nil
	}
	return unknown, nil
}

func (p *sceneParser) end(ctx *Context, el *Element) error {
	return nil
}

func (p *sceneParser) close(doc *Document) {
	if p.url != "" {
		doc.VisualSceneURL = p.url
	}
}

// lightsParser consumes library_lights without interpreting it
type lightsParser struct{}

func (lightsParser) start(ctx *Context, el *Element) (action, error) {
	return skip, nil
}

func (lightsParser) end(ctx *Context, el *Element) error {
	return nil
}

func (lightsParser) close(doc *Document) {}
