package collada

type materialsParser struct {
	materials map[string]*Material
	current   *Material
}

func newMaterialsParser() *materialsParser {
	return &materialsParser{
		materials: make(map[string]*Material),
	}
}

func (p *materialsParser) start(ctx *Context, el *Element) (action, error) {
	if p.current == nil && el.Tag != TagMaterial && el.Tag != TagExtra {
		return unknown, nil
	}

	switch el.Tag {
	case TagMaterial:
		p.current = &Material{
			ID:   el.Attr("id"),
			Name: el.Attr("name"),
		}
		p.materials[p.current.ID] = p.current
		return descend, nil
	case TagInstanceEffect:
		p.current.Effect = trimRef(el.Attr("url"))
		return skip, nil
	case TagExtra:
		return skip, nil
	}
	return unknown, nil
}

func (p *materialsParser) end(ctx *Context, el *Element) error {
	if el.Tag == TagMaterial {
		p.current = nil
	}
	return nil
}

func (p *materialsParser) close(doc *Document) {
	for id, m := range p.materials {
		doc.Materials[id] = m
	}
}

type imagesParser struct {
	images map[string]string
}

func newImagesParser() *imagesParser {
	return &imagesParser{
		images: make(map[string]string),
	}
}

func (p *imagesParser) start(ctx *Context, el *Element) (action, error) {
	switch el.Tag {
	case TagImage, TagInitFrom:
		return descend, nil
	case TagExtra:
		return skip, nil
	}
	return unknown, nil
}

func (p *imagesParser) end(ctx *Context, el *Element) error {
	if el.Tag == TagInitFrom {
		p.images[ctx.ID(TagImage)] = el.Text()
	}
	return nil
}

func (p *imagesParser) close(doc *Document) {
	for id, path := range p.images {
		doc.Images[id] = path
	}
}
