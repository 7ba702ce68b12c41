package collada

import (
	glm "github.com/go-gl/mathgl/mgl32"
)

type effectsParser struct {
	effects map[string]*Effect
	current *Effect
}

func newEffectsParser() *effectsParser {
	return &effectsParser{
		effects: make(map[string]*Effect),
	}
}

var channels = map[Tag]Channel{
	TagAmbient:  Ambient,
	TagDiffuse:  Diffuse,
	TagEmission: Emission,
	TagSpecular: Specular,
}

func (p *effectsParser) start(ctx *Context, el *Element) (action, error) {
	if p.current == nil && el.Tag != TagEffect && el.Tag != TagExtra {
		return unknown, nil
	}

	switch el.Tag {
	case TagEffect:
		p.current = &Effect{
			ID:       el.Attr("id"),
			Name:     el.Attr("name"),
			Colors:   make(map[Channel]glm.Vec4),
			Textures: make(map[Channel]string),
			Samplers: make(map[string]string),
			Surfaces: make(map[string]string),
		}
		return descend, nil
	case TagProfileCommon, TagNewParam, TagSurface, TagSampler2D:
		return descend, nil
	case TagTechnique:
		if ctx.Parent().Tag == TagProfileCommon {
			return descend, nil
		}
		return skip, nil
	case TagInitFrom, TagSource:
		return descend, nil
	case TagPhong, TagBlinn, TagLambert:
		p.current.Shading = el.Name
		return descend, nil
	case TagConstant:
		p.current.Shading = el.Name
		return skip, nil
	case TagAmbient, TagDiffuse, TagEmission, TagSpecular:
		return descend, nil
	case TagShininess, TagTransparency, TagReflective, TagReflectivity, TagTransparent, TagIndexOfRefraction:
		return descend, nil
	case TagColor, TagFloat:
		return descend, nil
	case TagTexture:
		if c, ok := channels[ctx.Parent().Tag]; ok {
			p.current.Textures[c] = el.Attr("texture")
		}
		return skip, nil
	case TagFormat, TagMinFilter, TagMagFilter, TagMipFilter, TagWrapS, TagWrapT, TagExtra:
		return skip, nil
	}
	return unknown, nil
}

func (p *effectsParser) end(ctx *Context, el *Element) error {
	switch el.Tag {
	case TagInitFrom:
		if ctx.Parent().Tag == TagSurface {
			p.current.Surfaces[ctx.SID(TagNewParam)] = el.Text()
		}
	case TagSource:
		if ctx.Parent().Tag == TagSampler2D {
			p.current.Samplers[ctx.SID(TagNewParam)] = el.Text()
		}
	case TagColor:
		c, ok := channels[ctx.Parent().Tag]
		if !ok {
			return nil
		}
		rgba, err := parseFixed(el.Text(), 4)
		if err != nil {
			return err
		}
		p.current.Colors[c] = glm.Vec4{float32(rgba[0]), float32(rgba[1]), float32(rgba[2]), float32(rgba[3])}
	case TagFloat:
		v, err := parseFloat(el.Text())
		if err != nil {
			return err
		}
		switch ctx.Parent().Tag {
		case TagShininess:
			p.current.Shininess = float32(v)
		case TagTransparency:
			p.current.Transparency = float32(v)
		}
	case TagEffect:
		p.effects[p.current.ID] = p.current
		p.current = nil
	}
	return nil
}

func (p *effectsParser) close(doc *Document) {
	for id, e := range p.effects {
		doc.Effects[id] = e
	}
}
