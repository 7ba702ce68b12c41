package collada

import "fmt"

type channel struct {
	sampler string
	target  string
}

type animationsParser struct {
	animations map[string]*Animation
	order      []string

	stack    []*Animation
	channels map[*Animation][]channel
	samplers map[string][]Input
	sources  *sources
}

func newAnimationsParser() *animationsParser {
	return &animationsParser{
		animations: make(map[string]*Animation),
		channels:   make(map[*Animation][]channel),
		samplers:   make(map[string][]Input),
		sources:    newSources(),
	}
}

func (p *animationsParser) current() *Animation {
	return p.stack[len(p.stack)-1]
}

func (p *animationsParser) start(ctx *Context, el *Element) (action, error) {
	if len(p.stack) == 0 && el.Tag != TagAnimation && el.Tag != TagExtra {
		return unknown, nil
	}
	if act, ok := p.sources.start(ctx, el); ok {
		return act, nil
	}

	switch el.Tag {
	case TagAnimation:
		a := &Animation{
			ID:   el.Attr("id"),
			Name: el.Attr("name"),
		}
		if len(p.stack) > 0 {
			parent := p.current()
			parent.Children = append(parent.Children, a)
		}
		p.stack = append(p.stack, a)
		return descend, nil
	case TagSampler:
		return descend, nil
	case TagInput:
		if ctx.Parent().Tag != TagSampler {
			return unknown, nil
		}
		in, err := newInput(el)
		if err != nil {
			return skip, err
		}
		id := ctx.ID(TagSampler)
		p.samplers[id] = append(p.samplers[id], in)
		return skip, nil
	case TagChannel:
		a := p.current()
		p.channels[a] = append(p.channels[a], channel{
			sampler: trimRef(el.Attr("source")),
			target:  el.Attr("target"),
		})
		return skip, nil
	case TagExtra:
		return skip, nil
	}
	return unknown, nil
}

func (p *animationsParser) end(ctx *Context, el *Element) error {
	if ok, err := p.sources.end(ctx, el); ok {
		return err
	}

	if el.Tag != TagAnimation {
		return nil
	}
	a := p.current()
	p.stack = p.stack[:len(p.stack)-1]

	for i, ch := range p.channels[a] {
		target := a
		if i > 0 {
			// every channel after the first gets its own child curve
			target = &Animation{ID: fmt.Sprintf("%s-%d", a.ID, i), Name: a.Name}
			a.Children = append(a.Children, target)
		}
		if err := p.bind(target, ch); err != nil {
			ctx.Warn("skipping channel ", ch.target, ": ", err)
		}
	}
	delete(p.channels, a)

	if len(p.stack) == 0 {
		if _, ok := p.animations[a.ID]; !ok {
			p.order = append(p.order, a.ID)
		}
		p.animations[a.ID] = a
	}
	return nil
}

// bind fills an animation's curve from the sampler a channel names
func (p *animationsParser) bind(a *Animation, ch channel) error {
	inputs, ok := p.samplers[ch.sampler]
	if !ok {
		return fmt.Errorf("%w: sampler %s", ErrMissingSource, ch.sampler)
	}
	a.Target = ch.target
	for _, in := range inputs {
		src, ok := p.sources.get(in.Source)
		if !ok {
			return fmt.Errorf("%w: %s", ErrMissingSource, in.Source)
		}
		switch in.Semantic {
		case "INPUT":
			a.Input = src.Floats
		case "OUTPUT":
			a.Output = src.Floats
		case "INTERPOLATION":
			a.Interpolations = src.Names
		}
	}
	return nil
}

func (p *animationsParser) close(doc *Document) {
	for _, id := range p.order {
		if _, ok := doc.Animations[id]; !ok {
			doc.AnimationOrder = append(doc.AnimationOrder, id)
		}
		doc.Animations[id] = p.animations[id]
	}
}
