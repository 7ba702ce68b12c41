package collada

import "strings"

type assetParser struct {
	top   bool
	asset Asset
}

// newAssetParser reads an <asset> block. Only the document level block
// (a direct child of COLLADA) ends up in Document.Asset.
func newAssetParser(top bool) *assetParser {
	return &assetParser{
		top:   top,
		asset: Asset{UpAxis: YUp, UnitName: "meter", UnitMeter: 1},
	}
}

func (p *assetParser) start(ctx *Context, el *Element) (action, error) {
	switch el.Tag {
	case TagContributor, TagAuthor, TagAuthoringTool, TagCreated, TagModified, TagUpAxis:
		return descend, nil
	case TagUnit:
		if name := el.Attr("name"); name != "" {
			p.asset.UnitName = name
		}
		if meter := el.Attr("meter"); meter != "" {
			m, err := parseFloat(meter)
			if err != nil {
				return skip, err
			}
			p.asset.UnitMeter = m
		}
		return skip, nil
	}
	return unknown, nil
}

func (p *assetParser) end(ctx *Context, el *Element) error {
	switch el.Tag {
	case TagAuthor:
		p.asset.Author = el.Text()
	case TagAuthoringTool:
		p.asset.AuthoringTool = el.Text()
	case TagCreated:
		p.asset.Created = el.Text()
	case TagModified:
		p.asset.Modified = el.Text()
	case TagUpAxis:
		switch axis := strings.ToUpper(el.Text()); axis {
		case XUp, YUp, ZUp:
			p.asset.UpAxis = axis
		default:
			ctx.Warn("unknown up axis ", el.Text())
		}
	}
	return nil
}

func (p *assetParser) close(doc *Document) {
	if p.top {
		doc.Asset = p.asset
	}
}
