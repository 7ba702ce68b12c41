package collada

import "fmt"

// attribute is one resolved input of a primitive
type attribute struct {
	offset int
	source *Source
}

// assemble turns a triangulated primitive into a Mesh. Source arrays are
// copied as they are, only the face index stream is rebuilt: every face
// vertex becomes (position[, normal], texcoord), with texcoord 0 when the
// primitive has no TEXCOORD input.
func assemble(prim *primitive, srcs *sources, vertices map[string][]Input) (*Mesh, error) {
	var position, normal, texcoord *attribute

	lookup := func(id string, offset int) (*attribute, error) {
		src, ok := srcs.get(id)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingSource, id)
		}
		return &attribute{offset: offset, source: src}, nil
	}

	for _, in := range prim.inputs {
		var err error
		switch in.Semantic {
		case "VERTEX":
			inputs, ok := vertices[in.Source]
			if !ok {
				position, err = lookup(in.Source, in.Offset)
				break
			}
			for _, v := range inputs {
				switch v.Semantic {
				case "POSITION":
					position, err = lookup(v.Source, in.Offset)
				case "NORMAL":
					normal, err = lookup(v.Source, in.Offset)
				case "TEXCOORD":
					if texcoord == nil {
						texcoord, err = lookup(v.Source, in.Offset)
					}
				}
				if err != nil {
					break
				}
			}
		case "NORMAL":
			normal, err = lookup(in.Source, in.Offset)
		case "TEXCOORD":
			if texcoord == nil {
				texcoord, err = lookup(in.Source, in.Offset)
			}
		}
		if err != nil {
			return nil, err
		}
	}
	if position == nil {
		return nil, fmt.Errorf("%w: no POSITION input", ErrMissingSource)
	}

	vcount := prim.vcount
	if prim.tag == TagTriangles {
		vcount = make([]int, prim.count)
		for i := range vcount {
			vcount[i] = 3
		}
	}
	corners := 0
	for _, n := range vcount {
		if n != 3 {
			return nil, fmt.Errorf("%w: polygon with %d vertices", ErrUnsupportedGeometry, n)
		}
		corners += n
	}

	stride := Stride(prim.inputs)
	if len(prim.p) < corners*stride {
		return nil, fmt.Errorf("%w: %d indices for %d vertices of stride %d", ErrIndexRange, len(prim.p), corners, stride)
	}

	mesh := &Mesh{
		Points:   toFloat32(position.source.Floats),
		Material: prim.material,
		Format:   PointTexCoord,
	}
	if normal != nil {
		mesh.Normals = toFloat32(normal.source.Floats)
		mesh.Format = PointNormalTexCoord
	}
	if texcoord != nil {
		mesh.TexCoords = texCoords(texcoord.source)
	} else {
		mesh.TexCoords = []float32{0, 0}
	}

	nPoints := int32(len(mesh.Points) / 3)
	nNormals := int32(len(mesh.Normals) / 3)
	nTexCoords := int32(len(mesh.TexCoords) / 2)

	mesh.Faces = make([]int32, 0, corners*mesh.InputCount())
	for v := 0; v < corners; v++ {
		group := prim.p[v*stride : (v+1)*stride]

		pi := int32(group[position.offset])
		if pi < 0 || pi >= nPoints {
			return nil, fmt.Errorf("%w: position %d of %d", ErrIndexRange, pi, nPoints)
		}
		mesh.Faces = append(mesh.Faces, pi)

		if normal != nil {
			ni := int32(group[normal.offset])
			if ni < 0 || ni >= nNormals {
				return nil, fmt.Errorf("%w: normal %d of %d", ErrIndexRange, ni, nNormals)
			}
			mesh.Faces = append(mesh.Faces, ni)
		}

		var ti int32
		if texcoord != nil {
			ti = int32(group[texcoord.offset])
			if ti < 0 || ti >= nTexCoords {
				return nil, fmt.Errorf("%w: texcoord %d of %d", ErrIndexRange, ti, nTexCoords)
			}
		}
		mesh.Faces = append(mesh.Faces, ti)
	}
	return mesh, nil
}

func toFloat32(f []float64) []float32 {
	out := make([]float32, len(f))
	for i, v := range f {
		out[i] = float32(v)
	}
	return out
}

// texCoords keeps the first two components (s, t) of each texture
// coordinate.
func texCoords(src *Source) []float32 {
	if src.Stride <= 2 {
		return toFloat32(src.Floats)
	}
	n := len(src.Floats) / src.Stride
	out := make([]float32, 0, n*2)
	for i := 0; i < n; i++ {
		out = append(out, float32(src.Floats[i*src.Stride]), float32(src.Floats[i*src.Stride+1]))
	}
	return out
}
