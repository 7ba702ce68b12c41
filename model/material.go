package model

import (
	glm "github.com/go-gl/mathgl/mgl32"

	"github.com/devblok/koru/util/collada"
)

// Material is a resolved shading descriptor. Only the diffuse and
// specular channels are carried, either as a color or as an image.
type Material struct {
	ID       string
	Name     string
	EffectID string
	Shading  string

	Diffuse     glm.Vec4
	Specular    glm.Vec4
	DiffuseMap  Image
	SpecularMap Image
	Shininess   float32
}

// Default channel colors when an effect doesn't set one
var (
	DefaultDiffuse  = glm.Vec4{1, 1, 1, 1}
	DefaultSpecular = glm.Vec4{0, 0, 0, 1}
)

// shaded are the shading models whose channels are interpreted
var shaded = map[string]bool{
	"phong":   true,
	"blinn":   true,
	"lambert": true,
}

// BuildEffects turns every effect into a Material keyed by effect id.
// images maps image ids to loaded images; a texture whose chain doesn't
// end in a loaded image is left out.
func BuildEffects(effects map[string]*collada.Effect, images map[string]Image) map[string]*Material {
	built := make(map[string]*Material, len(effects))
	for id, e := range effects {
		m := &Material{
			ID:       id,
			Name:     e.Name,
			EffectID: id,
			Shading:  e.Shading,
			Diffuse:  DefaultDiffuse,
			Specular: DefaultSpecular,
		}
		if shaded[e.Shading] {
			if c, ok := e.Colors[collada.Diffuse]; ok {
				m.Diffuse = c
			}
			if c, ok := e.Colors[collada.Specular]; ok {
				m.Specular = c
			}
			m.DiffuseMap = effectImage(e, collada.Diffuse, images)
			m.SpecularMap = effectImage(e, collada.Specular, images)
			m.Shininess = e.Shininess
		}
		built[id] = m
	}
	return built
}

func effectImage(e *collada.Effect, c collada.Channel, images map[string]Image) Image {
	id, ok := e.Image(c)
	if !ok {
		return nil
	}
	return images[id]
}

// ResolveMaterials joins material ids to the descriptor of the effect
// each material instances.
func ResolveMaterials(materials map[string]*collada.Material, effects map[string]*Material) map[string]*Material {
	resolved := make(map[string]*Material, len(materials))
	for id, mat := range materials {
		effect, ok := effects[mat.Effect]
		if !ok {
			continue
		}
		m := *effect
		m.ID = id
		if mat.Name != "" {
			m.Name = mat.Name
		}
		resolved[id] = &m
	}
	return resolved
}
