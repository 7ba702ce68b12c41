package collada

// Tag identifies a COLLADA element name. Names are looked up once when the
// element opens; parsers switch on the Tag afterwards.
type Tag int

// Known element names
const (
	TagUnknown Tag = iota
	TagCollada

	// libraries
	TagAsset
	TagScene
	TagLibraryAnimations
	TagLibraryCameras
	TagLibraryControllers
	TagLibraryEffects
	TagLibraryGeometries
	TagLibraryImages
	TagLibraryLights
	TagLibraryMaterials
	TagLibraryVisualScenes

	// asset
	TagContributor
	TagAuthor
	TagAuthoringTool
	TagCreated
	TagModified
	TagUnit
	TagUpAxis

	// shared
	TagSource
	TagFloatArray
	TagNameArray
	TagIDRefArray
	TagTechniqueCommon
	TagTechnique
	TagAccessor
	TagParam
	TagInput
	TagExtra
	TagInitFrom

	// scene
	TagInstanceVisualScene
	TagInstancePhysicsScene
	TagInstanceKinematicsScene

	// cameras
	TagCamera
	TagOptics
	TagPerspective
	TagOrthographic
	TagXFov
	TagYFov
	TagXMag
	TagYMag
	TagAspectRatio
	TagZNear
	TagZFar

	// effects
	TagEffect
	TagProfileCommon
	TagNewParam
	TagSurface
	TagSampler2D
	TagPhong
	TagBlinn
	TagLambert
	TagConstant
	TagAmbient
	TagDiffuse
	TagEmission
	TagSpecular
	TagShininess
	TagReflective
	TagReflectivity
	TagTransparent
	TagTransparency
	TagIndexOfRefraction
	TagColor
	TagFloat
	TagTexture
	TagFormat
	TagMinFilter
	TagMagFilter
	TagMipFilter
	TagWrapS
	TagWrapT

	// materials
	TagMaterial
	TagInstanceEffect

	// images
	TagImage

	// geometries
	TagGeometry
	TagMesh
	TagVertices
	TagPolylist
	TagPolygons
	TagTriangles
	TagVCount
	TagP

	// controllers
	TagController
	TagSkin
	TagBindShapeMatrix
	TagJoints
	TagVertexWeights
	TagV

	// visual scenes
	TagVisualScene
	TagNode
	TagMatrix
	TagTranslate
	TagRotate
	TagScale
	TagLookAt
	TagSkew
	TagInstanceCamera
	TagInstanceGeometry
	TagInstanceController
	TagInstanceLight
	TagInstanceNode
	TagSkeleton
	TagBindMaterial
	TagInstanceMaterial
	TagBindVertexInput

	// animations
	TagAnimation
	TagSampler
	TagChannel
)

var tagNames = map[string]Tag{
	"COLLADA": TagCollada,

	"asset":                 TagAsset,
	"scene":                 TagScene,
	"library_animations":    TagLibraryAnimations,
	"library_cameras":       TagLibraryCameras,
	"library_controllers":   TagLibraryControllers,
	"library_effects":       TagLibraryEffects,
	"library_geometries":    TagLibraryGeometries,
	"library_images":        TagLibraryImages,
	"library_lights":        TagLibraryLights,
	"library_materials":     TagLibraryMaterials,
	"library_visual_scenes": TagLibraryVisualScenes,

	"contributor":    TagContributor,
	"author":         TagAuthor,
	"authoring_tool": TagAuthoringTool,
	"created":        TagCreated,
	"modified":       TagModified,
	"unit":           TagUnit,
	"up_axis":        TagUpAxis,

	"source":           TagSource,
	"float_array":      TagFloatArray,
	"Name_array":       TagNameArray,
	"IDREF_array":      TagIDRefArray,
	"technique_common": TagTechniqueCommon,
	"technique":        TagTechnique,
	"accessor":         TagAccessor,
	"param":            TagParam,
	"input":            TagInput,
	"extra":            TagExtra,
	"init_from":        TagInitFrom,

	"instance_visual_scene":     TagInstanceVisualScene,
	"instance_physics_scene":    TagInstancePhysicsScene,
	"instance_kinematics_scene": TagInstanceKinematicsScene,

	"camera":       TagCamera,
	"optics":       TagOptics,
	"perspective":  TagPerspective,
	"orthographic": TagOrthographic,
	"xfov":         TagXFov,
	"yfov":         TagYFov,
	"xmag":         TagXMag,
	"ymag":         TagYMag,
	"aspect_ratio": TagAspectRatio,
	"znear":        TagZNear,
	"zfar":         TagZFar,

	"effect":              TagEffect,
	"profile_COMMON":      TagProfileCommon,
	"newparam":            TagNewParam,
	"surface":             TagSurface,
	"sampler2D":           TagSampler2D,
	"phong":               TagPhong,
	"blinn":               TagBlinn,
	"lambert":             TagLambert,
	"constant":            TagConstant,
	"ambient":             TagAmbient,
	"diffuse":             TagDiffuse,
	"emission":            TagEmission,
	"specular":            TagSpecular,
	"shininess":           TagShininess,
	"reflective":          TagReflective,
	"reflectivity":        TagReflectivity,
	"transparent":         TagTransparent,
	"transparency":        TagTransparency,
	"index_of_refraction": TagIndexOfRefraction,
	"color":               TagColor,
	"float":               TagFloat,
	"texture":             TagTexture,
	"format":              TagFormat,
	"minfilter":           TagMinFilter,
	"magfilter":           TagMagFilter,
	"mipfilter":           TagMipFilter,
	"wrap_s":              TagWrapS,
	"wrap_t":              TagWrapT,

	"material":        TagMaterial,
	"instance_effect": TagInstanceEffect,

	"image": TagImage,

	"geometry":  TagGeometry,
	"mesh":      TagMesh,
	"vertices":  TagVertices,
	"polylist":  TagPolylist,
	"polygons":  TagPolygons,
	"triangles": TagTriangles,
	"vcount":    TagVCount,
	"p":         TagP,

	"controller":        TagController,
	"skin":              TagSkin,
	"bind_shape_matrix": TagBindShapeMatrix,
	"joints":            TagJoints,
	"vertex_weights":    TagVertexWeights,
	"v":                 TagV,

	"visual_scene":        TagVisualScene,
	"node":                TagNode,
	"matrix":              TagMatrix,
	"translate":           TagTranslate,
	"rotate":              TagRotate,
	"scale":               TagScale,
	"lookat":              TagLookAt,
	"skew":                TagSkew,
	"instance_camera":     TagInstanceCamera,
	"instance_geometry":   TagInstanceGeometry,
	"instance_controller": TagInstanceController,
	"instance_light":      TagInstanceLight,
	"instance_node":       TagInstanceNode,
	"skeleton":            TagSkeleton,
	"bind_material":       TagBindMaterial,
	"instance_material":   TagInstanceMaterial,
	"bind_vertex_input":   TagBindVertexInput,

	"animation": TagAnimation,
	"sampler":   TagSampler,
	"channel":   TagChannel,
}

// LookupTag returns the Tag for an element name, TagUnknown if the
// name is not one the importer knows about.
func LookupTag(name string) Tag {
	if t, ok := tagNames[name]; ok {
		return t
	}
	return TagUnknown
}

// isLibrary reports whether the tag opens a top-level library scope
func (t Tag) isLibrary() bool {
	return t >= TagAsset && t <= TagLibraryVisualScenes
}
