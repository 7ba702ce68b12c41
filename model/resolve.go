package model

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/sirupsen/logrus"

	"github.com/devblok/koru/util/collada"
)

// Resolve joins the libraries of a parsed document into a Scene
func Resolve(doc *collada.Document, opts Options) *Scene {
	log := opts.logger()

	scene := &Scene{
		Asset:                  doc.Asset,
		Root:                   UpAxisRotation(doc.Asset.UpAxis),
		Nodes:                  doc.VisualScene(),
		Controllers:            doc.Controllers,
		Cameras:                doc.Cameras,
		FirstCameraAspectRatio: collada.DefaultAspectRatio,
		Animations:             make(map[string][]Keyframe),
		meshesByNode:           make(map[int][]int),
		skinsByNode:            make(map[int][]int),
	}

	images := loadImages(doc, opts, log)
	scene.Materials = ResolveMaterials(doc.Materials, BuildEffects(doc.Effects, images))

	if len(doc.CameraOrder) > 0 {
		scene.FirstCamera = doc.Cameras[doc.CameraOrder[0]]
		if scene.FirstCamera.AspectRatio > 0 {
			scene.FirstCameraAspectRatio = scene.FirstCamera.AspectRatio
		}
	}

	if scene.Nodes == nil {
		return scene
	}
	if opts.BuildSkeletons {
		scene.Skeletons = BuildSkeletons(scene.Nodes)
	}

	for idx, n := range scene.Nodes.Nodes {
		if opts.BuildMeshes {
			bindMeshes(scene, doc, idx, n, log)
		}
		if opts.BuildMeshes && opts.BuildSkeletons {
			bindSkins(scene, doc, idx, n, log)
		}
	}

	if opts.BuildSkeletons {
		timebase := opts.Timebase
		if timebase == 0 {
			timebase = DefaultTimebase
		}
		for _, id := range doc.AnimationOrder {
			var keys []Keyframe
			for _, s := range scene.Skeletons {
				keys = append(keys, CalculateAnimation(doc.Animations[id], s, timebase)...)
			}
			if len(keys) == 0 {
				log.WithField("animation", id).Warn("animation targets no known joint")
			}
			scene.Animations[id] = keys
			scene.AnimationOrder = append(scene.AnimationOrder, id)
		}
	}

	return scene
}

// UpAxisRotation is the root transform bringing a document's up axis
// into the host's frame.
func UpAxisRotation(axis string) mgl64.Mat4 {
	switch axis {
	case collada.ZUp:
		return mgl64.HomogRotate3DX(math.Pi / 2)
	case collada.YUp:
		return mgl64.HomogRotate3DX(math.Pi)
	}
	return mgl64.Ident4()
}

func loadImages(doc *collada.Document, opts Options, log logrus.FieldLogger) map[string]Image {
	images := make(map[string]Image)
	if opts.Images == nil {
		return images
	}

	ids := make([]string, 0, len(doc.Images))
	for id := range doc.Images {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		path := ResolveImagePath(opts.BaseDir, doc.Images[id])
		img, err := opts.Images.Load(path)
		if err != nil {
			log.WithField("image", id).WithError(err).Warn("failed to load image")
			continue
		}
		images[id] = img
	}
	return images
}

func bindMeshes(scene *Scene, doc *collada.Document, idx int, n *collada.Node, log logrus.FieldLogger) {
	for _, in := range n.Geometries {
		meshes, ok := doc.Geometries[in.URL]
		if !ok {
			log.WithField("node", n.ID).WithField("geometry", in.URL).Warn("unknown geometry")
			continue
		}
		for _, mesh := range meshes {
			scene.meshesByNode[idx] = append(scene.meshesByNode[idx], len(scene.Meshes))
			scene.Meshes = append(scene.Meshes, MeshBinding{
				Node:       idx,
				NodeID:     n.ID,
				GeometryID: in.URL,
				Mesh:       mesh,
				Material:   in.MaterialFor(mesh.Material),
			})
		}
	}
}

func bindSkins(scene *Scene, doc *collada.Document, idx int, n *collada.Node, log logrus.FieldLogger) {
	for _, in := range n.Controllers {
		entry := log.WithField("node", n.ID).WithField("controller", in.URL)

		ctrl, ok := doc.Controllers[in.URL]
		if !ok {
			entry.Warn("unknown controller")
			continue
		}
		skeleton := chooseSkeleton(scene.Skeletons, in, ctrl)
		if skeleton == nil {
			entry.Warn("no skeleton for controller")
			continue
		}
		joints, missing := jointIndices(skeleton, ctrl)
		if missing != "" {
			entry.WithField("joint", missing).Warn("joint not found in skeleton")
			continue
		}

		for _, mesh := range doc.Geometries[ctrl.SkinID] {
			if !weightsFit(ctrl, mesh) {
				entry.Warn("vertex weights don't match the skinned mesh")
				continue
			}
			scene.skinsByNode[idx] = append(scene.skinsByNode[idx], len(scene.Skins))
			scene.Skins = append(scene.Skins, SkinBinding{
				Node:         idx,
				NodeID:       n.ID,
				Controller:   ctrl,
				Skeleton:     skeleton,
				JointIndices: joints,
				Mesh:         mesh,
				Material:     in.MaterialFor(mesh.Material),
			})
		}
	}
}

// chooseSkeleton picks the skeleton a controller instance drives: the one
// holding the instance's <skeleton> root joint, then the one named like
// the controller, then one holding every controller joint.
func chooseSkeleton(skeletons []*Skeleton, in *collada.Instance, ctrl *collada.Controller) *Skeleton {
	for _, ref := range in.Skeletons {
		for _, s := range skeletons {
			if s.ID == ref {
				return s
			}
			if _, ok := s.Lookup(ref); ok {
				return s
			}
		}
	}
	for _, s := range skeletons {
		if ctrl.Name != "" && (s.ID == ctrl.Name || s.Name == ctrl.Name) {
			return s
		}
	}
	for _, s := range skeletons {
		if _, missing := jointIndices(s, ctrl); missing == "" {
			return s
		}
	}
	return nil
}

func jointIndices(s *Skeleton, ctrl *collada.Controller) ([]int, string) {
	indices := make([]int, len(ctrl.JointNames))
	for i, name := range ctrl.JointNames {
		j, ok := s.Lookup(name)
		if !ok {
			return nil, name
		}
		indices[i] = j
	}
	return indices, ""
}

func weightsFit(ctrl *collada.Controller, mesh *collada.Mesh) bool {
	points := len(mesh.Points) / 3
	for _, row := range ctrl.VertexWeights {
		if len(row) != points {
			return false
		}
	}
	return true
}
