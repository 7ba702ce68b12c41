package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/davecgh/go-spew/spew"
	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/mmap"

	"github.com/devblok/koru/core"
	"github.com/devblok/koru/model"
	"github.com/devblok/koru/utility/kar"
)

var dumper = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

func main() {
	os.Exit(daeinfo())
}

func daeinfo() int {
	flags := flag.NewFlagSet("daeinfo", flag.ContinueOnError)
	var (
		archive = flags.String("archive", "", "read the document from this kar archive")
		env     = flags.String("env", "", "load configuration from this .env file")
		dump    = flags.Bool("dump", false, "dump cameras and materials")
		verbose = flags.Bool("v", false, "log import progress")
	)
	flags.Usage = func() {
		fmt.Fprintln(flags.Output(), "usage: daeinfo [flags] file.dae")
		flags.PrintDefaults()
	}
	if err := flags.Parse(os.Args[1:]); err != nil {
		return 2
	}
	if flags.NArg() != 1 {
		flags.Usage()
		return 2
	}

	log.SetOutput(os.Stderr)
	log.SetLevel(log.WarnLevel)
	if *verbose {
		log.SetLevel(log.InfoLevel)
	}

	var files []string
	if *env != "" {
		files = append(files, *env)
	}
	cfg, err := core.LoadConfiguration(files...)
	if err != nil {
		log.Error(err)
		return 1
	}

	scene, err := load(*archive, flags.Arg(0), model.OptionsFrom(cfg.Import))
	if err != nil {
		log.Error(err)
		return 1
	}

	summary(os.Stdout, scene)
	if *dump {
		dumper.Fdump(os.Stdout, scene.Asset, scene.FirstCamera, scene.Materials)
	}
	return 0
}

func load(archive, name string, opts model.Options) (*model.Scene, error) {
	if archive == "" {
		return model.ImportFile(name, "", opts)
	}

	r, err := mmap.Open(archive)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	ar, err := kar.Open(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", archive, err)
	}
	return model.ImportArchive(ar, name, opts)
}

func summary(w io.Writer, scene *model.Scene) {
	a := scene.Asset
	fmt.Fprintf(w, "asset: tool=%q up=%s unit=%s(%g)\n", a.AuthoringTool, a.UpAxis, a.UnitName, a.UnitMeter)

	fmt.Fprintf(w, "cameras: %d\n", len(scene.Cameras))
	if cam := scene.FirstCamera; cam != nil {
		axis := "horizontal"
		if cam.VerticalFOV {
			axis = "vertical"
		}
		fmt.Fprintf(w, "  first %s fov=%g %s near=%g far=%g aspect=%.3f\n",
			cam.ID, cam.FieldOfView, axis, cam.NearClip, cam.FarClip, scene.FirstCameraAspectRatio)
	}

	ids := make([]string, 0, len(scene.Materials))
	for id := range scene.Materials {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	fmt.Fprintf(w, "materials: %d\n", len(ids))
	for _, id := range ids {
		m := scene.Materials[id]
		fmt.Fprintf(w, "  %s shading=%s textured=%t\n", id, m.Shading, m.DiffuseMap != nil)
	}

	fmt.Fprintf(w, "meshes: %d\n", len(scene.Meshes))
	for _, b := range scene.Meshes {
		fmt.Fprintf(w, "  %s %s faces=%d material=%s\n", b.NodeID, b.GeometryID, b.Mesh.FaceCount(), b.Material)
	}

	fmt.Fprintf(w, "skins: %d\n", len(scene.Skins))
	for _, b := range scene.Skins {
		fmt.Fprintf(w, "  %s %s joints=%d skeleton=%s\n", b.NodeID, b.Controller.ID, len(b.JointIndices), b.Skeleton.ID)
	}

	fmt.Fprintf(w, "skeletons: %d\n", len(scene.Skeletons))
	for _, s := range scene.Skeletons {
		fmt.Fprintf(w, "  %s joints=%d\n", s.ID, len(s.Joints))
	}

	fmt.Fprintf(w, "animations: %d\n", len(scene.AnimationOrder))
	for _, id := range scene.AnimationOrder {
		fmt.Fprintf(w, "  %s keys=%d\n", id, len(scene.Animations[id]))
	}
}
