package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	glm "github.com/go-gl/mathgl/mgl32"
	log "github.com/sirupsen/logrus"

	"github.com/devblok/koru/core"
	"github.com/devblok/koru/model"
	"github.com/devblok/koru/skinning"
)

func main() {
	os.Exit(koru())
}

func koru() int {
	flags := flag.NewFlagSet("koru", flag.ContinueOnError)
	var (
		env       = flags.String("env", "", "load configuration from this .env file")
		animation = flags.String("animation", "", "animation to play, the first one if empty")
		seek      = flags.Duration("seek", 0, "start playing this far into the animation")
		duration  = flags.Duration("duration", time.Second, "how long to play")
		loop      = flags.Bool("loop", false, "restart the animation when it ends")
	)
	flags.Usage = func() {
		fmt.Fprintln(flags.Output(), "usage: koru [flags] file.dae")
		flags.PrintDefaults()
	}
	if err := flags.Parse(os.Args[1:]); err != nil {
		return 2
	}
	if flags.NArg() != 1 {
		flags.Usage()
		return 2
	}

	var files []string
	if *env != "" {
		files = append(files, *env)
	}
	configuration, err := core.LoadConfiguration(files...)
	if err != nil {
		log.Error(err)
		return 1
	}

	opts := model.OptionsFrom(configuration.Import)
	scene, err := model.ImportFile(flags.Arg(0), "", opts)
	if err != nil {
		log.Error(err)
		return 1
	}

	var (
		meshes []*skinning.Mesh
		names  []string
	)
	for i := range scene.Skins {
		b := &scene.Skins[i]
		m, err := skinning.New(b)
		if err != nil {
			log.WithField("node", b.NodeID).Warn(err)
			continue
		}
		meshes = append(meshes, m)
		names = append(names, b.NodeID+" "+b.Controller.ID)
	}

	timer := skinning.NewTimer(configuration, meshes...)
	defer timer.Close()
	timer.Loop = *loop

	if tl, s := pick(scene, *animation); tl != nil {
		timer.Play(tl, s)
		log.WithField("animation", tl.ID).Infof("playing %s on %s", time.Duration(tl.Duration()/configuration.Import.Timebase*float64(time.Second)), s.ID)
	} else if *animation != "" {
		log.Errorf("no animation %s", *animation)
		return 1
	}

	timer.Start()
	timer.Tick(*seek)

	if *duration > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), *duration)
		defer cancel()
		ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
		defer stop()

		timer.Run(ctx)
		log.Info("Event loop exited")
	}
	timer.Stop()

	fmt.Printf("clock=%g\n", timer.Clock())
	for i, m := range meshes {
		min, max := bounds(m.Points())
		fmt.Printf("%s min=%v max=%v\n", names[i], min, max)
	}
	return 0
}

// pick finds the animation to play and the skeleton it animates
func pick(scene *model.Scene, id string) (*model.Timeline, *model.Skeleton) {
	for _, candidate := range scene.AnimationOrder {
		if id != "" && candidate != id {
			continue
		}
		tl, ok := scene.Timeline(candidate)
		if !ok {
			continue
		}
		for _, joint := range tl.Joints() {
			for _, s := range scene.Skeletons {
				if _, ok := s.Lookup(joint); ok {
					return tl, s
				}
			}
		}
	}
	return nil, nil
}

func bounds(points []float32) (min, max glm.Vec3) {
	for i := 0; i+2 < len(points); i += 3 {
		p := glm.Vec3{points[i], points[i+1], points[i+2]}
		for k := range p {
			if i == 0 || p[k] < min[k] {
				min[k] = p[k]
			}
			if i == 0 || p[k] > max[k] {
				max[k] = p[k]
			}
		}
	}
	return min, max
}
