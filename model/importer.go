package model

import (
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/pierrec/lz4"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/mmap"

	"github.com/devblok/koru/core"
	"github.com/devblok/koru/util/collada"
	"github.com/devblok/koru/utility/kar"
)

// Options control what an import builds
type Options struct {
	// Timebase scales curve time into keyframe time
	Timebase float64

	BuildMeshes    bool
	BuildSkeletons bool

	// Images loads effect textures, nil leaves them out
	Images ImageLoader

	// BaseDir is where relative image paths start from
	BaseDir string

	Log logrus.FieldLogger
}

// DefaultOptions builds everything and loads images from disk
func DefaultOptions() Options {
	return OptionsFrom(core.DefaultConfiguration().Import)
}

// OptionsFrom creates Options out of the import configuration
func OptionsFrom(cfg core.ImportConfiguration) Options {
	return Options{
		Timebase:       cfg.Timebase,
		BuildMeshes:    cfg.BuildMeshes,
		BuildSkeletons: cfg.BuildSkeletons,
		Images:         NewFileImageLoader(),
		Log:            logrus.StandardLogger(),
	}
}

func (o Options) logger() logrus.FieldLogger {
	if o.Log == nil {
		return logrus.StandardLogger()
	}
	return o.Log
}

// Import decodes a document from r and resolves it
func Import(r io.Reader, opts Options) (*Scene, error) {
	doc, err := collada.Decode(r, opts.logger())
	if err != nil {
		return nil, err
	}
	return Resolve(doc, opts), nil
}

// ImportFile imports the document at file. Documents ending in .lz4 are
// decompressed on the fly. Relative image paths are resolved against
// baseDir, the document's directory if empty.
func ImportFile(file, baseDir string, opts Options) (*Scene, error) {
	start := time.Now()

	r, err := mmap.Open(file)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", file, err)
	}
	defer r.Close()

	var src io.Reader = io.NewSectionReader(r, 0, int64(r.Len()))
	if strings.HasSuffix(file, ".lz4") {
		src = lz4.NewReader(src)
	}

	if baseDir == "" {
		baseDir = filepath.Dir(file)
	}
	opts.BaseDir = baseDir

	scene, err := Import(src, opts)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", file, err)
	}
	opts.logger().Infof("imported %s in %s", file, time.Since(start))
	return scene, nil
}

// ImportArchive imports the document stored as name in ar. Images are
// read from the same archive unless opts carries its own loader.
func ImportArchive(ar *kar.Archive, name string, opts Options) (*Scene, error) {
	start := time.Now()

	f, err := ar.Open(name)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", name, err)
	}

	var src io.Reader = f
	if strings.HasSuffix(name, ".lz4") {
		src = lz4.NewReader(src)
	}

	if _, ok := opts.Images.(*FileImageLoader); ok || opts.Images == nil {
		opts.Images = NewArchiveImageLoader(ar)
	}
	if dir := path.Dir(name); dir != "." {
		opts.BaseDir = dir
	} else {
		opts.BaseDir = ""
	}

	scene, err := Import(src, opts)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", name, err)
	}
	opts.logger().Infof("imported %s in %s", name, time.Since(start))
	return scene, nil
}
