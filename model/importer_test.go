package model_test

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/pierrec/lz4"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/devblok/koru/core"
	"github.com/devblok/koru/model"
	"github.com/devblok/koru/util/collada"
	"github.com/devblok/koru/utility/kar"
)

func tempDir(c *qt.C, t *testing.T) string {
	dir, err := ioutil.TempDir("", "koru-model")
	c.Assert(err, qt.IsNil)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}

func pngBytes(c *qt.C) []byte {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	c.Assert(png.Encode(&buf, img), qt.IsNil)
	return buf.Bytes()
}

func document(c *qt.C) []byte {
	raw, err := testdata.Find("skinned.dae")
	c.Assert(err, qt.IsNil)
	return raw
}

// writeModel lays out the document and its texture the way an exporter does
func writeModel(c *qt.C, dir string, name string, data []byte) string {
	c.Assert(os.MkdirAll(filepath.Join(dir, "textures"), 0755), qt.IsNil)
	c.Assert(ioutil.WriteFile(filepath.Join(dir, "textures", "skin.png"), pngBytes(c), 0644), qt.IsNil)
	file := filepath.Join(dir, name)
	c.Assert(ioutil.WriteFile(file, data, 0644), qt.IsNil)
	return file
}

func TestOptionsFrom(t *testing.T) {
	c := qt.New(t)

	opts := model.OptionsFrom(core.ImportConfiguration{Timebase: 24, BuildMeshes: true})
	c.Assert(opts.Timebase, qt.Equals, 24.0)
	c.Assert(opts.BuildMeshes, qt.Equals, true)
	c.Assert(opts.BuildSkeletons, qt.Equals, false)
	c.Assert(opts.Images, qt.Not(qt.IsNil))

	def := model.DefaultOptions()
	c.Assert(def.Timebase, qt.Equals, float64(model.DefaultTimebase))
}

func TestImportFile(t *testing.T) {
	c := qt.New(t)
	file := writeModel(c, tempDir(c, t), "skinned.dae", document(c))

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.InfoLevel)
	opts := model.DefaultOptions()
	opts.Log = logger

	scene, err := model.ImportFile(file, "", opts)
	c.Assert(err, qt.IsNil)
	c.Assert(scene.Skins, qt.HasLen, 1)

	diffuse := scene.Materials["Material-material"].DiffuseMap
	img, ok := diffuse.(image.Image)
	c.Assert(ok, qt.Equals, true)
	c.Assert(img.Bounds().Dx(), qt.Equals, 2)

	last := hook.LastEntry()
	c.Assert(last, qt.Not(qt.IsNil))
	c.Assert(strings.HasPrefix(last.Message, "imported "+file), qt.Equals, true)
}

func TestImportFileMissingImage(t *testing.T) {
	c := qt.New(t)
	dir := tempDir(c, t)
	file := filepath.Join(dir, "skinned.dae")
	c.Assert(ioutil.WriteFile(file, document(c), 0644), qt.IsNil)

	logger, hook := test.NewNullLogger()
	opts := model.DefaultOptions()
	opts.Log = logger

	scene, err := model.ImportFile(file, "", opts)
	c.Assert(err, qt.IsNil)
	c.Assert(scene.Materials["Material-material"].DiffuseMap, qt.IsNil)

	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel && e.Data["image"] == "skin_png" {
			warned = true
		}
	}
	c.Assert(warned, qt.Equals, true)
}

func TestImportFileLZ4(t *testing.T) {
	c := qt.New(t)

	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	_, err := w.Write(document(c))
	c.Assert(err, qt.IsNil)
	c.Assert(w.Close(), qt.IsNil)

	file := writeModel(c, tempDir(c, t), "skinned.dae.lz4", buf.Bytes())

	logger, _ := test.NewNullLogger()
	opts := model.DefaultOptions()
	opts.Log = logger

	scene, err := model.ImportFile(file, "", opts)
	c.Assert(err, qt.IsNil)
	c.Assert(scene.Meshes, qt.HasLen, 1)
	c.Assert(scene.Materials["Material-material"].DiffuseMap, qt.Not(qt.IsNil))
}

func TestImportFileErrors(t *testing.T) {
	c := qt.New(t)
	dir := tempDir(c, t)

	logger, _ := test.NewNullLogger()
	opts := model.DefaultOptions()
	opts.Log = logger

	_, err := model.ImportFile(filepath.Join(dir, "missing.dae"), "", opts)
	c.Assert(err, qt.Not(qt.IsNil))

	broken := filepath.Join(dir, "broken.dae")
	data := strings.Replace(string(document(c)), "0 0 0 1 0 0 0 1 0", "0 0 zero 1 0 0 0 1 0", 1)
	c.Assert(ioutil.WriteFile(broken, []byte(data), 0644), qt.IsNil)

	scene, err := model.ImportFile(broken, "", opts)
	c.Assert(scene, qt.IsNil)
	var syntax *collada.SyntaxError
	c.Assert(errors.As(err, &syntax), qt.Equals, true)
	c.Assert(strings.HasSuffix(syntax.Path, "/source/float_array"), qt.Equals, true)

	empty := filepath.Join(dir, "empty.dae")
	c.Assert(ioutil.WriteFile(empty, nil, 0644), qt.IsNil)
	scene, err = model.ImportFile(empty, "", opts)
	c.Assert(scene, qt.IsNil)
	c.Assert(errors.Is(err, collada.ErrNoDocument), qt.Equals, true)
}

func TestImportArchive(t *testing.T) {
	c := qt.New(t)

	builder, err := kar.NewBuilder(kar.Header{
		Author:      "devblok",
		DateCreated: time.Now().Unix(),
		Version:     1,
	})
	c.Assert(err, qt.IsNil)
	defer builder.Close()

	c.Assert(builder.Add("models/skinned.dae", bytes.NewReader(document(c))), qt.IsNil)
	c.Assert(builder.Add("models/textures/skin.png", bytes.NewReader(pngBytes(c))), qt.IsNil)

	var buf bytes.Buffer
	_, err = builder.WriteTo(&buf)
	c.Assert(err, qt.IsNil)

	ar, err := kar.Open(bytes.NewReader(buf.Bytes()))
	c.Assert(err, qt.IsNil)

	logger, _ := test.NewNullLogger()
	opts := model.DefaultOptions()
	opts.Log = logger

	scene, err := model.ImportArchive(ar, "models/skinned.dae", opts)
	c.Assert(err, qt.IsNil)
	c.Assert(scene.Skins, qt.HasLen, 1)
	img, ok := scene.Materials["Material-material"].DiffuseMap.(image.Image)
	c.Assert(ok, qt.Equals, true)
	c.Assert(img.Bounds().Dy(), qt.Equals, 2)

	_, err = model.ImportArchive(ar, "models/missing.dae", opts)
	c.Assert(errors.Is(err, kar.ErrNotFound), qt.Equals, true)
}

func TestFileImageLoader(t *testing.T) {
	c := qt.New(t)
	dir := tempDir(c, t)
	file := filepath.Join(dir, "tex.png")
	c.Assert(ioutil.WriteFile(file, pngBytes(c), 0644), qt.IsNil)

	loader := model.NewFileImageLoader()
	first, err := loader.Load(file)
	c.Assert(err, qt.IsNil)
	second, err := loader.Load(file)
	c.Assert(err, qt.IsNil)
	// decoded once
	c.Assert(second, qt.Equals, first)

	_, err = loader.Load(filepath.Join(dir, "missing.png"))
	c.Assert(err, qt.Not(qt.IsNil))

	text := filepath.Join(dir, "notes.png")
	c.Assert(ioutil.WriteFile(text, []byte("not an image"), 0644), qt.IsNil)
	_, err = loader.Load(text)
	c.Assert(err, qt.Not(qt.IsNil))
}

func TestResolveImagePath(t *testing.T) {
	c := qt.New(t)

	c.Assert(model.ResolveImagePath("models", "textures/my%20skin.png"), qt.Equals,
		filepath.Join("models", "textures", "my skin.png"))
	c.Assert(model.ResolveImagePath("models", "file:///tmp/skin.png"), qt.Equals,
		filepath.FromSlash("/tmp/skin.png"))
	c.Assert(model.ResolveImagePath("", "skin.png"), qt.Equals, "skin.png")
}
