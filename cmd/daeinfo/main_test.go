package main

import (
	"fmt"
	"os"
	"path"
	"testing"
	"time"

	"github.com/rogpeppe/go-internal/testscript"

	"github.com/devblok/koru/utility/kar"
)

func TestMain(m *testing.M) {
	os.Exit(testscript.RunMain(m, map[string]func() int{
		"daeinfo": daeinfo,
		"mkkar":   mkkar,
	}))
}

func TestScripts(t *testing.T) {
	testscript.Run(t, testscript.Params{
		Dir: "testdata/script",
	})
}

// mkkar out.kar dir file... packs files under dir/ into out.kar
func mkkar() int {
	if len(os.Args) < 4 {
		fmt.Fprintln(os.Stderr, "usage: mkkar out.kar dir file...")
		return 2
	}
	builder, err := kar.NewBuilder(kar.Header{
		Author:      "daeinfo",
		DateCreated: time.Now().Unix(),
		Version:     1,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer builder.Close()

	dir := os.Args[2]
	for _, name := range os.Args[3:] {
		f, err := os.Open(name)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		err = builder.Add(path.Join(dir, name), f)
		f.Close()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	}

	out, err := os.Create(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer out.Close()
	if _, err := builder.WriteTo(out); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
