// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/mmap"

	"github.com/devblok/koru/utility/kar"
)

func currentUserName() string {
	u, err := user.Current()
	if err != nil || u.Name == "" {
		return "unknown"
	}
	return u.Name
}

func main() {
	os.Exit(karMain())
}

func karMain() int {
	flags := flag.NewFlagSet("kar", flag.ContinueOnError)
	var (
		author   = flags.String("author", currentUserName(), "Set the author of the package when compressing")
		version  = flags.Int64("version", 1, "Archive version number to create it with")
		extract  = flags.String("e", "", "Extract the archive given")
		compress = flags.String("c", "", "Compress the given file/folder")
		list     = flags.String("l", "", "List the files of the archive given")
		dstFile  = flags.String("f", "out.kar", "Destination file, or directory when extracting")
		silent   = flags.Bool("s", false, "Silent")
	)
	if err := flags.Parse(os.Args[1:]); err != nil {
		return 2
	}
	if *silent {
		log.SetLevel(log.WarnLevel)
	}

	ops := 0
	for _, op := range []string{*extract, *compress, *list} {
		if op != "" {
			ops++
		}
	}
	if ops == 0 {
		flags.PrintDefaults()
		return 2
	}
	if ops > 1 {
		log.Error("only one operation at a time")
		return 2
	}

	var err error
	switch {
	case *compress != "":
		err = compressFiles(*compress, *dstFile, kar.Header{
			Author:      *author,
			DateCreated: time.Now().Unix(),
			Version:     *version,
		})
	case *extract != "":
		dst := *dstFile
		if dst == "out.kar" {
			dst = "."
		}
		err = extractFiles(*extract, dst)
	case *list != "":
		err = listFiles(*list)
	}
	if err != nil {
		log.Error(err)
		return 1
	}
	return 0
}

func compressFiles(src, dstFile string, header kar.Header) error {
	if _, err := os.Stat(dstFile); err == nil {
		return errors.New("destination file exists, will not overwrite")
	}

	var filesToCompress []string
	err := filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		filesToCompress = append(filesToCompress, path)
		return nil
	})
	if err != nil {
		return err
	}

	karBuilder, err := kar.NewBuilder(header)
	if err != nil {
		return err
	}
	defer karBuilder.Close()

	for _, ftc := range filesToCompress {
		name, err := filepath.Rel(src, ftc)
		if err != nil {
			return err
		}
		if name == "." {
			name = filepath.Base(ftc)
		}
		f, err := os.Open(ftc)
		if err != nil {
			return err
		}
		err = karBuilder.Add(filepath.ToSlash(name), f)
		f.Close()
		if err != nil {
			return err
		}
	}

	dst, err := os.Create(dstFile)
	if err != nil {
		return err
	}
	n, err := karBuilder.WriteTo(dst)
	if err != nil {
		dst.Close()
		return err
	}
	log.WithField("files", karBuilder.Len()).Infof("wrote %s, %d bytes", dstFile, n)
	return dst.Close()
}

func open(file string) (*mmap.ReaderAt, *kar.Archive, error) {
	r, err := mmap.Open(file)
	if err != nil {
		return nil, nil, err
	}
	ar, err := kar.Open(r)
	if err != nil {
		r.Close()
		return nil, nil, fmt.Errorf("%s: %w", file, err)
	}
	return r, ar, nil
}

func extractFiles(file, dstDir string) error {
	r, ar, err := open(file)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, name := range ar.Names() {
		rel := filepath.Clean(filepath.FromSlash(name))
		if filepath.IsAbs(rel) || strings.HasPrefix(rel, "..") {
			return fmt.Errorf("%s escapes the destination", name)
		}
		if err := extractFile(ar, name, filepath.Join(dstDir, rel)); err != nil {
			return err
		}
	}
	log.Infof("extracted %d files into %s", len(ar.Names()), dstDir)
	return nil
}

func extractFile(ar *kar.Archive, name, dst string) error {
	src, err := ar.Open(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func listFiles(file string) error {
	r, ar, err := open(file)
	if err != nil {
		return err
	}
	defer r.Close()

	h := ar.Header()
	log.Infof("author %s, version %d", h.Author, h.Version)
	for _, e := range h.Index {
		fmt.Printf("%s\t%d\t%d\n", e.Name, e.Size, e.CompressedSize)
	}
	return nil
}
