// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kar

import (
	"bytes"
	"fmt"
	"io"
	"io/ioutil"

	"github.com/pierrec/lz4"
)

// Open opens the kar archived from r. It will also check
// if the file is actually a kar archive, will return an error
// when file incorrect.
func Open(r io.ReaderAt) (*Archive, error) {
	magic := make([]byte, MagicLength)
	if num, err := r.ReadAt(magic, 0); err != nil && err != io.EOF {
		return nil, err
	} else if num < MagicLength || !bytes.Equal(magic, Magic[:]) {
		return nil, ErrFileFormat
	}

	headerSizeBytes := make([]byte, HeaderSizeNumberLength)
	if num, err := r.ReadAt(headerSizeBytes, MagicLength); err != nil && err != io.EOF {
		return nil, err
	} else if num < HeaderSizeNumberLength {
		return nil, ErrFileFormat
	}

	headerSize, err := binaryToint64(headerSizeBytes)
	if err != nil || headerSize <= 0 {
		return nil, ErrFileFormat
	}

	headerBytes := make([]byte, headerSize)
	if num, err := r.ReadAt(headerBytes, MagicLength+HeaderSizeNumberLength); err != nil && err != io.EOF {
		return nil, err
	} else if int64(num) < headerSize {
		return nil, ErrFileFormat
	}

	var header Header
	if err := gobDecode(&header, headerBytes); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrFileFormat, err)
	}

	return &Archive{
		reader:     r,
		header:     header,
		dataOffset: MagicLength + HeaderSizeNumberLength + headerSize,
	}, nil
}

// Archive provides concurrent io for a kar file, and can provide
// an io.Reader for each file separately to perform actions on.
type Archive struct {
	reader     io.ReaderAt
	header     Header
	dataOffset int64
}

// Header returns the archive's header, index included
func (a *Archive) Header() Header {
	return a.header
}

// Names lists the files in the archive in the order they were added
func (a *Archive) Names() []string {
	names := make([]string, len(a.header.Index))
	for i, e := range a.header.Index {
		names[i] = e.Name
	}
	return names
}

// ReadAll returns the entire contents of a file with a given name
func (a *Archive) ReadAll(file string) ([]byte, error) {
	r, err := a.Open(file)
	if err != nil {
		return nil, err
	}
	return ioutil.ReadAll(r)
}

// Open returns a Reader for a file in the Archive
func (a *Archive) Open(name string) (*Reader, error) {
	entry, ok := a.header.Find(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	section := io.NewSectionReader(a.reader, a.dataOffset+entry.Offset, entry.CompressedSize)
	return &Reader{
		Entry:  entry,
		reader: lz4.NewReader(section),
	}, nil
}

// Reader is a reader for a single file in an Archive.
// Abstracts away the location that needs to be known.
type Reader struct {
	Entry IndexEntry

	reader io.Reader
}

// Read reads already decompressed data
func (r *Reader) Read(p []byte) (n int, err error) {
	return r.reader.Read(p)
}
