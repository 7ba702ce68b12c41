package collada

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// package errors
var (
	ErrUnsupportedGeometry = errors.New("only triangulated polylist and triangles are supported")
	ErrMissingSource       = errors.New("referenced source not found")
	ErrIndexRange          = errors.New("index out of range")
	ErrNoDocument          = errors.New("no COLLADA root element")
)

// SyntaxError is returned when the content of a known element
// cannot be parsed. It aborts the whole import.
type SyntaxError struct {
	Path string
	Err  error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("collada: %s: %s", e.Path, e.Err)
}

// Unwrap returns the underlying parse error
func (e *SyntaxError) Unwrap() error {
	return e.Err
}

// Element is one open element of the document
type Element struct {
	Tag  Tag
	Name string

	attr []xml.Attr
	text strings.Builder
}

// Attr returns the value of the attribute with the given local name,
// or an empty string if it isn't present.
func (el *Element) Attr(name string) string {
	for _, a := range el.attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

// Text returns the trimmed character data collected so far
func (el *Element) Text() string {
	return strings.TrimSpace(el.text.String())
}

// Context is the stack of currently open elements. Parsers use it to
// find attributes of enclosing elements, e.g. the id of the <source>
// a <float_array> belongs to.
type Context struct {
	stack []*Element
	log   logrus.FieldLogger
}

// Warn logs a message about the current element
func (c *Context) Warn(args ...interface{}) {
	c.log.WithField("path", c.Path()).Warn(args...)
}

func (c *Context) push(el *Element) {
	c.stack = append(c.stack, el)
}

func (c *Context) pop() *Element {
	el := c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
	return el
}

// Current is the innermost open element
func (c *Context) Current() *Element {
	if len(c.stack) == 0 {
		return nil
	}
	return c.stack[len(c.stack)-1]
}

// Depth is the number of open elements
func (c *Context) Depth() int {
	return len(c.stack)
}

// Parent returns the element enclosing the current one
func (c *Context) Parent() *Element {
	if len(c.stack) < 2 {
		return nil
	}
	return c.stack[len(c.stack)-2]
}

// Enclosing returns the nearest open element with the given tag,
// the current element included.
func (c *Context) Enclosing(tag Tag) *Element {
	for i := len(c.stack) - 1; i >= 0; i-- {
		if c.stack[i].Tag == tag {
			return c.stack[i]
		}
	}
	return nil
}

// ID returns the id attribute of the nearest open element with the given tag
func (c *Context) ID(tag Tag) string {
	if el := c.Enclosing(tag); el != nil {
		return el.Attr("id")
	}
	return ""
}

// SID returns the sid attribute of the nearest open element with the given tag
func (c *Context) SID(tag Tag) string {
	if el := c.Enclosing(tag); el != nil {
		return el.Attr("sid")
	}
	return ""
}

// Path renders the open elements as a slash separated path
func (c *Context) Path() string {
	names := make([]string, len(c.stack))
	for i, el := range c.stack {
		names[i] = el.Name
	}
	return "/" + strings.Join(names, "/")
}

func (c *Context) syntaxError(err error) error {
	return &SyntaxError{Path: c.Path(), Err: err}
}

// action tells the router what to do with an element's subtree
type action int

const (
	descend action = iota
	skip
	unknown
)

// libraryParser handles the elements of one library scope
type libraryParser interface {
	start(ctx *Context, el *Element) (action, error)
	end(ctx *Context, el *Element) error
	close(doc *Document)
}

type scope struct {
	parser libraryParser
	depth  int
}

func newLibraryParser(ctx *Context, tag Tag) libraryParser {
	switch tag {
	case TagAsset:
		return newAssetParser(ctx.Depth() == 2)
	case TagScene:
		return &sceneParser{}
	case TagLibraryAnimations:
		return newAnimationsParser()
	case TagLibraryCameras:
		return newCamerasParser()
	case TagLibraryControllers:
		return newControllersParser()
	case TagLibraryEffects:
		return newEffectsParser()
	case TagLibraryGeometries:
		return newGeometriesParser()
	case TagLibraryImages:
		return newImagesParser()
	case TagLibraryLights:
		return &lightsParser{}
	case TagLibraryMaterials:
		return newMaterialsParser()
	case TagLibraryVisualScenes:
		return newVisualScenesParser()
	}
	return nil
}

// Decoder reads a COLLADA document from a stream
type Decoder struct {
	// Log receives warnings about unknown or unsupported content.
	Log logrus.FieldLogger

	r io.Reader
}

// NewDecoder creates a Decoder reading from r, logging to the standard logger
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{
		Log: logrus.StandardLogger(),
		r:   r,
	}
}

// Decode parses the whole stream into a Document. Element start, character
// data and element end events are routed to the parser of the innermost
// open library. Unknown elements are logged and skipped, malformed
// content of known elements returns a *SyntaxError, as does a stream
// without a COLLADA root element.
func (d *Decoder) Decode() (*Document, error) {
	log := d.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	dec := xml.NewDecoder(d.r)
	doc := newDocument()
	ctx := &Context{log: log}
	var scopes []scope
	var root bool

	for {
		token, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("collada: %w", err)
		}

		switch el := token.(type) {
		case xml.StartElement:
			current := &Element{
				Tag:  LookupTag(el.Name.Local),
				Name: el.Name.Local,
				attr: el.Attr,
			}
			ctx.push(current)

			if current.Tag.isLibrary() {
				parser := newLibraryParser(ctx, current.Tag)
				scopes = append(scopes, scope{parser: parser, depth: ctx.Depth()})
				continue
			}

			act := unknown
			if len(scopes) > 0 {
				act, err = scopes[len(scopes)-1].parser.start(ctx, current)
				if err != nil {
					return nil, ctx.syntaxError(err)
				}
			} else if current.Tag == TagCollada && ctx.Depth() == 1 {
				root = true
				act = descend
			}

			switch act {
			case unknown:
				log.WithField("element", current.Name).
					WithField("path", ctx.Path()).
					Warn("unknown element")
				fallthrough
			case skip:
				ctx.pop()
				if err := dec.Skip(); err != nil {
					return nil, fmt.Errorf("collada: %w", err)
				}
			}
		case xml.CharData:
			if current := ctx.Current(); current != nil {
				current.text.Write(el)
			}
		case xml.EndElement:
			if ctx.Depth() == 0 {
				continue
			}
			if n := len(scopes); n > 0 {
				top := scopes[n-1]
				if top.depth == ctx.Depth() {
					top.parser.close(doc)
					scopes = scopes[:n-1]
				} else if err := top.parser.end(ctx, ctx.Current()); err != nil {
					return nil, ctx.syntaxError(err)
				}
			}
			ctx.pop()
		}
	}

	if !root {
		return nil, &SyntaxError{Path: "/", Err: ErrNoDocument}
	}
	return doc, nil
}

// Decode parses a document from r, logging to log (the standard
// logger if nil).
func Decode(r io.Reader, log logrus.FieldLogger) (*Document, error) {
	d := NewDecoder(r)
	if log != nil {
		d.Log = log
	}
	return d.Decode()
}
