// Package template loads the XML skeleton a diagram is generated into.
//
// A skeleton is a diagram editor document with exactly one
// diagram/mxGraphModel/root element. Generated cells are appended to that
// root in place; everything else in the skeleton (layers, a control panel
// group, legends) is kept verbatim.
package template

import (
	"context"
	"os"
	"strconv"

	"github.com/beevik/etree"

	"github.com/matzehuels/netdiagram/pkg/errors"
	"github.com/matzehuels/netdiagram/pkg/geometry"
	"github.com/matzehuels/netdiagram/pkg/ids"
)

// rootPath locates the cell container below the document element.
const rootPath = "diagram/mxGraphModel/root"

// Document is a parsed skeleton. It is not safe for concurrent use; parse
// one Document per diagram.
type Document struct {
	doc  *etree.Document
	root *etree.Element
}

// Load reads and parses the skeleton at path.
func Load(ctx context.Context, path string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "read template %s", path)
	}
	return Parse(data)
}

// Parse parses skeleton XML.
func Parse(data []byte) (*Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, errors.Wrap(errors.ErrCodeTemplate, err, "parse template")
	}
	top := doc.Root()
	if top == nil {
		return nil, errors.New(errors.ErrCodeTemplate, "template has no document element")
	}
	roots := top.FindElements(rootPath)
	if len(roots) != 1 {
		return nil, errors.New(errors.ErrCodeTemplate, "template must contain exactly one %s element, found %d", rootPath, len(roots))
	}
	return &Document{doc: doc, root: roots[0]}, nil
}

// Root returns the element generated cells are appended to.
func (d *Document) Root() *etree.Element { return d.root }

// Find returns the cell whose id is the mapped key, or nil.
func (d *Document) Find(key string) *etree.Element {
	id := ids.ID(key)
	for _, el := range d.root.ChildElements() {
		if el.SelectAttrValue("id", "") == id {
			return el
		}
	}
	return nil
}

// Geometry returns the geometry of the cell with the given key. UserObject
// wrappers are looked through.
func (d *Document) Geometry(key string) (geometry.Rect, bool) {
	g := d.geometryElement(key)
	if g == nil {
		return geometry.Rect{}, false
	}
	return geometry.Rect{
		X: attrFloat(g, "x"),
		Y: attrFloat(g, "y"),
		W: attrFloat(g, "width"),
		H: attrFloat(g, "height"),
	}, true
}

// SetPosition moves the cell with the given key. It reports whether the
// cell exists.
func (d *Document) SetPosition(key string, p geometry.Position) bool {
	g := d.geometryElement(key)
	if g == nil {
		return false
	}
	g.CreateAttr("x", geometry.Format(p.X))
	g.CreateAttr("y", geometry.Format(p.Y))
	return true
}

func (d *Document) geometryElement(key string) *etree.Element {
	el := d.Find(key)
	if el == nil {
		return nil
	}
	if g := el.FindElement("mxGeometry"); g != nil {
		return g
	}
	return el.FindElement("mxCell/mxGeometry")
}

// Bytes serializes the document. Attribute order is insertion order, so
// identical generation input yields identical bytes.
func (d *Document) Bytes() ([]byte, error) {
	d.doc.Indent(2)
	out, err := d.doc.WriteToBytes()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeTemplate, err, "serialize diagram")
	}
	return out, nil
}

func attrFloat(el *etree.Element, name string) float64 {
	// Malformed numbers in a hand-edited skeleton read as zero.
	v, _ := strconv.ParseFloat(el.SelectAttrValue(name, "0"), 64)
	return v
}
