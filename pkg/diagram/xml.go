package diagram

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/beevik/etree"

	"github.com/matzehuels/netdiagram/pkg/geometry"
	"github.com/matzehuels/netdiagram/pkg/ids"
	"github.com/matzehuels/netdiagram/pkg/style"
)

// Default size of edge geometry. The editor recomputes the path, so the
// numbers only need to be stable.
const (
	edgeWidth  = 150
	edgeHeight = 50
)

// linkPrefix marks a link attribute as an editor action list.
const linkPrefix = "data:action/json,"

type toggleAction struct {
	Toggle *tagSet `json:"toggle,omitempty"`
	Hide   *tagSet `json:"hide,omitempty"`
}

type tagSet struct {
	Tags []string `json:"tags"`
}

// actionLink encodes the toggle and hide tag lists as a link attribute.
func actionLink(toggle, hide []string) string {
	if toggle == nil {
		toggle = []string{}
	}
	if hide == nil {
		hide = []string{}
	}
	payload := struct {
		Actions []toggleAction `json:"actions"`
	}{Actions: []toggleAction{
		{Toggle: &tagSet{Tags: toggle}},
		{Hide: &tagSet{Tags: hide}},
	}}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// Encoding a struct of string slices cannot fail.
	_ = enc.Encode(payload)
	return linkPrefix + strings.TrimSuffix(buf.String(), "\n")
}

// ParseLink decodes a link attribute written by actionLink and returns its
// toggle and hide tags. ok is false for anything else.
func ParseLink(link string) (toggle, hide []string, ok bool) {
	if !strings.HasPrefix(link, linkPrefix) {
		return nil, nil, false
	}
	var payload struct {
		Actions []toggleAction `json:"actions"`
	}
	if err := json.Unmarshal([]byte(strings.TrimPrefix(link, linkPrefix)), &payload); err != nil {
		return nil, nil, false
	}
	for _, a := range payload.Actions {
		if a.Toggle != nil {
			toggle = append(toggle, a.Toggle.Tags...)
		}
		if a.Hide != nil {
			hide = append(hide, a.Hide.Tags...)
		}
	}
	return toggle, hide, true
}

// userObject starts a <UserObject> carrying custom attributes. Empty values
// are skipped so optional metadata never produces empty attributes.
func userObject(id string, attrs ...string) *etree.Element {
	el := etree.NewElement("UserObject")
	el.CreateAttr("id", ids.ID(id))
	for i := 0; i+1 < len(attrs); i += 2 {
		if attrs[i+1] == "" && attrs[i] != "label" {
			continue
		}
		el.CreateAttr(attrs[i], attrs[i+1])
	}
	return el
}

// vertexCell creates an <mxCell vertex="1"> with style and parent. When id is
// empty the cell is meant to be wrapped by a UserObject that owns the id. A
// nil style (no rule matched) leaves the style attribute out.
func vertexCell(id string, st *style.Style, parent string) *etree.Element {
	el := etree.NewElement("mxCell")
	if id != "" {
		el.CreateAttr("id", ids.ID(id))
	}
	if st != nil {
		el.CreateAttr("style", st.String())
	}
	el.CreateAttr("vertex", "1")
	el.CreateAttr("parent", ids.ID(parent))
	return el
}

// addGeometry appends an absolute <mxGeometry as="geometry"> to cell.
func addGeometry(cell *etree.Element, r geometry.Rect) {
	g := cell.CreateElement("mxGeometry")
	g.CreateAttr("x", geometry.Format(r.X))
	g.CreateAttr("y", geometry.Format(r.Y))
	g.CreateAttr("width", geometry.Format(r.W))
	g.CreateAttr("height", geometry.Format(r.H))
	g.CreateAttr("as", "geometry")
}

// addEdgeGeometry appends the relative geometry used by every edge.
func addEdgeGeometry(cell *etree.Element) *etree.Element {
	g := cell.CreateElement("mxGeometry")
	g.CreateAttr("width", geometry.Format(edgeWidth))
	g.CreateAttr("height", geometry.Format(edgeHeight))
	g.CreateAttr("relative", "1")
	g.CreateAttr("as", "geometry")
	return g
}
