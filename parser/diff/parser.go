// Package diff parses OSM-XML changeset downloads (osmChange documents)
// into changeset.Changes.
package diff

import (
	"context"
	"encoding/xml"
	"io"
	"strings"

	"github.com/pkg/errors"

	osm "github.com/omniscale/go-osm"
	"github.com/omniscale/osmwelcome/changeset"
)

// ErrMalformed is returned (wrapped) when the input is not a well-formed
// osmChange document.
var ErrMalformed = errors.New("malformed osmChange document")

type change struct {
	action changeset.Action
	elem   changeset.Element
}

// Parse reads an osmChange document from r. Only node, way and relation
// elements that are direct children of a create, modify or delete section
// are returned, in document order within their action. Attribute values
// are kept as found.
func Parse(ctx context.Context, r io.Reader) (*changeset.Changes, error) {
	changes := make(chan change)
	errc := make(chan error, 1)
	go func() {
		defer close(changes)
		errc <- parse(ctx, r, changes)
	}()

	result := changeset.NewChanges()
	for c := range changes {
		result.Add(c.action, c.elem)
	}

	if err := <-errc; err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.Wrap(ErrMalformed, err.Error())
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ParseString is Parse for documents that are already in memory.
func ParseString(ctx context.Context, doc string) (*changeset.Changes, error) {
	return Parse(ctx, strings.NewReader(doc))
}

var sections = map[string]changeset.Action{
	"create": changeset.Create,
	"modify": changeset.Modify,
	"delete": changeset.Delete,
}

func parse(ctx context.Context, r io.Reader, changes chan<- change) error {
	decoder := xml.NewDecoder(r)

	depth := 0
	root := false
	// section is set while inside an action section (depth 2)
	var section *changeset.Action
	// elem is set while inside a node, way or relation (depth 3)
	var elem *changeset.Element

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		token, err := decoder.Token()
		if err == io.EOF {
			if !root {
				return errors.New("no root element")
			}
			return nil
		}
		if err != nil {
			return err
		}

		switch tok := token.(type) {
		case xml.StartElement:
			depth++
			switch {
			case depth == 1:
				root = true
			case depth == 2:
				if a, ok := sections[tok.Name.Local]; ok {
					section = &a
				}
			case depth == 3 && section != nil:
				typ, ok := changeset.ParseElementType(tok.Name.Local)
				if !ok {
					// unknown children are skipped with all their tags
					if err := decoder.Skip(); err != nil {
						return err
					}
					depth--
					continue
				}
				elem = newElement(typ, tok.Attr)
			case elem != nil && tok.Name.Local == "tag":
				k, _ := attr(tok.Attr, "k")
				v, _ := attr(tok.Attr, "v")
				elem.Tags[k] = v
			case elem != nil && depth == 4 && tok.Name.Local == "nd":
				if elem.Type == changeset.Way {
					ref, _ := attr(tok.Attr, "ref")
					elem.NodeRefs = append(elem.NodeRefs, ref)
				}
			}
		case xml.EndElement:
			switch depth {
			case 3:
				if elem != nil {
					select {
					case changes <- change{action: *section, elem: *elem}:
					case <-ctx.Done():
						return ctx.Err()
					}
					elem = nil
				}
			case 2:
				section = nil
			}
			depth--
		}
	}
}

func newElement(typ changeset.ElementType, attrs []xml.Attr) *changeset.Element {
	e := &changeset.Element{Type: typ, Tags: osm.Tags{}, NodeRefs: []string{}}
	e.ID, _ = attr(attrs, "id")
	e.User, _ = attr(attrs, "user")
	e.Timestamp, _ = attr(attrs, "timestamp")
	return e
}

func attr(attrs []xml.Attr, name string) (string, bool) {
	for _, a := range attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}
