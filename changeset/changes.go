// Package changeset contains the in-memory model of a single OSM changeset:
// the elements it created, modified and deleted, and its metadata.
package changeset

import (
	"fmt"

	osm "github.com/omniscale/go-osm"
)

type ElementType int

const (
	Node ElementType = iota
	Way
	Relation
)

var elementTypeNames = [...]string{"node", "way", "relation"}

func (t ElementType) String() string {
	if t < Node || t > Relation {
		return fmt.Sprintf("ElementType(%d)", int(t))
	}
	return elementTypeNames[t]
}

func (t ElementType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// ParseElementType returns the ElementType for an OSM-XML tag name.
func ParseElementType(name string) (ElementType, bool) {
	for i, n := range elementTypeNames {
		if n == name {
			return ElementType(i), true
		}
	}
	return 0, false
}

type Action int

const (
	Create Action = iota
	Modify
	Delete
)

// Actions lists all actions in the order they are presented.
var Actions = []Action{Create, Modify, Delete}

func (a Action) String() string {
	switch a {
	case Create:
		return "create"
	case Modify:
		return "modify"
	case Delete:
		return "delete"
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// Element is a single node, way or relation from a changeset diff.
type Element struct {
	Type ElementType `json:"type"`
	// ID is kept as found in the diff. Placeholder IDs can be negative.
	ID   string   `json:"id"`
	Tags osm.Tags `json:"tags"`
	// NodeRefs is only filled for ways.
	NodeRefs  []string `json:"nodeRefs"`
	User      string   `json:"user,omitempty"`
	Timestamp string   `json:"timestamp,omitempty"`
}

// Changes is the parsed content of a changeset diff. Elements keep the
// document order within each action.
type Changes struct {
	Created  []Element `json:"created"`
	Modified []Element `json:"modified"`
	Deleted  []Element `json:"deleted"`
}

// NewChanges returns Changes with empty (non-nil) sequences.
func NewChanges() *Changes {
	return &Changes{
		Created:  []Element{},
		Modified: []Element{},
		Deleted:  []Element{},
	}
}

// Action returns the elements for action a.
func (c *Changes) Action(a Action) []Element {
	switch a {
	case Create:
		return c.Created
	case Modify:
		return c.Modified
	case Delete:
		return c.Deleted
	}
	return nil
}

// Add appends e to the sequence of action a.
func (c *Changes) Add(a Action, e Element) {
	if e.Tags == nil {
		e.Tags = osm.Tags{}
	}
	if e.NodeRefs == nil || e.Type != Way {
		e.NodeRefs = []string{}
	}
	switch a {
	case Create:
		c.Created = append(c.Created, e)
	case Modify:
		c.Modified = append(c.Modified, e)
	case Delete:
		c.Deleted = append(c.Deleted, e)
	}
}

// Len returns the number of elements over all actions.
func (c *Changes) Len() int {
	return len(c.Created) + len(c.Modified) + len(c.Deleted)
}
