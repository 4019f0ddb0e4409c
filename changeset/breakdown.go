package changeset

import (
	"fmt"
	"strings"
)

// Counts holds the number of created, modified and deleted elements of
// a single element type.
type Counts struct {
	Created  int `json:"created"`
	Modified int `json:"modified"`
	Deleted  int `json:"deleted"`
}

func (c Counts) total() int {
	return c.Created + c.Modified + c.Deleted
}

// Breakdown counts changes per element type, indexed by ElementType.
type Breakdown [3]Counts

func (c *Changes) Breakdown() Breakdown {
	var b Breakdown
	for _, e := range c.Created {
		b[e.Type].Created++
	}
	for _, e := range c.Modified {
		b[e.Type].Modified++
	}
	for _, e := range c.Deleted {
		b[e.Type].Deleted++
	}
	return b
}

// Lines returns one line per element type with changes, e.g.
// "nodes: 3 created, 1 deleted".
func (b Breakdown) Lines() []string {
	lines := []string{}
	for i, counts := range b {
		if counts.total() == 0 {
			continue
		}
		parts := []string{}
		if counts.Created > 0 {
			parts = append(parts, fmt.Sprintf("%d created", counts.Created))
		}
		if counts.Modified > 0 {
			parts = append(parts, fmt.Sprintf("%d modified", counts.Modified))
		}
		if counts.Deleted > 0 {
			parts = append(parts, fmt.Sprintf("%d deleted", counts.Deleted))
		}
		lines = append(lines, ElementType(i).String()+"s: "+strings.Join(parts, ", "))
	}
	return lines
}
