// Package prompt turns parsed changeset changes into the instruction text
// sent to the summarization backend.
package prompt

import (
	"encoding/json"
	"strings"

	"github.com/omniscale/osmwelcome/changeset"
)

// Policy controls the wording of the preamble and which elements are
// listed.
type Policy struct {
	// AllowEmoji asks for exactly one emoji. Otherwise emoji are forbidden.
	AllowEmoji bool
	// Signoff is requested at the end of the message, e.g. hashtags.
	Signoff string
	// KeepUntaggedNodes lists nodes without tags. They are usually only
	// geometry of ways and relations and are dropped by default.
	KeepUntaggedNodes bool
}

var (
	// Share asks for a single sentence starting with "I just..." and one emoji.
	Share = Policy{AllowEmoji: true}
	// Celebrate asks for a first-edit announcement without emoji.
	Celebrate = Policy{Signoff: "#osm #firstedit"}

	Default = Share
)

var sections = []struct {
	action changeset.Action
	label  string
}{
	{changeset.Create, "Added"},
	{changeset.Modify, "Modified"},
	{changeset.Delete, "Removed"},
}

// Preamble returns the fixed instruction text for policy p.
func Preamble(p Policy) string {
	var b strings.Builder
	b.WriteString("Please analyze these OpenStreetMap changes and describe them in a friendly, " +
		"first-person statement that would work well for social media sharing. ")
	if p.Signoff != "" {
		b.WriteString(`Start with "I just made my first edit to #OpenStreetMap!". `)
	} else {
		b.WriteString(`Start with "I just..." and focus on the impact. Keep it to one sentence. `)
	}
	b.WriteString("Be specific about what was changed. ")
	if p.Signoff != "" {
		b.WriteString("End with " + p.Signoff + ". ")
	}
	if p.AllowEmoji {
		b.WriteString("Include exactly one relevant emoji. ")
	} else {
		b.WriteString("Do not use any emoji. ")
	}
	b.WriteString("Your response should be just the message.\n\n")
	return b.String()
}

// Build returns the prompt for changes. The output only depends on changes
// and p.
func Build(changes *changeset.Changes, p Policy) string {
	var b strings.Builder
	b.WriteString(Preamble(p))

	for _, s := range sections {
		elems := filter(changes.Action(s.action), p)
		if len(elems) == 0 {
			continue
		}
		b.WriteString("\n" + s.label + ":\n")
		for _, e := range elems {
			b.WriteString("- ")
			b.WriteString(e.Type.String())
			b.WriteString(" ")
			b.WriteString(e.ID)
			b.WriteString(" with tags: ")
			b.WriteString(formatTags(e.Tags))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func filter(elems []changeset.Element, p Policy) []changeset.Element {
	if p.KeepUntaggedNodes {
		return elems
	}
	result := make([]changeset.Element, 0, len(elems))
	for _, e := range elems {
		if e.Type == changeset.Node && len(e.Tags) == 0 {
			continue
		}
		result = append(result, e)
	}
	return result
}

// formatTags returns tags as a JSON object. encoding/json sorts map keys.
func formatTags(tags map[string]string) string {
	if len(tags) == 0 {
		return "{}"
	}
	buf, err := json.Marshal(tags)
	if err != nil {
		// string maps always marshal
		panic(err)
	}
	return string(buf)
}
