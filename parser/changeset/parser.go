// Package changeset parses the changeset metadata document returned by the
// OSM API (/api/0.6/changeset/{id}).
package changeset

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	osm "github.com/omniscale/go-osm"
	osmchangeset "github.com/omniscale/go-osm/parser/changeset"
	"github.com/omniscale/osmwelcome/changeset"
)

// ErrMalformed is returned (wrapped) when the document could not be decoded
// or does not contain a changeset.
var ErrMalformed = errors.New("malformed changeset document")

// ParseMeta reads the first changeset from an <osm> document.
func ParseMeta(ctx context.Context, r io.Reader) (*changeset.Meta, error) {
	changesets := make(chan osm.Changeset)
	parser := osmchangeset.New(r, osmchangeset.Config{Changesets: changesets})

	parseError := make(chan error, 1)
	go func() {
		parseError <- parser.Parse(ctx)
	}()

	var meta *changeset.Meta
	for c := range changesets {
		if meta == nil {
			meta = fromOSM(c)
		}
	}

	if err := <-parseError; err != nil {
		return nil, errors.Wrap(ErrMalformed, err.Error())
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if meta == nil {
		return nil, errors.Wrap(ErrMalformed, "no changeset found")
	}
	return meta, nil
}

// ParseMetaString is ParseMeta for documents that are already in memory.
func ParseMetaString(ctx context.Context, doc string) (*changeset.Meta, error) {
	return ParseMeta(ctx, strings.NewReader(doc))
}

func fromOSM(c osm.Changeset) *changeset.Meta {
	m := &changeset.Meta{
		ID:        strconv.FormatInt(c.ID, 10),
		User:      c.UserName,
		CreatedAt: c.CreatedAt,
		ClosedAt:  c.ClosedAt,
		Open:      c.Open,
		// MaxExtent is minlon, minlat, maxlon, maxlat
		MinLon: c.MaxExtent[0],
		MinLat: c.MaxExtent[1],
		MaxLon: c.MaxExtent[2],
		MaxLat: c.MaxExtent[3],
		Tags:   map[string]string(c.Tags),
	}
	if c.UserID != 0 {
		m.UID = strconv.FormatInt(int64(c.UserID), 10)
	}
	m.Comment = c.Tags["comment"]
	return m
}
