// Package render displays welcome results as plain text or JSON views.
package render

import (
	"encoding/json"
	"net/url"
)

type Tool struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

// ChangesetTools returns links to third-party tools for changeset id.
func ChangesetTools(id string) []Tool {
	return []Tool{
		{"OpenStreetMap", "https://www.openstreetmap.org/changeset/" + id, "View in main OpenStreetMap website"},
		{"OSMCha", "https://osmcha.org/changesets/" + id, "Detailed validation and analysis"},
		{"Achavi", "https://overpass-api.de/achavi/?changeset=" + id, "Visual comparison of changes"},
		{"OSM Changes Map", "https://osmlab.github.io/changeset-map/#" + id, "A visual representation of your changeset"},
	}
}

// UserTools returns links to statistics and profile pages of user.
func UserTools(user string) []Tool {
	return []Tool{
		{"How Did You Contribute?", "https://hdyc.neis-one.org/?" + url.PathEscape(user), "Your detailed mapping statistics"},
		{"Your Changesets", OSMChaUserURL(user), "Browse all your changesets in OSMCha"},
		{"Your OSM Profile", "https://www.openstreetmap.org/user/" + url.PathEscape(user), "Your OpenStreetMap profile page"},
	}
}

// OSMChaUserURL returns an OSMCha changeset list filtered by user.
func OSMChaUserURL(user string) string {
	type label struct {
		Label string `json:"label"`
		Value string `json:"value"`
	}
	filter, _ := json.Marshal(struct {
		Users []label `json:"users"`
	}{[]label{{user, user}}})
	return "https://osmcha.org/changesets?filters=" + url.QueryEscape(string(filter))
}

type ShareLinks struct {
	Mastodon string `json:"mastodon"`
	Telegram string `json:"telegram"`
}

// Share returns links to share summary together with pageURL.
func Share(summary, pageURL string) ShareLinks {
	text := url.QueryEscape(summary)
	page := url.QueryEscape(pageURL)
	return ShareLinks{
		Mastodon: "https://openstreetmap.social/share?text=" + text + "&url=" + page,
		Telegram: "https://t.me/share/url?url=" + page + "&text=" + text,
	}
}
