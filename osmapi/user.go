package osmapi

import (
	"context"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// User contains the public details of an OSM account.
type User struct {
	ID             int64     `json:"id"`
	DisplayName    string    `json:"display_name"`
	AccountCreated time.Time `json:"account_created"`
	Description    string    `json:"description"`
	Changesets     int64     `json:"changesets"`
}

// User returns the public details for user uid.
func (c *Client) User(ctx context.Context, uid string) (*User, error) {
	body, err := c.get(ctx, "/user/"+url.PathEscape(uid)+".json", "Failed to fetch user data")
	if err != nil {
		return nil, err
	}
	return parseUser(body)
}

func parseUser(body []byte) (*User, error) {
	if !gjson.ValidBytes(body) {
		return nil, errors.New("invalid user JSON")
	}
	u := gjson.GetBytes(body, "user")
	if !u.IsObject() {
		return nil, errors.New("missing user object")
	}
	user := &User{
		ID:          u.Get("id").Int(),
		DisplayName: u.Get("display_name").String(),
		Description: u.Get("description").String(),
		Changesets:  u.Get("changesets.count").Int(),
	}
	if created := u.Get("account_created").String(); created != "" {
		t, err := time.Parse(time.RFC3339, created)
		if err != nil {
			return nil, errors.Wrap(err, "parsing account_created")
		}
		user.AccountCreated = t
	}
	return user, nil
}

type Link struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

var (
	markdownLink = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	bareURL      = regexp.MustCompile(`https?://[^\s)\]]+`)
)

// Links returns all markdown links of the profile description, followed by
// all bare URLs outside of markdown links.
func (u *User) Links() []Link {
	if u.Description == "" {
		return nil
	}
	var links []Link
	for _, m := range markdownLink.FindAllStringSubmatch(u.Description, -1) {
		links = append(links, Link{Text: m[1], URL: m[2]})
	}
	rest := markdownLink.ReplaceAllString(u.Description, " ")
	for _, m := range bareURL.FindAllString(rest, -1) {
		m = strings.TrimRight(m, ".,;")
		links = append(links, Link{Text: m, URL: m})
	}
	return links
}
