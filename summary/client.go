// Package summary requests changeset summaries from the summarization
// backend and classifies its responses.
package summary

import (
	"bytes"
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/omniscale/osmwelcome/log"
	"github.com/omniscale/osmwelcome/osmapi"
)

const DefaultBaseURL = "http://localhost:5000/api"

// NotEligibleStatus is the status the backend uses to signal that a
// changeset is not the first edit of its author.
const NotEligibleStatus = http.StatusForbidden

type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  osmapi.NewHTTPClient(),
	}
}

// SetHTTPClient replaces the underlying http.Client.
func (c *Client) SetHTTPClient(client *http.Client) {
	c.client = client
}

type request struct {
	ChangesetID string `json:"changeset_id"`
	Prompt      string `json:"prompt"`
}

// RequestSummary sends a single summarize request. It does not retry.
func (c *Client) RequestSummary(ctx context.Context, changesetID, prompt string) Outcome {
	body, err := json.Marshal(request{ChangesetID: changesetID, Prompt: prompt})
	if err != nil {
		return failed(err.Error(), 0)
	}
	req, err := http.NewRequest("POST", c.baseURL+"/summarize", bytes.NewReader(body))
	if err != nil {
		return failed(err.Error(), 0)
	}
	req = req.WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		log.Printf("[debug] summarize request for %s: %s", changesetID, err)
		return failed("network error", 0)
	}
	defer resp.Body.Close()

	respBody, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		log.Printf("[debug] reading summarize response for %s: %s", changesetID, err)
		return failed("network error", resp.StatusCode)
	}
	return classify(resp.StatusCode, respBody)
}

func classify(status int, body []byte) Outcome {
	if status == NotEligibleStatus {
		return Outcome{Kind: NotEligible}
	}
	if !gjson.ValidBytes(body) {
		return failed("Invalid JSON response: "+truncate(string(body), 100)+"...", status)
	}
	if status < 200 || status > 299 {
		msg := gjson.GetBytes(body, "error").String()
		if msg == "" {
			msg = gjson.GetBytes(body, "details").String()
		}
		if msg == "" {
			msg = "API error"
		}
		return failed(msg, status)
	}
	s := gjson.GetBytes(body, "summary")
	if s.Type != gjson.String || s.Str == "" {
		return failed("empty summary", status)
	}
	return produced(s.Str, gjson.GetBytes(body, "cached").Bool())
}

// truncate returns the first n runes of s.
func truncate(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
