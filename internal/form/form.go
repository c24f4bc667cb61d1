// Package form defines the wire contract between the settings page and the
// /save endpoint: the URL-encoded request body and the JSON status reply.
package form

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// Field names as they appear in the page and in the request body
const (
	FieldUserName     = "user_name"
	FieldSidekickName = "sidekick_name"
)

// ContentType of a save request
const ContentType = "application/x-www-form-urlencoded"

// Reply statuses
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Form is a snapshot of the two settings inputs
type Form struct {
	UserName     string
	SidekickName string
}

// Values returns the form as url.Values
func (f Form) Values() url.Values {
	return url.Values{
		FieldUserName:     {f.UserName},
		FieldSidekickName: {f.SidekickName},
	}
}

// Encode returns the request body, user_name first
func (f Form) Encode() string {
	// url.Values.Encode sorts keys, which would put sidekick_name first
	return FieldUserName + "=" + url.QueryEscape(f.UserName) +
		"&" + FieldSidekickName + "=" + url.QueryEscape(f.SidekickName)
}

// Decode parses a request body. Fields that are absent take the value from
// defaults; fields that are present but empty stay empty.
func Decode(body string, defaults Form) (Form, error) {
	values, err := url.ParseQuery(strings.TrimSpace(body))
	if err != nil {
		return Form{}, fmt.Errorf("decode form: %w", err)
	}
	return fromValues(values, defaults), nil
}

// fromValues applies defaults for absent fields
func fromValues(values url.Values, defaults Form) Form {
	f := defaults
	if v, ok := values[FieldUserName]; ok && len(v) > 0 {
		f.UserName = v[0]
	}
	if v, ok := values[FieldSidekickName]; ok && len(v) > 0 {
		f.SidekickName = v[0]
	}
	return f
}

// Reply is the JSON body the /save endpoint answers with
type Reply struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// ParseReply decodes a reply body. A body that is not a JSON object is an
// error; a missing status decodes to the empty string.
func ParseReply(body []byte) (Reply, error) {
	var r Reply
	if err := json.Unmarshal(body, &r); err != nil {
		return Reply{}, fmt.Errorf("parse reply: %w", err)
	}
	return r, nil
}

// OK reports whether the reply marks a successful save
func (r Reply) OK() bool {
	return r.Status == StatusSuccess
}
