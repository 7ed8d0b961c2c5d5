package api

import (
	"encoding/json"
	"strings"
)

// envelope is the response shape of the auth endpoints and of error bodies:
// {statusCode, message, data}. message is a string or a list of strings.
type envelope struct {
	StatusCode int             `json:"statusCode"`
	Message    json.RawMessage `json:"message"`
	Data       json.RawMessage `json:"data"`
}

type tokenData struct {
	AccessToken string `json:"access_token"`
}

// messageText flattens the message field; lists are joined with ", "
func (e envelope) messageText() string {
	return decodeMessage(e.Message)
}

// accessToken returns data.access_token, or "" when data has another shape
func (e envelope) accessToken() string {
	if len(e.Data) == 0 {
		return ""
	}
	var td tokenData
	if err := json.Unmarshal(e.Data, &td); err != nil {
		return ""
	}
	return td.AccessToken
}

func decodeMessage(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.Join(list, ", ")
	}

	return strings.Trim(string(raw), `"`)
}

// errorMessage extracts a human message from an error response body,
// falling back to the raw body text
func errorMessage(body []byte) string {
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil {
		if msg := env.messageText(); msg != "" {
			return msg
		}
	}
	return strings.TrimSpace(string(body))
}
