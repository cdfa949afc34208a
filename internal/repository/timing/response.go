package timing

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tidwall/gjson"
)

// errInvalidJSON is wrapped into a *ParseError for bodies that are not JSON.
var errInvalidJSON = errors.New("invalid JSON")

// classify turns a response into its JSON payload or an error.
//
// A nil payload without error is the "no content" result of a successful
// response with an empty body; such a body is never parsed. Failure statuses
// are reported as *APIError (*NotFoundError for 404) even when the body is
// not JSON.
func classify(resp *Response) (json.RawMessage, error) {
	body := bytes.TrimSpace(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newAPIError(resp, body)
	}

	if len(body) == 0 {
		return nil, nil
	}

	if !gjson.ValidBytes(body) {
		return nil, &ParseError{URL: resp.URL, StatusCode: resp.StatusCode, Err: errInvalidJSON}
	}

	return json.RawMessage(body), nil
}

func newAPIError(resp *Response, body []byte) error {
	apiErr := APIError{
		RequestError: RequestError{
			Message:    resp.StatusText,
			URL:        resp.URL,
			StatusCode: resp.StatusCode,
			StatusText: resp.StatusText,
		},
	}

	if len(body) > 0 && gjson.ValidBytes(body) {
		if msg := gjson.GetBytes(body, "message"); msg.Type == gjson.String && msg.Str != "" {
			apiErr.Message = msg.Str
		}
		apiErr.Errors = fieldErrors(gjson.GetBytes(body, "errors"))
	}

	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}

	if resp.StatusCode == http.StatusNotFound {
		return &NotFoundError{APIError: apiErr}
	}
	return &apiErr
}

// fieldErrors reads validation messages of the form {"field": ["msg", ...]}.
func fieldErrors(errs gjson.Result) map[string][]string {
	if !errs.IsObject() {
		return nil
	}

	out := make(map[string][]string)
	errs.ForEach(func(field, messages gjson.Result) bool {
		if messages.IsArray() {
			for _, m := range messages.Array() {
				out[field.String()] = append(out[field.String()], m.String())
			}
		} else {
			out[field.String()] = append(out[field.String()], messages.String())
		}
		return true
	})
	return out
}
