package httpclient

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
	"strings"

	// Packages
	schema "github.com/mutablelogic/go-gallery/pkg/schema"
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
)

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// responseError wraps a failed request as an upload error of the given
// kind, keeping any message the server put in the response body.
func responseError(kind schema.ErrorKind, file string, err error) error {
	if err == nil {
		return nil
	}
	return schema.NewError(kind, file, err, "%s", errorDetail(err))
}

// errorDetail returns the server message for a failed request. A JSON body
// with an "error" or "reason" field, or an object store XML body, supplies
// the message. Otherwise the message is generic and names the status.
func errorDetail(err error) string {
	var response httpresponse.ErrResponse
	if errors.As(err, &response) && response.Reason != "" {
		return response.Reason
	}

	// Non-JSON bodies follow the status text
	var code httpresponse.Err
	if !errors.As(err, &code) {
		return "upload failed"
	}
	status := fmt.Sprintf("%d %s", int(code), http.StatusText(int(code)))
	_, body, _ := strings.Cut(err.Error(), ": ")
	if _, rest, found := strings.Cut(body, status+": "); found {
		body = rest
	}
	return bodyDetail(status, []byte(body))
}

// bodyDetail returns the message in a failed response body. Object stores
// answer with XML, the collaborators with JSON.
func bodyDetail(status string, body []byte) string {
	body = bytes.TrimSpace(body)
	if msg := jsonMessage(body); msg != "" {
		return msg
	}
	if msg := xmlMessage(body); msg != "" {
		return msg
	}
	if status == "" {
		return "upload failed"
	}
	return "upload failed: " + status
}

func jsonMessage(data []byte) string {
	var body struct {
		Error  any    `json:"error"`
		Reason string `json:"reason"`
	}
	if len(data) == 0 || data[0] != '{' {
		return ""
	}
	if err := json.NewDecoder(bytes.NewReader(data)).Decode(&body); err != nil {
		return ""
	}
	switch v := body.Error.(type) {
	case string:
		if v != "" {
			return v
		}
	case map[string]any:
		if msg, ok := v["message"].(string); ok && msg != "" {
			return msg
		}
	}
	return body.Reason
}

func xmlMessage(data []byte) string {
	var body struct {
		Code    string `xml:"Code"`
		Message string `xml:"Message"`
	}
	if len(data) == 0 || data[0] != '<' {
		return ""
	}
	if err := xml.Unmarshal(data, &body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Code
}
