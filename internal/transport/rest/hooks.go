package rest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// RequestHook turns the request body into its wire payload. A nil reader
// means the request is sent without a body.
type RequestHook func(req *Request) (body io.Reader, contentType string, err error)

// ResponseHook unwraps a 2xx response into out.
type ResponseHook func(resp *http.Response, out any) error

// EncodeJSON serializes a present body as JSON. Body-less requests pass
// through unchanged.
func EncodeJSON(req *Request) (io.Reader, string, error) {
	if req.Body == nil {
		return nil, "", nil
	}
	data, err := json.Marshal(req.Body)
	if err != nil {
		return nil, "", fmt.Errorf("marshal request body: %w", err)
	}
	return bytes.NewReader(data), "application/json", nil
}

// DecodeJSON decodes the response payload directly into out. An empty body
// leaves out untouched; a nil out discards the body.
func DecodeJSON(resp *http.Response, out any) error {
	if out == nil {
		_, err := io.Copy(io.Discard, resp.Body)
		if err != nil {
			return fmt.Errorf("drain response: %w", err)
		}
		return nil
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
