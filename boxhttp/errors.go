package boxhttp

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// maxErrorBodySize bounds how much of an error reply is buffered.
const maxErrorBodySize = 1 << 20

// ResponseError is a non-2xx reply from the API.
type ResponseError struct {
	StatusCode int
	Code       string
	Message    string
	RequestID  string
	Body       []byte
}

// errorBody is the JSON error envelope returned by the API.
type errorBody struct {
	Type      string `json:"type"`
	Status    int    `json:"status"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}

func (e *ResponseError) Error() string {
	msg := fmt.Sprintf("boxhttp: unexpected status %d", e.StatusCode)
	if e.Code != "" {
		msg += " (" + e.Code + ")"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.RequestID != "" {
		msg += " [request_id=" + e.RequestID + "]"
	}
	return msg
}

// CheckResponse returns nil for 2xx responses and a *ResponseError otherwise.
// For error replies the body is buffered and replaced so callers can still read it.
func CheckResponse(resp *http.Response) error {
	if resp == nil {
		return errors.New("boxhttp: response is nil")
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	respErr := &ResponseError{StatusCode: resp.StatusCode}
	if resp.Body != nil {
		data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		_ = resp.Body.Close()
		if err != nil {
			return fmt.Errorf("boxhttp: read error body: %w", err)
		}
		resp.Body = io.NopCloser(bytes.NewReader(data))
		respErr.Body = data

		var envelope errorBody
		if json.Unmarshal(data, &envelope) == nil {
			respErr.Code = envelope.Code
			respErr.Message = envelope.Message
			respErr.RequestID = envelope.RequestID
		}
	}

	return respErr
}

// IsUnauthorized reports whether err is a 401 reply, which is the signal for
// replacing the access token and rerunning the request.
func IsUnauthorized(err error) bool {
	var respErr *ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == http.StatusUnauthorized
}
