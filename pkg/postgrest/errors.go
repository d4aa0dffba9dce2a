package postgrest

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
)

// Error is the PostgREST error body plus the HTTP status it arrived with.
type Error struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("postgrest: status %d code %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("postgrest: status %d: %s", e.Status, e.Message)
}

// IsUniqueViolation reports whether err is a 409 or a 23505 from the server.
func IsUniqueViolation(err error) bool {
	var pe *Error
	if !errors.As(err, &pe) {
		return false
	}
	return pe.Status == http.StatusConflict || pe.Code == CodeUniqueViolation
}

// IsServerError reports whether the failure lies with the backend rather than the request.
func IsServerError(err error) bool {
	var pe *Error
	if !errors.As(err, &pe) {
		return true
	}
	return pe.Status >= http.StatusInternalServerError || pe.Status == http.StatusTooManyRequests
}

func asError(resp *resty.Response) error {
	if !resp.IsError() {
		return nil
	}

	pe, ok := resp.Error().(*Error)
	if !ok || pe == nil {
		pe = &Error{}
	}
	// HEAD responses carry no body for resty to decode.
	if pe.Code == "" && pe.Message == "" && len(resp.Body()) > 0 {
		_ = json.Unmarshal(resp.Body(), pe)
	}
	pe.Status = resp.StatusCode()
	if pe.Message == "" {
		pe.Message = http.StatusText(pe.Status)
	}
	return pe
}
