package sectors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoAPIKey is returned by New when no Sectors API key is configured.
var ErrNoAPIKey = errors.New("sectors: API key not configured")

// RemoteRequestError reports a GET that did not produce a usable 200 response:
// a non-200 status, a transport failure or an undecodable body.
type RemoteRequestError struct {
	URL        string
	StatusCode int    // 0 when no response was received
	Body       string // leading bytes of the response body, if any
	Err        error  // transport or decode cause, if any
}

func (e *RemoteRequestError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "sectors: GET %s", e.URL)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": HTTP %d", e.StatusCode)
	}
	if e.Body != "" {
		fmt.Fprintf(&b, ": %s", e.Body)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *RemoteRequestError) Unwrap() error { return e.Err }

// MalformedReportError reports a response whose JSON shape does not match the
// expected report: a missing sub-object, a missing column or a bad value.
type MalformedReportError struct {
	Sector  string // sub-sector or symbol the report belongs to, if known
	Section string // requested report section
	Field   string // dotted path of the offending field
	Detail  string
}

func (e *MalformedReportError) Error() string {
	where := e.Section
	if e.Sector != "" {
		where = e.Sector + "/" + e.Section
	}
	if e.Field != "" {
		return fmt.Sprintf("sectors: malformed %s report: %s: %s", where, e.Field, e.Detail)
	}
	return fmt.Sprintf("sectors: malformed %s report: %s", where, e.Detail)
}

// ValidationError reports an invalid caller-supplied argument. It is raised
// before any network call is made.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// IsRemote reports whether err is (or wraps) a RemoteRequestError.
func IsRemote(err error) bool {
	var re *RemoteRequestError
	return errors.As(err, &re)
}

// IsMalformed reports whether err is (or wraps) a MalformedReportError.
func IsMalformed(err error) bool {
	var me *MalformedReportError
	return errors.As(err, &me)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
