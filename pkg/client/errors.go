package client

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/xmlquery"

	"github.com/usestring/splunk-mcp/internal/query"
)

// TransportError is a network failure or an HTTP status the caller did not
// expect. Exactly one of Err and StatusCode/Body describes the failure.
type TransportError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("splunk %s %s: %v", e.Method, e.Path, e.Err)
	}
	msg := fmt.Sprintf("splunk %s %s: unexpected status %d", e.Method, e.Path, e.StatusCode)
	if msgs := e.Messages(); len(msgs) > 0 {
		msg += ": " + strings.Join(msgs, "; ")
	}
	return msg
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Messages returns the error texts Splunk put in the response body.
func (e *TransportError) Messages() []string {
	return ErrorMessages([]byte(e.Body))
}

// AuthError is a failed login or an unusable credential.
type AuthError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *AuthError) Error() string {
	switch {
	case e.Err != nil && e.StatusCode != 0:
		return fmt.Sprintf("splunk authentication failed with status %d: %v", e.StatusCode, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("splunk authentication failed: %v", e.Err)
	}
	msg := fmt.Sprintf("splunk authentication failed with status %d", e.StatusCode)
	if msgs := ErrorMessages([]byte(e.Body)); len(msgs) > 0 {
		msg += ": " + strings.Join(msgs, "; ")
	}
	return msg
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// ParseError reports a response body that is not what Splunk sends, typically
// an HTML page from a proxy in front of the REST port.
type ParseError struct {
	Body string
	// Hint is the title of the HTML page, when the body is one.
	Hint string
	Err  error
}

func (e *ParseError) Error() string {
	msg := "splunk response was not valid JSON"
	if e.Hint != "" {
		msg += fmt.Sprintf(" (received page %q)", e.Hint)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError wraps a decode failure of body.
func NewParseError(body []byte, err error) *ParseError {
	return &ParseError{Body: string(body), Hint: htmlHint(body), Err: err}
}

func htmlHint(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '<' {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(trimmed))
	if err != nil {
		return ""
	}
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	return strings.TrimSpace(doc.Find("h1").First().Text())
}

var messageTexts = query.MustCompile(`.messages[]?.text // empty`)

// ErrorMessages extracts the readable message texts from a Splunk error body.
// Both the JSON ({"messages":[{"text":...}]}) and the XML
// (<response><messages><msg>...</msg></messages></response>) shapes are
// understood. Anything else yields nil.
func ErrorMessages(body []byte) []string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil
	}
	if trimmed[0] == '<' {
		return xmlMessages(trimmed)
	}
	msgs, err := messageTexts.Strings(trimmed)
	if err != nil || len(msgs) == 0 {
		return nil
	}
	return msgs
}

func xmlMessages(body []byte) []string {
	doc, err := xmlquery.Parse(bytes.NewReader(body))
	if err != nil {
		return nil
	}
	var msgs []string
	for _, n := range xmlquery.Find(doc, "//messages/msg") {
		if text := strings.TrimSpace(n.InnerText()); text != "" {
			msgs = append(msgs, text)
		}
	}
	return msgs
}
