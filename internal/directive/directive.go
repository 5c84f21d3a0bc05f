// Package directive extracts control directives that the assistant embeds
// inline in its replies.
//
// Two forms are recognised anywhere in the text:
//
//	{"navigate": "/services"}
//	{"action": "start_booking"}
//
// The first occurrence of each is removed from the displayed text. Anything
// that does not match the exact form is left alone.
package directive

import (
	"regexp"
	"strings"
)

// ActionStartBooking switches the widget into the booking flow.
const ActionStartBooking = "start_booking"

var (
	navigatePattern = regexp.MustCompile(`\{"navigate":\s*"([^"]+)"\}`)
	actionPattern   = regexp.MustCompile(`\{"action":\s*"([^"]+)"\}`)
)

// Result is the outcome of parsing one assistant reply.
type Result struct {
	CleanText string
	Navigate  string
	Action    string
}

// HasNavigate reports whether a navigation directive was found.
func (r Result) HasNavigate() bool { return r.Navigate != "" }

// HasAction reports whether an action directive was found.
func (r Result) HasAction() bool { return r.Action != "" }

// Parse strips directives out of text.
func Parse(text string) Result {
	res := Result{CleanText: text}

	if m := navigatePattern.FindStringSubmatch(text); m != nil {
		res.Navigate = m[1]
		res.CleanText = strings.TrimSpace(strings.Replace(res.CleanText, m[0], "", 1))
	}

	if m := actionPattern.FindStringSubmatch(text); m != nil {
		res.Action = m[1]
		res.CleanText = strings.TrimSpace(strings.Replace(res.CleanText, m[0], "", 1))
	}

	return res
}
