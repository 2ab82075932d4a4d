package tools

import "regexp"

const (
	InvalidOrderIDMessage = "Please provide a valid order ID (32-character hex)."
	UnclassifiedMessage   = "I'm sorry, I could not classify your request."
	NoFAQMessage          = "No relevant FAQ found."
	noCommentMessage      = "No comment."
	unknownCategory       = "unknown category"
)

var orderIDPattern = regexp.MustCompile(`\b[0-9a-f]{32,}\b`)

// ExtractOrderID returns the first run of 32 or more lower-case hex characters
// bounded by word boundaries.
func ExtractOrderID(query string) (string, bool) {
	id := orderIDPattern.FindString(query)
	return id, id != ""
}
