package sqlite

import (
	"strings"
)

// placeholder returns a placeholder for SQLite (uses ?)
func placeholder(n int) string {
	return "?"
}

// placeholders returns n placeholders for SQLite
func placeholders(n int) string {
	list := []string{}
	for i := 0; i < n; i++ {
		list = append(list, placeholder(i+1))
	}
	return strings.Join(list, ", ")
}

// isDuplicateSequence reports whether err is the UNIQUE failure on
// (conversation_id, sequence). SQLite names the columns in the error text,
// which keeps an unrelated uid collision from being misreported.
func isDuplicateSequence(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed: message.conversation_id, message.sequence")
}
