package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// placeholder returns a numbered placeholder for PostgreSQL (uses $1, $2, ...)
func placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

// placeholders returns n placeholders for PostgreSQL
func placeholders(n int) string {
	list := []string{}
	for i := 0; i < n; i++ {
		list = append(list, placeholder(i+1))
	}
	return strings.Join(list, ", ")
}

// isDuplicateSequence reports whether err is the unique_violation on
// (conversation_id, sequence), so a uid collision is not misreported.
func isDuplicateSequence(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505" && pqErr.Constraint == "message_conversation_id_sequence_key"
	}
	return false
}
