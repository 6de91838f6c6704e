package overtime

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUniqueViolation(t *testing.T) {
	violation := &pgconn.PgError{Code: "23505", ConstraintName: "idx_overtime_one_live_per_day"}
	if !isUniqueViolation(violation) {
		t.Fatal("expected unique-violation code to match")
	}
	if !isUniqueViolation(fmt.Errorf("insert: %w", violation)) {
		t.Fatal("expected wrapped unique violation to match")
	}
	if isUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Fatal("foreign-key violation must not map to a duplicate")
	}
	if isUniqueViolation(errors.New("connection reset")) {
		t.Fatal("plain errors must not map to a duplicate")
	}
}
