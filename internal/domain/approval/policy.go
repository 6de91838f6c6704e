// Package approval holds the shared admission rules for leave and overtime
// records. Department is the sole scoping dimension for managers, so every
// check resolves the caller's department from the employees table rather
// than trusting anything the client sent.
package approval

import (
	"errors"
	"strings"

	"peopleops/internal/domain/auth"
)

var (
	ErrForbidden    = errors.New("forbidden")
	ErrNoDepartment = errors.New("approver has no department")
)

// CanActOnLeave decides whether the caller may approve or reject a leave
// request owned by an employee in ownerDept. Admins deliberately cannot
// act on leave; they only get the decided-records view.
func CanActOnLeave(callerRole, callerDept, ownerDept string) error {
	if callerRole != auth.RoleManager {
		return ErrForbidden
	}
	if strings.TrimSpace(callerDept) == "" {
		return ErrNoDepartment
	}
	if ownerDept == "" || callerDept != ownerDept {
		return ErrForbidden
	}
	return nil
}

// CanListLeave gates the pending/decided listing. Admins see decided
// records globally, managers see pending records in their department,
// employees are rejected outright.
func CanListLeave(callerRole string) error {
	if callerRole != auth.RoleAdmin && callerRole != auth.RoleManager {
		return ErrForbidden
	}
	return nil
}

// CanActOnOvertime decides overtime approval. Only managers may act, and
// the department comparison tolerates the whitespace and casing drift seen
// in historical records.
func CanActOnOvertime(callerRole, callerDept, ownerDept string) error {
	if callerRole != auth.RoleManager {
		return ErrForbidden
	}
	manager := normalizeDept(callerDept)
	owner := normalizeDept(ownerDept)
	if manager == "" || owner == "" {
		return ErrNoDepartment
	}
	if manager != owner {
		return ErrForbidden
	}
	return nil
}

// CanListOvertime gates the manager-wide overtime listings. Admins have no
// overtime capability in this design.
func CanListOvertime(callerRole string) error {
	if callerRole != auth.RoleManager {
		return ErrForbidden
	}
	return nil
}

// SameDepartmentOvertime reports whether two department strings match under
// overtime's tolerant comparison.
func SameDepartmentOvertime(a, b string) bool {
	return normalizeDept(a) != "" && normalizeDept(a) == normalizeDept(b)
}

func normalizeDept(dept string) string {
	return strings.ToUpper(strings.TrimSpace(dept))
}
