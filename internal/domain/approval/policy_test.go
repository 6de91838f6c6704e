package approval

import (
	"errors"
	"testing"

	"peopleops/internal/domain/auth"
)

func TestCanActOnLeave(t *testing.T) {
	cases := []struct {
		name       string
		role       string
		callerDept string
		ownerDept  string
		want       error
	}{
		{"manager same department", auth.RoleManager, "Engineering", "Engineering", nil},
		{"manager other department", auth.RoleManager, "Engineering", "HR", ErrForbidden},
		{"manager exact match required", auth.RoleManager, "Engineering", "engineering", ErrForbidden},
		{"admin cannot act", auth.RoleAdmin, "Engineering", "Engineering", ErrForbidden},
		{"employee cannot act", auth.RoleEmployee, "Engineering", "Engineering", ErrForbidden},
		{"manager without department", auth.RoleManager, "", "Engineering", ErrNoDepartment},
		{"owner without department", auth.RoleManager, "Engineering", "", ErrForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := CanActOnLeave(tc.role, tc.callerDept, tc.ownerDept)
			if !errors.Is(got, tc.want) && got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestCanActOnOvertime(t *testing.T) {
	cases := []struct {
		name       string
		role       string
		callerDept string
		ownerDept  string
		want       error
	}{
		{"manager same department", auth.RoleManager, "Engineering", "Engineering", nil},
		{"case insensitive match", auth.RoleManager, "engineering", "ENGINEERING", nil},
		{"whitespace trimmed", auth.RoleManager, "  Engineering ", "Engineering", nil},
		{"different department", auth.RoleManager, "Engineering", "HR", ErrForbidden},
		{"admin has no overtime capability", auth.RoleAdmin, "Engineering", "Engineering", ErrForbidden},
		{"employee cannot act", auth.RoleEmployee, "Engineering", "Engineering", ErrForbidden},
		{"missing manager department", auth.RoleManager, "", "Engineering", ErrNoDepartment},
		{"missing owner department", auth.RoleManager, "Engineering", "  ", ErrNoDepartment},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := CanActOnOvertime(tc.role, tc.callerDept, tc.ownerDept)
			if !errors.Is(got, tc.want) && got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestCanListLeave(t *testing.T) {
	if err := CanListLeave(auth.RoleAdmin); err != nil {
		t.Fatalf("admin should list leave: %v", err)
	}
	if err := CanListLeave(auth.RoleManager); err != nil {
		t.Fatalf("manager should list leave: %v", err)
	}
	if err := CanListLeave(auth.RoleEmployee); !errors.Is(err, ErrForbidden) {
		t.Fatalf("employee listing should be forbidden, got %v", err)
	}
}

func TestCanListOvertime(t *testing.T) {
	if err := CanListOvertime(auth.RoleManager); err != nil {
		t.Fatalf("manager should list overtime: %v", err)
	}
	if err := CanListOvertime(auth.RoleAdmin); !errors.Is(err, ErrForbidden) {
		t.Fatalf("admin overtime listing should be forbidden, got %v", err)
	}
}

func TestSameDepartmentOvertime(t *testing.T) {
	if !SameDepartmentOvertime(" sales ", "SALES") {
		t.Fatal("expected tolerant match")
	}
	if SameDepartmentOvertime("", "") {
		t.Fatal("empty departments must not match")
	}
}
