package enums

import "fmt"

// PrincipalKind discriminates the two account spaces that can log in.
type PrincipalKind string

const (
	PrincipalKindNone       PrincipalKind = ""
	PrincipalKindEmployee   PrincipalKind = "employee"
	PrincipalKindContractor PrincipalKind = "contractor"
)

// ParsePrincipalKind converts a token claim into a PrincipalKind.
func ParsePrincipalKind(value string) (PrincipalKind, error) {
	switch PrincipalKind(value) {
	case PrincipalKindEmployee, PrincipalKindContractor:
		return PrincipalKind(value), nil
	}
	return PrincipalKindNone, fmt.Errorf("invalid principal kind %q", value)
}
