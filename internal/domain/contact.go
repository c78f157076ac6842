package domain

import (
	"regexp"
	"strings"
)

// OrderType distinguishes bulk institutional orders from individual ones. The
// two types are mutually exclusive within a single cart.
type OrderType string

const (
	// OrderTypeSchools marks a B2B bulk order placed by an institution.
	OrderTypeSchools OrderType = "schools"
	// OrderTypeStudents marks a B2C order placed by a parent or guardian.
	OrderTypeStudents OrderType = "students"
)

// Valid reports whether the order type is one of the two known values.
func (t OrderType) Valid() bool {
	return t == OrderTypeSchools || t == OrderTypeStudents
}

// Other returns the opposing order type.
func (t OrderType) Other() OrderType {
	if t == OrderTypeSchools {
		return OrderTypeStudents
	}
	return OrderTypeSchools
}

// ContactInfo identifies the ordering party. For school orders Organization is
// the institution name; for student orders it names the school the uniform is
// for and may be left empty.
type ContactInfo struct {
	Organization string `json:"organization" firestore:"organization"`
	Person       string `json:"person" firestore:"person"`
	Email        string `json:"email" firestore:"email"`
	Phone        string `json:"phone" firestore:"phone"`
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateContact checks the contact fields for the given flow and returns
// field-keyed messages. Organization is mandatory only for school orders.
func ValidateContact(contact ContactInfo, flow OrderType) map[string]string {
	errs := make(map[string]string)

	if flow == OrderTypeSchools && strings.TrimSpace(contact.Organization) == "" {
		errs["organization"] = "organization name is required"
	}
	if strings.TrimSpace(contact.Person) == "" {
		errs["person"] = "contact person name is required"
	}
	if !emailPattern.MatchString(strings.TrimSpace(contact.Email)) {
		errs["email"] = "a valid email address is required"
	}
	if len(NormalizePhone(contact.Phone)) < 10 {
		errs["phone"] = "phone number must have at least 10 digits"
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// NormalizePhone strips spaces, dashes, and parentheses, keeping digits and a
// leading plus sign.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for i, r := range strings.TrimSpace(phone) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}
