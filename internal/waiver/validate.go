package waiver

import (
	"net/mail"
	"strings"
	"time"
	"unicode"

	"github.com/fitonboard/backend/pkg/apperrors"
)

const dateLayout = "2006-01-02"

const (
	MinimumAge = 13
	AdultAge   = 18
)

// Step is a wizard page index.
type Step int

const (
	StepPersonal  Step = 1
	StepMedical   Step = 2
	StepSignature Step = 3
)

func (s Step) String() string {
	switch s {
	case StepPersonal:
		return "personal"
	case StepMedical:
		return "medical"
	case StepSignature:
		return "signature"
	default:
		return "unknown"
	}
}

// ValidateStep checks the fields owned by step. It returns nil or an
// apperrors validation error listing every failing field.
func ValidateStep(step Step, d Data, now time.Time) error {
	var fields []apperrors.FieldError
	add := func(field, msg string) {
		fields = append(fields, apperrors.FieldError{Field: field, Message: msg})
	}

	switch step {
	case StepPersonal:
		validatePersonal(d, now, add)
	case StepMedical:
		validateMedical(d, add)
	case StepSignature:
		validateSignature(d, now, add)
	default:
		add("step", "unknown step")
	}

	if len(fields) > 0 {
		return apperrors.Validation(step.String()+" step is incomplete", fields...)
	}
	return nil
}

// ValidateAll runs every step in order and returns the first failure.
func ValidateAll(d Data, now time.Time) error {
	for _, s := range []Step{StepPersonal, StepMedical, StepSignature} {
		if err := ValidateStep(s, d, now); err != nil {
			return err
		}
	}
	return nil
}

func validatePersonal(d Data, now time.Time, add func(string, string)) {
	if len(strings.TrimSpace(d.FullName)) < 2 {
		add("fullName", "full name is required")
	}

	dob, err := time.Parse(dateLayout, strings.TrimSpace(d.DateOfBirth))
	switch {
	case strings.TrimSpace(d.DateOfBirth) == "":
		add("dateOfBirth", "date of birth is required")
	case err != nil:
		add("dateOfBirth", "date of birth must be YYYY-MM-DD")
	case !dob.Before(now):
		add("dateOfBirth", "date of birth must be in the past")
	case d.Age(now) < MinimumAge:
		add("dateOfBirth", "participants must be at least 13 years old")
	}

	if d.Email != "" {
		if _, err := mail.ParseAddress(d.Email); err != nil {
			add("email", "email address is invalid")
		}
	}
	if d.Phone != "" && !validPhone(d.Phone) {
		add("phone", "phone number must have 7 to 15 digits")
	}

	if strings.TrimSpace(d.EmergencyContactName) == "" {
		add("emergencyContactName", "emergency contact name is required")
	}
	switch {
	case strings.TrimSpace(d.EmergencyContactPhone) == "":
		add("emergencyContactPhone", "emergency contact phone is required")
	case !validPhone(d.EmergencyContactPhone):
		add("emergencyContactPhone", "phone number must have 7 to 15 digits")
	}
}

func validateMedical(d Data, add func(string, string)) {
	if !d.HasMedicalFlags() {
		return
	}
	if strings.TrimSpace(d.MedicalNotes) == "" {
		add("medicalNotes", "describe the conditions you flagged")
	}
	if !d.PhysicianClearance {
		switch {
		case d.HeartCondition:
			add("physicianClearance", "a heart condition requires physician clearance")
		case d.Pregnant:
			add("physicianClearance", "pregnancy requires physician clearance")
		default:
			add("physicianClearance", "flagged conditions require physician clearance")
		}
	}
}

func validateSignature(d Data, now time.Time, add func(string, string)) {
	if !d.AgreedToTerms {
		add("agreedToTerms", "you must agree to the terms")
	}
	switch {
	case strings.TrimSpace(d.Signature) == "":
		add("signature", "signature is required")
	case normalizeName(d.Signature) != normalizeName(d.FullName):
		add("signature", "signature must match your full name")
	}
	if age := d.Age(now); age >= 0 && age < AdultAge && strings.TrimSpace(d.GuardianName) == "" {
		add("guardianName", "a parent or guardian must co-sign for minors")
	}
}

func validPhone(s string) bool {
	digits := 0
	for _, r := range s {
		switch {
		case unicode.IsDigit(r):
			digits++
		case r == '+' || r == '-' || r == ' ' || r == '(' || r == ')' || r == '.':
		default:
			return false
		}
	}
	return digits >= 7 && digits <= 15
}
