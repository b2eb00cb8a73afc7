package waiver

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitonboard/backend/pkg/apperrors"
)

var testNow = time.Date(2026, time.June, 15, 12, 0, 0, 0, time.UTC)

func validWaiver() Data {
	return Data{
		FullName:              "Jordan Lee",
		DateOfBirth:           "1990-04-02",
		Email:                 "jordan@example.com",
		Phone:                 "+1 (555) 010-2000",
		EmergencyContactName:  "Sam Lee",
		EmergencyContactPhone: "555-010-3000",
		AgreedToTerms:         true,
		Signature:             "  jordan   LEE ",
	}
}

func fieldNames(err error) []string {
	var names []string
	for _, f := range apperrors.FieldsOf(err) {
		names = append(names, f.Field)
	}
	return names
}

func TestDefaultIsEmpty(t *testing.T) {
	d := Default()
	assert.False(t, d.HasMedicalFlags())
	assert.Empty(t, d.FlaggedConditions())
	assert.Equal(t, Data{}, d)
}

func TestAge(t *testing.T) {
	tests := []struct {
		dob  string
		want int
	}{
		{"1990-04-02", 36},
		{"1990-06-15", 36},
		{"1990-06-16", 35},
		{"2013-06-15", 13},
		{"2013-06-16", 12},
		{"not-a-date", -1},
	}
	for _, tt := range tests {
		t.Run(tt.dob, func(t *testing.T) {
			assert.Equal(t, tt.want, Data{DateOfBirth: tt.dob}.Age(testNow))
		})
	}
}

func TestFlaggedConditionsFormOrder(t *testing.T) {
	d := Data{RecentSurgery: true, HeartCondition: true, Pregnant: true}
	assert.Equal(t, []string{FlagHeartCondition, FlagPregnant, FlagRecentSurgery}, d.FlaggedConditions())
	assert.True(t, d.HasMedicalFlags())
}

func TestValidatePersonalStep(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Data)
		want   []string
	}{
		{"valid", func(*Data) {}, nil},
		{"short name", func(d *Data) { d.FullName = " J " }, []string{"fullName"}},
		{"missing dob", func(d *Data) { d.DateOfBirth = "" }, []string{"dateOfBirth"}},
		{"bad dob format", func(d *Data) { d.DateOfBirth = "02/04/1990" }, []string{"dateOfBirth"}},
		{"future dob", func(d *Data) { d.DateOfBirth = "2030-01-01" }, []string{"dateOfBirth"}},
		{"too young", func(d *Data) { d.DateOfBirth = "2015-01-01" }, []string{"dateOfBirth"}},
		{"bad email", func(d *Data) { d.Email = "jordan-at-example" }, []string{"email"}},
		{"empty email allowed", func(d *Data) { d.Email = "" }, nil},
		{"short phone", func(d *Data) { d.Phone = "555-12" }, []string{"phone"}},
		{"letters in phone", func(d *Data) { d.Phone = "555-CALL-NOW" }, []string{"phone"}},
		{"missing emergency contact", func(d *Data) {
			d.EmergencyContactName = ""
			d.EmergencyContactPhone = ""
		}, []string{"emergencyContactName", "emergencyContactPhone"}},
		{"long emergency phone", func(d *Data) { d.EmergencyContactPhone = "1234567890123456" }, []string{"emergencyContactPhone"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validWaiver()
			tt.mutate(&d)

			err := ValidateStep(StepPersonal, d, testNow)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrValidation))
			assert.Equal(t, tt.want, fieldNames(err))
		})
	}
}

func TestValidateMedicalStep(t *testing.T) {
	tests := []struct {
		name string
		data Data
		want []string
	}{
		{"no flags", Data{}, nil},
		{"flag without notes or clearance", Data{Dizziness: true}, []string{"medicalNotes", "physicianClearance"}},
		{"flag with notes only", Data{Dizziness: true, MedicalNotes: "vertigo"}, []string{"physicianClearance"}},
		{"flag fully documented", Data{Dizziness: true, MedicalNotes: "vertigo", PhysicianClearance: true}, nil},
		{"pregnancy needs clearance", Data{Pregnant: true, MedicalNotes: "second trimester"}, []string{"physicianClearance"}},
		{"heart condition cleared", Data{HeartCondition: true, MedicalNotes: "murmur", PhysicianClearance: true}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStep(StepMedical, tt.data, testNow)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.want, fieldNames(err))
		})
	}
}

func TestValidateSignatureStep(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Data)
		want   []string
	}{
		{"valid", func(*Data) {}, nil},
		{"terms not agreed", func(d *Data) { d.AgreedToTerms = false }, []string{"agreedToTerms"}},
		{"missing signature", func(d *Data) { d.Signature = "" }, []string{"signature"}},
		{"signature mismatch", func(d *Data) { d.Signature = "Jordan Smith" }, []string{"signature"}},
		{"minor without guardian", func(d *Data) { d.DateOfBirth = "2010-01-01" }, []string{"guardianName"}},
		{"minor with guardian", func(d *Data) {
			d.DateOfBirth = "2010-01-01"
			d.GuardianName = "Sam Lee"
		}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validWaiver()
			tt.mutate(&d)

			err := ValidateStep(StepSignature, d, testNow)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.want, fieldNames(err))
		})
	}
}

func TestValidateUnknownStep(t *testing.T) {
	err := ValidateStep(Step(9), validWaiver(), testNow)
	assert.Equal(t, []string{"step"}, fieldNames(err))
}

func TestComputeDigestIgnoresNameFormatting(t *testing.T) {
	a := validWaiver()
	a.SignedAt = testNow
	b := a
	b.FullName = "JORDAN  lee"
	b.Signature = "jordan lee"

	assert.Equal(t, a.ComputeDigest(), b.ComputeDigest())
	assert.Len(t, a.ComputeDigest(), 64)

	b.Pregnant = true
	assert.NotEqual(t, a.ComputeDigest(), b.ComputeDigest())
}
