// Package waiver implements the liability-waiver wizard: the waiver record,
// per-step validation, the three-step linear flow and debounced drafts.
package waiver

import (
	"encoding/hex"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"
)

// Data is the waiver form. Zero value is the default form.
type Data struct {
	FullName                 string `json:"fullName"`
	DateOfBirth              string `json:"dateOfBirth"`
	Email                    string `json:"email,omitempty"`
	Phone                    string `json:"phone,omitempty"`
	EmergencyContactName     string `json:"emergencyContactName"`
	EmergencyContactPhone    string `json:"emergencyContactPhone"`
	EmergencyContactRelation string `json:"emergencyContactRelation,omitempty"`

	HeartCondition          bool   `json:"heartCondition"`
	ChestPain               bool   `json:"chestPain"`
	Dizziness               bool   `json:"dizziness"`
	BoneJointProblem        bool   `json:"boneJointProblem"`
	BloodPressureMedication bool   `json:"bloodPressureMedication"`
	Pregnant                bool   `json:"pregnant"`
	RecentSurgery           bool   `json:"recentSurgery"`
	OtherMedicalReason      bool   `json:"otherMedicalReason"`
	MedicalNotes            string `json:"medicalNotes,omitempty"`
	PhysicianClearance      bool   `json:"physicianClearance"`

	AgreedToTerms bool      `json:"agreedToTerms"`
	Signature     string    `json:"signature"`
	GuardianName  string    `json:"guardianName,omitempty"`
	SignedAt      time.Time `json:"signedAt,omitempty"`
	Digest        string    `json:"digest,omitempty"`
}

func Default() Data {
	return Data{}
}

// Medical flag names as they appear in workout requests and prompts.
const (
	FlagHeartCondition          = "heart-condition"
	FlagChestPain               = "chest-pain"
	FlagDizziness               = "dizziness"
	FlagBoneJointProblem        = "bone-joint-problem"
	FlagBloodPressureMedication = "blood-pressure-medication"
	FlagPregnant                = "pregnant"
	FlagRecentSurgery           = "recent-surgery"
	FlagOtherMedicalReason      = "other-medical-reason"
)

// FlaggedConditions returns the medical flags that are set, in form order.
func (d Data) FlaggedConditions() []string {
	flags := []struct {
		set  bool
		name string
	}{
		{d.HeartCondition, FlagHeartCondition},
		{d.ChestPain, FlagChestPain},
		{d.Dizziness, FlagDizziness},
		{d.BoneJointProblem, FlagBoneJointProblem},
		{d.BloodPressureMedication, FlagBloodPressureMedication},
		{d.Pregnant, FlagPregnant},
		{d.RecentSurgery, FlagRecentSurgery},
		{d.OtherMedicalReason, FlagOtherMedicalReason},
	}
	var out []string
	for _, f := range flags {
		if f.set {
			out = append(out, f.name)
		}
	}
	return out
}

func (d Data) HasMedicalFlags() bool {
	return len(d.FlaggedConditions()) > 0
}

// Age returns the age in whole years at now, or -1 when the date of birth
// does not parse.
func (d Data) Age(now time.Time) int {
	dob, err := time.Parse(dateLayout, strings.TrimSpace(d.DateOfBirth))
	if err != nil {
		return -1
	}
	years := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		years--
	}
	return years
}

// ComputeDigest fingerprints the fields a signature attests to.
func (d Data) ComputeDigest() string {
	var b strings.Builder
	for _, part := range []string{
		normalizeName(d.FullName),
		d.DateOfBirth,
		normalizeName(d.Signature),
		normalizeName(d.GuardianName),
		strings.Join(d.FlaggedConditions(), ","),
		d.SignedAt.UTC().Format(time.RFC3339),
	} {
		b.WriteString(part)
		b.WriteByte('\x1f')
	}
	sum := blake2b.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

func normalizeName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
