package waiver

import (
	"time"

	"github.com/fitonboard/backend/pkg/apperrors"
)

// Wizard walks a waiver through its three steps. It is not safe for
// concurrent use.
type Wizard struct {
	Step Step
	Data Data

	now func() time.Time
}

func NewWizard(d Data) *Wizard {
	return &Wizard{Step: StepPersonal, Data: d, now: time.Now}
}

// Next validates the current step and moves forward.
func (w *Wizard) Next() error {
	if w.Step >= StepSignature {
		return apperrors.New(apperrors.CodeStepIncomplete, "already on the last step")
	}
	if err := ValidateStep(w.Step, w.Data, w.now()); err != nil {
		return err
	}
	w.Step++
	return nil
}

func (w *Wizard) Back() {
	if w.Step > StepPersonal {
		w.Step--
	}
}

// Submit signs the waiver. It is only allowed from the signature step and
// re-checks every step, since earlier fields may have changed.
func (w *Wizard) Submit() (Data, error) {
	if w.Step != StepSignature {
		return Data{}, apperrors.New(apperrors.CodeStepIncomplete, "finish the previous steps before signing")
	}
	now := w.now()
	if err := ValidateAll(w.Data, now); err != nil {
		return Data{}, err
	}
	signed := w.Data
	signed.SignedAt = now.UTC().Truncate(time.Second)
	signed.Digest = signed.ComputeDigest()
	w.Data = signed
	return signed, nil
}

// Signed reports whether d carries a valid signature digest.
func (d Data) Signed() bool {
	return !d.SignedAt.IsZero() && d.Digest != "" && d.Digest == d.ComputeDigest()
}
