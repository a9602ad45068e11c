package booking

import (
	"context"
	"fmt"
)

// Ledger holds the paired quota arithmetic. It only ever runs inside an InTx
// unit of work with the actor rows already locked FOR UPDATE, so a failed
// reserve leaves no partial mutation behind.
type Ledger struct{}

// Reserve takes one slot from the doctor and, unless the patient is exempt,
// one from the patient. Returns *QuotaError naming the short side without
// touching either counter.
func (Ledger) Reserve(ctx context.Context, s Store, doctor *Doctor, patient *Patient) error {
	if doctor.Remaining <= 0 {
		return &QuotaError{Actor: "doctor"}
	}
	if !patient.Exempt && patient.Remaining <= 0 {
		return &QuotaError{Actor: "patient"}
	}

	if err := s.SetDoctorRemaining(ctx, doctor.ID, doctor.Remaining-1); err != nil {
		return fmt.Errorf("reserve doctor quota: %w", err)
	}
	doctor.Remaining--

	if !patient.Exempt {
		if err := s.SetPatientRemaining(ctx, patient.ID, patient.Remaining-1); err != nil {
			return fmt.Errorf("reserve patient quota: %w", err)
		}
		patient.Remaining--
	}

	return nil
}

// Refund gives the pair of slots back. The doctor side clamps at capacity:
// capacity can legitimately be lowered while bookings exist, and without the
// clamp the counter drifts above capacity forever. Patients carry no stored
// capacity, so their side is unclamped.
func (Ledger) Refund(ctx context.Context, s Store, doctor *Doctor, patient *Patient) error {
	remaining := doctor.Remaining + 1
	if remaining > doctor.Capacity {
		remaining = doctor.Capacity
	}
	if err := s.SetDoctorRemaining(ctx, doctor.ID, remaining); err != nil {
		return fmt.Errorf("refund doctor quota: %w", err)
	}
	doctor.Remaining = remaining

	if !patient.Exempt {
		if err := s.SetPatientRemaining(ctx, patient.ID, patient.Remaining+1); err != nil {
			return fmt.Errorf("refund patient quota: %w", err)
		}
		patient.Remaining++
	}

	return nil
}
