package booking

import (
	"context"
	"errors"
	"testing"
)

func TestRefundClampsDoctorAtCapacity(t *testing.T) {
	store := NewMemStore()
	store.PutDoctor(Doctor{ID: 1, Capacity: 3, Remaining: 3})
	store.PutPatient(Patient{ID: 10, Remaining: 2})

	var ledger Ledger
	doctor, _ := store.GetDoctor(context.Background(), 1)
	patient, _ := store.GetPatient(context.Background(), 10)

	if err := ledger.Refund(context.Background(), store, doctor, patient); err != nil {
		t.Fatalf("refund: %v", err)
	}

	if doctor.Remaining != 3 {
		t.Errorf("doctor remaining = %d, refund must clamp at capacity 3", doctor.Remaining)
	}
	if got := mustRemaining(t, store, 1); got != 3 {
		t.Errorf("stored doctor remaining = %d, want 3", got)
	}
	// Patient side has no stored capacity and is not clamped.
	if patient.Remaining != 3 {
		t.Errorf("patient remaining = %d, want 3", patient.Remaining)
	}
}

func TestRefundAfterCapacityLowered(t *testing.T) {
	store := NewMemStore()
	// Capacity was lowered from 5 to 2 while bookings existed.
	store.PutDoctor(Doctor{ID: 1, Capacity: 2, Remaining: 2})
	store.PutPatient(Patient{ID: 10, Remaining: 0})

	var ledger Ledger
	doctor, _ := store.GetDoctor(context.Background(), 1)
	patient, _ := store.GetPatient(context.Background(), 10)

	if err := ledger.Refund(context.Background(), store, doctor, patient); err != nil {
		t.Fatalf("refund: %v", err)
	}
	if doctor.Remaining != 2 {
		t.Errorf("doctor remaining = %d, must not exceed lowered capacity", doctor.Remaining)
	}
}

func TestReserveFailsWithoutMutation(t *testing.T) {
	store := NewMemStore()
	store.PutDoctor(Doctor{ID: 1, Capacity: 3, Remaining: 0})
	store.PutPatient(Patient{ID: 10, Remaining: 2})

	var ledger Ledger
	doctor, _ := store.GetDoctor(context.Background(), 1)
	patient, _ := store.GetPatient(context.Background(), 10)

	err := ledger.Reserve(context.Background(), store, doctor, patient)
	var qe *QuotaError
	if !errors.As(err, &qe) {
		t.Fatalf("err = %v, want QuotaError", err)
	}

	if doctor.Remaining != 0 || patient.Remaining != 2 {
		t.Error("failed reserve must not mutate either counter")
	}
	if got := mustPatientRemaining(t, store, 10); got != 2 {
		t.Errorf("stored patient remaining = %d, want 2", got)
	}
}

func TestReserveAndRefundExemptPatient(t *testing.T) {
	store := NewMemStore()
	store.PutDoctor(Doctor{ID: 1, Capacity: 3, Remaining: 3})
	store.PutPatient(Patient{ID: 10, Exempt: true, Remaining: 0})

	var ledger Ledger
	doctor, _ := store.GetDoctor(context.Background(), 1)
	patient, _ := store.GetPatient(context.Background(), 10)

	if err := ledger.Reserve(context.Background(), store, doctor, patient); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if patient.Remaining != 0 {
		t.Errorf("exempt patient remaining = %d, want untouched 0", patient.Remaining)
	}
	if doctor.Remaining != 2 {
		t.Errorf("doctor remaining = %d, want 2", doctor.Remaining)
	}

	if err := ledger.Refund(context.Background(), store, doctor, patient); err != nil {
		t.Fatalf("refund: %v", err)
	}
	if patient.Remaining != 0 {
		t.Errorf("exempt patient remaining = %d after refund, want untouched 0", patient.Remaining)
	}
	if doctor.Remaining != 3 {
		t.Errorf("doctor remaining = %d after refund, want 3", doctor.Remaining)
	}
}
