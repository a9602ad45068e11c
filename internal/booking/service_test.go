package booking

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/wellnest/clinic-backend/internal/redisclient"
)

// keyedLocker is an in-process Locker. It blocks instead of failing fast,
// which lets concurrency tests drive real contention without Redis.
type keyedLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedLocker() *keyedLocker {
	return &keyedLocker{locks: make(map[string]*sync.Mutex)}
}

func (l *keyedLocker) get(key string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	return m
}

func (l *keyedLocker) WithActorLocks(ctx context.Context, keys []string, fn func(ctx context.Context) error) error {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)

	var held []*sync.Mutex
	var prev string
	for i, k := range sorted {
		if i > 0 && k == prev {
			continue
		}
		prev = k
		m := l.get(k)
		m.Lock()
		held = append(held, m)
	}
	defer func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}()

	return fn(ctx)
}

// busyLocker refuses every acquisition.
type busyLocker struct{}

func (busyLocker) WithActorLocks(ctx context.Context, keys []string, fn func(ctx context.Context) error) error {
	return redisclient.ErrLockNotAcquired
}

func newTestService(store *MemStore) *Service {
	return NewService(store, newKeyedLocker(), zerolog.Nop())
}

func seedClinic(store *MemStore) {
	store.PutDoctor(Doctor{ID: 1, Region: "Algiers", SpecialityID: 1, Capacity: 5, Remaining: 5})
	store.PutDoctor(Doctor{ID: 2, Region: "Oran", SpecialityID: 1, Capacity: 3, Remaining: 3})
	store.PutPatient(Patient{ID: 10, Region: "Algiers", Remaining: 3})
	store.PutPatient(Patient{ID: 11, Region: "Algiers", Remaining: 2})
	store.PutService(MedicalService{ID: 100, DoctorID: 1, Name: "Consultation", Duration: 30 * time.Minute})
	store.PutService(MedicalService{ID: 200, DoctorID: 2, Name: "Consultation", Duration: 30 * time.Minute})
}

func validRequest() BookingRequest {
	return BookingRequest{
		DoctorID:  1,
		ServiceID: 100,
		At:        time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC),
	}
}

func mustRemaining(t *testing.T, store *MemStore, doctorID int64) int {
	t.Helper()
	d, err := store.GetDoctor(context.Background(), doctorID)
	if err != nil {
		t.Fatalf("get doctor %d: %v", doctorID, err)
	}
	return d.Remaining
}

func mustPatientRemaining(t *testing.T, store *MemStore, patientID int64) int {
	t.Helper()
	p, err := store.GetPatient(context.Background(), patientID)
	if err != nil {
		t.Fatalf("get patient %d: %v", patientID, err)
	}
	return p.Remaining
}

func hasEvent(events []BookingEvent, eventType string) bool {
	for _, ev := range events {
		if ev.EventType == eventType {
			return true
		}
	}
	return false
}

func TestBookReservesQuotaPair(t *testing.T) {
	store := NewMemStore()
	seedClinic(store)
	svc := newTestService(store)

	appt, err := svc.Book(context.Background(), 10, validRequest())
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	if appt.ID == 0 {
		t.Error("appointment should have an assigned ID")
	}
	if appt.DoctorID != 1 || appt.PatientID != 10 {
		t.Errorf("appointment actors = doctor %d patient %d, want 1/10", appt.DoctorID, appt.PatientID)
	}

	if got := mustRemaining(t, store, 1); got != 4 {
		t.Errorf("doctor remaining = %d, want 4", got)
	}
	if got := mustPatientRemaining(t, store, 10); got != 2 {
		t.Errorf("patient remaining = %d, want 2", got)
	}
	if !hasEvent(store.Events(), EventBooked) {
		t.Error("booked event not recorded")
	}
}

func TestBookExemptPatientBypassesQuota(t *testing.T) {
	store := NewMemStore()
	seedClinic(store)
	store.PutPatient(Patient{ID: 12, Region: "Algiers", Exempt: true, Remaining: 0})
	svc := newTestService(store)

	if _, err := svc.Book(context.Background(), 12, validRequest()); err != nil {
		t.Fatalf("exempt patient with zero quota should book: %v", err)
	}

	if got := mustPatientRemaining(t, store, 12); got != 0 {
		t.Errorf("exempt patient remaining = %d, want untouched 0", got)
	}
	if got := mustRemaining(t, store, 1); got != 4 {
		t.Errorf("doctor remaining = %d, doctor side still consumes quota", got)
	}
}

func TestBookDoctorQuotaExhausted(t *testing.T) {
	store := NewMemStore()
	seedClinic(store)
	store.PutDoctor(Doctor{ID: 1, Capacity: 5, Remaining: 0})
	svc := newTestService(store)

	_, err := svc.Book(context.Background(), 10, validRequest())
	var qe *QuotaError
	if !errors.As(err, &qe) {
		t.Fatalf("err = %v, want QuotaError", err)
	}
	if qe.Actor != "doctor" {
		t.Errorf("exhausted actor = %q, want doctor", qe.Actor)
	}

	if got := mustPatientRemaining(t, store, 10); got != 3 {
		t.Errorf("patient remaining = %d, failed book must not consume patient quota", got)
	}
}

func TestBookPatientQuotaExhausted(t *testing.T) {
	store := NewMemStore()
	seedClinic(store)
	store.PutPatient(Patient{ID: 10, Remaining: 0})
	svc := newTestService(store)

	_, err := svc.Book(context.Background(), 10, validRequest())
	var qe *QuotaError
	if !errors.As(err, &qe) {
		t.Fatalf("err = %v, want QuotaError", err)
	}
	if qe.Actor != "patient" {
		t.Errorf("exhausted actor = %q, want patient", qe.Actor)
	}

	// The doctor decrement in the same transaction must have rolled back.
	if got := mustRemaining(t, store, 1); got != 5 {
		t.Errorf("doctor remaining = %d, want 5 after rollback", got)
	}
}

func TestBookValidationRollsBackReservation(t *testing.T) {
	store := NewMemStore()
	seedClinic(store)
	svc := newTestService(store)

	req := validRequest()
	req.ServiceID = 200 // belongs to doctor 2

	_, err := svc.Book(context.Background(), 10, req)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if ve.Field != "service_id" {
		t.Errorf("failed field = %q, want service_id", ve.Field)
	}

	if got := mustRemaining(t, store, 1); got != 5 {
		t.Errorf("doctor remaining = %d, reservation must roll back on validation failure", got)
	}
	if got := mustPatientRemaining(t, store, 10); got != 3 {
		t.Errorf("patient remaining = %d, reservation must roll back on validation failure", got)
	}
	if len(store.Events()) != 0 {
		t.Error("no events should survive a rolled-back booking")
	}
}

func TestBookMissingTimestamp(t *testing.T) {
	store := NewMemStore()
	seedClinic(store)
	svc := newTestService(store)

	req := validRequest()
	req.At = time.Time{}

	_, err := svc.Book(context.Background(), 10, req)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if ve.Field != "at" {
		t.Errorf("failed field = %q, want at", ve.Field)
	}
}

func TestBookUnknownDoctor(t *testing.T) {
	store := NewMemStore()
	seedClinic(store)
	svc := newTestService(store)

	req := validRequest()
	req.DoctorID = 999

	if _, err := svc.Book(context.Background(), 10, req); !errors.Is(err, ErrDoctorNotFound) {
		t.Fatalf("err = %v, want ErrDoctorNotFound", err)
	}
}

func TestBookActorBusy(t *testing.T) {
	store := NewMemStore()
	seedClinic(store)
	svc := NewService(store, busyLocker{}, zerolog.Nop())

	if _, err := svc.Book(context.Background(), 10, validRequest()); !errors.Is(err, ErrActorBusy) {
		t.Fatalf("err = %v, want ErrActorBusy", err)
	}
	if got := mustRemaining(t, store, 1); got != 5 {
		t.Errorf("doctor remaining = %d, busy booking must not touch quota", got)
	}
}

func TestConcurrentBookingLastSlot(t *testing.T) {
	store := NewMemStore()
	seedClinic(store)
	store.PutDoctor(Doctor{ID: 1, Capacity: 5, Remaining: 1})
	svc := newTestService(store)

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for _, patientID := range []int64{10, 11} {
		wg.Add(1)
		go func(pid int64) {
			defer wg.Done()
			_, err := svc.Book(context.Background(), pid, validRequest())
			results <- err
		}(patientID)
	}
	wg.Wait()
	close(results)

	successes, quotaFails := 0, 0
	for err := range results {
		switch {
		case err == nil:
			successes++
		default:
			var qe *QuotaError
			if errors.As(err, &qe) && qe.Actor == "doctor" {
				quotaFails++
			} else {
				t.Errorf("unexpected error: %v", err)
			}
		}
	}

	if successes != 1 || quotaFails != 1 {
		t.Errorf("got %d successes and %d quota failures, want exactly 1 and 1", successes, quotaFails)
	}
	if got := mustRemaining(t, store, 1); got != 0 {
		t.Errorf("doctor remaining = %d, want 0", got)
	}
}

func TestCancelRefundsQuota(t *testing.T) {
	store := NewMemStore()
	seedClinic(store)
	svc := newTestService(store)

	appt, err := svc.Book(context.Background(), 10, validRequest())
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	if err := svc.Cancel(context.Background(), appt.ID, 10); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	if got := mustRemaining(t, store, 1); got != 5 {
		t.Errorf("doctor remaining = %d, want refunded 5", got)
	}
	if got := mustPatientRemaining(t, store, 10); got != 3 {
		t.Errorf("patient remaining = %d, want refunded 3", got)
	}
	if _, err := store.GetAppointment(context.Background(), appt.ID); !errors.Is(err, ErrAppointmentNotFound) {
		t.Error("cancelled appointment should be deleted")
	}
	if !hasEvent(store.Events(), EventCancelled) {
		t.Error("cancelled event not recorded")
	}
}

func TestCancelByNonOwnerForbidden(t *testing.T) {
	store := NewMemStore()
	seedClinic(store)
	svc := newTestService(store)

	appt, err := svc.Book(context.Background(), 10, validRequest())
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	if err := svc.Cancel(context.Background(), appt.ID, 11); !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}

	if _, err := store.GetAppointment(context.Background(), appt.ID); err != nil {
		t.Error("appointment must survive a forbidden cancel")
	}
	if got := mustRemaining(t, store, 1); got != 4 {
		t.Errorf("doctor remaining = %d, forbidden cancel must not refund", got)
	}
}

func TestCancelUnknownAppointment(t *testing.T) {
	store := NewMemStore()
	seedClinic(store)
	svc := newTestService(store)

	if err := svc.Cancel(context.Background(), 999, 10); !errors.Is(err, ErrAppointmentNotFound) {
		t.Fatalf("err = %v, want ErrAppointmentNotFound", err)
	}
}

func TestCompleteIsQuotaNeutral(t *testing.T) {
	store := NewMemStore()
	seedClinic(store)
	svc := newTestService(store)

	appt, err := svc.Book(context.Background(), 10, validRequest())
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	done, err := svc.Complete(context.Background(), appt.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if !done.Completed {
		t.Error("appointment not marked completed")
	}

	if got := mustRemaining(t, store, 1); got != 4 {
		t.Errorf("doctor remaining = %d, complete must not touch quota", got)
	}
	if got := mustPatientRemaining(t, store, 10); got != 2 {
		t.Errorf("patient remaining = %d, complete must not touch quota", got)
	}

	// Completing again is a no-op with the same result.
	again, err := svc.Complete(context.Background(), appt.ID)
	if err != nil {
		t.Fatalf("second complete: %v", err)
	}
	if !again.Completed {
		t.Error("second complete should report completed")
	}
}

func TestRescheduleMovesQuotaBetweenDoctors(t *testing.T) {
	store := NewMemStore()
	seedClinic(store)
	svc := newTestService(store)

	appt, err := svc.Book(context.Background(), 10, validRequest())
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	req := BookingRequest{
		DoctorID:  2,
		ServiceID: 200,
		At:        time.Date(2026, 9, 15, 9, 0, 0, 0, time.UTC),
	}
	updated, err := svc.Reschedule(context.Background(), appt.ID, 10, req)
	if err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	if updated.DoctorID != 2 || updated.ServiceID != 200 {
		t.Errorf("updated appointment doctor/service = %d/%d, want 2/200", updated.DoctorID, updated.ServiceID)
	}

	if got := mustRemaining(t, store, 1); got != 5 {
		t.Errorf("old doctor remaining = %d, want refunded 5", got)
	}
	if got := mustRemaining(t, store, 2); got != 2 {
		t.Errorf("new doctor remaining = %d, want 2", got)
	}
	if got := mustPatientRemaining(t, store, 10); got != 2 {
		t.Errorf("patient remaining = %d, reschedule must be net-neutral for the patient", got)
	}
	if !hasEvent(store.Events(), EventRescheduled) {
		t.Error("rescheduled event not recorded")
	}
}

func TestRescheduleSameDoctorNewTime(t *testing.T) {
	store := NewMemStore()
	seedClinic(store)
	svc := newTestService(store)

	appt, err := svc.Book(context.Background(), 10, validRequest())
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	req := validRequest()
	req.At = req.At.Add(48 * time.Hour)

	updated, err := svc.Reschedule(context.Background(), appt.ID, 10, req)
	if err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	if !updated.At.Equal(req.At) {
		t.Errorf("updated time = %s, want %s", updated.At, req.At)
	}

	if got := mustRemaining(t, store, 1); got != 4 {
		t.Errorf("doctor remaining = %d, same-doctor reschedule must be net-neutral", got)
	}
	if got := mustPatientRemaining(t, store, 10); got != 2 {
		t.Errorf("patient remaining = %d, want unchanged 2", got)
	}
}

func TestRescheduleToFullDoctorDiscardsAppointment(t *testing.T) {
	store := NewMemStore()
	seedClinic(store)
	store.PutDoctor(Doctor{ID: 2, Capacity: 3, Remaining: 0})
	svc := newTestService(store)

	appt, err := svc.Book(context.Background(), 10, validRequest())
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	req := BookingRequest{
		DoctorID:  2,
		ServiceID: 200,
		At:        time.Date(2026, 9, 15, 9, 0, 0, 0, time.UTC),
	}
	_, err = svc.Reschedule(context.Background(), appt.ID, 10, req)

	var de *RescheduleDiscardedError
	if !errors.As(err, &de) {
		t.Fatalf("err = %v, want RescheduleDiscardedError", err)
	}
	if de.AppointmentID != appt.ID {
		t.Errorf("discarded appointment = %d, want %d", de.AppointmentID, appt.ID)
	}
	var qe *QuotaError
	if !errors.As(de.Cause, &qe) {
		t.Errorf("discard cause = %v, want QuotaError", de.Cause)
	}

	// The original appointment is gone and the refunds stand.
	if _, err := store.GetAppointment(context.Background(), appt.ID); !errors.Is(err, ErrAppointmentNotFound) {
		t.Error("discarded appointment should be deleted")
	}
	if got := mustRemaining(t, store, 1); got != 5 {
		t.Errorf("old doctor remaining = %d, want refunded 5", got)
	}
	if got := mustRemaining(t, store, 2); got != 0 {
		t.Errorf("target doctor remaining = %d, want untouched 0", got)
	}
	if got := mustPatientRemaining(t, store, 10); got != 3 {
		t.Errorf("patient remaining = %d, want refunded 3", got)
	}
	if !hasEvent(store.Events(), EventDiscarded) {
		t.Error("discarded event not recorded")
	}
	if hasEvent(store.Events(), EventRescheduled) {
		t.Error("rescheduled event must not survive the rollback")
	}
}

func TestRescheduleToUnknownDoctorDiscardsAppointment(t *testing.T) {
	store := NewMemStore()
	seedClinic(store)
	svc := newTestService(store)

	appt, err := svc.Book(context.Background(), 10, validRequest())
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	req := BookingRequest{DoctorID: 999, ServiceID: 100, At: validRequest().At}
	_, err = svc.Reschedule(context.Background(), appt.ID, 10, req)

	var de *RescheduleDiscardedError
	if !errors.As(err, &de) {
		t.Fatalf("err = %v, want RescheduleDiscardedError", err)
	}
	if _, err := store.GetAppointment(context.Background(), appt.ID); !errors.Is(err, ErrAppointmentNotFound) {
		t.Error("discarded appointment should be deleted")
	}
}

func TestResolveAuthorization(t *testing.T) {
	cases := []struct {
		name    string
		action  string
		caller  Caller
		wantErr error
	}{
		{"owner patient cancels", ActionCancel, Caller{Role: RolePatient, RoleID: 10}, nil},
		{"other patient denied", ActionCancel, Caller{Role: RolePatient, RoleID: 11}, ErrForbidden},
		{"own doctor completes", ActionComplete, Caller{Role: RoleDoctor, RoleID: 1}, nil},
		{"other doctor denied", ActionComplete, Caller{Role: RoleDoctor, RoleID: 2}, ErrForbidden},
		{"leader cancels anything", ActionCancel, Caller{Role: RoleLeader, RoleID: 50}, nil},
		{"leader completes anything", ActionComplete, Caller{Role: RoleLeader, RoleID: 50}, nil},
		{"unknown role denied", ActionCancel, Caller{Role: "auditor", RoleID: 1}, ErrForbidden},
		{"unknown action rejected", "archive", Caller{Role: RoleLeader, RoleID: 50}, ErrInvalidAction},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := NewMemStore()
			seedClinic(store)
			svc := newTestService(store)

			appt, err := svc.Book(context.Background(), 10, validRequest())
			if err != nil {
				t.Fatalf("book: %v", err)
			}

			_, err = svc.Resolve(context.Background(), appt.ID, tc.action, tc.caller)
			if tc.wantErr == nil {
				if err != nil {
					t.Fatalf("resolve: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
			// Denied or invalid requests leave the appointment alone.
			if _, err := store.GetAppointment(context.Background(), appt.ID); err != nil {
				t.Error("appointment must survive a rejected resolve")
			}
		})
	}
}

func TestResolveCancelDeletesAndRefunds(t *testing.T) {
	store := NewMemStore()
	seedClinic(store)
	svc := newTestService(store)

	appt, err := svc.Book(context.Background(), 10, validRequest())
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	if _, err := svc.Resolve(context.Background(), appt.ID, ActionCancel, Caller{Role: RoleDoctor, RoleID: 1}); err != nil {
		t.Fatalf("resolve cancel: %v", err)
	}

	if _, err := store.GetAppointment(context.Background(), appt.ID); !errors.Is(err, ErrAppointmentNotFound) {
		t.Error("resolved cancel should delete the appointment")
	}
	if got := mustRemaining(t, store, 1); got != 5 {
		t.Errorf("doctor remaining = %d, want refunded 5", got)
	}
}

// Quota conservation under a churn of bookings and cancellations: the stored
// counters always equal capacity minus live bookings.
func TestQuotaConservationUnderChurn(t *testing.T) {
	store := NewMemStore()
	store.PutDoctor(Doctor{ID: 1, Capacity: 5, Remaining: 5})
	store.PutPatient(Patient{ID: 10, Remaining: 3})
	store.PutService(MedicalService{ID: 100, DoctorID: 1, Name: "Consultation", Duration: 30 * time.Minute})
	svc := newTestService(store)

	var appts []int64
	for i := 0; i < 3; i++ {
		req := validRequest()
		req.At = req.At.Add(time.Duration(i) * time.Hour)
		appt, err := svc.Book(context.Background(), 10, req)
		if err != nil {
			t.Fatalf("book %d: %v", i, err)
		}
		appts = append(appts, appt.ID)
	}

	// Patient quota of 3 is used up.
	if _, err := svc.Book(context.Background(), 10, validRequest()); err == nil {
		t.Fatal("fourth booking should exhaust the patient quota")
	}

	if err := svc.Cancel(context.Background(), appts[0], 10); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if err := svc.Cancel(context.Background(), appts[1], 10); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	if got := mustRemaining(t, store, 1); got != 4 {
		t.Errorf("doctor remaining = %d, want 4 (capacity 5, one live booking)", got)
	}
	if got := mustPatientRemaining(t, store, 10); got != 2 {
		t.Errorf("patient remaining = %d, want 2", got)
	}

	booked, err := store.CountBookedForDoctor(context.Background(), 1)
	if err != nil {
		t.Fatalf("count booked: %v", err)
	}
	d, _ := store.GetDoctor(context.Background(), 1)
	if d.Remaining != d.Capacity-booked {
		t.Errorf("conservation broken: remaining %d, capacity %d, booked %d", d.Remaining, d.Capacity, booked)
	}
}

func TestPatientAppointmentsFilterAndLimit(t *testing.T) {
	store := NewMemStore()
	seedClinic(store)
	svc := newTestService(store)

	var last *Appointment
	for i := 0; i < 3; i++ {
		req := validRequest()
		req.At = req.At.Add(time.Duration(i) * time.Hour)
		appt, err := svc.Book(context.Background(), 10, req)
		if err != nil {
			t.Fatalf("book %d: %v", i, err)
		}
		last = appt
	}
	if _, err := svc.Complete(context.Background(), last.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	all, err := svc.PatientAppointments(context.Background(), 10, nil, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("unfiltered count = %d, want 3", len(all))
	}
	if !all[0].At.After(all[1].At) {
		t.Error("listing should be newest first")
	}

	completed := true
	done, err := svc.PatientAppointments(context.Background(), 10, &completed, 10)
	if err != nil {
		t.Fatalf("list completed: %v", err)
	}
	if len(done) != 1 || done[0].ID != last.ID {
		t.Errorf("completed filter returned %d rows", len(done))
	}

	limited, err := svc.PatientAppointments(context.Background(), 10, nil, 2)
	if err != nil {
		t.Fatalf("list limited: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("limited count = %d, want 2", len(limited))
	}
}

func TestTodaySchedule(t *testing.T) {
	store := NewMemStore()
	seedClinic(store)
	svc := newTestService(store)

	day := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)

	reqToday := validRequest() // falls on the 14th
	if _, err := svc.Book(context.Background(), 10, reqToday); err != nil {
		t.Fatalf("book: %v", err)
	}
	reqTomorrow := validRequest()
	reqTomorrow.At = day.AddDate(0, 0, 1).Add(9 * time.Hour)
	if _, err := svc.Book(context.Background(), 11, reqTomorrow); err != nil {
		t.Fatalf("book: %v", err)
	}

	today, err := svc.TodaySchedule(context.Background(), 1, day)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if len(today) != 1 {
		t.Fatalf("schedule count = %d, want 1", len(today))
	}
	if today[0].At.Day() != 14 {
		t.Errorf("schedule contains appointment from %s", today[0].At)
	}
}
