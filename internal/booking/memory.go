package booking

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemStore is a map-backed Store. It exists so the lifecycle engine's
// behavior, including its concurrency properties, can be exercised without a
// database. InTx takes a snapshot of the whole state and restores it when fn
// fails, which gives the same all-or-nothing semantics as a Postgres
// transaction.
type MemStore struct {
	inner *memState
	inTx  bool
}

type memState struct {
	mu           sync.Mutex
	doctors      map[int64]Doctor
	patients     map[int64]Patient
	services     map[int64]MedicalService
	appointments map[int64]Appointment
	events       []BookingEvent
	nextApptID   int64
}

func NewMemStore() *MemStore {
	return &MemStore{
		inner: &memState{
			doctors:      make(map[int64]Doctor),
			patients:     make(map[int64]Patient),
			services:     make(map[int64]MedicalService),
			appointments: make(map[int64]Appointment),
			nextApptID:   1,
		},
	}
}

// Seed helpers.

func (m *MemStore) PutDoctor(d Doctor) {
	unlock := m.lock()
	defer unlock()
	m.inner.doctors[d.ID] = d
}

func (m *MemStore) PutPatient(p Patient) {
	unlock := m.lock()
	defer unlock()
	m.inner.patients[p.ID] = p
}

func (m *MemStore) PutService(s MedicalService) {
	unlock := m.lock()
	defer unlock()
	m.inner.services[s.ID] = s
}

// Events returns a copy of the recorded event log.
func (m *MemStore) Events() []BookingEvent {
	unlock := m.lock()
	defer unlock()
	out := make([]BookingEvent, len(m.inner.events))
	copy(out, m.inner.events)
	return out
}

func (m *MemStore) lock() func() {
	if m.inTx {
		return func() {}
	}
	m.inner.mu.Lock()
	return m.inner.mu.Unlock
}

func (m *MemStore) InTx(ctx context.Context, fn func(s Store) error) error {
	if m.inTx {
		return fn(m)
	}

	m.inner.mu.Lock()
	defer m.inner.mu.Unlock()

	snapshot := m.inner.clone()
	txStore := &MemStore{inner: m.inner, inTx: true}

	if err := fn(txStore); err != nil {
		m.inner.restore(snapshot)
		return err
	}
	return nil
}

func (s *memState) clone() *memState {
	c := &memState{
		doctors:      make(map[int64]Doctor, len(s.doctors)),
		patients:     make(map[int64]Patient, len(s.patients)),
		services:     make(map[int64]MedicalService, len(s.services)),
		appointments: make(map[int64]Appointment, len(s.appointments)),
		events:       make([]BookingEvent, len(s.events)),
		nextApptID:   s.nextApptID,
	}
	for k, v := range s.doctors {
		c.doctors[k] = v
	}
	for k, v := range s.patients {
		c.patients[k] = v
	}
	for k, v := range s.services {
		c.services[k] = v
	}
	for k, v := range s.appointments {
		c.appointments[k] = v
	}
	copy(c.events, s.events)
	return c
}

func (s *memState) restore(from *memState) {
	s.doctors = from.doctors
	s.patients = from.patients
	s.services = from.services
	s.appointments = from.appointments
	s.events = from.events
	s.nextApptID = from.nextApptID
}

// Store interface.

func (m *MemStore) GetDoctor(ctx context.Context, id int64) (*Doctor, error) {
	unlock := m.lock()
	defer unlock()
	d, ok := m.inner.doctors[id]
	if !ok {
		return nil, ErrDoctorNotFound
	}
	return &d, nil
}

func (m *MemStore) GetDoctorForUpdate(ctx context.Context, id int64) (*Doctor, error) {
	return m.GetDoctor(ctx, id)
}

func (m *MemStore) GetPatient(ctx context.Context, id int64) (*Patient, error) {
	unlock := m.lock()
	defer unlock()
	p, ok := m.inner.patients[id]
	if !ok {
		return nil, ErrPatientNotFound
	}
	return &p, nil
}

func (m *MemStore) GetPatientForUpdate(ctx context.Context, id int64) (*Patient, error) {
	return m.GetPatient(ctx, id)
}

func (m *MemStore) SetDoctorRemaining(ctx context.Context, id int64, remaining int) error {
	unlock := m.lock()
	defer unlock()
	d, ok := m.inner.doctors[id]
	if !ok {
		return ErrDoctorNotFound
	}
	d.Remaining = remaining
	m.inner.doctors[id] = d
	return nil
}

func (m *MemStore) SetPatientRemaining(ctx context.Context, id int64, remaining int) error {
	unlock := m.lock()
	defer unlock()
	p, ok := m.inner.patients[id]
	if !ok {
		return ErrPatientNotFound
	}
	p.Remaining = remaining
	m.inner.patients[id] = p
	return nil
}

func (m *MemStore) GetService(ctx context.Context, id int64) (*MedicalService, error) {
	unlock := m.lock()
	defer unlock()
	s, ok := m.inner.services[id]
	if !ok {
		return nil, ErrServiceNotFound
	}
	return &s, nil
}

func (m *MemStore) CreateAppointment(ctx context.Context, a *Appointment) (*Appointment, error) {
	unlock := m.lock()
	defer unlock()
	created := *a
	created.ID = m.inner.nextApptID
	m.inner.nextApptID++
	m.inner.appointments[created.ID] = created
	return &created, nil
}

func (m *MemStore) GetAppointment(ctx context.Context, id int64) (*Appointment, error) {
	unlock := m.lock()
	defer unlock()
	a, ok := m.inner.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	return &a, nil
}

func (m *MemStore) UpdateAppointment(ctx context.Context, a *Appointment) (*Appointment, error) {
	unlock := m.lock()
	defer unlock()
	if _, ok := m.inner.appointments[a.ID]; !ok {
		return nil, ErrAppointmentNotFound
	}
	m.inner.appointments[a.ID] = *a
	updated := *a
	return &updated, nil
}

func (m *MemStore) DeleteAppointment(ctx context.Context, id int64) error {
	unlock := m.lock()
	defer unlock()
	if _, ok := m.inner.appointments[id]; !ok {
		return ErrAppointmentNotFound
	}
	delete(m.inner.appointments, id)
	return nil
}

func (m *MemStore) MarkAppointmentCompleted(ctx context.Context, id int64) (*Appointment, error) {
	unlock := m.lock()
	defer unlock()
	a, ok := m.inner.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	a.Completed = true
	m.inner.appointments[id] = a
	return &a, nil
}

func (m *MemStore) ListByDoctorAndDate(ctx context.Context, doctorID int64, day time.Time) ([]Appointment, error) {
	unlock := m.lock()
	defer unlock()

	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	var out []Appointment
	for _, a := range m.inner.appointments {
		if a.DoctorID == doctorID && !a.At.Before(dayStart) && a.At.Before(dayEnd) {
			out = append(out, a)
		}
	}
	sortByTime(out, false)
	return out, nil
}

func (m *MemStore) ListByPatient(ctx context.Context, patientID int64, completed *bool, limit int) ([]Appointment, error) {
	unlock := m.lock()
	defer unlock()

	var out []Appointment
	for _, a := range m.inner.appointments {
		if a.PatientID != patientID {
			continue
		}
		if completed != nil && a.Completed != *completed {
			continue
		}
		out = append(out, a)
	}
	sortByTime(out, true)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemStore) CountBookedForDoctor(ctx context.Context, doctorID int64) (int, error) {
	unlock := m.lock()
	defer unlock()

	n := 0
	for _, a := range m.inner.appointments {
		if a.DoctorID == doctorID && !a.Completed {
			n++
		}
	}
	return n, nil
}

func (m *MemStore) ListDoctorIDs(ctx context.Context) ([]int64, error) {
	unlock := m.lock()
	defer unlock()

	ids := make([]int64, 0, len(m.inner.doctors))
	for id := range m.inner.doctors {
		ids = append(ids, id)
	}
	sortInt64(ids)
	return ids, nil
}

func (m *MemStore) InsertEvent(ctx context.Context, ev BookingEvent) error {
	unlock := m.lock()
	defer unlock()
	ev.ID = int64(len(m.inner.events) + 1)
	m.inner.events = append(m.inner.events, ev)
	return nil
}

func sortByTime(list []Appointment, desc bool) {
	sort.Slice(list, func(i, j int) bool {
		if desc {
			return list[j].At.Before(list[i].At)
		}
		return list[i].At.Before(list[j].At)
	})
}

func sortInt64(list []int64) {
	sort.Slice(list, func(i, j int) bool { return list[i] < list[j] })
}
