package api

import (
	"time"

	"github.com/wellnest/clinic-backend/internal/booking"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token    string `json:"token"`
	Role     string `json:"role"`
	RoleID   int64  `json:"role_id"`
	Username string `json:"username"`
}

type BookAppointmentRequest struct {
	DoctorID  int64     `json:"doctor_id"`
	ServiceID int64     `json:"service_id"`
	At        time.Time `json:"at"`
	Comment   string    `json:"comment,omitempty"`
	Urgent    bool      `json:"urgent,omitempty"`
}

type AppointmentResponse struct {
	ID        int64     `json:"id"`
	DoctorID  int64     `json:"doctor_id"`
	PatientID int64     `json:"patient_id"`
	ServiceID int64     `json:"service_id"`
	At        time.Time `json:"at"`
	Urgent    bool      `json:"urgent"`
	Completed bool      `json:"completed"`
	Comment   string    `json:"comment,omitempty"`
}

func toAppointmentResponse(a *booking.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:        a.ID,
		DoctorID:  a.DoctorID,
		PatientID: a.PatientID,
		ServiceID: a.ServiceID,
		At:        a.At,
		Urgent:    a.Urgent,
		Completed: a.Completed,
		Comment:   a.Comment,
	}
}

type SubmitMessageRequest struct {
	Title  string `json:"title"`
	Text   string `json:"text"`
	Urgent bool   `json:"urgent,omitempty"`
}

type ProvisionPatientRequest struct {
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
	Region    string    `json:"region"`
	Exempt    bool      `json:"exempt,omitempty"`
	Remaining int       `json:"remaining,omitempty"`
	BirthDate time.Time `json:"birth_date"`
	Address   string    `json:"address,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	CompanyID int64     `json:"company_id"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
