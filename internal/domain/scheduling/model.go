package scheduling

import (
	"fmt"
	"strings"
	"time"
)

// Status is the lifecycle state of an appointment. Booked may move to
// Completed or Cancelled; both are terminal.
type Status string

const (
	StatusBooked    Status = "AGENDADA"
	StatusCompleted Status = "CONCLUIDA"
	StatusCancelled Status = "CANCELADA"
)

var statusLabels = map[Status]string{
	StatusBooked:    "Agendada",
	StatusCompleted: "Concluída",
	StatusCancelled: "Cancelada",
}

// Label returns the name shown to the operator.
func (s Status) Label() string { return statusLabels[s] }

// ParseStatus accepts the persisted code or the label, ignoring case.
func ParseStatus(text string) (Status, error) {
	t := strings.ToUpper(strings.TrimSpace(text))
	for code, label := range statusLabels {
		if t == string(code) || t == strings.ToUpper(label) {
			return code, nil
		}
	}
	return "", fmt.Errorf("invalid appointment status: %s", text)
}

// Appointment is a consultation at a point in time. FinalPrice is fixed
// when the appointment is booked.
type Appointment struct {
	ID           string    `json:"id"`
	PatientID    string    `json:"patient_id"`
	DoctorID     string    `json:"doctor_id"`
	DateTime     time.Time `json:"date_time"`
	Location     string    `json:"location"`
	FinalPrice   float64   `json:"final_price"`
	Status       Status    `json:"status"`
	Diagnosis    string    `json:"diagnosis,omitempty"`
	Prescription string    `json:"prescription,omitempty"`
}

// Active reports whether the appointment still holds its doctor and
// location slot.
func (a *Appointment) Active() bool { return a.Status != StatusCancelled }
