package scheduling

import "context"

// AppointmentRepository is the durability boundary for appointments.
// SaveAll replaces the whole persisted collection.
type AppointmentRepository interface {
	Load(ctx context.Context) ([]*Appointment, error)
	SaveAll(ctx context.Context, appointments []*Appointment) error
}
