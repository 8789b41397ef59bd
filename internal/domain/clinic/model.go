package clinic

import (
	"fmt"
	"strings"
	"time"
)

// Resolution is the precision instants are compared and stored at.
const Resolution = time.Second

// Instant truncates t to Resolution. The engines normalise every instant
// they accept, so what they validate is exactly what the stores read back.
func Instant(t time.Time) time.Time {
	return t.Truncate(Resolution)
}

// PersonInfo holds the identity fields shared by patients and doctors.
type PersonInfo struct {
	Name       string `json:"name"`
	NationalID string `json:"national_id"`
	Age        int    `json:"age"`
}

// Patient is identified by its national ID (CPF).
type Patient struct {
	PersonInfo
	Plan Plan `json:"plan"`
}

// ID returns the key the record store indexes patients by.
func (p *Patient) ID() string { return p.NationalID }

// Doctor is identified by its license (CRM).
type Doctor struct {
	PersonInfo
	License   string    `json:"license"`
	Specialty Specialty `json:"specialty"`
	BasePrice float64   `json:"base_price"`
}

// ID returns the key the record store indexes doctors by.
func (d *Doctor) ID() string { return d.License }

// Specialty is the closed set of medical fields a doctor can practice.
type Specialty int

const (
	SpecialtyUnknown Specialty = iota
	Cardiology
	Pediatrics
	General
)

// Specialties lists the valid specialties in declaration order.
var Specialties = []Specialty{Cardiology, Pediatrics, General}

var specialtyCodes = map[Specialty]string{
	Cardiology: "CARDIOLOGIA",
	Pediatrics: "PEDIATRIA",
	General:    "GERAL",
}

var specialtyLabels = map[Specialty]string{
	Cardiology: "Cardiologia",
	Pediatrics: "Pediatria",
	General:    "Clínica Geral",
}

var specialtyNames = map[Specialty]string{
	Cardiology: "Cardiology",
	Pediatrics: "Pediatrics",
	General:    "General",
}

// Code returns the persisted name of the specialty.
func (s Specialty) Code() string { return specialtyCodes[s] }

// Label returns the human readable name shown to the operator.
func (s Specialty) Label() string { return specialtyLabels[s] }

func (s Specialty) String() string {
	if n, ok := specialtyNames[s]; ok {
		return n
	}
	return "Unknown"
}

// Valid reports whether s is one of the declared specialties.
func (s Specialty) Valid() bool {
	_, ok := specialtyCodes[s]
	return ok
}

// ParseSpecialty accepts the persisted code, the English name or the display
// label, ignoring case and surrounding spaces.
func ParseSpecialty(text string) (Specialty, error) {
	t := strings.ToUpper(strings.TrimSpace(text))
	if t == "" {
		return SpecialtyUnknown, fmt.Errorf("specialty is required")
	}
	for _, s := range Specialties {
		if t == specialtyCodes[s] || t == strings.ToUpper(specialtyLabels[s]) || t == strings.ToUpper(specialtyNames[s]) {
			return s, nil
		}
	}
	if strings.Contains(t, "GERAL") {
		return General, nil
	}
	return SpecialtyUnknown, fmt.Errorf("invalid specialty: %s", text)
}

func (s Specialty) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return []byte(""), nil
	}
	return []byte(s.Code()), nil
}

func (s *Specialty) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*s = SpecialtyUnknown
		return nil
	}
	parsed, err := ParseSpecialty(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// DefaultBasePrice is the consultation price assigned to a doctor registered
// without an explicit price.
func DefaultBasePrice(s Specialty) float64 {
	switch s {
	case Cardiology:
		return 300
	case Pediatrics:
		return 200
	default:
		return 250
	}
}
