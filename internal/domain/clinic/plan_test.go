package clinic

import (
	"errors"
	"testing"
)

func TestPlan_Discount_Table(t *testing.T) {
	tests := []struct {
		plan Plan
		spec Specialty
		age  int
		base float64
		want float64
	}{
		{PlanNone, Cardiology, 30, 300, 300},
		{PlanNone, Cardiology, 70, 300, 300},
		{PlanBasic, Cardiology, 30, 300, 270},
		{PlanBasic, General, 30, 250, 225},
		{PlanBasic, Pediatrics, 60, 200, 170},
		{PlanPlus, Cardiology, 30, 300, 240},
		{PlanPlus, Cardiology, 65, 300, 225},
		{PlanPlus, Pediatrics, 10, 200, 170},
		{PlanPlus, General, 30, 250, 225},
		{PlanPlus, SpecialtyUnknown, 30, 100, 88},
		{PlanSpecial, Cardiology, 30, 300, 255},
		{PlanSpecial, Pediatrics, 30, 200, 180},
		{PlanSpecial, General, 30, 250, 230},
		{PlanSpecial, General, 61, 250, 217.5},
		{PlanSpecial, SpecialtyUnknown, 30, 100, 90},
	}
	for _, tt := range tests {
		got := tt.plan.Discount(tt.spec, tt.age, tt.base)
		if got != tt.want {
			t.Errorf("%s.Discount(%s, %d, %.2f) = %.2f, want %.2f", tt.plan, tt.spec, tt.age, tt.base, got, tt.want)
		}
	}
}

func TestPlan_Discount_NeverNegative(t *testing.T) {
	for _, p := range Plans {
		if got := p.Discount(Cardiology, 90, 0); got != 0 {
			t.Errorf("%s: expected 0 for zero base price, got %.2f", p, got)
		}
	}
}

func TestPlan_Discount_SeniorNeverIncreasesPrice(t *testing.T) {
	for _, p := range Plans {
		for _, s := range append([]Specialty{SpecialtyUnknown}, Specialties...) {
			young := p.Discount(s, SeniorAge-1, 333.33)
			senior := p.Discount(s, SeniorAge, 333.33)
			if senior > young {
				t.Errorf("%s/%s: senior price %.2f > non-senior %.2f", p, s, senior, young)
			}
		}
	}
}

func TestPlan_Discount_Pure(t *testing.T) {
	a := PlanPlus.Discount(Pediatrics, 42, 199.99)
	b := PlanPlus.Discount(Pediatrics, 42, 199.99)
	if a != b {
		t.Errorf("expected identical results, got %.4f and %.4f", a, b)
	}
}

func TestPlan_FreeStayUnder7Days(t *testing.T) {
	want := map[Plan]bool{PlanNone: false, PlanBasic: false, PlanPlus: true, PlanSpecial: true}
	for p, w := range want {
		if got := p.FreeStayUnder7Days(); got != w {
			t.Errorf("%s.FreeStayUnder7Days() = %v, want %v", p, got, w)
		}
	}
}

func TestParsePlan(t *testing.T) {
	tests := map[string]Plan{
		"":         PlanNone,
		"nenhum":   PlanNone,
		"BASICO":   PlanBasic,
		" plus ":   PlanPlus,
		"Especial": PlanSpecial,
	}
	for in, want := range tests {
		got, err := ParsePlan(in)
		if err != nil {
			t.Fatalf("ParsePlan(%q) unexpected error: %v", in, err)
		}
		if got != want {
			t.Errorf("ParsePlan(%q) = %s, want %s", in, got, want)
		}
	}
	if _, err := ParsePlan("GOLD"); err == nil {
		t.Error("expected error for unknown plan")
	}
}

func TestPlan_CodeRoundTrip(t *testing.T) {
	for _, p := range Plans {
		got, err := ParsePlan(p.Code())
		if err != nil || got != p {
			t.Errorf("ParsePlan(%q) = %s, %v; want %s", p.Code(), got, err, p)
		}
	}
}

func TestParseSpecialty(t *testing.T) {
	tests := map[string]Specialty{
		"CARDIOLOGIA":   Cardiology,
		"cardiology":    Cardiology,
		"Pediatria":     Pediatrics,
		"Clínica Geral": General,
		"clinica geral": General,
		"GERAL":         General,
	}
	for in, want := range tests {
		got, err := ParseSpecialty(in)
		if err != nil {
			t.Fatalf("ParseSpecialty(%q) unexpected error: %v", in, err)
		}
		if got != want {
			t.Errorf("ParseSpecialty(%q) = %s, want %s", in, got, want)
		}
	}
	if _, err := ParseSpecialty("ORTOPEDIA"); err == nil {
		t.Error("expected error for unknown specialty")
	}
	if _, err := ParseSpecialty(" "); err == nil {
		t.Error("expected error for blank specialty")
	}
}

func TestErrors_Classes(t *testing.T) {
	cases := []struct {
		err  error
		want error
	}{
		{Required("patient_id"), ErrValidation},
		{NotFound("patient", "1"), ErrNotFound},
		{Conflict(ConflictRoom, "room %s", "101"), ErrConflict},
		{IllegalState("stay", "1", "already discharged"), ErrState},
		{Persistence("save stays", errors.New("disk full")), ErrPersistence},
	}
	for _, c := range cases {
		if !errors.Is(c.err, c.want) {
			t.Errorf("errors.Is(%v, %v) = false", c.err, c.want)
		}
	}
	if errors.Is(NotFound("patient", "1"), ErrValidation) {
		t.Error("NotFoundError must not match ErrValidation")
	}
}

func TestIsConflict(t *testing.T) {
	err := Conflict(ConflictDoctor, "busy")
	if !IsConflict(err, ConflictDoctor) {
		t.Error("expected doctor conflict")
	}
	if IsConflict(err, ConflictLocation) {
		t.Error("doctor conflict must not match location")
	}
}
