package clinic

import (
	"fmt"
	"math"
	"strings"
)

// Plan is the insurance plan attached to a patient. The zero value is
// PlanNone, which leaves prices untouched.
type Plan int

const (
	PlanNone Plan = iota
	PlanBasic
	PlanPlus
	PlanSpecial
)

// Plans lists every plan variant, PlanNone included.
var Plans = []Plan{PlanNone, PlanBasic, PlanPlus, PlanSpecial}

// SeniorAge is the age from which the senior bonus applies.
const SeniorAge = 60

const seniorBonus = 5

// planRule holds the discount, in percentage points, per specialty. The
// fallback applies to specialties missing from bySpecialty.
type planRule struct {
	bySpecialty map[Specialty]int
	fallback    int
	freeStay    bool
	code        string
	label       string
}

var planRules = map[Plan]planRule{
	PlanBasic: {
		fallback: 10,
		code:     "BASICO",
		label:    "Plano Básico",
	},
	PlanPlus: {
		bySpecialty: map[Specialty]int{Cardiology: 20, Pediatrics: 15, General: 10},
		fallback:    12,
		freeStay:    true,
		code:        "PLUS",
		label:       "Plano Plus",
	},
	PlanSpecial: {
		bySpecialty: map[Specialty]int{Cardiology: 15, Pediatrics: 10, General: 8},
		fallback:    10,
		freeStay:    true,
		code:        "ESPECIAL",
		label:       "Plano Especial",
	},
}

// DiscountPercent returns the total discount in percentage points for the
// given specialty and age, senior bonus included.
func (p Plan) DiscountPercent(s Specialty, age int) int {
	rule, ok := planRules[p]
	if !ok {
		return 0
	}
	pct, ok := rule.bySpecialty[s]
	if !ok {
		pct = rule.fallback
	}
	if age >= SeniorAge {
		pct += seniorBonus
	}
	return pct
}

// Discount returns the final price of a consultation. PlanNone returns
// basePrice unchanged; any other plan never returns a negative price.
func (p Plan) Discount(s Specialty, age int, basePrice float64) float64 {
	if _, ok := planRules[p]; !ok {
		return basePrice
	}
	pct := p.DiscountPercent(s, age)
	if pct >= 100 {
		return 0
	}
	final := basePrice * float64(100-pct) / 100
	if final < 0 {
		return 0
	}
	return RoundCents(final)
}

// FreeStayUnder7Days reports whether stays shorter than seven days are free.
func (p Plan) FreeStayUnder7Days() bool {
	return planRules[p].freeStay
}

// Code returns the persisted plan name; PlanNone persists as "".
func (p Plan) Code() string { return planRules[p].code }

func (p Plan) String() string {
	if rule, ok := planRules[p]; ok {
		return rule.label
	}
	return "Nenhum"
}

// ParsePlan maps a persisted or typed plan name to a Plan. Blank and
// "NENHUM" mean PlanNone.
func ParsePlan(text string) (Plan, error) {
	t := strings.ToUpper(strings.TrimSpace(text))
	switch t {
	case "", "NENHUM", "NONE":
		return PlanNone, nil
	case "BASICO", "BÁSICO", "BASIC":
		return PlanBasic, nil
	case "PLUS":
		return PlanPlus, nil
	case "ESPECIAL", "SPECIAL":
		return PlanSpecial, nil
	}
	return PlanNone, fmt.Errorf("invalid plan: %s", text)
}

func (p Plan) MarshalText() ([]byte, error) { return []byte(p.Code()), nil }

func (p *Plan) UnmarshalText(b []byte) error {
	parsed, err := ParsePlan(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// RoundCents rounds v to two decimal places.
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
