package colony

import "fmt"

// Profession is the job category a building employs.
type Profession uint8

const (
	ProfessionNone Profession = iota
	ProfessionWorker
	ProfessionPolice
	ProfessionDoctor
)

// Wage bounds shared by every profession.
const (
	MinWage = 0.0
	MaxWage = 20.0
)

type professionInfo struct {
	key         string
	name        string
	description string
	defaultWage float64
}

var professions = map[Profession]professionInfo{
	ProfessionNone:   {"none", "None", "No profession", 0},
	ProfessionWorker: {"worker", "Worker", "General labor and production workers", 6},
	ProfessionPolice: {"police", "Police Officer", "Law enforcement and crime prevention", 7},
	ProfessionDoctor: {"doctor", "Doctor", "Medical care and health services", 8},
}

// AllProfessions lists the professions a colonist can hold.
var AllProfessions = []Profession{ProfessionWorker, ProfessionPolice, ProfessionDoctor}

func (p Profession) String() string {
	if info, ok := professions[p]; ok {
		return info.key
	}
	return fmt.Sprintf("profession(%d)", p)
}

// DisplayName returns the human-readable profession name.
func (p Profession) DisplayName() string {
	return professions[p].name
}

// DefaultWage returns the starting wage for the profession.
func (p Profession) DefaultWage() float64 {
	return professions[p].defaultWage
}

// ParseProfession looks up a profession by key.
func ParseProfession(key string) (Profession, bool) {
	for p, info := range professions {
		if info.key == key {
			return p, true
		}
	}
	return ProfessionNone, false
}

// MarshalText encodes the profession by key.
func (p Profession) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes a profession key.
func (p *Profession) UnmarshalText(b []byte) error {
	v, ok := ParseProfession(string(b))
	if !ok {
		return fmt.Errorf("unknown profession %q", string(b))
	}
	*p = v
	return nil
}

// ClampWage bounds a wage to [MinWage, MaxWage].
func ClampWage(w float64) float64 {
	if w < MinWage {
		return MinWage
	}
	if w > MaxWage {
		return MaxWage
	}
	return w
}
