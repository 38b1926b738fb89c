package colony

import (
	"errors"
	"fmt"
	"sort"

	"github.com/talgya/mini-colony/internal/economy"
	"github.com/talgya/mini-colony/internal/world"
)

// ErrUnknownBuilding is returned for a building kind or ID that does not exist.
var ErrUnknownBuilding = errors.New("unknown building")

// Kind tags a building variant.
type Kind uint8

const (
	KindMine Kind = iota + 1
	KindEnergyGenerator
	KindOxygenGenerator
	KindHydroponicFarm
	KindIceExtractor
	KindChemicalPlant
	KindSolarArray
	KindHospital
	KindPolicePrecinct
	KindHabitatBlock
	KindSlum
)

// ResidenceSpec is the housing payload of a residential kind.
type ResidenceSpec struct {
	Quality     float64
	Rent        float64
	Capacity    int
	Slum        bool
	CrimePerDay float64 // Constant crime generated regardless of occupants
}

// ClinicSpec is the health payload of a hospital kind.
type ClinicSpec struct {
	Rate        float64 // Health points per worker per day
	MaxCapacity int     // Patients served at full staffing
}

// PrecinctSpec is the crime-reduction payload of a police kind.
type PrecinctSpec struct {
	ReductionPerWorker float64
	Radius             int
}

// Spec is the capability record of one building kind. Production and
// consumption are data-driven from these tables; the optional payloads carry
// kind-specific hooks.
type Spec struct {
	Kind        Kind
	Key         string // Catalog name, e.g. "Mine"
	Name        string // Display name
	Description string
	Price       float64
	MaxWorkers  int
	Profession  Profession

	// Consumption at full staffing; scaled by assigned/max workers.
	Consumption economy.Amounts
	// PerWorker output for each assigned worker.
	PerWorker economy.Amounts
	// Fixed output independent of workforce.
	Fixed economy.Amounts

	Surface         world.Surface
	CrimeResistance float64
	Constructible   bool

	Residence *ResidenceSpec
	Clinic    *ClinicSpec
	Precinct  *PrecinctSpec
}

var catalog = map[Kind]Spec{
	KindMine: {
		Key:             "Mine",
		Name:            "Crystal Mine",
		Description:     "Extracts regolith. Requires energy.",
		Price:           500,
		MaxWorkers:      20,
		Profession:      ProfessionWorker,
		Consumption:     economy.Amounts{economy.Energy: 5},
		PerWorker:       economy.Amounts{economy.Regolith: 2},
		Surface:         world.SurfaceRegolith,
		CrimeResistance: 1.0,
		Constructible:   true,
	},
	KindEnergyGenerator: {
		Key:             "EnergyGenerator",
		Name:            "Fusion Reactor",
		Description:     "Generates energy. Burns regolith and fuel.",
		Price:           600,
		MaxWorkers:      10,
		Profession:      ProfessionWorker,
		Consumption:     economy.Amounts{economy.Regolith: 3, economy.Fuel: 2},
		PerWorker:       economy.Amounts{economy.Energy: 4},
		CrimeResistance: 1.0,
		Constructible:   true,
	},
	KindOxygenGenerator: {
		Key:             "OxygenGenerator",
		Name:            "Oxygen Synthesizer",
		Description:     "Produces breathable oxygen. Requires energy.",
		Price:           450,
		MaxWorkers:      8,
		Profession:      ProfessionWorker,
		Consumption:     economy.Amounts{economy.Energy: 4},
		PerWorker:       economy.Amounts{economy.Oxygen: 3},
		CrimeResistance: 1.0,
		Constructible:   true,
	},
	KindHydroponicFarm: {
		Key:             "HydroponicFarm",
		Name:            "Hydroponic Farm",
		Description:     "Grows food. Requires significant energy.",
		Price:           550,
		MaxWorkers:      15,
		Profession:      ProfessionWorker,
		Consumption:     economy.Amounts{economy.Energy: 8},
		PerWorker:       economy.Amounts{economy.Food: 2.5},
		CrimeResistance: 1.0,
		Constructible:   true,
	},
	KindIceExtractor: {
		Key:             "IceExtractor",
		Name:            "Ice Extractor",
		Description:     "Melts surface ice into oxygen and hydrogen. Requires energy.",
		Price:           650,
		MaxWorkers:      10,
		Profession:      ProfessionWorker,
		Consumption:     economy.Amounts{economy.Energy: 6},
		PerWorker:       economy.Amounts{economy.Oxygen: 2, economy.Hydrogen: 1.5},
		Surface:         world.SurfaceIce,
		CrimeResistance: 1.0,
		Constructible:   true,
	},
	KindChemicalPlant: {
		Key:             "ChemicalProcessingPlant",
		Name:            "Chemical Processing Plant",
		Description:     "Refines hydrogen into fuel. Requires energy.",
		Price:           750,
		MaxWorkers:      8,
		Profession:      ProfessionWorker,
		Consumption:     economy.Amounts{economy.Energy: 5, economy.Hydrogen: 6},
		PerWorker:       economy.Amounts{economy.Fuel: 2},
		CrimeResistance: 1.0,
		Constructible:   true,
	},
	KindSolarArray: {
		Key:             "SolarArray",
		Name:            "Solar Panel Array",
		Description:     "Generates a fixed amount of energy without workers.",
		Price:           400,
		MaxWorkers:      0,
		Profession:      ProfessionWorker,
		Fixed:           economy.Amounts{economy.Energy: 15},
		CrimeResistance: 1.0,
		Constructible:   true,
	},
	KindHospital: {
		Key:             "Hospital",
		Name:            "Hospital",
		Description:     "Improves population health. Requires energy and regolith.",
		Price:           800,
		MaxWorkers:      6,
		Profession:      ProfessionDoctor,
		Consumption:     economy.Amounts{economy.Energy: 6, economy.Regolith: 2},
		CrimeResistance: 1.5,
		Constructible:   true,
		Clinic:          &ClinicSpec{Rate: 3.0, MaxCapacity: 50},
	},
	KindPolicePrecinct: {
		Key:             "PolicePrecinct",
		Name:            "Police Precinct",
		Description:     "Reduces crime in surrounding buildings.",
		Price:           700,
		MaxWorkers:      6,
		Profession:      ProfessionPolice,
		Consumption:     economy.Amounts{economy.Energy: 4},
		CrimeResistance: 2.0,
		Constructible:   true,
		Precinct:        &PrecinctSpec{ReductionPerWorker: 3.0, Radius: 2},
	},
	KindHabitatBlock: {
		Key:             "HabitatBlock",
		Name:            "Habitat Block",
		Description:     "Provides housing for colonists. Quality affects happiness.",
		Price:           700,
		MaxWorkers:      0,
		Profession:      ProfessionNone,
		Consumption:     economy.Amounts{economy.Energy: 2, economy.Regolith: 1},
		CrimeResistance: 1.0,
		Constructible:   true,
		Residence:       &ResidenceSpec{Quality: 3.0, Rent: 2.0, Capacity: 10},
	},
	KindSlum: {
		Key:             "Slums",
		Name:            "Slums",
		Description:     "Makeshift shelter raised by the long-term homeless.",
		MaxWorkers:      0,
		Profession:      ProfessionNone,
		CrimeResistance: 0.5,
		Residence:       &ResidenceSpec{Quality: 1.0, Rent: 0, Capacity: 15, Slum: true, CrimePerDay: 8},
	},
}

func init() {
	for k, s := range catalog {
		s.Kind = k
		catalog[k] = s
	}
}

// Lookup returns the capability record of kind k.
func Lookup(k Kind) (Spec, bool) {
	s, ok := catalog[k]
	return s, ok
}

// ParseKind looks up a kind by catalog key.
func ParseKind(key string) (Kind, bool) {
	for k, s := range catalog {
		if s.Key == key {
			return k, true
		}
	}
	return 0, false
}

func (k Kind) String() string {
	if s, ok := catalog[k]; ok {
		return s.Key
	}
	return fmt.Sprintf("kind(%d)", k)
}

// MarshalText encodes the kind by catalog key.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a catalog key.
func (k *Kind) UnmarshalText(b []byte) error {
	v, ok := ParseKind(string(b))
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownBuilding, string(b))
	}
	*k = v
	return nil
}

// Catalog returns the constructible kinds ordered by price, then key.
func Catalog() []Spec {
	var out []Spec
	for _, s := range catalog {
		if s.Constructible {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Price != out[j].Price {
			return out[i].Price < out[j].Price
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// StarterKinds are the buildings every new colony begins with, matching the
// order of world.StarterLayout.
var StarterKinds = []Kind{
	KindMine,
	KindEnergyGenerator,
	KindOxygenGenerator,
	KindHydroponicFarm,
	KindHospital,
	KindHabitatBlock,
}

// New instantiates a building of kind k at pos.
func New(k Kind, id BuildingID, pos world.HexCoord) (*Building, error) {
	s, ok := catalog[k]
	if !ok {
		return nil, fmt.Errorf("new building kind %d: %w", k, ErrUnknownBuilding)
	}
	b := &Building{
		ID:              id,
		Kind:            k,
		Name:            s.Name,
		Position:        pos,
		Active:          true,
		MaxWorkers:      s.MaxWorkers,
		Profession:      s.Profession,
		BaseWage:        s.Profession.DefaultWage(),
		Consumption:     s.Consumption,
		PerWorker:       s.PerWorker,
		Fixed:           s.Fixed,
		RequiredSurface: s.Surface,
		CrimeResistance: s.CrimeResistance,
	}
	if r := s.Residence; r != nil {
		b.Residence = &Residence{
			BaseQuality: r.Quality,
			Quality:     r.Quality,
			Rent:        r.Rent,
			Capacity:    r.Capacity,
			Slum:        r.Slum,
			CrimePerDay: r.CrimePerDay,
		}
	}
	if c := s.Clinic; c != nil {
		b.Clinic = &Clinic{Rate: c.Rate, MaxCapacity: c.MaxCapacity}
	}
	if p := s.Precinct; p != nil {
		b.Precinct = &Precinct{ReductionPerWorker: p.ReductionPerWorker, Radius: p.Radius}
	}
	return b, nil
}
