// Package sandbox generates synthetic dietary data for demo and
// development environments: a food catalog, an admitted census with
// varied diet profiles, and partially worked meal selections. Output
// is reproducible for a given seed.
package sandbox

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/dietary/dietary/internal/domain/catalog"
	"github.com/dietary/dietary/internal/domain/patient"
)

// SeedConfig controls the volume and shape of generated data.
type SeedConfig struct {
	PatientCount int      `json:"patient_count"`
	Wings        []string `json:"wings"`
	RoomsPerWing int      `json:"rooms_per_wing"`
	Seed         int64    `json:"seed"`
}

// DefaultSeedConfig returns a config sized for a small demo facility.
func DefaultSeedConfig() SeedConfig {
	return SeedConfig{
		PatientCount: 24,
		Wings:        []string{"North", "South", "East"},
		RoomsPerWing: 20,
		Seed:         1,
	}
}

// SeedResult summarizes what a seed run created.
type SeedResult struct {
	Items      int           `json:"items"`
	Patients   int           `json:"patients"`
	Selections int           `json:"selections"`
	Elapsed    time.Duration `json:"elapsed"`
}

// Seeder writes synthetic data through the domain services so all
// validation and uniqueness rules apply to generated data too.
type Seeder struct {
	catalog  *catalog.Service
	patients *patient.Service
	cfg      SeedConfig
}

func NewSeeder(catalogSvc *catalog.Service, patientSvc *patient.Service, cfg SeedConfig) *Seeder {
	if cfg.PatientCount <= 0 {
		cfg = DefaultSeedConfig()
	}
	if cfg.RoomsPerWing <= 0 {
		cfg.RoomsPerWing = DefaultSeedConfig().RoomsPerWing
	}
	if len(cfg.Wings) == 0 {
		cfg.Wings = DefaultSeedConfig().Wings
	}
	return &Seeder{catalog: catalogSvc, patients: patientSvc, cfg: cfg}
}

// censusSize caps the requested patient count at the facility's room
// capacity. Bed uniqueness applies to seeded data too.
func (s *Seeder) censusSize() int {
	capacity := len(s.cfg.Wings) * s.cfg.RoomsPerWing
	if s.cfg.PatientCount > capacity {
		return capacity
	}
	return s.cfg.PatientCount
}

type seedItem struct {
	name     string
	category string
	ada      bool
}

var seedMenu = []seedItem{
	{"Scrambled Eggs", "entree", true},
	{"Oatmeal", "entree", true},
	{"Pancakes", "entree", false},
	{"Grilled Chicken", "entree", true},
	{"Baked Fish", "entree", true},
	{"Meatloaf", "entree", false},
	{"Roast Turkey", "entree", true},
	{"Mashed Potatoes", "side", true},
	{"Steamed Broccoli", "side", true},
	{"Dinner Roll", "side", false},
	{"Garden Salad", "side", true},
	{"Chocolate Cake", "dessert", false},
	{"Sugar-Free Jello", "dessert", true},
	{"Fruit Cup", "dessert", true},
	{"Orange Juice", "juice", false},
	{"Apple Juice", "juice", false},
	{"Cranberry Juice", "juice", true},
	{"Coffee", "beverage", true},
	{"Hot Tea", "beverage", true},
	{"Milk", "beverage", true},
}

var seedFirstNames = []string{"James", "Mary", "Robert", "Patricia", "John", "Linda", "Michael", "Barbara", "David", "Susan", "Carlos", "Elena"}
var seedLastNames = []string{"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis", "Lopez", "Wilson"}
var seedDietTypes = []string{"Regular", "Cardiac", "Renal", "Low Sodium", "Clear Liquid"}

var seedFluids = []patient.FluidRestriction{
	patient.FluidNone, patient.FluidNone, patient.Fluid1500ml, patient.Fluid2000ml,
}

// Run generates the catalog, census and today's selections. It is not
// idempotent; run it against an empty database.
func (s *Seeder) Run(ctx context.Context) (*SeedResult, error) {
	start := time.Now()
	rng := rand.New(rand.NewSource(s.cfg.Seed))
	result := &SeedResult{}

	items := make([]*catalog.Item, 0, len(seedMenu))
	for _, m := range seedMenu {
		item := &catalog.Item{Name: m.name, Category: m.category, ADAFriendly: m.ada}
		if err := s.catalog.CreateItem(ctx, item); err != nil {
			return nil, fmt.Errorf("seed item %s: %w", m.name, err)
		}
		items = append(items, item)
		result.Items++
	}

	today := time.Now()
	for i := 0; i < s.censusSize(); i++ {
		wing := s.cfg.Wings[i%len(s.cfg.Wings)]
		room := fmt.Sprintf("%d", 100+i/len(s.cfg.Wings))
		p := &patient.Patient{
			FirstName: seedFirstNames[rng.Intn(len(seedFirstNames))],
			LastName:  seedLastNames[rng.Intn(len(seedLastNames))],
			Wing:      wing,
			Room:      room,
			Diet: patient.DietProfile{
				DietType:         seedDietTypes[rng.Intn(len(seedDietTypes))],
				ADADiet:          rng.Intn(4) == 0,
				FluidRestriction: seedFluids[rng.Intn(len(seedFluids))],
				Textures: patient.TextureFlags{
					MechanicalChopped: rng.Intn(8) == 0,
					BreadOK:           rng.Intn(2) == 0,
					NectarThick:       rng.Intn(10) == 0,
				},
				ExtraGravy: rng.Intn(5) == 0,
			},
		}
		if err := s.patients.CreatePatient(ctx, p); err != nil {
			return nil, fmt.Errorf("seed patient %s/%s: %w", wing, room, err)
		}
		result.Patients++

		// Roughly a mid-shift census: some meals recorded, some
		// completed, the occasional NPO.
		for _, meal := range patient.Meals {
			roll := rng.Intn(10)
			if roll < 2 {
				continue
			}
			if roll == 2 {
				if err := s.patients.MarkNPO(ctx, p.ID, today, meal, true); err != nil {
					return nil, err
				}
				result.Selections++
				continue
			}
			sel := &patient.MealSelection{
				PatientID:   p.ID,
				ServiceDate: today,
				Meal:        meal,
				Items:       items[rng.Intn(len(items))].Name + ", " + items[rng.Intn(len(items))].Name,
				Juices:      "Apple Juice",
				Drinks:      "Coffee",
			}
			if err := s.patients.RecordSelection(ctx, sel); err != nil {
				return nil, err
			}
			if roll > 6 {
				if err := s.patients.MarkComplete(ctx, p.ID, today, meal); err != nil {
					return nil, err
				}
			}
			result.Selections++
		}
	}

	result.Elapsed = time.Since(start)
	return result, nil
}
