package sandbox

import (
	"testing"
)

func TestDefaultSeedConfig(t *testing.T) {
	cfg := DefaultSeedConfig()
	if cfg.PatientCount <= 0 {
		t.Error("expected a positive patient count")
	}
	if len(cfg.Wings) == 0 {
		t.Error("expected at least one wing")
	}
	if cfg.PatientCount > len(cfg.Wings)*cfg.RoomsPerWing {
		t.Error("default census exceeds room capacity")
	}
}

func TestNewSeederDefaultsRoomCapacity(t *testing.T) {
	s := NewSeeder(nil, nil, SeedConfig{PatientCount: 5, Wings: []string{"West"}})
	if s.cfg.RoomsPerWing <= 0 {
		t.Errorf("expected a positive rooms-per-wing default, got %d", s.cfg.RoomsPerWing)
	}
}

func TestCensusSizeCappedByRooms(t *testing.T) {
	s := NewSeeder(nil, nil, SeedConfig{PatientCount: 50, Wings: []string{"North", "South"}, RoomsPerWing: 10})
	if got := s.censusSize(); got != 20 {
		t.Errorf("expected census capped at 20 beds, got %d", got)
	}

	s = NewSeeder(nil, nil, SeedConfig{PatientCount: 8, Wings: []string{"North", "South"}, RoomsPerWing: 10})
	if got := s.censusSize(); got != 8 {
		t.Errorf("expected requested census of 8, got %d", got)
	}
}

func TestSeedMenuHasJuiceAndBeverage(t *testing.T) {
	categories := map[string]bool{}
	for _, m := range seedMenu {
		categories[m.category] = true
	}
	for _, want := range []string{"entree", "side", "juice", "beverage"} {
		if !categories[want] {
			t.Errorf("seed menu missing category %q", want)
		}
	}
}

func TestSeedMenuHasADAOptions(t *testing.T) {
	// ADA patients must have something to pick in each food category.
	adaByCategory := map[string]bool{}
	for _, m := range seedMenu {
		if m.ada {
			adaByCategory[m.category] = true
		}
	}
	for _, want := range []string{"entree", "side", "dessert", "beverage"} {
		if !adaByCategory[want] {
			t.Errorf("no ADA-friendly %s in the seed menu", want)
		}
	}
}
