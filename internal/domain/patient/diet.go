package patient

import (
	"fmt"
	"strings"

	"github.com/dietary/dietary/internal/domain/catalog"
)

// DietRules is the facility-level dietary policy that is configuration
// rather than per-patient data.
type DietRules struct {
	// ProteinCategories is the allow-list applied when a profile is
	// meats-only. Category matching is case-insensitive.
	ProteinCategories []string
}

// DefaultDietRules mirrors the categories the dietary office treats as
// protein-bearing.
func DefaultDietRules() DietRules {
	return DietRules{
		ProteinCategories: []string{"entree", "meat", "protein"},
	}
}

func (r DietRules) isProteinCategory(category string) bool {
	for _, c := range r.ProteinCategories {
		if strings.EqualFold(c, category) {
			return true
		}
	}
	return false
}

// ValidateTextures flags profiles carrying more than one mechanical
// texture. The flags are stored independently so the check is opt-in;
// existing charts legitimately carry combinations.
func (r DietRules) ValidateTextures(profile *DietProfile) error {
	n := 0
	if profile.Textures.MechanicalChopped {
		n++
	}
	if profile.Textures.MechanicalGround {
		n++
	}
	if profile.Textures.BiteSize {
		n++
	}
	if n > 1 {
		return fmt.Errorf("profile carries %d mechanical textures, expected at most one", n)
	}
	return nil
}

// EffectiveADA resolves whether the ADA diet applies for one meal: the
// per-meal override wins when set, otherwise the patient-level flag.
func (p *DietProfile) EffectiveADA(meal Meal) bool {
	var override *bool
	switch meal {
	case MealBreakfast:
		override = p.BreakfastADA
	case MealLunch:
		override = p.LunchADA
	case MealDinner:
		override = p.DinnerADA
	}
	if override != nil {
		return *override
	}
	return p.ADADiet
}

// ItemSelectable reports whether a catalog item may be offered to a
// patient for a meal. It filters what the ordering screen shows; it
// never invalidates a selection already on file.
func (r DietRules) ItemSelectable(profile *DietProfile, item *catalog.Item, meal Meal) bool {
	if profile.EffectiveADA(meal) && !item.ADAFriendly {
		return false
	}
	if profile.MeatsOnly && !r.isProteinCategory(item.Category) {
		return false
	}
	// Texture flags are kitchen preparation metadata, not a filter.
	return true
}
