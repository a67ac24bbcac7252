// Package model defines the immutable fact records the resolvers operate on
// and the derived card structures returned to the serving layer.
package model

import "github.com/rotisserie/eris"

// Category classifies a food for recommendation sub-lists.
type Category string

const (
	CategoryProduce        Category = "produce"
	CategoryMeat           Category = "meat"
	CategoryDairy          Category = "dairy"
	CategoryGrains         Category = "grains"
	CategoryLegumes        Category = "legumes"
	CategoryOilsSweeteners Category = "oils_sweeteners"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryProduce, CategoryMeat, CategoryDairy, CategoryGrains, CategoryLegumes, CategoryOilsSweeteners:
		return true
	}
	return false
}

// Food is a canonical catalog entry. Created by seeding; only synonyms are
// ever added after creation.
type Food struct {
	ID               string   `json:"id"`
	CanonicalName    string   `json:"canonical_name"`
	Category         Category `json:"category"`
	Synonyms         []string `json:"synonyms"`
	TypicalServingG  float64  `json:"typical_serving_g"`
	EdiblePortionPct float64  `json:"edible_portion_pct"`
}

// Validate checks the food's structural invariants.
func (f Food) Validate() error {
	if f.ID == "" {
		return eris.New("food: missing id")
	}
	if f.CanonicalName == "" {
		return eris.Errorf("food %s: missing canonical name", f.ID)
	}
	if !f.Category.Valid() {
		return eris.Errorf("food %s: unknown category %q", f.ID, f.Category)
	}
	if f.EdiblePortionPct <= 0 || f.EdiblePortionPct > 1 {
		return eris.Errorf("food %s: edible portion %.2f outside (0,1]", f.ID, f.EdiblePortionPct)
	}
	return nil
}

// Source is a citation record. Every factual record must reference one.
type Source struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Publisher     string `json:"publisher"`
	URL           string `json:"url"`
	PublishedDate string `json:"published_date,omitempty"`
	AccessedDate  string `json:"accessed_date"`
	License       string `json:"license"`
	Notes         string `json:"notes,omitempty"`
}

// Validate checks the citation's required fields.
func (s Source) Validate() error {
	if s.ID == "" {
		return eris.New("source: missing id")
	}
	if s.Title == "" {
		return eris.Errorf("source %s: missing title", s.ID)
	}
	return nil
}
