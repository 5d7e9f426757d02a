package terminology

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LabItem is one entry of the lab item dictionary (the D_LABITEMS analog):
// it resolves a numeric item id from a lab feed to a displayable test name.
type LabItem struct {
	Label string `yaml:"label" json:"label"`
	Fluid string `yaml:"fluid" json:"fluid"`
	LOINC string `yaml:"loinc" json:"loinc"`
}

type Catalog struct {
	LabItems map[int64]LabItem `yaml:"lab_items" json:"lab_items"`
	// HistorySections lists note section categories whose findings count as
	// past medical history (Retro); any other section yields NewFinding.
	HistorySections []string `yaml:"history_sections" json:"history_sections"`

	historySet map[string]struct{}
}

func Load(path string) (Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return DefaultCatalog(), err
	}
	var cat Catalog
	if err := yaml.Unmarshal(content, &cat); err != nil {
		return Catalog{}, err
	}
	if len(cat.LabItems) == 0 && len(cat.HistorySections) == 0 {
		return Catalog{}, fmt.Errorf("terminology catalog empty")
	}
	cat.buildIndex()
	return cat, nil
}

func (c *Catalog) buildIndex() {
	c.historySet = make(map[string]struct{}, len(c.HistorySections))
	for _, s := range c.HistorySections {
		c.historySet[strings.ToLower(strings.TrimSpace(s))] = struct{}{}
	}
}

// LookupLabItem resolves a lab item id to its display label.
func (c Catalog) LookupLabItem(itemID int64) (LabItem, bool) {
	if c.LabItems == nil {
		return LabItem{}, false
	}
	item, ok := c.LabItems[itemID]
	return item, ok
}

// IsHistorySection reports whether a note section category is treated as
// past medical history.
func (c Catalog) IsHistorySection(category string) bool {
	if c.historySet == nil {
		return strings.EqualFold(strings.TrimSpace(category), "past_medical_history")
	}
	_, ok := c.historySet[strings.ToLower(strings.TrimSpace(category))]
	return ok
}

func DefaultCatalog() Catalog {
	cat := Catalog{
		LabItems: map[int64]LabItem{
			50912: {Label: "Creatinine", Fluid: "Blood", LOINC: "2160-0"},
			50931: {Label: "Glucose", Fluid: "Blood", LOINC: "2345-7"},
			51222: {Label: "Hemoglobin", Fluid: "Blood", LOINC: "718-7"},
			50971: {Label: "Potassium", Fluid: "Blood", LOINC: "2823-3"},
		},
		HistorySections: []string{"past_medical_history"},
	}
	cat.buildIndex()
	return cat
}
