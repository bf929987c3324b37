package properties

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type Capacity struct {
	Guests    int `yaml:"guests" json:"guests"`
	Bedrooms  int `yaml:"bedrooms" json:"bedrooms"`
	Bathrooms int `yaml:"bathrooms" json:"bathrooms"`
	Beds      int `yaml:"beds" json:"beds"`
}

type Policy struct {
	Title string   `yaml:"title" json:"title"`
	Items []string `yaml:"items" json:"items"`
}

// Property is the static marketing copy shown next to a listing's reviews.
type Property struct {
	Slug            string   `yaml:"slug" json:"slug"`
	Name            string   `yaml:"name" json:"name"`
	Location        string   `yaml:"location" json:"location"`
	Headline        string   `yaml:"headline" json:"headline"`
	HeroImages      []string `yaml:"heroImages" json:"heroImages"`
	Capacity        Capacity `yaml:"capacity" json:"capacity"`
	Summary         string   `yaml:"summary" json:"summary"`
	LongDescription string   `yaml:"longDescription" json:"longDescription"`
	NightlyRate     float64  `yaml:"nightlyRate" json:"nightlyRate"`
	CleaningFee     float64  `yaml:"cleaningFee" json:"cleaningFee"`
	CheckIn         string   `yaml:"checkIn" json:"checkIn"`
	CheckOut        string   `yaml:"checkOut" json:"checkOut"`
	Highlights      []string `yaml:"highlights" json:"highlights"`
	Amenities       []string `yaml:"amenities" json:"amenities"`
	Policies        []Policy `yaml:"policies" json:"policies"`
}

type Catalog struct {
	Properties map[string]Property `yaml:"properties" json:"properties"`
}

// Load reads a YAML catalog keyed by listing slug. An empty path yields DefaultCatalog.
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
	if len(cat.Properties) == 0 {
		return Catalog{}, fmt.Errorf("property catalog empty")
	}
	for key, p := range cat.Properties {
		if p.Slug == "" {
			p.Slug = key
			cat.Properties[key] = p
		}
	}
	return cat, nil
}

func (c Catalog) Lookup(slug string) (Property, bool) {
	if c.Properties == nil {
		return Property{}, false
	}
	p, ok := c.Properties[strings.ToLower(slug)]
	return p, ok
}

func DefaultCatalog() Catalog {
	return Catalog{Properties: map[string]Property{
		"2b-n1-a-29-shoreditch-heights": {
			Slug:        "2b-n1-a-29-shoreditch-heights",
			Name:        "2B N1 A - 29 Shoreditch Heights",
			Location:    "Shoreditch, East London",
			Headline:    "Stunning 2 Bed Apartment in Shoreditch - The Flex London",
			Capacity:    Capacity{Guests: 5, Bedrooms: 2, Bathrooms: 1, Beds: 3},
			Summary:     "A sun-soaked Shoreditch apartment with curated interiors and leafy views.",
			NightlyRate: 285,
			CleaningFee: 95,
			CheckIn:     "3:00 PM",
			CheckOut:    "10:00 AM",
			Highlights:  []string{"Self check-in with smart lock", "Washer + dryer in apartment"},
			Amenities:   []string{"High-speed Wi-Fi", "Washer & dryer", "Kitchen"},
		},
	}}
}
