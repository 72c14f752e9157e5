// internal/allocation/classify.go
package allocation

import (
	"strings"

	"internship-allocator/internal/models"
)

// CategoryRelator decides whether two free-text categories belong to the same family.
type CategoryRelator interface {
	Related(a, b string) bool
}

// RegionResolver maps a free-text location to a region key.
type RegionResolver interface {
	Region(location string) (string, bool)
}

// RuralDetector reports whether a free-text location reads as rural.
type RuralDetector interface {
	IsRural(location string) bool
}

// Classifiers bundles the heuristic tables used by scoring and boosting.
type Classifiers struct {
	Categories CategoryRelator
	Regions    RegionResolver
	Rural      RuralDetector
}

func DefaultClassifiers() Classifiers {
	return Classifiers{
		Categories: KeywordCategoryRelator{Groups: defaultCategoryGroups},
		Regions:    CityRegionResolver{Cities: defaultCityRegions},
		Rural:      KeywordRuralDetector{Keywords: defaultRuralKeywords},
	}
}

func (c Classifiers) withDefaults() Classifiers {
	d := DefaultClassifiers()
	if c.Categories == nil {
		c.Categories = d.Categories
	}
	if c.Regions == nil {
		c.Regions = d.Regions
	}
	if c.Rural == nil {
		c.Rural = d.Rural
	}
	return c
}

var defaultCategoryGroups = [][]string{
	{"software development", "data science", "programming", "web development", "full stack", "backend", "frontend", "machine learning", "analytics"},
	{"marketing", "digital marketing", "social media", "content", "seo"},
	{"design", "ui/ux", "user interface", "user experience", "graphic design"},
	{"finance", "accounting", "financial"},
}

var defaultCityRegions = map[string]string{
	"bangalore":  "karnataka",
	"bengaluru":  "karnataka",
	"mysore":     "karnataka",
	"mumbai":     "maharashtra",
	"pune":       "maharashtra",
	"nagpur":     "maharashtra",
	"delhi":      "delhi",
	"new delhi":  "delhi",
	"gurgaon":    "haryana",
	"gurugram":   "haryana",
	"noida":      "uttar pradesh",
	"lucknow":    "uttar pradesh",
	"hyderabad":  "telangana",
	"chennai":    "tamil nadu",
	"coimbatore": "tamil nadu",
	"kolkata":    "west bengal",
	"ahmedabad":  "gujarat",
	"jaipur":     "rajasthan",
	"chandigarh": "punjab",
	"ludhiana":   "punjab",
	"barnala":    "punjab",
	"kochi":      "kerala",
}

var defaultRuralKeywords = []string{
	"village", "rural", "gram", "tehsil", "block", "mandal", "panchayat", "agricultural", "farming",
}

// KeywordCategoryRelator treats two categories as related when both contain a
// term from the same group.
type KeywordCategoryRelator struct {
	Groups [][]string
}

func (r KeywordCategoryRelator) Related(a, b string) bool {
	a, b = normalizeText(a), normalizeText(b)
	if a == "" || b == "" {
		return false
	}
	for _, group := range r.Groups {
		if containsAny(a, group) && containsAny(b, group) {
			return true
		}
	}
	return false
}

// CityRegionResolver resolves the region of the longest known city name found
// in the location.
type CityRegionResolver struct {
	Cities map[string]string
}

func (r CityRegionResolver) Region(location string) (string, bool) {
	loc := normalizeText(location)
	if loc == "" {
		return "", false
	}
	best, region := "", ""
	for city, reg := range r.Cities {
		if !strings.Contains(loc, city) {
			continue
		}
		if len(city) > len(best) || (len(city) == len(best) && city < best) {
			best, region = city, reg
		}
	}
	return region, best != ""
}

type KeywordRuralDetector struct {
	Keywords []string
}

func (d KeywordRuralDetector) IsRural(location string) bool {
	return containsAny(normalizeText(location), d.Keywords)
}

// Eligible applies the hard filters declared on an internship. Ineligible
// pairs are never scored.
func Eligible(c models.Candidate, in models.Internship) bool {
	if strings.TrimSpace(in.MinEducation) != "" && len(c.Education) == 0 {
		return false
	}
	if in.LocationRestricted && len(in.AllowedLocations) > 0 {
		loc := normalizeText(c.Location)
		for _, allowed := range in.AllowedLocations {
			if normalizeText(allowed) == loc {
				return true
			}
		}
		return false
	}
	return true
}

func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func containsAny(s string, terms []string) bool {
	if s == "" {
		return false
	}
	for _, t := range terms {
		if t != "" && strings.Contains(s, t) {
			return true
		}
	}
	return false
}
