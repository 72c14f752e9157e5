// internal/models/internship.go
package models

type Internship struct {
	ID                 string   `json:"id"`
	Title              string   `json:"title"`
	Company            string   `json:"company"`
	Capacity           int      `json:"capacity"`
	Category           string   `json:"category"`
	Location           string   `json:"location"`
	Remote             bool     `json:"remote"`
	RequiredSkills     []string `json:"requiredSkills"`
	SalaryMin          int      `json:"salaryMin"`
	SalaryMax          int      `json:"salaryMax"`
	MinEducation       string   `json:"minEducation,omitempty"`
	LocationRestricted bool     `json:"locationRestricted,omitempty"`
	AllowedLocations   []string `json:"allowedLocations,omitempty"`
}

// TotalCapacity sums seat capacity over a set of internships.
func TotalCapacity(internships []Internship) int {
	total := 0
	for _, in := range internships {
		total += in.Capacity
	}
	return total
}
