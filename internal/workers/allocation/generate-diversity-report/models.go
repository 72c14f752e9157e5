// internal/workers/allocation/generate-diversity-report/models.go
package generatediversityreport

import "internship-allocator/internal/allocation"

type Input struct {
	AllocationID string `json:"allocationId"`
}

type Output struct {
	AllocationID        string                     `json:"allocationId"`
	CompliantCategories int                        `json:"compliantCategories"`
	Indexed             bool                       `json:"indexed"`
	ReportIndex         string                     `json:"reportIndex,omitempty"`
	Report              allocation.DiversityReport `json:"report"`
}
