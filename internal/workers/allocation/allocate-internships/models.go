// internal/workers/allocation/allocate-internships/models.go
package allocateinternships

import (
	"internship-allocator/internal/allocation"
	"internship-allocator/internal/models"
)

type Input struct {
	BatchID string `json:"batchId"`
	// QuotaOverride replaces the quota table for this run only.
	QuotaOverride map[string]float64 `json:"quotaOverride,omitempty"`
}

type Output struct {
	AllocationID          string                                              `json:"allocationId"`
	BatchID               string                                              `json:"batchId"`
	TotalAllocated        int                                                 `json:"totalAllocated"`
	TotalCapacity         int                                                 `json:"totalCapacity"`
	UnallocatedCandidates int                                                 `json:"unallocatedCandidates"`
	QuotaPlan             models.QuotaPlan                                    `json:"quotaPlan"`
	QuotaFulfillment      map[models.QuotaCategory]int                        `json:"quotaFulfillment"`
	CapacityUtilization   map[string]int                                      `json:"capacityUtilization"`
	AllocationTypes       map[models.AllocationType]int                       `json:"allocationTypes"`
	CompliantCategories   int                                                 `json:"compliantCategories"`
	Compliance            map[models.QuotaCategory]allocation.ComplianceEntry `json:"compliance"`
}
