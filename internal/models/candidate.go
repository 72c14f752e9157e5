// internal/models/candidate.go
package models

import "strings"

// QuotaCategory is the reservation class a candidate is allocated under.
type QuotaCategory string

const (
	QuotaGeneral QuotaCategory = "general"
	QuotaSC      QuotaCategory = "sc"
	QuotaST      QuotaCategory = "st"
	QuotaOBC     QuotaCategory = "obc"
	QuotaEWS     QuotaCategory = "ews"
)

// ReservedCategories is the fixed phase-1 processing order.
var ReservedCategories = []QuotaCategory{QuotaSC, QuotaST, QuotaOBC, QuotaEWS}

// AllQuotaCategories is the canonical ordering used for reports and plans.
var AllQuotaCategories = []QuotaCategory{QuotaGeneral, QuotaSC, QuotaST, QuotaOBC, QuotaEWS}

func (q QuotaCategory) Valid() bool {
	switch q {
	case QuotaGeneral, QuotaSC, QuotaST, QuotaOBC, QuotaEWS:
		return true
	}
	return false
}

func (q QuotaCategory) Reserved() bool {
	return q.Valid() && q != QuotaGeneral
}

func (q QuotaCategory) String() string { return string(q) }

var socialCategoryAliases = map[string]QuotaCategory{
	"general":                      QuotaGeneral,
	"gen":                          QuotaGeneral,
	"open":                         QuotaGeneral,
	"unreserved":                   QuotaGeneral,
	"ur":                           QuotaGeneral,
	"sc":                           QuotaSC,
	"scheduled caste":              QuotaSC,
	"scheduled castes":             QuotaSC,
	"st":                           QuotaST,
	"scheduled tribe":              QuotaST,
	"scheduled tribes":             QuotaST,
	"obc":                          QuotaOBC,
	"other backward class":         QuotaOBC,
	"other backward classes":       QuotaOBC,
	"obc-ncl":                      QuotaOBC,
	"ews":                          QuotaEWS,
	"economically weaker section":  QuotaEWS,
	"economically weaker sections": QuotaEWS,
}

// ParseQuotaCategory accepts only known codes and long names.
func ParseQuotaCategory(s string) (QuotaCategory, bool) {
	key := strings.Join(strings.Fields(strings.ToLower(s)), " ")
	q, ok := socialCategoryAliases[key]
	return q, ok
}

// NormalizeQuotaCategory maps a free-text social category to a QuotaCategory.
// Unrecognized or empty input falls back to general.
func NormalizeQuotaCategory(s string) QuotaCategory {
	if q, ok := ParseQuotaCategory(s); ok {
		return q
	}
	return QuotaGeneral
}

type Experience struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Duration    string `json:"duration,omitempty"`
}

type Education struct {
	Degree       string `json:"degree"`
	Institution  string `json:"institution,omitempty"`
	FieldOfStudy string `json:"fieldOfStudy,omitempty"`
	Year         int    `json:"year,omitempty"`
}

type Candidate struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	Skills          []string     `json:"skills"`
	Location        string       `json:"location"`
	Category        string       `json:"category"`
	SocialCategory  string       `json:"socialCategory"`
	Rural           bool         `json:"rural"`
	Female          bool         `json:"female"`
	Disability      bool         `json:"disability"`
	FirstGeneration bool         `json:"firstGeneration"`
	Experience      []Experience `json:"experience,omitempty"`
	Education       []Education  `json:"education,omitempty"`
}

// QuotaCategory derives the candidate's reservation class from SocialCategory.
func (c Candidate) QuotaCategory() QuotaCategory {
	return NormalizeQuotaCategory(c.SocialCategory)
}
