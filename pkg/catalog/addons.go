package catalog

import "github.com/helixworks/intake/pkg/models"

// Add-on identifiers. One entry per conceptual capability.
const (
	AddOnAnalytics      = "analytics"
	AddOnSecureTracking = "secure-tracking"
	AddOnSmartIntake    = "smart-intake"
)

// AddOns returns the static add-on catalog. Each entry is independently
// toggleable once a solution exists; the recommended flag marks a suggestion
// and never auto-applies the add-on.
func AddOns() []models.AddOn {
	return []models.AddOn{
		{
			ID:                 AddOnAnalytics,
			Name:               "Business Analytics",
			Description:        "Dashboards and trend reports over your operational data.",
			RecommendedDefault: true,
		},
		{
			ID:                 AddOnSecureTracking,
			Name:               "Secure Record Tracking",
			Description:        "Tamper-evident history for invoices, orders and agreements.",
			RecommendedDefault: false,
		},
		{
			ID:                 AddOnSmartIntake,
			Name:               "Smart Intake Forms",
			Description:        "Forms that qualify and route new client requests automatically.",
			RecommendedDefault: true,
		},
	}
}

// AddOnByID looks up a catalog entry by identifier.
func AddOnByID(id string) (models.AddOn, bool) {
	for _, addOn := range AddOns() {
		if addOn.ID == id {
			return addOn, true
		}
	}

	return models.AddOn{}, false
}
