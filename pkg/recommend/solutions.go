package recommend

import (
	"github.com/helixworks/intake/pkg/catalog"
	"github.com/helixworks/intake/pkg/models"
)

// Fixed solution names. The web layer and the terminal actions reference
// solutions by these names, so they are part of the engine's contract.
const (
	CommunicationHubName  = "Client Communication Hub"
	TransparentLedgerName = "Transparent Ledger"
	GrowthEngineName      = "Growth & Reputation Engine"
	InsightsPlatformName  = "Business Insights Platform"
)

func communicationHubSolution() models.Solution {
	return models.Solution{
		Name:     CommunicationHubName,
		Category: models.CategoryTypeA,
		Summary: []string{
			"Answers routine client questions instantly, around the clock",
			"Collects every conversation in a single shared inbox",
			"Frees hours per week otherwise spent on repetitive replies",
		},
		Description: "A communication hub that automates the repetitive client " +
			"conversations drowning your team, so enquiries get answered fast " +
			"and nothing falls through the cracks.",
		AddOns: catalog.AddOns(),
	}
}

func transparentLedgerSolution() models.Solution {
	return models.Solution{
		Name:     TransparentLedgerName,
		Category: models.CategoryTypeB,
		Summary: []string{
			"Keeps a tamper-evident record of every transaction",
			"Reconciles invoices and payments without spreadsheets",
			"Gives you an audit-ready view of the books at any moment",
		},
		Description: "A transparent ledger that pulls your scattered bookkeeping " +
			"into one verifiable record, ending the end-of-month scramble.",
		AddOns: catalog.AddOns(),
	}
}

func growthEngineSolution() models.Solution {
	return models.Solution{
		Name:     GrowthEngineName,
		Category: models.CategoryHybrid,
		Summary: []string{
			"Turns visitors into enquiries with a focused acquisition funnel",
			"Gathers and showcases verified client reviews",
			"Tracks which channels actually bring paying customers",
		},
		Description: "An acquisition and reputation engine built to bring in new " +
			"clients and prove, with verifiable reviews, why they should stay.",
		AddOns: catalog.AddOns(),
	}
}

func insightsPlatformSolution() models.Solution {
	return models.Solution{
		Name:     InsightsPlatformName,
		Category: models.CategoryHybrid,
		Summary: []string{
			"Brings your business data together in one live overview",
			"Highlights the bottlenecks costing you the most time",
			"Suggests the next improvement worth automating",
		},
		Description: "A business intelligence platform for teams still exploring " +
			"their options: see how the business actually runs, then decide " +
			"what to improve first.",
		AddOns: catalog.AddOns(),
	}
}
