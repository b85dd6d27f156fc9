// Package classify routes free-text queries to the fixed set of ITSM ticket
// sub-categories used by the ops team.
package classify

import "strings"

// Category is a routing label for ticket classification.
type Category int

// The enumeration order is significant and fixed: when a query matches
// keywords from more than one category, the first-listed wins.
const (
	Advisories Category = iota
	ApplicationAccess
	AgencyManagement
	AgencyHealthCheck
	AuditModules
	CageScan
	CISOReporting
	DigitalService
	ICTGovernance
	ICTPlanSpend
	IntegratedRiskManagement
	PolicyStandards
	SupplierManagement
	Uncategorized
)

var labels = map[Category]string{
	Advisories:               "Advisories, Briefings and any other business matters",
	ApplicationAccess:        "Application Access & Performance (including Migration to GCC+)",
	AgencyManagement:         "Data / UI & Process/Workflow of Agency & System Management Modules",
	AgencyHealthCheck:        "Data / UI Agency Health Check",
	AuditModules:             "Data / UI of AIISA, IM8 Process Audit, IM8 VAPT Findings, UC & Internal Audit Modules",
	CageScan:                 "Data / UI of CageScan Module",
	CISOReporting:            "Data / UI of CISO Reporting Module",
	DigitalService:           "Data / UI of Digital Service Module",
	ICTGovernance:            "Data / UI of ICT Governance Module & MF Dashboards",
	ICTPlanSpend:             "Data / UI of ICT Plan and Spend & PSIRC Module",
	IntegratedRiskManagement: "Data / UI of Integrated Risk Management Module",
	PolicyStandards:          "Data / UI of Policy, Standards and Guidelines / Waiver Module",
	SupplierManagement:       "Data / UI of Supplier Management Module",
	// Everything unmatched routes to the same business-matters bucket.
	Uncategorized: "Advisories, Briefings and any other business matters",
}

// Label returns the category's display name as it appears on logged tickets.
func (c Category) Label() string {
	return labels[c]
}

// keyword triggers, all lower-case. Scanned in enumeration order.
var triggers = []struct {
	category Category
	keywords []string
}{
	{Advisories, []string{"billing", "subscription", "invoice", "payment", "advisory", "advisories", "briefing"}},
	{ApplicationAccess, []string{"access", "login", "log in", "logging in", "performance", "slow", "timeout", "gcc", "corppass", "techpass", "2fa"}},
	{AgencyManagement, []string{"agency management", "system management", "workflow", "approval flow", "approving officer"}},
	{AgencyHealthCheck, []string{"health check", "ahc"}},
	{AuditModules, []string{"aiisa", "im8", "vapt", "process audit", "internal audit", "audit finding", "penetration test"}},
	{CageScan, []string{"cagescan", "cage scan"}},
	{CISOReporting, []string{"ciso"}},
	{DigitalService, []string{"digital service", "dsm"}},
	{ICTGovernance, []string{"governance", "mf dashboard", "dashboard"}},
	{ICTPlanSpend, []string{"ict plan", "spend", "psirc", "budget"}},
	{IntegratedRiskManagement, []string{"risk", "irm"}},
	{PolicyStandards, []string{"policy", "policies", "standard", "guideline", "waiver"}},
	{SupplierManagement, []string{"supplier", "vendor", "contract"}},
}

// Classify maps a query to exactly one category by case-insensitive keyword
// membership. If the query matches nothing and hint is non-empty (e.g. a
// previously shown suggested topic), the hint is scanned the same way. The
// fallback is Uncategorized, so Classify is total over all string inputs.
func Classify(query, hint string) Category {
	if c, ok := scan(query); ok {
		return c
	}
	if hint != "" {
		if c, ok := scan(hint); ok {
			return c
		}
	}
	return Uncategorized
}

func scan(text string) (Category, bool) {
	if text == "" {
		return Uncategorized, false
	}
	lowered := strings.ToLower(text)
	for _, t := range triggers {
		for _, kw := range t.keywords {
			if strings.Contains(lowered, kw) {
				return t.category, true
			}
		}
	}
	return Uncategorized, false
}
