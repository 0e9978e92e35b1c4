package domain

// TermName identifies one of the named business terms tracked in a lease
// abstract. Names match the JSON keys the extraction collaborator returns.
type TermName string

const (
	TermTenantName                 TermName = "tenantName"
	TermSuiteNumber                TermName = "suiteNumber"
	TermRentableSquareFootage      TermName = "rentableSquareFootage"
	TermLeaseCommencementDate      TermName = "leaseCommencementDate"
	TermRentCommencementDate       TermName = "rentCommencementDate"
	TermPropertyAddress            TermName = "propertyAddress"
	TermTenantImprovementAllowance TermName = "tenantImprovementAllowance"
	TermExpenseRecoveryType        TermName = "expenseRecoveryType"
	TermBaseYear                   TermName = "baseYear"
	TermCapOnManagementFee         TermName = "capOnManagementFee"
	TermGuarantor                  TermName = "guarantor"
	TermLetterOfCredit             TermName = "letterOfCredit"
	TermSigningEntity              TermName = "signingEntity"
	TermTerminationOptions         TermName = "terminationOptions"
	TermParkingRights              TermName = "parkingRights"
	TermRenewalOptions             TermName = "renewalOptions"
	TermRightOfFirstOffer          TermName = "rightOfFirstOffer"
	TermRightOfFirstRefusal        TermName = "rightOfFirstRefusal"
	TermRightOfPurchaseOffer       TermName = "rightOfPurchaseOffer"
	TermExpenseGrossUpPercentage   TermName = "expenseGrossUpPercentage"
	TermExclusiveUse               TermName = "exclusiveUse"
	TermAdditionalCharges          TermName = "additionalCharges"
	TermControllableExpenseCap     TermName = "controllableExpenseCap"
	TermControllableExpenses       TermName = "controllableExpenses"
	TermNonControllableExpenses    TermName = "nonControllableExpenses"
	TermLandlordRelocationRight    TermName = "landlordRelocationRight"
	TermRightOfFirstOpportunity    TermName = "rightOfFirstOpportunity"
	TermOptionSpace                TermName = "optionSpace"
	TermUnusedTIAllowance          TermName = "unusedTiAllowance"
	TermStorage                    TermName = "storage"
	TermSpacePocket                TermName = "spacePocket"
	TermCompetingBusinesses        TermName = "competingBusinesses"
	TermSignage                    TermName = "signage"
	TermRestoration                TermName = "restoration"
	TermRentAbatement              TermName = "rentAbatement"
	TermFreeRent                   TermName = "freeRent"
	TermProRataShare               TermName = "proRataShare"
	TermBuildingDenominator        TermName = "buildingDenominator"
)

// TermKind constrains the JSON shape a term's value may take.
type TermKind string

const (
	KindText      TermKind = "text"
	KindNumber    TermKind = "number"
	KindDate      TermKind = "date"
	KindProvision TermKind = "provision"
)

type termSpec struct {
	name    TermName
	kind    TermKind
	display string
}

// Ordered the way abstractors read a lease: core, financial, legal, rights,
// expenses, other.
var termRegistry = []termSpec{
	{TermTenantName, KindText, "Tenant Name"},
	{TermSuiteNumber, KindText, "Suite Number"},
	{TermRentableSquareFootage, KindNumber, "Rentable Square Footage"},
	{TermLeaseCommencementDate, KindDate, "Lease Commencement Date"},
	{TermRentCommencementDate, KindDate, "Rent Commencement Date"},
	{TermPropertyAddress, KindText, "Property Address"},
	{TermTenantImprovementAllowance, KindNumber, "Tenant Improvement Allowance"},
	{TermExpenseRecoveryType, KindText, "Expense Recovery Type"},
	{TermBaseYear, KindText, "Base Year"},
	{TermCapOnManagementFee, KindNumber, "Cap on Management Fee"},
	{TermGuarantor, KindText, "Guarantor"},
	{TermLetterOfCredit, KindText, "Letter of Credit"},
	{TermSigningEntity, KindText, "Signing Entity"},
	{TermTerminationOptions, KindProvision, "Termination Options"},
	{TermParkingRights, KindProvision, "Parking Rights"},
	{TermRenewalOptions, KindProvision, "Options to Renew or Extend"},
	{TermRightOfFirstOffer, KindProvision, "Right of First Offer"},
	{TermRightOfFirstRefusal, KindProvision, "Right of First Refusal"},
	{TermRightOfPurchaseOffer, KindProvision, "Right of Purchase Offer"},
	{TermExpenseGrossUpPercentage, KindNumber, "Expense Gross Up Percentage"},
	{TermExclusiveUse, KindText, "Exclusive Use"},
	{TermAdditionalCharges, KindProvision, "Additional Charges"},
	{TermControllableExpenseCap, KindNumber, "Controllable Expense Cap"},
	{TermControllableExpenses, KindProvision, "Controllable Expenses"},
	{TermNonControllableExpenses, KindProvision, "Non-Controllable Expenses"},
	{TermLandlordRelocationRight, KindText, "Landlord Relocation Right"},
	{TermRightOfFirstOpportunity, KindProvision, "Right of First Opportunity"},
	{TermOptionSpace, KindProvision, "Option Space"},
	{TermUnusedTIAllowance, KindText, "Unused Tenant Improvement Allowance"},
	{TermStorage, KindText, "Storage"},
	{TermSpacePocket, KindText, "Space Pocket"},
	{TermCompetingBusinesses, KindText, "Competing Businesses"},
	{TermSignage, KindText, "Signage"},
	{TermRestoration, KindText, "Restoration"},
	{TermRentAbatement, KindText, "Rent Abatement"},
	{TermFreeRent, KindText, "Free Rent"},
	{TermProRataShare, KindNumber, "Pro-Rata Share"},
	{TermBuildingDenominator, KindNumber, "Building Denominator"},
}

var termKinds = func() map[TermName]TermKind {
	m := make(map[TermName]TermKind, len(termRegistry))
	for _, spec := range termRegistry {
		m[spec.name] = spec.kind
	}
	return m
}()

// Terms returns every known term name in presentation order.
func Terms() []TermName {
	out := make([]TermName, 0, len(termRegistry))
	for _, spec := range termRegistry {
		out = append(out, spec.name)
	}
	return out
}

func KnownTerm(name TermName) bool {
	_, ok := termKinds[name]
	return ok
}

func KindOf(name TermName) TermKind {
	return termKinds[name]
}

// DisplayName returns the abstractor-facing label for a term, falling back to
// the raw name for unrecognized input.
func DisplayName(name TermName) string {
	for _, spec := range termRegistry {
		if spec.name == name {
			return spec.display
		}
	}
	return string(name)
}
