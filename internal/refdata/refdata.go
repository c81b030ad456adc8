// Package refdata holds the static insurance reference data shared by the
// account master builder and the posting generator.
package refdata

import (
	"fmt"

	"golang-synthetic-ledger/internal/models"
)

const (
	CompanyCode      = "1000"
	PartnerCompany   = "2000"
	Currency         = "USD"
	DefaultYear      = 2025
	DefaultProfitCtr = "PC1000"
	DefaultSegment   = "PC"
)

// Preparer identities
const (
	UserSystem  = "SYSTEM"
	UserJSmith  = "JSMITH"
	UserMBrown  = "MBROWN"
	UserAChen   = "ACHEN"
	UserDWilson = "DWILSON"
	UserLJones  = "LJONES"
	UserRLopez  = "RLOPEZ"
)

// Users lists every preparer that can appear on a posting
var Users = []string{UserSystem, UserJSmith, UserMBrown, UserAChen, UserDWilson, UserLJones, UserRLopez}

// States in index order; the index is encoded into state detail accounts
var States = []string{"CA", "FL", "TX", "NY", "PA", "IL", "OH", "NJ", "GA", "NC", "MI", "VA"}

// CommercialStates is the subset written by the commercial line
var CommercialStates = []string{"CA", "TX", "NY", "IL", "PA", "FL", "OH", "NJ"}

// CostCenters used by operating expense postings
var CostCenters = []string{"CC1000", "CC1100", "CC2000", "CC2100", "CC3000", "CC3100", "CC4000", "CC5000", "CC6000", "CC7000"}

// Channel is a distribution channel with its index for channel commission accounts
type Channel struct {
	Code  string
	Index int
}

var Channels = []Channel{{"EA", 0}, {"IA", 1}, {"DIRECT", 2}, {"DIGITAL", 3}}

// ClaimType is a claim classification with its index for claim-type loss accounts
type ClaimType struct {
	Code  string
	Index int
}

var (
	ClaimBI   = ClaimType{"BI", 0}
	ClaimPD   = ClaimType{"PD", 1}
	ClaimLiab = ClaimType{"LIAB", 2}
	ClaimComp = ClaimType{"COMP", 3}
	ClaimColl = ClaimType{"COLL", 4}
	ClaimMed  = ClaimType{"MED", 5}
)

// LOB describes one line of business
type LOB struct {
	Code         string
	Name         string
	Index        int
	ProfitCenter string
	Segment      string
	States       []string
	Products     []string
	ClaimTypes   []ClaimType
	// HasStateDetail controls generation of per-state premium and loss accounts
	HasStateDetail bool
	// CatExposed marks lines that carry catastrophe loss accounts
	CatExposed bool
}

var (
	Auto = LOB{
		Code: "AUTO", Name: "Personal Auto", Index: 0, ProfitCenter: "PC1100", Segment: "PERS",
		States:         States,
		Products:       []string{"PPA", "PPA-LI", "PPA-PD", "PPA-NF", "MOTO"},
		ClaimTypes:     []ClaimType{ClaimBI, ClaimPD, ClaimComp, ClaimColl, ClaimMed},
		HasStateDetail: true, CatExposed: true,
	}
	Home = LOB{
		Code: "HOME", Name: "Homeowners", Index: 1, ProfitCenter: "PC1200", Segment: "PERS",
		States:         States,
		Products:       []string{"HO3", "HO5", "HO4"},
		ClaimTypes:     []ClaimType{ClaimPD, ClaimLiab, ClaimMed},
		HasStateDetail: true, CatExposed: true,
	}
	Commercial = LOB{
		Code: "COMML", Name: "Commercial Lines", Index: 2, ProfitCenter: "PC1300", Segment: "COMM",
		States:         CommercialStates,
		Products:       []string{"BOP", "CGL", "CPP", "CAL", "CAPD"},
		ClaimTypes:     []ClaimType{ClaimBI, ClaimPD, ClaimLiab},
		HasStateDetail: true, CatExposed: true,
	}
	WorkersComp = LOB{
		Code: "WC", Name: "Workers Compensation", Index: 3, ProfitCenter: "PC1400", Segment: "COMM",
		States:     States,
		Products:   []string{"WC", "WC-GC", "WC-LD"},
		ClaimTypes: []ClaimType{ClaimMed, ClaimLiab},
	}
)

// LOBs in index order
var LOBs = []LOB{Auto, Home, Commercial, WorkersComp}

// LOBByCode returns the line of business with the given code
func LOBByCode(code string) (LOB, bool) {
	for _, l := range LOBs {
		if l.Code == code {
			return l, true
		}
	}
	return LOB{}, false
}

// StatutoryLines maps financial product codes to NAIC annual statement lines
var StatutoryLines = map[string]string{
	"PPA": "19.2", "PPA-LI": "19.2", "PPA-NF": "19.1", "PPA-PD": "21.1", "MOTO": "21.1",
	"HO3": "4", "HO5": "4", "HO4": "4",
	"BOP": "5.1", "CPP": "5.2", "CGL": "17.1", "CAL": "19.4", "CAPD": "21.2",
	"WC": "16", "WC-GC": "16", "WC-LD": "16",
}

// Treaty is a reinsurance contract referenced on ceded postings
type Treaty struct {
	ID   string
	Kind string
	LOBs []string
}

var (
	QuotaShare = Treaty{ID: "QS-2025-01", Kind: "QS", LOBs: []string{"AUTO", "HOME", "COMML", "WC"}}
	CatXOL     = Treaty{ID: "CAT-XOL-2025", Kind: "XOL", LOBs: []string{"HOME", "COMML"}}
)

// Treaties lists every treaty in use
var Treaties = []Treaty{QuotaShare, CatXOL}

// DocumentTypes maps document types to their analysis category
var DocumentTypes = map[string]models.DocumentCategory{
	"SA": models.CategoryStandard,
	"AB": models.CategoryStandard,
	"KR": models.CategoryStandard,
	"KG": models.CategoryStandard,
	"DR": models.CategoryStandard,
	"DG": models.CategoryStandard,
	"DZ": models.CategoryStandard,
	"MJ": models.CategoryManual,
	"AC": models.CategoryAccrual,
	"RE": models.CategoryRecurring,
	"CL": models.CategoryClearing,
	"IF": models.CategoryInterface,
}

// CategoryOf returns the category of a document type, standard when unknown
func CategoryOf(docType string) models.DocumentCategory {
	if c, ok := DocumentTypes[docType]; ok {
		return c
	}
	return models.CategoryStandard
}

// Source systems stamped on the account master
const (
	SourceSAP      = "SAP"
	SourceLegacy   = "Legacy"
	SourceAcquired = "MM-Acquired"
	SourceManual   = "Manual"
)

func code(format string, args ...interface{}) string {
	return fmt.Sprintf(format, args...)
}

// Per-LOB account numbers. The fourth digit carries the LOB index.

func PremiumReceivable(l LOB) string { return code("110%d00", l.Index) }
func AgentsBalances(l LOB) string    { return code("110%d10", l.Index) }
func DeferredAcqCost(l LOB) string   { return code("130%d00", l.Index) }
func CaseReserve(l LOB) string       { return code("200%d00", l.Index) }
func IBNRReserve(l LOB) string       { return code("200%d10", l.Index) }
func LAEReserve(l LOB) string        { return code("200%d20", l.Index) }
func SalvageReserve(l LOB) string    { return code("200%d30", l.Index) }
func UnearnedPremium(l LOB) string   { return code("210%d00", l.Index) }
func WrittenPremium(l LOB) string    { return code("400%d00", l.Index) }
func EarnedPremium(l LOB) string     { return code("400%d10", l.Index) }
func CededPremium(l LOB) string      { return code("400%d20", l.Index) }
func NetPremium(l LOB) string        { return code("400%d30", l.Index) }
func LossesIncurred(l LOB) string    { return code("500%d00", l.Index) }
func CaseMovement(l LOB) string      { return code("500%d10", l.Index) }
func IBNRMovement(l LOB) string      { return code("500%d20", l.Index) }
func LAEExpense(l LOB) string        { return code("500%d30", l.Index) }
func SalvageRecovery(l LOB) string   { return code("500%d40", l.Index) }
func CatLosses(l LOB) string         { return code("500%d50", l.Index) }
func PriorYearDev(l LOB) string      { return code("500%d60", l.Index) }
func Commissions(l LOB) string       { return code("600%d00", l.Index) }
func ContingentComm(l LOB) string    { return code("600%d10", l.Index) }
func PremiumTaxes(l LOB) string      { return code("600%d20", l.Index) }
func OtherAcquisition(l LOB) string  { return code("600%d30", l.Index) }
func AllocRecovery(l LOB) string     { return code("791%d00", l.Index) }

// ProductLossAccount returns one of the two product-encoded loss accounts
func ProductLossAccount(l LOB, slot int) string {
	return code("500%d%d0", l.Index, 7+slot%2)
}

// ProductCommissionAccount returns one of the two product-encoded commission accounts
func ProductCommissionAccount(l LOB, slot int) string {
	return code("600%d%d0", l.Index, 4+slot%2)
}

// ClaimTypeLoss returns the claim-type loss account for a line
func ClaimTypeLoss(l LOB, ct ClaimType) string {
	return code("501%d%02d", l.Index, ct.Index*10)
}

// ChannelCommission returns the channel commission account for a line
func ChannelCommission(l LOB, ch Channel) string {
	return code("601%d%02d", l.Index, ch.Index*10)
}

// StatePremium returns the state premium detail account
func StatePremium(l LOB, stateIndex int) string {
	return code("44%d%02d0", l.Index, stateIndex)
}

// StateLoss returns the state loss detail account
func StateLoss(l LOB, stateIndex int) string {
	return code("54%d%02d0", l.Index, stateIndex)
}

// StateIndex returns the position of a state code in States, or -1
func StateIndex(state string) int {
	for i, s := range States {
		if s == state {
			return i
		}
	}
	return -1
}

// Fixed corporate accounts referenced by the posting generator
const (
	AcctOperatingCash    = "100000"
	AcctClaimsCash       = "100100"
	AcctPayrollCash      = "100200"
	AcctBondsHTM         = "101100"
	AcctEquities         = "101200"
	AcctLimitedPartners  = "101600"
	AcctRegulatoryDep    = "105000"
	AcctSuspense         = "115000"
	AcctFixedAssets      = "140000"
	AcctSoftware         = "145200"
	AcctICReceivable     = "160000"
	AcctAccruedInvInc    = "170000"
	AcctAccruedInterest  = "170100"
	AcctBadDebtAllowance = "185000"
	AcctAccountsPayable  = "220000"
	AcctCommPayable      = "220100"
	AcctPremTaxPayable   = "220200"
	AcctAccruedExpenses  = "220400"
	AcctDeferredTaxLiab  = "225000"
	AcctReinsPayable     = "230000"
	AcctICPayable        = "240000"
	AcctAccruedDebtInt   = "270100"
	AcctCommonStock      = "300000"
	AcctAPIC             = "300100"
	AcctRetainedEarnings = "310000"
	AcctAOCI             = "320000"
	AcctInvestmentIncome = "410000"
	AcctBondInterest     = "410100"
	AcctRealizedGains    = "410300"
	AcctConsolidationAdj = "410500"
	AcctClaimsSalaries   = "700000"
	AcctClaimsConsulting = "700100"
	AcctClaimsTechnology = "700200"
	AcctClaimsTravel     = "700300"
	AcctUWSalaries       = "710000"
	AcctUWAnalytics      = "710100"
	AcctMarketing        = "710200"
	AcctAdminSalaries    = "720000"
	AcctRentOccupancy    = "720100"
	AcctDepreciation     = "720200"
	AcctProfessionalFees = "720300"
	AcctTechnology       = "720400"
	AcctOfficeSupplies   = "720500"
	AcctTelephone        = "720600"
	AcctInsuranceExp     = "720800"
	AcctMiscAdmin        = "720900"
	AcctInvestmentFees   = "730000"
	AcctPremiumTaxExp    = "740000"
	AcctDeferredTaxExp   = "740400"
	AcctCedingComm       = "750000"
	AcctInterestExpense  = "770000"
	AcctAmortization     = "770100"
	AcctBadDebtExpense   = "780000"
	AcctCorporateAlloc   = "790000"
	AcctServiceExpense   = "796000"
)

// CostCenterAccounts maps each cost center to its operating expense account
var CostCenterAccounts = map[string]string{
	"CC1000": AcctClaimsSalaries,
	"CC1100": AcctClaimsTravel,
	"CC2000": AcctUWSalaries,
	"CC2100": AcctMarketing,
	"CC3000": AcctAdminSalaries,
	"CC3100": AcctRentOccupancy,
	"CC4000": AcctOfficeSupplies,
	"CC5000": AcctTelephone,
	"CC6000": AcctInvestmentFees,
	"CC7000": AcctInsuranceExp,
}
