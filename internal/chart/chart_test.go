package chart

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"golang-synthetic-ledger/internal/models"
	"golang-synthetic-ledger/internal/refdata"
	"golang-synthetic-ledger/internal/rng"
)

func TestBuildReachesTarget(t *testing.T) {
	tests := []struct {
		name   string
		target int
	}{
		{"full", 3100},
		{"compact", 2500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			accounts := Build(rng.New(42), tt.target)
			if len(accounts) != tt.target {
				t.Errorf("Build() produced %d accounts, want %d", len(accounts), tt.target)
			}
		})
	}
}

func TestBuildSmallTargetKeepsCore(t *testing.T) {
	accounts := Build(rng.New(42), 10)
	if len(accounts) < 500 {
		t.Errorf("core and historical blocks should not be trimmed, got %d accounts", len(accounts))
	}
}

func TestNoDuplicatesAndValidTypes(t *testing.T) {
	accounts := Build(rng.New(7), DefaultTarget)
	seen := make(map[string]bool, len(accounts))
	for _, a := range accounts {
		if seen[a.GLAccount] {
			t.Fatalf("duplicate account %s", a.GLAccount)
		}
		seen[a.GLAccount] = true
		if err := a.Validate(); err != nil {
			t.Errorf("account %s invalid: %v", a.GLAccount, err)
		}
	}
}

func TestDeterministic(t *testing.T) {
	a := Build(rng.New(42), DefaultTarget)
	b := Build(rng.New(42), DefaultTarget)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("same seed produced different masters (-a +b):\n%s", diff)
	}
}

func TestHistoricalBlocks(t *testing.T) {
	accounts := Build(rng.New(42), DefaultTarget)

	bySource := map[string]int{}
	inactiveBySource := map[string]int{}
	byCode := map[string]models.Account{}
	for _, a := range accounts {
		bySource[a.SourceSystem]++
		if !a.IsActive {
			inactiveBySource[a.SourceSystem]++
		}
		byCode[a.GLAccount] = a
	}

	if bySource[refdata.SourceAcquired] != acquiredCount {
		t.Errorf("acquired block = %d, want %d", bySource[refdata.SourceAcquired], acquiredCount)
	}
	ratio := float64(inactiveBySource[refdata.SourceAcquired]) / float64(acquiredCount)
	if ratio < 0.45 || ratio > 0.75 {
		t.Errorf("acquired inactive ratio = %.2f, want about 0.60", ratio)
	}

	legacy := 0
	for _, a := range accounts {
		if len(a.GLAccount) != 4 {
			continue
		}
		legacy++
		if a.IsActive || a.StatutoryCategory != "" || a.FunctionalAreaDefault != "" || a.EffectiveFrom.Year() > 2009 {
			t.Errorf("legacy account %s should be inactive, untagged and pre-2010: %+v", a.GLAccount, a)
		}
	}
	if legacy != legacyCount {
		t.Errorf("legacy block = %d, want %d", legacy, legacyCount)
	}

	for _, code := range []string{"190000", "190100", "290000", "490000", "590000"} {
		a, ok := byCode[code]
		if !ok || a.IsActive {
			t.Errorf("dormant account %s missing or active", code)
		}
	}
	for _, code := range []string{"209000", "209300", "509100", "105000"} {
		a, ok := byCode[code]
		if !ok || !a.IsActive || a.EffectiveFrom.Year() < 2020 {
			t.Errorf("regulatory account %s missing, inactive or too old", code)
		}
	}
	for _, code := range []string{"280000", "481200", "581200"} {
		if a, ok := byCode[code]; !ok || a.IsActive {
			t.Errorf("discontinued account %s missing or active", code)
		}
	}
}

func TestGeneratorAccountsExist(t *testing.T) {
	b := NewBuilder(rng.New(1), nil)
	b.Build(DefaultTarget)

	required := []string{
		refdata.AcctSuspense, refdata.AcctClaimsCash, refdata.AcctProfessionalFees, refdata.AcctMiscAdmin,
		refdata.AcctCorporateAlloc, refdata.AcctServiceExpense, refdata.AcctAccruedDebtInt, refdata.AcctDeferredTaxLiab,
		refdata.AcctConsolidationAdj, refdata.AcctLimitedPartners, refdata.AcctSoftware, refdata.AcctBadDebtAllowance,
	}
	for _, l := range refdata.LOBs {
		required = append(required,
			refdata.PremiumReceivable(l), refdata.WrittenPremium(l), refdata.CededPremium(l),
			refdata.CaseMovement(l), refdata.IBNRMovement(l), refdata.PriorYearDev(l),
			refdata.ProductLossAccount(l, 0), refdata.ProductLossAccount(l, 1),
			refdata.ProductCommissionAccount(l, 1), refdata.AllocRecovery(l))
		for _, ct := range l.ClaimTypes {
			required = append(required, refdata.ClaimTypeLoss(l, ct))
		}
		for _, ch := range refdata.Channels {
			required = append(required, refdata.ChannelCommission(l, ch))
		}
		if l.CatExposed {
			required = append(required, refdata.CatLosses(l))
		}
	}
	for _, cc := range refdata.CostCenters {
		required = append(required, refdata.CostCenterAccounts[cc])
	}

	for _, code := range required {
		if !b.Has(code) {
			t.Errorf("account %s referenced by postings is missing from the master", code)
		}
	}
	if b.Has(refdata.CatLosses(refdata.WorkersComp)) {
		t.Error("workers comp should not carry a catastrophe account")
	}
}
