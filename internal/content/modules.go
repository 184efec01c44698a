package content

import "strings"

// Curriculum modules, in teaching order.
const (
	ModuleFoundations   = "Foundations: Financial Statements"
	ModuleProfitability = "Profitability & Return Ratios"
	ModuleLiquidity     = "Liquidity & Working Capital"
	ModuleAssets        = "Asset Utilisation & Efficiency"
	ModuleLeverage      = "Leverage & Capital Structure"
	ModuleTrend         = "Trend, Growth & Benchmarking"
	ModuleDuPont        = "Pyramid / DuPont Analysis"
	ModuleOther         = "Other Concepts"
)

type moduleRule struct {
	module   string
	keywords []string
}

// First matching rule wins.
var moduleRules = []moduleRule{
	{ModuleFoundations, []string{"financialstatements", "balancesheet", "incomestatement", "cashflow"}},
	{ModuleProfitability, []string{"profitability", "returnon", "returnratios"}},
	{ModuleLiquidity, []string{"liquidity", "currentratio", "quickratio", "workingcapital"}},
	{ModuleAssets, []string{"assetutilization", "assetutilisation"}},
	{ModuleLeverage, []string{"leverage", "debttoequity"}},
	{ModuleTrend, []string{"trendanalysis", "growthratios", "benchmarking"}},
	{ModuleDuPont, []string{"dupont"}},
}

// ModuleOrder lists every module in teaching order.
func ModuleOrder() []string {
	out := make([]string, 0, len(moduleRules)+1)
	for _, r := range moduleRules {
		out = append(out, r.module)
	}
	return append(out, ModuleOther)
}

// ModuleFor assigns a concept identifier to a module by keyword.
func ModuleFor(conceptID string) string {
	n := strings.ToLower(conceptID)
	for _, r := range moduleRules {
		for _, k := range r.keywords {
			if strings.Contains(n, k) {
				return r.module
			}
		}
	}
	return ModuleOther
}
