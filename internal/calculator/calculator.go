// Package calculator computes the financial ratios taught by the content
// and attaches a short interpretation to each result.
package calculator

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingInput is returned when a required field is absent.
	ErrMissingInput = errors.New("missing input")
	// ErrNegativeInput is returned for a negative amount.
	ErrNegativeInput = errors.New("amounts must not be negative")
	// ErrZeroDenominator is returned when the ratio cannot be computed.
	ErrZeroDenominator = errors.New("denominator must be positive")
)

// Tones classify advice the way the learning UI colours it.
const (
	ToneWarning = "warning"
	ToneInfo    = "info"
	ToneSuccess = "success"
)

// Field is one numeric input of a calculator.
type Field struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

// Result is a computed ratio with its interpretation.
type Result struct {
	Value   float64 `json:"value"`
	Display string  `json:"display"`
	Advice  string  `json:"advice"`
	Tone    string  `json:"tone"`
}

// Calculator computes one ratio.
type Calculator struct {
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	Fields  []Field `json:"fields"`
	compute func(in map[string]float64) (Result, error)
}

// Compute validates in against the calculator's fields and evaluates it.
func (c *Calculator) Compute(in map[string]float64) (Result, error) {
	for _, f := range c.Fields {
		v, ok := in[f.Name]
		if !ok {
			return Result{}, fmt.Errorf("%s: %w", f.Name, ErrMissingInput)
		}
		if v < 0 {
			return Result{}, fmt.Errorf("%s: %w", f.Name, ErrNegativeInput)
		}
	}
	return c.compute(in)
}

var calculators = []*Calculator{
	{
		ID:    "current-ratio",
		Title: "Current Ratio",
		Fields: []Field{
			{"current_assets", "Current Assets"},
			{"current_liabilities", "Current Liabilities"},
		},
		compute: func(in map[string]float64) (Result, error) {
			cl := in["current_liabilities"]
			if cl <= 0 {
				return Result{}, fmt.Errorf("current liabilities: %w", ErrZeroDenominator)
			}
			r := in["current_assets"] / cl
			res := Result{Value: r, Display: fmt.Sprintf("Current Ratio = %.2fx", r)}
			switch {
			case r < 1:
				res.Tone, res.Advice = ToneWarning, "Current ratio < 1 may indicate liquidity stress."
			case r < 1.5:
				res.Tone, res.Advice = ToneInfo, "Current ratio is modest. Many analysts prefer at least 1.5x depending on industry."
			default:
				res.Tone, res.Advice = ToneSuccess, "Comfortable liquidity, but examine quality of current assets as well."
			}
			return res, nil
		},
	},
	{
		ID:    "quick-ratio",
		Title: "Quick Ratio",
		Fields: []Field{
			{"cash", "Cash"},
			{"marketable_securities", "Marketable Securities"},
			{"receivables", "Accounts Receivable"},
			{"current_liabilities", "Current Liabilities"},
		},
		compute: func(in map[string]float64) (Result, error) {
			cl := in["current_liabilities"]
			if cl <= 0 {
				return Result{}, fmt.Errorf("current liabilities: %w", ErrZeroDenominator)
			}
			r := (in["cash"] + in["marketable_securities"] + in["receivables"]) / cl
			res := Result{Value: r, Display: fmt.Sprintf("Quick Ratio = %.2fx", r)}
			if r < 1 {
				res.Tone, res.Advice = ToneWarning, "Quick ratio < 1 suggests reliance on inventory or refinancing."
			} else {
				res.Tone, res.Advice = ToneSuccess, "Quick ratio of at least 1 suggests strong coverage by liquid assets."
			}
			return res, nil
		},
	},
	{
		ID:    "return-on-equity",
		Title: "Return on Equity",
		Fields: []Field{
			{"net_income", "Net Income"},
			{"beginning_equity", "Beginning Equity"},
			{"ending_equity", "Ending Equity"},
		},
		compute: func(in map[string]float64) (Result, error) {
			avg := (in["beginning_equity"] + in["ending_equity"]) / 2
			if avg <= 0 {
				return Result{}, fmt.Errorf("average equity: %w", ErrZeroDenominator)
			}
			r := in["net_income"] / avg * 100
			return Result{
				Value:   r,
				Display: fmt.Sprintf("ROE = %.1f%%", r),
				Tone:    ToneInfo,
				Advice:  "Compare ROE with the firm's cost of equity and industry peers.",
			}, nil
		},
	},
	{
		ID:    "return-on-assets",
		Title: "Return on Assets",
		Fields: []Field{
			{"net_income", "Net Income"},
			{"beginning_assets", "Beginning Total Assets"},
			{"ending_assets", "Ending Total Assets"},
		},
		compute: func(in map[string]float64) (Result, error) {
			avg := (in["beginning_assets"] + in["ending_assets"]) / 2
			if avg <= 0 {
				return Result{}, fmt.Errorf("average assets: %w", ErrZeroDenominator)
			}
			r := in["net_income"] / avg * 100
			return Result{
				Value:   r,
				Display: fmt.Sprintf("ROA = %.1f%%", r),
				Tone:    ToneInfo,
				Advice:  "Use ROA to compare asset efficiency across firms or over time.",
			}, nil
		},
	},
	{
		ID:    "debt-to-equity",
		Title: "Debt-to-Equity",
		Fields: []Field{
			{"total_debt", "Total Debt"},
			{"total_equity", "Total Equity"},
		},
		compute: func(in map[string]float64) (Result, error) {
			eq := in["total_equity"]
			if eq <= 0 {
				return Result{}, fmt.Errorf("total equity: %w", ErrZeroDenominator)
			}
			r := in["total_debt"] / eq
			return Result{
				Value:   r,
				Display: fmt.Sprintf("Debt-to-Equity = %.2fx", r),
				Tone:    ToneInfo,
				Advice:  "Higher leverage can amplify returns but also raises financial risk.",
			}, nil
		},
	},
}

// conceptKeys maps a lower-cased concept id fragment to a calculator id.
// Checked in order; the first match wins.
var conceptKeys = []struct {
	fragment string
	id       string
}{
	{"currentratio", "current-ratio"},
	{"quickratio", "quick-ratio"},
	{"returnonequity", "return-on-equity"},
	{"return_on_equity", "return-on-equity"},
	{"roe", "return-on-equity"},
	{"returnonassets", "return-on-assets"},
	{"return_on_assets", "return-on-assets"},
	{"roa", "return-on-assets"},
	{"debttoequity", "debt-to-equity"},
}

// ForConcept returns the calculator for a concept, if it has one.
func ForConcept(conceptID string) (*Calculator, bool) {
	n := strings.ToLower(conceptID)
	for _, k := range conceptKeys {
		if strings.Contains(n, k.fragment) {
			return ByID(k.id)
		}
	}
	return nil, false
}

// ByID returns a calculator by its id.
func ByID(id string) (*Calculator, bool) {
	for _, c := range calculators {
		if c.ID == id {
			return c, true
		}
	}
	return nil, false
}

// All lists every calculator.
func All() []*Calculator {
	return append([]*Calculator{}, calculators...)
}
