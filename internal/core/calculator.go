package core

import "github.com/shopspring/decimal"

var (
	// DisabilityAllowance is the annual relief for persons with 50% or more reduced working capacity.
	DisabilityAllowance = decimal.NewFromInt(7920)
	// MinInsurableIncome is the threshold below which a payment carries no insurance
	// unless the person is insured on another basis in the same month.
	MinInsurableIncome = decimal.NewFromInt(1077)
	// MaxInsuranceIncome is the monthly ceiling of insurable income across all sources.
	MaxInsuranceIncome = decimal.NewFromInt(4130)

	PensionRate     = decimal.RequireFromString("0.0658")
	PensionRateFull = decimal.RequireFromString("0.0878")
	DZPORate        = decimal.RequireFromString("0.022")
	HealthRate      = decimal.RequireFromString("0.032")
	AdvanceTaxRate  = decimal.RequireFromString("0.10")
)

// insuranceRule yields the insurance income base when it applies.
type insuranceRule struct {
	name  string
	match func(d Declaration, taxable decimal.Decimal) bool
	base  func(d Declaration, taxable decimal.Decimal) decimal.Decimal
}

func zeroBase(Declaration, decimal.Decimal) decimal.Decimal { return decimal.Zero }

// insuranceRules are evaluated top to bottom; the first match wins.
var insuranceRules = []insuranceRule{
	{
		name:  "manual",
		match: func(d Declaration, _ decimal.Decimal) bool { return d.ManualIncome },
		base:  func(d Declaration, _ decimal.Decimal) decimal.Decimal { return d.ManualIncomeAmount },
	},
	{
		name:  "exempt_category",
		match: func(d Declaration, _ decimal.Decimal) bool { return d.ExpenseRatio == Ratio10 },
		base:  zeroBase,
	},
	{
		name: "below_minimum",
		match: func(d Declaration, taxable decimal.Decimal) bool {
			return taxable.LessThan(MinInsurableIncome) && !d.InsuredElsewhere
		},
		base: zeroBase,
	},
	{
		name:  "max_insured",
		match: func(d Declaration, _ decimal.Decimal) bool { return d.MaxInsured },
		base:  zeroBase,
	},
	{
		name:  "capped",
		match: func(Declaration, decimal.Decimal) bool { return true },
		base: func(d Declaration, taxable decimal.Decimal) decimal.Decimal {
			// May go negative when other income already exceeds the ceiling.
			return decimal.Min(taxable, MaxInsuranceIncome.Sub(d.MonthlyOtherIncome))
		},
	},
}

// InsuranceRule returns the name of the rule that selects the insurance base.
func InsuranceRule(d Declaration, taxableIncome decimal.Decimal) string {
	for _, r := range insuranceRules {
		if r.match(d, taxableIncome) {
			return r.name
		}
	}
	return ""
}

func insuranceIncome(d Declaration, taxableIncome decimal.Decimal) decimal.Decimal {
	for _, r := range insuranceRules {
		if r.match(d, taxableIncome) {
			return round2(r.base(d, taxableIncome))
		}
	}
	return decimal.Zero
}

// Calculate derives every row of the statement from the declaration.
//
// Each value is rounded to two places as soon as it is derived and later rows
// use the rounded value. Calculate assumes d.Validate() passed; it never fails.
func Calculate(d Declaration) Result {
	var r Result

	r.ContractAmount = round2(d.ContractAmount)
	r.RecognizedExpenses = round2(r.ContractAmount.Mul(decimal.NewFromInt(int64(d.ExpenseRatio))).Div(hundred))
	r.TaxableIncome = round2(r.ContractAmount.Sub(r.RecognizedExpenses))

	r.TaxableForTax = r.TaxableIncome
	if d.HasDisability {
		r.TaxableForTax = decimal.Max(decimal.Zero, r.TaxableIncome.Sub(DisabilityAllowance))
	}
	if d.ManualTaxable {
		r.TaxableForTax = round2(d.ManualTaxableAmount)
	}

	r.InsuranceIncome = insuranceIncome(d, r.TaxableIncome)

	base := r.InsuranceIncome
	r.Health = round2(base.Mul(HealthRate))
	if !d.Retired || d.RetiredWantsInsurance {
		if d.BornAfter1959 {
			r.Pension = round2(base.Mul(PensionRate))
			r.DZPO = round2(base.Mul(DZPORate))
		} else {
			r.Pension = round2(base.Mul(PensionRateFull))
		}
	}

	contributions := r.Contributions()
	r.TaxableTotal = round2(r.TaxableForTax.Sub(contributions))

	if r.TaxableForTax.IsZero() {
		r.TaxableTotal = decimal.Zero
		r.AdvanceTax = decimal.Zero
		r.NetAmount = round2(r.ContractAmount.Sub(contributions))
		return r
	}

	if WithholdsTax(d) {
		r.AdvanceTax = round2(r.TaxableTotal.Mul(AdvanceTaxRate))
	}
	r.NetAmount = round2(r.ContractAmount.Sub(contributions).Sub(r.AdvanceTax))
	return r
}

// WithholdsTax reports whether advance tax is withheld. Only a retiree who opted
// out, paid in the fourth quarter, escapes withholding.
func WithholdsTax(d Declaration) bool {
	return !(d.Retired && d.NoTaxFourthQuarter && d.DocumentDate.IsFourthQuarter())
}
