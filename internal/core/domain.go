package core

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ExpenseRatio is the recognised-expense percentage of a contract category.
type ExpenseRatio int

const (
	Ratio10 ExpenseRatio = 10
	Ratio25 ExpenseRatio = 25
	Ratio40 ExpenseRatio = 40
	Ratio60 ExpenseRatio = 60
)

type (
	Date struct {
		time.Time
	}

	// Declaration is everything the payer knows about a single civil-contract payment.
	Declaration struct {
		ContractAmount decimal.Decimal `json:"contract_amount"`
		ExpenseRatio   ExpenseRatio    `json:"expense_ratio"`

		HasDisability         bool `json:"has_disability"`
		MaxInsured            bool `json:"max_insured"`
		Retired               bool `json:"retired"`
		RetiredWantsInsurance bool `json:"retired_wants_insurance"`
		InsuredElsewhere      bool `json:"insured_elsewhere"`
		BornAfter1959         bool `json:"born_after_1959"`
		NoTaxFourthQuarter    bool `json:"no_tax_fourth_quarter"`

		ManualIncome        bool            `json:"manual_income"`
		ManualIncomeAmount  decimal.Decimal `json:"manual_income_amount"`
		ManualTaxable       bool            `json:"manual_taxable"`
		ManualTaxableAmount decimal.Decimal `json:"manual_taxable_amount"`
		MonthlyOtherIncome  decimal.Decimal `json:"monthly_other_income"`

		DocumentDate Date `json:"document_date"`
	}

	// Result holds the eleven rows of the statement, each already rounded to stotinki.
	Result struct {
		ContractAmount     decimal.Decimal `json:"contract_amount"`
		RecognizedExpenses decimal.Decimal `json:"recognized_expenses"`
		TaxableIncome      decimal.Decimal `json:"taxable_income"`
		TaxableForTax      decimal.Decimal `json:"taxable_for_tax"`
		InsuranceIncome    decimal.Decimal `json:"insurance_income"`
		Pension            decimal.Decimal `json:"pension_contribution"`
		DZPO               decimal.Decimal `json:"dzpo_contribution"`
		Health             decimal.Decimal `json:"health_contribution"`
		TaxableTotal       decimal.Decimal `json:"taxable_total"`
		AdvanceTax         decimal.Decimal `json:"tax_advance"`
		NetAmount          decimal.Decimal `json:"net_amount"`
	}
)

var (
	ErrInvalidDay    = errors.New("invalid day")
	ErrInvalidMonth  = errors.New("invalid month")
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidRatio  = errors.New("invalid expense ratio")
	ErrInvalidEIK    = errors.New("invalid EIK")
	ErrInvalidPayer  = errors.New("invalid payer")
	ErrPayerNotFound = errors.New("payer not found")
)

// ExpenseRatios lists the allowed ratios in the order the form offers them.
func ExpenseRatios() []ExpenseRatio {
	return []ExpenseRatio{Ratio10, Ratio25, Ratio40, Ratio60}
}

func (r ExpenseRatio) IsValid() bool {
	switch r {
	case Ratio10, Ratio25, Ratio40, Ratio60:
		return true
	default:
		return false
	}
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// IsFourthQuarter reports whether the date falls in October, November or December.
func (d Date) IsFourthQuarter() bool {
	return d.Month() >= 10
}

// Validate checks the preconditions of Calculate. The calculator itself never
// checks them; callers run this first.
func (d Declaration) Validate() error {
	if d.ContractAmount.IsNegative() {
		return ErrInvalidAmount
	}
	if !d.ExpenseRatio.IsValid() {
		return ErrInvalidRatio
	}
	if d.MonthlyOtherIncome.IsNegative() {
		return ErrInvalidAmount
	}
	if err := d.DocumentDate.Validate(); err != nil {
		return err
	}
	return nil
}

// Contributions returns pension + DZPO + health.
func (r Result) Contributions() decimal.Decimal {
	return r.Pension.Add(r.DZPO).Add(r.Health)
}
