package core

import "github.com/shopspring/decimal"

// Field keys double as the document markers ({{KEY}}) of the printed form.
const (
	FieldContractAmount     = "CONTRACT_AMOUNT"
	FieldRecognizedExpenses = "RECOGNIZED_EXPENSES"
	FieldTaxableIncome      = "TAXABLE_INCOME"
	FieldTaxableForTax      = "TAXABLE_FOR_TAX"
	FieldInsuranceIncome    = "INSURANCE_INCOME"
	FieldPension            = "PENSION_CONTRIBUTION"
	FieldDZPO               = "DZPO_CONTRIBUTION"
	FieldHealth             = "HEALTH_CONTRIBUTION"
	FieldTaxableTotal       = "TAXABLE_TOTAL"
	FieldAdvanceTax         = "TAX_ADVANCE"
	FieldNetAmount          = "NET_AMOUNT"
)

// SummaryLine is one labelled row of the statement.
type SummaryLine struct {
	Key   string
	Label string
	Value decimal.Decimal
}

// Formatted returns the value with two decimals.
func (l SummaryLine) Formatted() string {
	return FormatAmount(l.Value)
}

// Summary lists the rows in the order they appear on the form.
func (r Result) Summary() []SummaryLine {
	return []SummaryLine{
		{FieldContractAmount, "1. Сума по договора", r.ContractAmount},
		{FieldRecognizedExpenses, "2. Признати разходи", r.RecognizedExpenses},
		{FieldTaxableIncome, "3. Облагаем доход", r.TaxableIncome},
		{FieldTaxableForTax, "4. Облагаема част (ред 4)", r.TaxableForTax},
		{FieldInsuranceIncome, "5. Осигурителен доход (ред 5)", r.InsuranceIncome},
		{FieldPension, "6.1 Фонд Пенсии", r.Pension},
		{FieldDZPO, "6.2 ДЗПО", r.DZPO},
		{FieldHealth, "6.3 Здравно осигуряване", r.Health},
		{FieldTaxableTotal, "7. Сума за авансово облагане (ред 7)", r.TaxableTotal},
		{FieldAdvanceTax, "8. Авансов данък (ред 8)", r.AdvanceTax},
		{FieldNetAmount, "9. Сума за получаване (ред 9)", r.NetAmount},
	}
}

// Fields maps every row key to its formatted value.
func (r Result) Fields() map[string]string {
	lines := r.Summary()
	out := make(map[string]string, len(lines))
	for _, l := range lines {
		out[l.Key] = l.Formatted()
	}
	return out
}
