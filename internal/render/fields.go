package render

import (
	"time"

	"smetka/internal/core"
)

const (
	checkboxYes   = "☑ да    ☐ не"
	checkboxNo    = "☐ да    ☑ не"
	checkboxBlank = "☐ да    ☐ не"
)

func checkbox(v bool) string {
	if v {
		return checkboxYes
	}
	return checkboxNo
}

// Fields builds the marker values of the printed form. Keys are used as {{KEY}}
// in the template.
func Fields(s Snapshot, p PrintDetails) map[string]string {
	d, r := s.Declaration, s.Result
	docDate := d.DocumentDate

	quarter := p.Quarter
	if quarter == "" {
		quarter = core.QuarterNames[0]
	}

	contractDate := ""
	if !p.ContractDate.IsZero() {
		contractDate = p.ContractDate.Format("02.01.2006")
	}

	f := map[string]string{
		"COMPANY_NAME":    p.Payer.Name,
		"COMPANY_EIK":     p.Payer.EIK,
		"NAP_OFFICE":      p.Payer.NAPOffice,
		"PERSON_NAME":     p.PersonName,
		"PERSON_EGN":      p.PersonEGN,
		"CONTRACT_NUMBER": p.ContractNumber,
		"CONTRACT_DATE":   contractDate,
		"QUARTER":         quarter,

		"HAS_DISABILITY":    checkbox(d.HasDisability),
		"MAX_INSURED":       checkbox(d.MaxInsured),
		"RETIRED":           checkbox(d.Retired),
		"INSURED_ELSEWHERE": checkbox(d.InsuredElsewhere),
		"WANTS_TAX_IV_TRIM": checkboxBlank,
		"WANTS_INSURANCE":   "",

		"NET_AMOUNT_WORDS":   core.AmountToWords(r.NetAmount),
		"QUARTER_CHECKBOXES": core.QuarterLabel(docDate.Month()),
		"INSURANCE_TOTAL":    core.FormatAmount(r.Contributions()),
		"MONTH_AND_YEAR":     monthAndYear(docDate.Time),
	}
	if docDate.IsFourthQuarter() {
		f["WANTS_TAX_IV_TRIM"] = checkbox(!d.NoTaxFourthQuarter)
	}
	if d.Retired {
		f["WANTS_INSURANCE"] = checkbox(d.RetiredWantsInsurance)
	}
	for k, v := range r.Fields() {
		f[k] = v
	}
	return f
}

func monthAndYear(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("01.2006")
}
