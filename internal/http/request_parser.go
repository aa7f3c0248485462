// Package http provides HTTP server and handler implementations.
//
// This file turns form-encoded and JSON request bodies into declarations and
// print details, classifying failures as malformed (400) or invalid (422).

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"smetka/internal/core"
	"smetka/internal/render"
)

// maxBodyBytes bounds every request body the server reads.
const maxBodyBytes = 1 << 20

// requestError carries the status and user-facing message of a rejected request.
type requestError struct {
	status int
	msg    string
	err    error
}

func (e *requestError) Error() string {
	if e.err != nil {
		return e.msg + ": " + e.err.Error()
	}
	return e.msg
}

func (e *requestError) Unwrap() error { return e.err }

func badRequest(msg string, err error) error {
	return &requestError{status: http.StatusBadRequest, msg: msg, err: err}
}

func unprocessable(msg string, err error) error {
	return &requestError{status: http.StatusUnprocessableEntity, msg: msg, err: err}
}

// errorStatus maps an error to its HTTP status and a Bulgarian message.
func errorStatus(err error) (int, string) {
	var re *requestError
	if errors.As(err, &re) {
		return re.status, re.msg
	}
	switch {
	case errors.Is(err, core.ErrInvalidAmount):
		return http.StatusUnprocessableEntity, "Невалидна сума"
	case errors.Is(err, core.ErrInvalidRatio):
		return http.StatusUnprocessableEntity, "Невалиден процент нормативно признати разходи"
	case errors.Is(err, core.ErrInvalidDate), errors.Is(err, core.ErrInvalidDay), errors.Is(err, core.ErrInvalidMonth):
		return http.StatusUnprocessableEntity, "Невалидна дата"
	case errors.Is(err, core.ErrInvalidEIK):
		return http.StatusUnprocessableEntity, "Невалиден ЕИК"
	case errors.Is(err, core.ErrInvalidPayer):
		return http.StatusUnprocessableEntity, "Липсва име на предприятието"
	case errors.Is(err, core.ErrPayerNotFound):
		return http.StatusNotFound, "Няма такова предприятие"
	case errors.Is(err, render.ErrUnknownQuarter):
		return http.StatusUnprocessableEntity, "Невалидно тримесечие"
	default:
		return http.StatusInternalServerError, "Вътрешна грешка"
	}
}

// flexAmount accepts a JSON number or string and keeps its text for core.ParseAmount.
type flexAmount string

func (a *flexAmount) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	switch {
	case s == "null":
		*a = ""
	case strings.HasPrefix(s, `"`):
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*a = flexAmount(str)
	default:
		*a = flexAmount(s)
	}
	return nil
}

// declarationRequest is the wire form of core.Declaration shared by the HTML
// form and the JSON API.
type declarationRequest struct {
	ContractAmount flexAmount `json:"contract_amount"`
	ExpenseRatio   int        `json:"expense_ratio"`

	HasDisability         bool `json:"has_disability"`
	MaxInsured            bool `json:"max_insured"`
	Retired               bool `json:"retired"`
	RetiredWantsInsurance bool `json:"retired_wants_insurance"`
	InsuredElsewhere      bool `json:"insured_elsewhere"`
	BornAfter1959         bool `json:"born_after_1959"`
	NoTaxFourthQuarter    bool `json:"no_tax_fourth_quarter"`

	ManualIncome        bool       `json:"manual_income"`
	ManualIncomeAmount  flexAmount `json:"manual_income_amount"`
	ManualTaxable       bool       `json:"manual_taxable"`
	ManualTaxableAmount flexAmount `json:"manual_taxable_amount"`
	MonthlyOtherIncome  flexAmount `json:"monthly_other_income"`

	// DocumentDate is YYYY-MM-DD or DD.MM.YYYY; empty means today.
	DocumentDate string `json:"document_date"`
}

func parseAmountField(label string, v flexAmount) (decimal.Decimal, error) {
	d, err := core.ParseAmount(string(v))
	if err != nil {
		return d, unprocessable("Невалидна сума в поле „"+label+"“", err)
	}
	return d, nil
}

// parseOverrideField accepts negative values; the manual rows are taken as entered.
func parseOverrideField(label string, v flexAmount) (decimal.Decimal, error) {
	d, err := core.ParseSignedAmount(string(v))
	if err != nil {
		return d, unprocessable("Невалидна сума в поле „"+label+"“", err)
	}
	return d, nil
}

// toDeclaration validates the request. Manual amounts are ignored unless their flag is set.
func (req declarationRequest) toDeclaration(now time.Time) (core.Declaration, error) {
	var d core.Declaration
	var err error

	if d.ContractAmount, err = parseAmountField("Сума по договора", req.ContractAmount); err != nil {
		return d, err
	}
	if d.MonthlyOtherIncome, err = parseAmountField("Месечен доход", req.MonthlyOtherIncome); err != nil {
		return d, err
	}
	if req.ManualIncome {
		if d.ManualIncomeAmount, err = parseOverrideField("Ред 5", req.ManualIncomeAmount); err != nil {
			return d, err
		}
	}
	if req.ManualTaxable {
		if d.ManualTaxableAmount, err = parseOverrideField("Ред 4", req.ManualTaxableAmount); err != nil {
			return d, err
		}
	}

	d.ExpenseRatio = core.ExpenseRatio(req.ExpenseRatio)
	if req.ExpenseRatio == 0 {
		d.ExpenseRatio = core.Ratio25
	}

	d.DocumentDate = core.NewDate(now.Year(), int(now.Month()), now.Day())
	if strings.TrimSpace(req.DocumentDate) != "" {
		if d.DocumentDate, err = parseDate(req.DocumentDate); err != nil {
			return d, unprocessable("Невалидна дата на сметката", err)
		}
	}

	d.HasDisability = req.HasDisability
	d.MaxInsured = req.MaxInsured
	d.Retired = req.Retired
	d.RetiredWantsInsurance = req.Retired && req.RetiredWantsInsurance
	d.InsuredElsewhere = req.InsuredElsewhere
	d.BornAfter1959 = req.BornAfter1959
	d.NoTaxFourthQuarter = req.NoTaxFourthQuarter && d.DocumentDate.IsFourthQuarter()
	d.ManualIncome = req.ManualIncome
	d.ManualTaxable = req.ManualTaxable

	if err := d.Validate(); err != nil {
		return d, err
	}
	return d, nil
}

// declarationFromForm reads the calculator form fields.
func declarationFromForm(form url.Values) (declarationRequest, error) {
	req := declarationRequest{
		ContractAmount:        flexAmount(form.Get("contract_amount")),
		HasDisability:         formBool(form, "has_disability"),
		MaxInsured:            formBool(form, "max_insured"),
		Retired:               formBool(form, "retired"),
		RetiredWantsInsurance: formBool(form, "retired_wants_insurance"),
		InsuredElsewhere:      formBool(form, "insured_elsewhere"),
		BornAfter1959:         formBool(form, "born_after_1959"),
		NoTaxFourthQuarter:    formBool(form, "no_tax_fourth_quarter"),
		ManualIncome:          formBool(form, "manual_income"),
		ManualIncomeAmount:    flexAmount(form.Get("manual_income_amount")),
		ManualTaxable:         formBool(form, "manual_taxable"),
		ManualTaxableAmount:   flexAmount(form.Get("manual_taxable_amount")),
		MonthlyOtherIncome:    flexAmount(form.Get("monthly_other_income")),
		DocumentDate:          strings.TrimSpace(form.Get("document_date")),
	}
	if v := strings.TrimSpace(form.Get("expense_ratio")); v != "" {
		ratio, err := strconv.Atoi(v)
		if err != nil {
			return req, unprocessable("Невалиден процент нормативно признати разходи", core.ErrInvalidRatio)
		}
		req.ExpenseRatio = ratio
	}
	return req, nil
}

func formBool(form url.Values, key string) bool {
	switch strings.ToLower(strings.TrimSpace(form.Get(key))) {
	case "on", "true", "1", "yes", "да":
		return true
	default:
		return false
	}
}

// printDetailsRequest is the wire form of render.PrintDetails.
type printDetailsRequest struct {
	CompanyName    string `json:"company_name"`
	CompanyEIK     string `json:"company_eik"`
	NAPOffice      string `json:"nap_office"`
	PersonName     string `json:"person_name"`
	PersonEGN      string `json:"person_egn"`
	ContractNumber string `json:"contract_number"`
	ContractDate   string `json:"contract_date"`
	Quarter        string `json:"quarter"`
}

func printDetailsFromForm(form url.Values) printDetailsRequest {
	return printDetailsRequest{
		CompanyName:    form.Get("company_name"),
		CompanyEIK:     form.Get("company_eik"),
		NAPOffice:      form.Get("nap_office"),
		PersonName:     form.Get("person_name"),
		PersonEGN:      form.Get("person_egn"),
		ContractNumber: form.Get("contract_number"),
		ContractDate:   form.Get("contract_date"),
		Quarter:        form.Get("quarter"),
	}
}

func (req printDetailsRequest) toPrintDetails() (render.PrintDetails, error) {
	p := render.PrintDetails{
		Payer: core.Payer{
			Name:      sanitizeInput(req.CompanyName),
			EIK:       sanitizeInput(req.CompanyEIK),
			NAPOffice: sanitizeInput(req.NAPOffice),
		},
		PersonName:     sanitizeInput(req.PersonName),
		PersonEGN:      sanitizeInput(req.PersonEGN),
		ContractNumber: sanitizeInput(req.ContractNumber),
		Quarter:        sanitizeInput(req.Quarter),
	}
	if p.Payer.EIK != "" {
		if err := core.ValidateEIK(p.Payer.EIK); err != nil {
			return p, err
		}
	}
	if v := strings.TrimSpace(req.ContractDate); v != "" {
		date, err := parseDate(v)
		if err != nil {
			return p, unprocessable("Невалидна дата на договора", err)
		}
		p.ContractDate = date
	}
	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

// isJSON reports whether the request body is declared as JSON.
func isJSON(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}

// decodeJSON reads a single JSON object into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return badRequest("Невалиден JSON", err)
	}
	if dec.More() {
		return badRequest("Невалиден JSON", fmt.Errorf("trailing data after object"))
	}
	return nil
}

// parseForm parses a url-encoded or multipart body.
func parseForm(r *http.Request) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		return badRequest("Невалиден формат на заявката", err)
	}
	return nil
}
