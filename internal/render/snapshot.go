// Package render turns a calculated statement into the printed declaration form.
package render

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"smetka/internal/core"
)

var ErrUnknownQuarter = errors.New("unknown quarter")

// Snapshot pairs a declaration with the result calculated from it. It is the
// only state handed from the calculation step to the print step.
type Snapshot struct {
	Declaration core.Declaration `json:"declaration"`
	Result      core.Result      `json:"result"`
}

// NewSnapshot validates the declaration and calculates it.
func NewSnapshot(d core.Declaration) (Snapshot, error) {
	if err := d.Validate(); err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Declaration: d, Result: core.Calculate(d)}, nil
}

// Encode serialises the snapshot into a URL-safe token suitable for a hidden form field.
func (s Snapshot) Encode() (string, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// DecodeSnapshot reverses Encode. The result is recalculated from the decoded
// declaration so a tampered token cannot print figures the rules would not produce.
func DecodeSnapshot(token string) (Snapshot, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(token))
	if err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	var s Snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return NewSnapshot(s.Declaration)
}

// PrintDetails are the free-text parts of the form that do not affect the calculation.
type PrintDetails struct {
	Payer          core.Payer `json:"payer"`
	PersonName     string     `json:"person_name"`
	PersonEGN      string     `json:"person_egn"`
	ContractNumber string     `json:"contract_number"`
	ContractDate   core.Date  `json:"contract_date"`
	// Quarter is one of core.QuarterNames; empty selects the first quarter.
	Quarter string `json:"quarter"`
}

// Validate checks the quarter name. Other fields are printed as given.
func (p PrintDetails) Validate() error {
	if p.Quarter == "" {
		return nil
	}
	for _, q := range core.QuarterNames {
		if q == p.Quarter {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownQuarter, p.Quarter)
}

// FileName is the attachment name of the filled form.
func FileName(personName string) string {
	return "smetka_" + strings.ReplaceAll(personName, " ", "_") + ".docx"
}
