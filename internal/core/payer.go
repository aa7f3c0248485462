package core

import "strings"

// Payer is an organisation that pays civil-contract fees and files the statement.
type Payer struct {
	Name      string `json:"name"`
	EIK       string `json:"eik"`
	NAPOffice string `json:"nap_office"`
}

// ValidateEIK accepts the 9-digit company code and the 13-digit branch code.
func ValidateEIK(eik string) error {
	if len(eik) != 9 && len(eik) != 13 {
		return ErrInvalidEIK
	}
	for _, r := range eik {
		if r < '0' || r > '9' {
			return ErrInvalidEIK
		}
	}
	return nil
}

func (p Payer) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrInvalidPayer
	}
	return ValidateEIK(p.EIK)
}
