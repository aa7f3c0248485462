package google

import (
	"testing"
)

func TestParsePayers(t *testing.T) {
	values := [][]interface{}{
		{"Name", "EIK", "NAP office"},
		{"Алфа ООД", "123456789", "София"},
		{"", ""},
		{"Бета ЕООД", 1234567890123.0},
		{"Без ЕИК", "", "Варна"},
		{"Алфа дубликат", "123456789", "Пловдив"},
		{"  Гама АД  ", " 987654321 ", " Русе "},
	}
	payers, skipped := parsePayers(values)
	if skipped != 2 {
		t.Errorf("skipped = %d, want 2", skipped)
	}
	if len(payers) != 3 {
		t.Fatalf("got %d payers: %+v", len(payers), payers)
	}
	if payers[0].Name != "Алфа ООД" || payers[0].NAPOffice != "София" {
		t.Errorf("first payer = %+v", payers[0])
	}
	if payers[1].EIK != "1234567890123" || payers[1].NAPOffice != "" {
		t.Errorf("numeric EIK not preserved: %+v", payers[1])
	}
	if payers[2].Name != "Гама АД" || payers[2].EIK != "987654321" || payers[2].NAPOffice != "Русе" {
		t.Errorf("cells not trimmed: %+v", payers[2])
	}
}

func TestParsePayers_Empty(t *testing.T) {
	payers, skipped := parsePayers(nil)
	if len(payers) != 0 || skipped != 0 {
		t.Fatalf("unexpected result: %v %d", payers, skipped)
	}
}
