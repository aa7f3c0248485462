package core

import (
	"strings"
	"testing"
)

func TestAmountToWords(t *testing.T) {
	tests := []struct {
		amount string
		want   string
	}{
		{"0", "нула лева"},
		{"0.00", "нула лева"},
		{"0.50", "нула лева и 50 стотинки"},
		{"1", "един лева"},
		{"7", "седем лева"},
		{"10", "десет лева"},
		{"12", "дванадесет лева"},
		{"19", "деветнадесет лева"},
		{"20", "двадесет лева"},
		{"21", "двадесет един лева"},
		{"100", "сто лева"},
		{"115", "сто петнадесет лева"},
		{"250.30", "двеста петдесет лева и 30 стотинки"},
		{"999", "деветстотин деветдесет девет лева"},
		{"1000", "хиляда лева"},
		{"1001", "хиляда един лева"},
		{"1234.01", "хиляда двеста тридесет четири лева и 1 стотинка"},
		{"2000", "два хиляди лева"},
		{"11000", "единадесет хиляди лева"},
		{"925.00", "деветстотин двадесет пет лева"},
		{"999999.99", "деветстотин деветдесет девет хиляди деветстотин деветдесет девет лева и 99 стотинки"},
		{"1000000", "един милион лева"},
		{"2500000", "два милиона петстотин хиляди лева"},
		{"-5", "минус пет лева"},
	}
	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			if got := AmountToWords(dec(tt.amount)); got != tt.want {
				t.Errorf("AmountToWords(%s) = %q, want %q", tt.amount, got, tt.want)
			}
		})
	}
}

func TestAmountToWords_StotinkiSuffix(t *testing.T) {
	if got := AmountToWords(dec("5.01")); !strings.HasSuffix(got, "1 стотинка") {
		t.Errorf("5.01 -> %q, want singular suffix", got)
	}
	if got := AmountToWords(dec("5.02")); !strings.HasSuffix(got, "2 стотинки") {
		t.Errorf("5.02 -> %q, want plural suffix", got)
	}
	if got := AmountToWords(dec("5.11")); !strings.HasSuffix(got, "11 стотинки") {
		t.Errorf("5.11 -> %q, want plural suffix", got)
	}
}

func TestAmountToWords_ThousandHasNoLeadingOne(t *testing.T) {
	for _, a := range []string{"1000", "1500.25", "1999"} {
		if got := AmountToWords(dec(a)); !strings.HasPrefix(got, "хиляда") {
			t.Errorf("%s -> %q, want prefix хиляда", a, got)
		}
	}
}

func TestAmountToWords_HugeAmountFallsBackToDigits(t *testing.T) {
	got := AmountToWords(dec("1000000000000"))
	if got != "1000000000000 лева" {
		t.Errorf("got %q", got)
	}
}
