package core

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var unitWords = [...]string{"", "един", "два", "три", "четири", "пет", "шест", "седем", "осем", "девет"}

// Teens are irregular and cannot be composed from tens and units.
var teenWords = [...]string{"десет", "единадесет", "дванадесет", "тринадесет", "четиринадесет", "петнадесет",
	"шестнадесет", "седемнадесет", "осемнадесет", "деветнадесет"}

var tenWords = [...]string{"", "", "двадесет", "тридесет", "четиридесет", "петдесет", "шестдесет",
	"седемдесет", "осемдесет", "деветдесет"}

var hundredWords = [...]string{"", "сто", "двеста", "триста", "четиристотин", "петстотин",
	"шестстотин", "седемстотин", "осемстотин", "деветстотин"}

const (
	wordZeroLeva  = "нула лева"
	wordLeva      = "лева"
	wordThousand  = "хиляда"
	wordThousands = "хиляди"
	wordMillion   = "милион"
	wordMillions  = "милиона"
	wordMinus     = "минус"
	wordStotinka  = "стотинка"
	wordStotinki  = "стотинки"
)

// underThousand spells 1..999; zero-valued parts are omitted.
func underThousand(n int64) string {
	parts := make([]string, 0, 3)
	h, rem := n/100, n%100
	if h > 0 {
		parts = append(parts, hundredWords[h])
	}
	if rem >= 10 && rem < 20 {
		parts = append(parts, teenWords[rem-10])
	} else {
		t, u := rem/10, rem%10
		if t > 0 {
			parts = append(parts, tenWords[t])
		}
		if u > 0 {
			parts = append(parts, unitWords[u])
		}
	}
	return strings.Join(parts, " ")
}

func levaWords(leva int64) string {
	if leva == 0 {
		return wordZeroLeva
	}
	if leva >= 1_000_000_000_000 {
		return strconv.FormatInt(leva, 10) + " " + wordLeva
	}
	parts := make([]string, 0, 4)
	if millions := leva / 1_000_000; millions > 0 {
		if millions == 1 {
			parts = append(parts, unitWords[1]+" "+wordMillion)
		} else {
			parts = append(parts, spellGroups(millions)+" "+wordMillions)
		}
		leva %= 1_000_000
	}
	if leva > 0 {
		parts = append(parts, spellGroups(leva))
	}
	return strings.Join(parts, " ") + " " + wordLeva
}

// spellGroups spells 1..999999 with the irregular singular for one thousand.
func spellGroups(n int64) string {
	if n < 1000 {
		return underThousand(n)
	}
	thousands, below := n/1000, n%1000
	var s string
	if thousands == 1 {
		s = wordThousand
	} else {
		s = underThousand(thousands) + " " + wordThousands
	}
	if below > 0 {
		s += " " + underThousand(below)
	}
	return s
}

// AmountToWords spells a leva amount in Bulgarian, e.g. 250.30 becomes
// "двеста петдесет лева и 30 стотинки". Stotinki stay as digits.
func AmountToWords(amount decimal.Decimal) string {
	prefix := ""
	if amount.IsNegative() {
		prefix = wordMinus + " "
		amount = amount.Neg()
	}
	levaPart := amount.Floor()
	leva := levaPart.IntPart()
	stotinki := amount.Sub(levaPart).Mul(hundred).Round(0).IntPart()

	words := prefix + levaWords(leva)
	switch {
	case stotinki == 0:
		return words
	case stotinki == 1:
		return words + " и 1 " + wordStotinka
	default:
		return words + " и " + strconv.FormatInt(stotinki, 10) + " " + wordStotinki
	}
}
