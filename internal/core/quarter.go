package core

// QuarterLabels are the checkbox rows of the form, one per quarter.
var QuarterLabels = [4]string{
	"☑ І-во тр. ☐ ІІ-ро тр. ☐ ІІІ-то тр. ☐ ІV-то тр.",
	"☐ І-во тр. ☑ ІІ-ро тр. ☐ ІІІ-то тр. ☐ ІV-то тр.",
	"☐ І-во тр. ☐ ІІ-ро тр. ☑ ІІІ-то тр. ☐ ІV-то тр.",
	"☐ І-во тр. ☐ ІІ-ро тр. ☐ ІІІ-то тр. ☑ ІV-то тр.",
}

// QuarterNames are the short quarter names offered on the print form.
var QuarterNames = [4]string{"І-во тр.", "ІІ-ро тр.", "ІІІ-то тр.", "ІV-то тр."}

// Quarter returns 1..4 for months 1..12. Months above 12 count as the fourth quarter.
func Quarter(month int) int {
	switch {
	case month <= 3:
		return 1
	case month <= 6:
		return 2
	case month <= 9:
		return 3
	default:
		return 4
	}
}

// QuarterLabel returns the checkbox row with the month's quarter ticked.
func QuarterLabel(month int) string {
	return QuarterLabels[Quarter(month)-1]
}
