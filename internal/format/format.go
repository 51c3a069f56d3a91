// Package format renders tenant data the way Brazilian operators read it.
package format

import (
	"regexp"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var (
	nonDigit = regexp.MustCompile(`\D`)

	cnpjSteps = []step{
		{regexp.MustCompile(`^(\d{2})(\d)`), "$1.$2"},
		{regexp.MustCompile(`^(\d{2})\.(\d{3})(\d)`), "$1.$2.$3"},
		{regexp.MustCompile(`\.(\d{3})(\d)`), ".$1/$2"},
		{regexp.MustCompile(`(\d{4})(\d)`), "$1-$2"},
	}
	landlineSteps = []step{
		{regexp.MustCompile(`^(\d{2})(\d)`), "($1) $2"},
		{regexp.MustCompile(`(\d{4})(\d)`), "$1-$2"},
	}
	mobileSteps = []step{
		{regexp.MustCompile(`^(\d{2})(\d)`), "($1) $2"},
		{regexp.MustCompile(`(\d{5})(\d)`), "$1-$2"},
	}

	brl = message.NewPrinter(language.BrazilianPortuguese)
)

type step struct {
	re   *regexp.Regexp
	repl string
}

// apply runs each step once, on its first match only, so partially typed
// values are formatted as far as their digits allow.
func apply(s string, steps []step, limit int) string {
	for _, st := range steps {
		if loc := st.re.FindStringSubmatchIndex(s); loc != nil {
			var out []byte
			out = st.re.ExpandString(out, st.repl, s, loc)
			s = s[:loc[0]] + string(out) + s[loc[1]:]
		}
	}
	if len(s) > limit {
		s = s[:limit]
	}
	return s
}

// MaskCNPJ formats a company registration number as 00.000.000/0000-00.
// Non-digits are dropped and extra digits are cut.
func MaskCNPJ(value string) string {
	return apply(nonDigit.ReplaceAllString(value, ""), cnpjSteps, 18)
}

// MaskPhone formats a phone as (00) 0000-0000, or (00) 00000-0000 when it
// has more than ten digits.
func MaskPhone(value string) string {
	digits := nonDigit.ReplaceAllString(value, "")
	if len(digits) <= 10 {
		return apply(digits, landlineSteps, 14)
	}
	return apply(digits, mobileSteps, 15)
}

// Currency formats an amount in reais, e.g. R$ 1.234,56.
func Currency(amount float64) string {
	return "R$ " + brl.Sprint(number.Decimal(amount, number.Scale(2)))
}
