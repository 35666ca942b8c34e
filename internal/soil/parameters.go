package soil

import (
	"regexp"
	"strconv"
)

// Parameters are the soil test values read from a report. A nil field means
// the value was not found.
type Parameters struct {
	PH            *float64 `json:"pH"`
	OrganicCarbon *float64 `json:"Organic Carbon (%)"`
	Nitrogen      *float64 `json:"Nitrogen (kg/ha)"`
	Phosphorus    *float64 `json:"Phosphorus (kg/ha)"`
	Potassium     *float64 `json:"Potassium (kg/ha)"`
}

// Found counts the parameters that have a value
func (p Parameters) Found() int {
	n := 0
	for _, v := range []*float64{p.PH, p.OrganicCarbon, p.Nitrogen, p.Phosphorus, p.Potassium} {
		if v != nil {
			n++
		}
	}
	return n
}

// space matches Unicode whitespace, including the no-break and thin spaces
// common in PDF and OCR text. RE2's \s is ASCII only.
const space = `[\t\n\v\f\r\x{1c}-\x{1f}\x{85}\p{Z}]`

const number = space + `*[:\-–]?` + space + `*(\d+\.?\d*)`

var (
	phPattern            = regexp.MustCompile(`(?i)pH` + number)
	organicCarbonPattern = regexp.MustCompile(`(?i)Organic` + space + `Carbon(?:` + space + `\(OC\))?` + number)
	nitrogenPattern      = regexp.MustCompile(`(?i)Nitrogen` + space + `\(N\)` + number)
	phosphorusPattern    = regexp.MustCompile(`(?i)Phosphorus` + space + `\(P\)` + number)
	potassiumPattern     = regexp.MustCompile(`(?i)Potassium` + space + `\(K\)` + number)
)

// ParseParameters searches text for each parameter independently and keeps
// the first match of each.
func ParseParameters(text string) Parameters {
	return Parameters{
		PH:            firstNumber(phPattern, text),
		OrganicCarbon: firstNumber(organicCarbonPattern, text),
		Nitrogen:      firstNumber(nitrogenPattern, text),
		Phosphorus:    firstNumber(phosphorusPattern, text),
		Potassium:     firstNumber(potassiumPattern, text),
	}
}

func firstNumber(re *regexp.Regexp, text string) *float64 {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil
	}
	return &v
}
