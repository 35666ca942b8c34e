package farm

import (
	"math"
	"strconv"
	"strings"
)

// FieldError describes one invalid request field
type FieldError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// ValidationErrors collects every invalid field of a request
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, e := range v {
		parts = append(parts, strings.Join(e.Loc, ".")+": "+e.Msg)
	}
	return "invalid request: " + strings.Join(parts, "; ")
}

// Missing reports a required body field that was not sent
func Missing(field string) FieldError {
	return FieldError{Loc: []string{"body", field}, Msg: "Field required", Type: "missing"}
}

// Values is the subset of url.Values used to read form fields
type Values interface {
	Get(key string) string
}

type formParser struct {
	values Values
	errs   ValidationErrors
}

// ParseForm validates the survey fields. Empty values count as absent.
func ParseForm(values Values) (FormData, ValidationErrors) {
	p := &formParser{values: values}

	form := FormData{
		LocationLandDetails: LocationLandDetails{
			VillageCity:   p.requiredString(FieldVillageCity),
			State:         p.requiredString(FieldState),
			LandSizeAcres: p.requiredFloat(FieldLandSizeAcres),
			SoilType:      p.requiredString(FieldSoilType),
		},
		CropInformation: CropInformation{
			CropType:                     p.requiredString(FieldCropType),
			PreviousYieldQuintalsPerAcre: p.optionalFloat(FieldPreviousYield),
			TargetYieldQuintalsPerAcre:   p.requiredFloat(FieldTargetYield),
			BudgetRs:                     p.requiredInt(FieldBudgetRs),
		},
		FarmingPractices: FarmingPractices{
			IrrigationMethod:  p.requiredString(FieldIrrigationMethod),
			FertilizerUse:     p.requiredString(FieldFertilizerUse),
			CurrentPestIssues: p.optionalString(FieldCurrentPestIssues),
		},
	}

	return form, p.errs
}

func (p *formParser) raw(field string) (string, bool) {
	v := p.values.Get(field)
	if v == "" {
		return "", false
	}
	return v, true
}

func (p *formParser) fail(field, msg, typ string) {
	p.errs = append(p.errs, FieldError{Loc: []string{"body", field}, Msg: msg, Type: typ})
}

func (p *formParser) requiredString(field string) string {
	v, ok := p.raw(field)
	if !ok {
		p.errs = append(p.errs, Missing(field))
	}
	return v
}

func (p *formParser) optionalString(field string) *string {
	v, ok := p.raw(field)
	if !ok {
		return nil
	}
	return &v
}

func (p *formParser) requiredFloat(field string) float64 {
	v, ok := p.raw(field)
	if !ok {
		p.errs = append(p.errs, Missing(field))
		return 0
	}
	f, ok := p.parseFloat(field, v)
	if !ok {
		return 0
	}
	return f
}

func (p *formParser) optionalFloat(field string) *float64 {
	v, ok := p.raw(field)
	if !ok {
		return nil
	}
	f, ok := p.parseFloat(field, v)
	if !ok {
		return nil
	}
	return &f
}

func (p *formParser) parseFloat(field, v string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		p.fail(field, "Input should be a valid number, unable to parse string as a number", "float_parsing")
		return 0, false
	}
	if math.IsInf(f, 0) || math.IsNaN(f) {
		p.fail(field, "Input should be a finite number", "finite_number")
		return 0, false
	}
	return f, true
}

func (p *formParser) requiredInt(field string) int64 {
	v, ok := p.raw(field)
	if !ok {
		p.errs = append(p.errs, Missing(field))
		return 0
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		p.fail(field, "Input should be a valid integer, unable to parse string as an integer", "int_parsing")
		return 0
	}
	return n
}
