// Package farm holds the survey submission model and the combined analysis
// response.
package farm

import (
	"github.com/a3tai/farm-analyzer/internal/crop"
	"github.com/a3tai/farm-analyzer/internal/soil"
)

// Form field names
const (
	FieldVillageCity       = "village_city"
	FieldState             = "state"
	FieldLandSizeAcres     = "land_size_acres"
	FieldSoilType          = "soil_type"
	FieldCropType          = "crop_type"
	FieldPreviousYield     = "previous_yield_quintals_per_acre"
	FieldTargetYield       = "target_yield_quintals_per_acre"
	FieldBudgetRs          = "budget_rs"
	FieldIrrigationMethod  = "irrigation_method"
	FieldFertilizerUse     = "fertilizer_use"
	FieldCurrentPestIssues = "current_pest_issues"
	FieldSoilReportFile    = "soil_report_file"
	FieldCropImage         = "crop_image"
)

type LocationLandDetails struct {
	VillageCity   string  `json:"village_city"`
	State         string  `json:"state"`
	LandSizeAcres float64 `json:"land_size_acres"`
	SoilType      string  `json:"soil_type"`
}

type CropInformation struct {
	CropType                     string   `json:"crop_type"`
	PreviousYieldQuintalsPerAcre *float64 `json:"previous_yield_quintals_per_acre"`
	TargetYieldQuintalsPerAcre   float64  `json:"target_yield_quintals_per_acre"`
	BudgetRs                     int64    `json:"budget_rs"`
}

type FarmingPractices struct {
	IrrigationMethod  string  `json:"irrigation_method"`
	FertilizerUse     string  `json:"fertilizer_use"`
	CurrentPestIssues *string `json:"current_pest_issues"`
}

// FormData is the validated survey, grouped the way it is echoed back
type FormData struct {
	LocationLandDetails LocationLandDetails `json:"location_land_details"`
	CropInformation     CropInformation     `json:"crop_information"`
	FarmingPractices    FarmingPractices    `json:"farming_practices"`
}

// Response is the body of a successful analysis. ImageAnalysisResults is
// null when no crop image was sent.
type Response struct {
	FormData             FormData        `json:"form_data"`
	SoilReportData       soil.Parameters `json:"soil_report_data"`
	ImageAnalysisResults *crop.Result    `json:"image_analysis_results"`
}
