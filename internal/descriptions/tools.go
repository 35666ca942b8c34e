package descriptions

// Long-form tool descriptions shown to MCP clients

const (
	AnalyzeSoilReportDescription = `Read the five core soil test values from a soil health card or lab report.

**When to use:** A farmer's soil report (PDF or photo) is in the report directory and you need its pH, organic carbon, nitrogen, phosphorus and potassium values.

**How it works:** PDFs are read from their text layer. JPEG and PNG reports are run through OCR. The values are then located by their printed labels, for example "pH: 6.5" or "Nitrogen (N): 250".

**Examples:**
• "What is the pH in reports/ramesh-2024.pdf?"
• "Read the NPK values from the photographed card in scans/card.jpg"

**Output:** JSON with "soil_report_data" (pH, Organic Carbon (%), Nitrogen (kg/ha), Phosphorus (kg/ha), Potassium (kg/ha)), the extraction method and a status. A value that could not be found is null. A failed extraction sets every value to null and explains why in "error".

**Best practices:** Run validate_soil_report first when a PDF returns only nulls; scanned PDFs have no text layer and should be supplied as images.`

	AnalyzeCropImageDescription = `Describe a crop photo with label detection and object localization.

**When to use:** You have a field or plant photo and want to know what the image shows before giving agronomy advice.

**Examples:**
• "What crop is in photos/plot-7.jpg?"
• "Does field.png show visible pests or damage?"

**Output:** JSON with "detected_labels" ({label, score}), "detected_objects" ({object, confidence}) and "error". Scores are rounded to two decimals. When the vision service fails both lists are empty and "error" is set.`

	ValidateSoilReportDescription = `Check that a soil report file can be processed before analyzing it.

**When to use:** A report produced no values, or you want to confirm a file is usable.

**What it checks:** For PDFs, the document structure is validated and the page count and PDF version are reported. For other files the content type is detected and compared with the supported report types (PDF, JPEG, PNG).`
)
