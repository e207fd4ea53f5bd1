package tableschema

// Table names as they appear in the upload template's data section markers.
const (
	TableReceivedLoads  = "RECEIVED_LOADS_FOR_REPROCESSING"
	TableProcessedLoads = "PROCESSED_LOADS"
	TableSentOnLoads    = "SENT_ON_LOADS"
	TableExportedLoads  = "EXPORTED_LOADS"
)

// Field names shared across table schemas.
const (
	FieldRowID = "ROW_ID"

	FieldDateReceived      = "DATE_RECEIVED_FOR_REPROCESSING"
	FieldEwcCode           = "EWC_CODE"
	FieldWasteDescription  = "DESCRIPTION_WASTE"
	FieldPrnIssued         = "WERE_PRN_OR_PERN_ISSUED_ON_THIS_WASTE"
	FieldGrossWeight       = "GROSS_WEIGHT"
	FieldTareWeight        = "TARE_WEIGHT"
	FieldPalletWeight      = "PALLET_WEIGHT"
	FieldNetWeight         = "NET_WEIGHT"
	FieldBailingWire       = "BAILING_WIRE_PROTOCOL"
	FieldProportionMethod  = "HOW_DID_YOU_CALCULATE_RECYCLABLE_PROPORTION"
	FieldNonTargetWeight   = "WEIGHT_OF_NON_TARGET_MATERIALS"
	FieldProportionPercent = "RECYCLABLE_PROPORTION_PERCENTAGE"
	FieldTonnageReceived   = "TONNAGE_RECEIVED_FOR_RECYCLING"

	FieldDateProcessed = "DATE_PROCESSED"
	FieldTonnageInput  = "TONNAGE_INPUT"
	FieldTonnageOutput = "TONNAGE_OUTPUT"
	FieldProcessLoss   = "PROCESS_LOSS_PERCENTAGE"

	FieldDateSentOn    = "DATE_SENT_ON"
	FieldRecipientName = "RECIPIENT_NAME"
	FieldTonnageSentOn = "TONNAGE_SENT_ON"

	FieldDateExported    = "DATE_EXPORTED"
	FieldOsrID           = "OSR_ID"
	FieldInterimSiteID   = "INTERIM_SITE_ID"
	FieldTonnageExported = "TONNAGE_EXPORTED"
)

// Dropdown placeholder values the Excel templates emit for untouched cells.
// They count as unfilled, not as invalid input.
var DropdownPlaceholders = []string{"Choose an option", "Select...", "-"}

// EwcCodes is the subset of European Waste Catalogue codes the templates
// offer in their dropdowns.
var EwcCodes = []string{
	"03 03 08",
	"15 01 01",
	"15 01 02",
	"15 01 04",
	"15 01 07",
	"19 12 01",
	"19 12 04",
	"20 01 01",
	"20 01 02",
	"20 01 39",
	"20 01 40",
}

// WasteDescriptions mirrors the template's waste description dropdown.
var WasteDescriptions = []string{
	"Mixed paper and board",
	"Sorted paper",
	"Plastic bottles",
	"Mixed plastics",
	"Glass cullet",
	"Mixed glass",
	"Steel cans",
	"Aluminium cans",
	"Wood packaging",
}

// ProportionMethods mirrors the template's recyclable proportion dropdown.
var ProportionMethods = []string{
	"Sampling and analysis",
	"National protocol",
	"Whole load",
}
