package tableschema

// Row id minimums per table. Each table hands out ids from its own range in
// the template, which makes a misplaced row visible as an out-of-range id.
const (
	rowIDMinReceived  = 1000
	rowIDMinProcessed = 2000
	rowIDMinSentOn    = 3000
	rowIDMinExported  = 4000
)

var receivedLoads = TableSchema{
	Name:       TableReceivedLoads,
	RowIDField: FieldRowID,
	RequiredHeaders: []string{
		FieldRowID,
		FieldDateReceived,
		FieldEwcCode,
		FieldWasteDescription,
		FieldPrnIssued,
		FieldGrossWeight,
		FieldTareWeight,
		FieldPalletWeight,
		FieldNetWeight,
		FieldBailingWire,
		FieldProportionMethod,
		FieldNonTargetWeight,
		FieldProportionPercent,
		FieldTonnageReceived,
	},
	Fields: map[string]FieldSchema{
		FieldRowID:             {Kind: KindRowID, Min: rowIDMinReceived},
		FieldDateReceived:      {Kind: KindDate},
		FieldEwcCode:           {Kind: KindEnum, Enum: EwcCodes},
		FieldWasteDescription:  {Kind: KindEnum, Enum: WasteDescriptions},
		FieldPrnIssued:         {Kind: KindYesNo, Unfilled: DropdownPlaceholders},
		FieldGrossWeight:       {Kind: KindWeight},
		FieldTareWeight:        {Kind: KindWeight},
		FieldPalletWeight:      {Kind: KindWeight},
		FieldNetWeight:         {Kind: KindWeight},
		FieldBailingWire:       {Kind: KindYesNo, Unfilled: DropdownPlaceholders},
		FieldProportionMethod:  {Kind: KindEnum, Enum: ProportionMethods, Unfilled: DropdownPlaceholders},
		FieldNonTargetWeight:   {Kind: KindWeight},
		FieldProportionPercent: {Kind: KindPercentage},
		FieldTonnageReceived:   {Kind: KindNumber},
	},
	Balance: BalanceFields{
		Tonnage:   FieldTonnageReceived,
		Date:      FieldDateReceived,
		PrnIssued: FieldPrnIssued,
	},
}

var processedLoads = TableSchema{
	Name:       TableProcessedLoads,
	RowIDField: FieldRowID,
	RequiredHeaders: []string{
		FieldRowID,
		FieldDateProcessed,
		FieldTonnageInput,
		FieldTonnageOutput,
		FieldProcessLoss,
	},
	Fields: map[string]FieldSchema{
		FieldRowID:         {Kind: KindRowID, Min: rowIDMinProcessed},
		FieldDateProcessed: {Kind: KindDate},
		FieldTonnageInput:  {Kind: KindWeight},
		FieldTonnageOutput: {Kind: KindWeight},
		FieldProcessLoss:   {Kind: KindPercentage},
	},
	Balance: BalanceFields{
		Tonnage: FieldTonnageOutput,
		Date:    FieldDateProcessed,
	},
}

var sentOnLoads = TableSchema{
	Name:       TableSentOnLoads,
	RowIDField: FieldRowID,
	RequiredHeaders: []string{
		FieldRowID,
		FieldDateSentOn,
		FieldRecipientName,
		FieldTonnageSentOn,
		FieldPrnIssued,
	},
	Fields: map[string]FieldSchema{
		FieldRowID:         {Kind: KindRowID, Min: rowIDMinSentOn},
		FieldDateSentOn:    {Kind: KindDate},
		FieldRecipientName: {Kind: KindText},
		FieldTonnageSentOn: {Kind: KindWeight},
		FieldPrnIssued:     {Kind: KindYesNo, Unfilled: DropdownPlaceholders},
	},
	Balance: BalanceFields{
		Tonnage:   FieldTonnageSentOn,
		Date:      FieldDateSentOn,
		PrnIssued: FieldPrnIssued,
	},
}

var exportedLoads = TableSchema{
	Name:       TableExportedLoads,
	RowIDField: FieldRowID,
	RequiredHeaders: []string{
		FieldRowID,
		FieldDateExported,
		FieldOsrID,
		FieldInterimSiteID,
		FieldTonnageExported,
		FieldPrnIssued,
	},
	Fields: map[string]FieldSchema{
		FieldRowID:           {Kind: KindRowID, Min: rowIDMinExported},
		FieldDateExported:    {Kind: KindDate},
		FieldOsrID:           {Kind: KindThreeDigitID},
		FieldInterimSiteID:   {Kind: KindThreeDigitID},
		FieldTonnageExported: {Kind: KindWeight},
		FieldPrnIssued:       {Kind: KindYesNo, Unfilled: DropdownPlaceholders},
	},
	Balance: BalanceFields{
		Tonnage:   FieldTonnageExported,
		Date:      FieldDateExported,
		PrnIssued: FieldPrnIssued,
	},
}

var tables = map[string]TableSchema{
	TableReceivedLoads:  receivedLoads,
	TableProcessedLoads: processedLoads,
	TableSentOnLoads:    sentOnLoads,
	TableExportedLoads:  exportedLoads,
}
