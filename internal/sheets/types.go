package sheets

// Table is the tabular payload handed to the publisher. Header names the
// columns; every row must have the same width as the header.
type Table struct {
	Header []string
	Rows   [][]interface{}
}

// Width returns the column count of the table.
func (t Table) Width() int {
	return len(t.Header)
}

// spreadsheet is the subset of the spreadsheets.get response the client
// needs to map tab titles to sheet IDs.
type spreadsheet struct {
	Sheets []sheet `json:"sheets"`
}

type sheet struct {
	Properties sheetProperties `json:"properties"`
}

type sheetProperties struct {
	SheetID int64  `json:"sheetId"`
	Title   string `json:"title"`
	Index   int64  `json:"index,omitempty"`
}

// valueRange is the values.update request and response body.
type valueRange struct {
	Range  string          `json:"range,omitempty"`
	Values [][]interface{} `json:"values"`
}

type updateValuesResponse struct {
	UpdatedRows    int `json:"updatedRows"`
	UpdatedColumns int `json:"updatedColumns"`
	UpdatedCells   int `json:"updatedCells"`
}

// batchUpdateRequest wraps spreadsheets.batchUpdate requests. Only the
// request shapes the publisher uses are modeled.
type batchUpdateRequest struct {
	Requests []request `json:"requests"`
}

type request struct {
	AddSheet                  *addSheetRequest                  `json:"addSheet,omitempty"`
	RepeatCell                *repeatCellRequest                `json:"repeatCell,omitempty"`
	UpdateDimensionProperties *updateDimensionPropertiesRequest `json:"updateDimensionProperties,omitempty"`
	AddConditionalFormatRule  *addConditionalFormatRuleRequest  `json:"addConditionalFormatRule,omitempty"`
	UpdateSheetProperties     *updateSheetPropertiesRequest     `json:"updateSheetProperties,omitempty"`
}

type addSheetRequest struct {
	Properties sheetProperties `json:"properties"`
}

type batchUpdateResponse struct {
	Replies []struct {
		AddSheet *struct {
			Properties sheetProperties `json:"properties"`
		} `json:"addSheet,omitempty"`
	} `json:"replies"`
}

type gridRange struct {
	SheetID          int64 `json:"sheetId"`
	StartRowIndex    int64 `json:"startRowIndex"`
	EndRowIndex      int64 `json:"endRowIndex,omitempty"`
	StartColumnIndex int64 `json:"startColumnIndex"`
	EndColumnIndex   int64 `json:"endColumnIndex,omitempty"`
}

type repeatCellRequest struct {
	Range  gridRange `json:"range"`
	Cell   cellData  `json:"cell"`
	Fields string    `json:"fields"`
}

type cellData struct {
	UserEnteredFormat cellFormat `json:"userEnteredFormat"`
}

type cellFormat struct {
	TextFormat      *textFormat `json:"textFormat,omitempty"`
	BackgroundColor *color      `json:"backgroundColor,omitempty"`
	NumberFormat    *numFormat  `json:"numberFormat,omitempty"`
}

type textFormat struct {
	Bold bool `json:"bold"`
}

type color struct {
	Red   float64 `json:"red"`
	Green float64 `json:"green"`
	Blue  float64 `json:"blue"`
}

type numFormat struct {
	Type    string `json:"type"` // "NUMBER", "CURRENCY", "PERCENT"
	Pattern string `json:"pattern,omitempty"`
}

type updateDimensionPropertiesRequest struct {
	Range      dimensionRange      `json:"range"`
	Properties dimensionProperties `json:"properties"`
	Fields     string              `json:"fields"`
}

type dimensionRange struct {
	SheetID    int64  `json:"sheetId"`
	Dimension  string `json:"dimension"` // "COLUMNS"
	StartIndex int64  `json:"startIndex"`
	EndIndex   int64  `json:"endIndex"`
}

type dimensionProperties struct {
	PixelSize int64 `json:"pixelSize"`
}

type addConditionalFormatRuleRequest struct {
	Rule  conditionalFormatRule `json:"rule"`
	Index int64                 `json:"index"`
}

type conditionalFormatRule struct {
	Ranges       []gridRange   `json:"ranges"`
	GradientRule *gradientRule `json:"gradientRule,omitempty"`
}

type gradientRule struct {
	Minpoint interpolationPoint `json:"minpoint"`
	Maxpoint interpolationPoint `json:"maxpoint"`
}

type interpolationPoint struct {
	Color color  `json:"color"`
	Type  string `json:"type"` // "MIN", "MAX"
}

type updateSheetPropertiesRequest struct {
	Properties sheetProperties `json:"properties"`
	Fields     string          `json:"fields"`
}
