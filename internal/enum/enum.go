package enum

// ── Catalog columns (matched case- and space-insensitively) ──

const (
	ColumnProductCode    = "Product Code"
	ColumnProductName    = "Product Name"
	ColumnPerCase        = "Per Case"
	ColumnRate           = "Rate"
	ColumnImage          = "Image"
	ColumnStockSold      = "Stock Sold"
	ColumnStockAvailable = "Stock Available per pcs"
)

// ── Live feed event types ──

const (
	EventLedgerUpdated    = "ledger.updated"
	EventInvoiceGenerated = "invoice.generated"
	EventSessionRestored  = "session.restored"
)

// ── Invoice output formats ──

const (
	FormatJSON = "json"
	FormatText = "text"
	FormatPDF  = "pdf"
)

// ── Stock export formats ──

const (
	ExportCSV  = "csv"
	ExportXLSX = "xlsx"
)
