package excel

// Config holds configuration for workbook tables
type Config struct {
	// Sheet read when the path names none; empty means the first sheet
	Sheet string `json:"sheet"`
	// SkipRows drops header rows before the data
	SkipRows int `json:"skip_rows"`
	// Digits is the number of significant digits for non-numeric cells in
	// exported reports
	Digits int `json:"digits"`
}

// DefaultConfig returns defaults for reading and writing workbooks
func DefaultConfig() Config {
	return Config{
		Digits: 7,
	}
}
