package domain

const mmPerInch = 25.4

// MMToInches converts millimetres to inches, the unit the print API expects.
func MMToInches(mm float64) float64 { return mm / mmPerInch }

// Margins are page margins in inches.
type Margins struct {
	Top, Right, Bottom, Left float64
}

// UniformMargins returns the same margin on all four sides.
func UniformMargins(in float64) Margins {
	return Margins{Top: in, Right: in, Bottom: in, Left: in}
}

// PageSetup describes the paper a document is printed on. Sizes are in inches.
type PageSetup struct {
	Format          string
	Width           float64
	Height          float64
	Margins         Margins
	PrintBackground bool
}

// ReportPage is the fixed geometry of every report: A4 with 25mm margins and
// background colors and images preserved.
var ReportPage = PageSetup{
	Format:          "A4",
	Width:           MMToInches(210),
	Height:          MMToInches(297),
	Margins:         UniformMargins(MMToInches(25)),
	PrintBackground: true,
}
