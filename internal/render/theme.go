package render

// Theme is a complete color set for one SVG variant. It is passed as a
// parameter, never global state, so both variants can render from the
// same aggregate.
type Theme struct {
	Name       string
	Background string
	Text       string
	SubText    string
	CellStroke string

	// Levels is the five-step color ramp shared by the grid and legend.
	Levels [5]string

	// GradientStops fill the display name when the gradient option is on.
	GradientStops []string

	BadgePro    string
	BadgePatron string

	// LogoDots are the three fixed logo colors.
	LogoDots [3]string
}

// Dark is the default variant.
var Dark = Theme{
	Name:       "dark",
	Background: "#14181c",
	Text:       "#ffffff",
	SubText:    "#9ab",
	CellStroke: "#2c3440",
	Levels: [5]string{
		"#2c3440", "#0e4429", "#006d32", "#26a641", "#39d353",
	},
	GradientStops: []string{"#ff8000", "#00e054", "#40bcf4"},
	BadgePro:      "#40bcf4",
	BadgePatron:   "#ff8000",
	LogoDots:      [3]string{"#ff8000", "#00e054", "#40bcf4"},
}

// Light mirrors Dark on a white canvas.
var Light = Theme{
	Name:       "light",
	Background: "#ffffff",
	Text:       "#14181c",
	SubText:    "#678",
	CellStroke: "#d0d7de",
	Levels: [5]string{
		"#ebedf0", "#9be9a8", "#40c463", "#30a14e", "#216e39",
	},
	GradientStops: []string{"#ff8000", "#00e054", "#40bcf4"},
	BadgePro:      "#40bcf4",
	BadgePatron:   "#ff8000",
	LogoDots:      [3]string{"#ff8000", "#00e054", "#40bcf4"},
}
