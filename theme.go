package assistant

// Theme defines semantic color mappings using ANSI color indices (0-15).
// The terminal theme determines the actual RGB values.
type Theme struct {
	UserMsg   int // User turn accent
	Assistant int // Assistant turn accent
	Error     int // Error turns
	Success   int // Completed goals
	Warning   int // Urgent goals
	Muted     int // Status bar, timestamps, placeholders
	CodeBg    int // Code block background
	Accent    int // Headings, links
}

// DefaultTheme returns the default ANSI color mapping.
func DefaultTheme() Theme {
	return Theme{
		UserMsg:   4,
		Assistant: 6,
		Error:     1,
		Success:   2,
		Warning:   3,
		Muted:     8,
		CodeBg:    0,
		Accent:    5,
	}
}
