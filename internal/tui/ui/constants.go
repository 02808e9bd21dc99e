package ui

// Default component dimensions.
const (
	// DefaultWidth is the initial terminal width before the first resize.
	DefaultWidth = 80

	// DefaultHeight is the initial terminal height before the first resize.
	DefaultHeight = 24

	// DefaultDialogWidth is the default width of confirmation dialogs.
	DefaultDialogWidth = 40

	// DefaultInputWidth is the default width of text inputs.
	DefaultInputWidth = 40

	// DefaultInputCharLimit bounds free-text field input.
	DefaultInputCharLimit = 120
)
