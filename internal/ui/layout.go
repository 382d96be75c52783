package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the width below which the detail pane is hidden.
	LayoutCompactWidth = 100

	// LayoutDeployedWidth is the minimum width to show the deployed column.
	LayoutDeployedWidth = 120

	// LayoutExtraWideWidth gives the table a smaller share of extra-wide terminals.
	LayoutExtraWideWidth = 160
)

// Page size bounds for the +/- keys.
const (
	pageSizeStep = 10
	minPageSize  = 10
	maxPageSize  = 500
)

// DefaultUIInterval is how often the UI re-reads the session and refresher
// state while idle.
const DefaultUIInterval = time.Second
