package model

// Mode is the top-level exploration mode.
type Mode string

const (
	ModeNone Mode = "none"
	ModePlan Mode = "plan"
	ModeFind Mode = "find"
)

// Scope distinguishes the national overview from a zoomed-in village.
type Scope string

const (
	ScopeNational Scope = "national"
	ScopeLocal    Scope = "local"
)

// Panel identifies the sidebar/screen panels. Exactly one is visible at a
// time.
type Panel string

const (
	PanelLanding   Panel = "landing"
	PanelExplore   Panel = "explore"
	PanelAbout     Panel = "about"
	PanelCountries Panel = "countries"
)

// ViewState is the complete user-visible navigation state. DynamicStep is 0
// when dynamic playback is inactive, 1..4 otherwise.
type ViewState struct {
	Mode        Mode   `json:"mode"`
	Scope       Scope  `json:"scope"`
	Country     string `json:"country"`
	DynamicStep int    `json:"dynamicStep"`
}

// Home is the state shown before any country is selected.
func Home() ViewState {
	return ViewState{Mode: ModeNone, Scope: ScopeNational}
}
