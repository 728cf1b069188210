package instrument

import "github.com/sweeney/radmon/internal/menu"

// ActionKind identifies a front-panel action.
type ActionKind string

const (
	ActionButton         ActionKind = "BUTTON"
	ActionSelectCell     ActionKind = "SELECT_CELL"
	ActionEditCell       ActionKind = "EDIT_CELL"
	ActionCommitCell     ActionKind = "COMMIT_CELL"
	ActionSetCalibration ActionKind = "SET_CALIBRATION"
)

// Action is one user input: a button press or a lookup-table cell operation.
type Action struct {
	Kind   ActionKind  `json:"kind"`
	Button menu.Button `json:"button,omitempty"`
	Row    int         `json:"row,omitempty"`
	Col    int         `json:"col,omitempty"`
	Text   string      `json:"text,omitempty"`
}

// Press returns the action for a button press.
func Press(b menu.Button) Action {
	return Action{Kind: ActionButton, Button: b}
}
