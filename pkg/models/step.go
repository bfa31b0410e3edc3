// Package models defines the core domain models for workflow graph authoring.
package models

import "strings"

// StepType classifies the semantic role of a step within a workflow.
type StepType string

const (
	StepTypeStart  StepType = "start"  // Entry point, no incoming transitions
	StepTypeNormal StepType = "normal" // Regular in-progress step
	StepTypeQuery  StepType = "query"  // Waiting on external client input
	StepTypeEnd    StepType = "end"    // Terminal, no outgoing transitions
)

// ValidStepType reports whether t is one of the four known step types.
func ValidStepType(t StepType) bool {
	switch t {
	case StepTypeStart, StepTypeNormal, StepTypeQuery, StepTypeEnd:
		return true
	default:
		return false
	}
}

// StepColor is a presentation-only hint for rendering a step node.
type StepColor string

const (
	ColorGray   StepColor = "gray"
	ColorBlue   StepColor = "blue"
	ColorGreen  StepColor = "green"
	ColorYellow StepColor = "yellow"
	ColorOrange StepColor = "orange"
	ColorRed    StepColor = "red"
	ColorPurple StepColor = "purple"
	ColorIndigo StepColor = "indigo"
	ColorPink   StepColor = "pink"
)

// StepColors is the fixed palette accepted for steps.
var StepColors = []StepColor{
	ColorGray, ColorBlue, ColorGreen, ColorYellow, ColorOrange,
	ColorRed, ColorPurple, ColorIndigo, ColorPink,
}

// ValidStepColor reports whether c belongs to the palette. The empty color is
// accepted and rendered as gray.
func ValidStepColor(c StepColor) bool {
	if c == "" {
		return true
	}

	for _, known := range StepColors {
		if c == known {
			return true
		}
	}

	return false
}

// Step is a node in the workflow graph representing one stage of a service
// request. Name is an internal key used for status tracking elsewhere in the
// system; DisplayName is the human label.
type Step struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"                      validate:"required,min=1"`
	DisplayName    string    `json:"display_name"              validate:"required,min=1"`
	Description    string    `json:"description,omitempty"`
	Type           StepType  `json:"step_type"                 validate:"required"`
	Color          StepColor `json:"color,omitempty"`
	AllowedRoles   []Role    `json:"allowed_roles"`
	RequiredFields []string  `json:"required_fields,omitempty"`
	AutoAssign     bool      `json:"auto_assign"`
	NotifyRoles    []Role    `json:"notify_roles"`
	NotifyClient   bool      `json:"notify_client"`
	PositionX      float64   `json:"position_x"`
	PositionY      float64   `json:"position_y"`
}

// IsStart reports whether the step is an entry point.
func (s *Step) IsStart() bool {
	return s.Type == StepTypeStart
}

// IsEnd reports whether the step is terminal.
func (s *Step) IsEnd() bool {
	return s.Type == StepTypeEnd
}

// NormalizeStepName converts a free-form label into the internal step key
// format: lowercase with underscores instead of whitespace.
func NormalizeStepName(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))

	return strings.Join(strings.Fields(name), "_")
}
