package models

// DefaultTransitionName is assigned when a transition is created without a
// label, matching the editor's drag-connect behavior.
const DefaultTransitionName = "New Transition"

// Transition is a directed edge between two steps of the same workflow. The
// requires_* booleans are preconditions checked by the CRM backend before the
// transition may fire; they are stored here as independent toggles with no
// cross-validation.
type Transition struct {
	ID          string `json:"id"`
	FromStepID  string `json:"from_step_id" validate:"required"`
	ToStepID    string `json:"to_step_id"   validate:"required"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`

	RequiresInvoiceRaised bool `json:"requires_invoice_raised"`
	RequiresInvoicePaid   bool `json:"requires_invoice_paid"`
	RequiresAssignment    bool `json:"requires_assignment"`

	// Empty allowed_roles means the transition is unrestricted. The set is
	// always rendered, as [], so clients never see null.
	AllowedRoles []Role `json:"allowed_roles"`

	SendNotification bool `json:"send_notification"`
	// Empty template means "use system default".
	NotificationTemplate string `json:"notification_template,omitempty"`
}

// HasConditions reports whether any precondition is set. The editor shows a
// marker glyph on edges with conditions.
func (t *Transition) HasConditions() bool {
	return t.RequiresInvoiceRaised || t.RequiresInvoicePaid || t.RequiresAssignment
}

// IsSelfLoop reports whether the transition starts and ends on the same step.
func (t *Transition) IsSelfLoop() bool {
	return t.FromStepID != "" && t.FromStepID == t.ToStepID
}
