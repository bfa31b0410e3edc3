package web

// CreateWorkflowRequest represents the request body for creating a new workflow.
type CreateWorkflowRequest struct {
	Name        string `json:"name"        validate:"required,min=1,max=255"`
	Description string `json:"description" validate:"max=2000"`
}

// UpdateWorkflowRequest represents the request body for a partial update of
// workflow metadata. Absent fields keep their stored value. The
// expected_version field enables optimistic concurrency: when non-zero it
// must match the stored version or the update is rejected.
type UpdateWorkflowRequest struct {
	Name            *string `json:"name,omitempty"             validate:"omitempty,min=1,max=255"`
	Description     *string `json:"description,omitempty"      validate:"omitempty,max=2000"`
	ExpectedVersion int64   `json:"expected_version,omitempty" validate:"min=0"`
}

// DuplicateWorkflowRequest represents the optional request body when copying
// a workflow. An empty name defaults to the source name with a copy suffix.
type DuplicateWorkflowRequest struct {
	Name string `json:"name" validate:"max=255"`
}

// CreateStepRequest represents the request body for creating a new step.
type CreateStepRequest struct {
	Name           string   `json:"name"             validate:"required,min=1,max=255"`
	DisplayName    string   `json:"display_name"     validate:"max=255"`
	Description    string   `json:"description"      validate:"max=2000"`
	StepType       string   `json:"step_type"        validate:"required,oneof=start normal query end"`
	Color          string   `json:"color"`
	AllowedRoles   []string `json:"allowed_roles"`
	RequiredFields []string `json:"required_fields"`
	AutoAssign     bool     `json:"auto_assign"`
	NotifyRoles    []string `json:"notify_roles"`
	NotifyClient   bool     `json:"notify_client"`
	PositionX      float64  `json:"position_x"`
	PositionY      float64  `json:"position_y"`
}

// UpdateStepRequest represents the request body for updating an existing
// step. The step type cannot be changed.
type UpdateStepRequest struct {
	Name           string   `json:"name"            validate:"required,min=1,max=255"`
	DisplayName    string   `json:"display_name"    validate:"max=255"`
	Description    string   `json:"description"     validate:"max=2000"`
	Color          string   `json:"color"`
	AllowedRoles   []string `json:"allowed_roles"`
	RequiredFields []string `json:"required_fields"`
	AutoAssign     bool     `json:"auto_assign"`
	NotifyRoles    []string `json:"notify_roles"`
	NotifyClient   bool     `json:"notify_client"`
}

// StepPositionRequest is one entry of a batch canvas-position update.
type StepPositionRequest struct {
	StepID    string  `json:"step_id"    validate:"required"`
	PositionX float64 `json:"position_x"`
	PositionY float64 `json:"position_y"`
}

// UpdatePositionsRequest represents the request body for syncing canvas
// coordinates after the user drags nodes around.
type UpdatePositionsRequest struct {
	Positions []StepPositionRequest `json:"positions" validate:"required,min=1,dive"`
}

// CreateTransitionRequest represents the request body for creating a new
// transition between two steps.
type CreateTransitionRequest struct {
	FromStepID  string `json:"from_step_id" validate:"required"`
	ToStepID    string `json:"to_step_id"   validate:"required"`
	Name        string `json:"name"         validate:"max=255"`
	Description string `json:"description"  validate:"max=2000"`

	RequiresInvoiceRaised bool `json:"requires_invoice_raised"`
	RequiresInvoicePaid   bool `json:"requires_invoice_paid"`
	RequiresAssignment    bool `json:"requires_assignment"`

	AllowedRoles []string `json:"allowed_roles"`

	SendNotification     bool   `json:"send_notification"`
	NotificationTemplate string `json:"notification_template" validate:"max=255"`
}

// UpdateTransitionRequest represents the request body for updating an
// existing transition. Endpoints cannot be changed; delete and recreate to
// reroute an edge.
type UpdateTransitionRequest struct {
	Name        string `json:"name"        validate:"max=255"`
	Description string `json:"description" validate:"max=2000"`

	RequiresInvoiceRaised bool `json:"requires_invoice_raised"`
	RequiresInvoicePaid   bool `json:"requires_invoice_paid"`
	RequiresAssignment    bool `json:"requires_assignment"`

	AllowedRoles []string `json:"allowed_roles"`

	SendNotification     bool   `json:"send_notification"`
	NotificationTemplate string `json:"notification_template" validate:"max=255"`
}
