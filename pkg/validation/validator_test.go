package validation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praxisflow/praxis/pkg/models"
)

func step(id, name string, stepType models.StepType) *models.Step {
	return &models.Step{ID: id, Name: name, DisplayName: name, Type: stepType}
}

func transition(id, from, to string) *models.Transition {
	return &models.Transition{ID: id, FromStepID: from, ToStepID: to, Name: id}
}

func kinds(issues []Issue) []IssueKind {
	result := make([]IssueKind, 0, len(issues))
	for _, issue := range issues {
		result = append(result, issue.Kind)
	}

	return result
}

func TestValidate_EmptyWorkflow(t *testing.T) {
	result := Validate(nil, nil)

	assert.False(t, result.Valid)
	assert.Contains(t, kinds(result.Issues), IssueMissingStart)
	assert.Contains(t, kinds(result.Issues), IssueMissingEnd)
	assert.NotEmpty(t, result.Errors(), "empty workflow must report at least one error string")
}

func TestValidate_LinearWorkflowIsValid(t *testing.T) {
	steps := []*models.Step{
		step("s1", "new", models.StepTypeStart),
		step("s2", "in_progress", models.StepTypeNormal),
		step("s3", "awaiting_client", models.StepTypeQuery),
		step("s4", "complete", models.StepTypeEnd),
	}
	transitions := []*models.Transition{
		transition("t1", "s1", "s2"),
		transition("t2", "s2", "s3"),
		transition("t3", "s3", "s2"),
		transition("t4", "s2", "s4"),
	}

	result := Validate(steps, transitions)

	assert.True(t, result.Valid)
	assert.Empty(t, result.Issues)
	assert.Empty(t, result.Errors())
}

func TestValidate_UnreachableStep(t *testing.T) {
	steps := []*models.Step{
		step("s1", "new", models.StepTypeStart),
		step("s2", "complete", models.StepTypeEnd),
		step("s3", "stranded", models.StepTypeNormal),
	}
	transitions := []*models.Transition{
		transition("t1", "s1", "s2"),
		transition("t2", "s3", "s2"),
	}

	result := Validate(steps, transitions)

	require.False(t, result.Valid)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, IssueUnreachableStep, result.Issues[0].Kind)
	assert.Equal(t, "s3", result.Issues[0].StepID)
}

func TestValidate_NoPathToEnd(t *testing.T) {
	steps := []*models.Step{
		step("s1", "new", models.StepTypeStart),
		step("s2", "dead_end", models.StepTypeNormal),
		step("s3", "complete", models.StepTypeEnd),
	}
	transitions := []*models.Transition{
		transition("t1", "s1", "s2"),
		transition("t2", "s1", "s3"),
	}

	result := Validate(steps, transitions)

	require.False(t, result.Valid)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, IssueNoPathToEnd, result.Issues[0].Kind)
	assert.Equal(t, "s2", result.Issues[0].StepID)
}

func TestValidate_StartWithoutPathToEndIsFlagged(t *testing.T) {
	steps := []*models.Step{
		step("s1", "new", models.StepTypeStart),
		step("s2", "complete", models.StepTypeEnd),
	}

	result := Validate(steps, nil)

	require.False(t, result.Valid)
	assert.ElementsMatch(t, []IssueKind{IssueUnreachableStep, IssueNoPathToEnd}, kinds(result.Issues))
}

func TestValidate_OrphanedTransition(t *testing.T) {
	steps := []*models.Step{
		step("s1", "new", models.StepTypeStart),
		step("s2", "complete", models.StepTypeEnd),
	}
	transitions := []*models.Transition{
		transition("t1", "s1", "s2"),
		transition("t2", "s1", "ghost"),
	}

	result := Validate(steps, transitions)

	require.False(t, result.Valid)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, IssueOrphanedTransition, result.Issues[0].Kind)
	assert.Equal(t, "t2", result.Issues[0].TransitionID)
}

func TestValidate_DuplicateStepNames(t *testing.T) {
	steps := []*models.Step{
		step("s1", "new", models.StepTypeStart),
		step("s2", "review", models.StepTypeNormal),
		step("s3", "review", models.StepTypeNormal),
		step("s4", "complete", models.StepTypeEnd),
	}
	transitions := []*models.Transition{
		transition("t1", "s1", "s2"),
		transition("t2", "s2", "s4"),
		transition("t3", "s1", "s3"),
		transition("t4", "s3", "s4"),
	}

	result := Validate(steps, transitions)

	require.False(t, result.Valid)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, IssueDuplicateStepName, result.Issues[0].Kind)
	assert.Equal(t, "s3", result.Issues[0].StepID)
}

func TestValidate_TransitionIntoStartAndOutOfEnd(t *testing.T) {
	steps := []*models.Step{
		step("s1", "new", models.StepTypeStart),
		step("s2", "complete", models.StepTypeEnd),
	}
	transitions := []*models.Transition{
		transition("t1", "s1", "s2"),
		transition("t2", "s2", "s1"),
	}

	result := Validate(steps, transitions)

	require.False(t, result.Valid)
	assert.Contains(t, kinds(result.Issues), IssueIntoStartStep)
	assert.Contains(t, kinds(result.Issues), IssueOutOfEndStep)
}

func TestValidate_SelfLoopIsWarningOnly(t *testing.T) {
	steps := []*models.Step{
		step("s1", "new", models.StepTypeStart),
		step("s2", "rework", models.StepTypeNormal),
		step("s3", "complete", models.StepTypeEnd),
	}
	transitions := []*models.Transition{
		transition("t1", "s1", "s2"),
		transition("t2", "s2", "s2"),
		transition("t3", "s2", "s3"),
	}

	result := Validate(steps, transitions)

	assert.True(t, result.Valid, "self-loops are discouraged but legal")
	require.Len(t, result.Issues, 1)
	assert.Equal(t, IssueSelfLoop, result.Issues[0].Kind)
	assert.Equal(t, SeverityWarning, result.Issues[0].Severity)
	assert.Empty(t, result.Errors(), "warnings are not part of the error list")
}

func TestValidate_MultipleStartAndEndSteps(t *testing.T) {
	steps := []*models.Step{
		step("s1", "new_individual", models.StepTypeStart),
		step("s2", "new_company", models.StepTypeStart),
		step("s3", "processing", models.StepTypeNormal),
		step("s4", "complete", models.StepTypeEnd),
		step("s5", "cancelled", models.StepTypeEnd),
	}
	transitions := []*models.Transition{
		transition("t1", "s1", "s3"),
		transition("t2", "s2", "s3"),
		transition("t3", "s3", "s4"),
		transition("t4", "s3", "s5"),
	}

	result := Validate(steps, transitions)

	assert.True(t, result.Valid)
	assert.Empty(t, result.Issues)
}

func TestResult_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(Validate(nil, nil))
	require.NoError(t, err)

	var decoded struct {
		Valid  bool     `json:"is_valid"`
		Errors []string `json:"errors"`
		Issues []Issue  `json:"issues"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.False(t, decoded.Valid)
	assert.NotEmpty(t, decoded.Errors)
	assert.Len(t, decoded.Issues, len(decoded.Errors))

	data, err = json.Marshal(Validate(
		[]*models.Step{
			step("s1", "new", models.StepTypeStart),
			step("s2", "complete", models.StepTypeEnd),
		},
		[]*models.Transition{transition("t1", "s1", "s2")},
	))
	require.NoError(t, err)

	// A clean graph still carries the errors key, as an empty list.
	assert.JSONEq(t, `{"is_valid":true,"errors":[],"issues":[]}`, string(data))
}

func TestValidateWorkflow(t *testing.T) {
	workflow := &models.Workflow{ID: "wf1"}

	result := ValidateWorkflow(workflow)

	assert.False(t, result.Valid)
	assert.GreaterOrEqual(t, len(result.Errors()), 1)
}
