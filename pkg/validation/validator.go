// Package validation computes structural correctness of a workflow graph.
// It is a pure function over the workflow's steps and transitions so the
// verdict can be recomputed wherever the graph is mutated.
package validation

import (
	"encoding/json"
	"fmt"

	"github.com/praxisflow/praxis/pkg/models"
)

// IssueKind identifies a class of structural problem.
type IssueKind string

const (
	IssueMissingStart       IssueKind = "missing_start_step"
	IssueMissingEnd         IssueKind = "missing_end_step"
	IssueDuplicateStepName  IssueKind = "duplicate_step_name"
	IssueUnreachableStep    IssueKind = "unreachable_step"
	IssueNoPathToEnd        IssueKind = "no_path_to_end"
	IssueOrphanedTransition IssueKind = "orphaned_transition"
	IssueIntoStartStep      IssueKind = "transition_into_start_step"
	IssueOutOfEndStep       IssueKind = "transition_out_of_end_step"
	IssueSelfLoop           IssueKind = "self_loop"
)

// Severity distinguishes hard structural errors from discouraged-but-legal
// constructs. Only errors make a workflow invalid.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue describes one structural problem, pointing at the offending step or
// transition.
type Issue struct {
	Kind         IssueKind `json:"kind"`
	Severity     Severity  `json:"severity"`
	StepID       string    `json:"step_id,omitempty"`
	TransitionID string    `json:"transition_id,omitempty"`
	Message      string    `json:"message"`
}

// Result is the validation verdict for a workflow graph.
type Result struct {
	Valid  bool    `json:"is_valid"`
	Issues []Issue `json:"issues"`
}

// Errors returns the messages of error-severity issues, in order. This is the
// opaque string list rendered verbatim by editor clients.
func (r Result) Errors() []string {
	errs := make([]string, 0, len(r.Issues))

	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			errs = append(errs, issue.Message)
		}
	}

	return errs
}

// MarshalJSON renders the verdict with the flattened error message list that
// editor clients consume alongside the structured issues.
func (r Result) MarshalJSON() ([]byte, error) {
	type verdict struct {
		Valid  bool     `json:"is_valid"`
		Errors []string `json:"errors"`
		Issues []Issue  `json:"issues"`
	}

	return json.Marshal(verdict{Valid: r.Valid, Errors: r.Errors(), Issues: r.Issues})
}

// Validate checks the graph formed by steps and transitions. Rules:
//
//   - at least one start step and at least one end step
//   - step names unique within the workflow
//   - transition endpoints must reference existing steps
//   - no transition may enter a start step or leave an end step
//   - every step must be reachable from some start step
//   - every non-end step must have a path to some end step
//   - self-loops are flagged as warnings
//
// Orphaned transitions are excluded from the reachability walks so a single
// dangling reference does not cascade into spurious unreachable-step issues.
func Validate(steps []*models.Step, transitions []*models.Transition) Result {
	issues := make([]Issue, 0)

	byID := make(map[string]*models.Step, len(steps))
	for _, s := range steps {
		byID[s.ID] = s
	}

	issues = append(issues, checkTerminals(steps)...)
	issues = append(issues, checkDuplicateNames(steps)...)

	edges := make([]*models.Transition, 0, len(transitions))

	for _, t := range transitions {
		from, fromOK := byID[t.FromStepID]
		to, toOK := byID[t.ToStepID]

		if !fromOK || !toOK {
			issues = append(issues, Issue{
				Kind:         IssueOrphanedTransition,
				Severity:     SeverityError,
				TransitionID: t.ID,
				Message:      fmt.Sprintf("transition %q references a step that does not exist", label(t)),
			})

			continue
		}

		if to.IsStart() {
			issues = append(issues, Issue{
				Kind:         IssueIntoStartStep,
				Severity:     SeverityError,
				TransitionID: t.ID,
				StepID:       to.ID,
				Message:      fmt.Sprintf("transition %q targets start step %q", label(t), to.Name),
			})
		}

		if from.IsEnd() {
			issues = append(issues, Issue{
				Kind:         IssueOutOfEndStep,
				Severity:     SeverityError,
				TransitionID: t.ID,
				StepID:       from.ID,
				Message:      fmt.Sprintf("transition %q leaves end step %q", label(t), from.Name),
			})
		}

		if t.IsSelfLoop() {
			issues = append(issues, Issue{
				Kind:         IssueSelfLoop,
				Severity:     SeverityWarning,
				TransitionID: t.ID,
				StepID:       from.ID,
				Message:      fmt.Sprintf("transition %q loops step %q back onto itself", label(t), from.Name),
			})
		}

		edges = append(edges, t)
	}

	issues = append(issues, checkReachability(steps, edges)...)

	valid := true

	for _, issue := range issues {
		if issue.Severity == SeverityError {
			valid = false

			break
		}
	}

	return Result{Valid: valid, Issues: issues}
}

// ValidateWorkflow validates a whole workflow aggregate.
func ValidateWorkflow(workflow *models.Workflow) Result {
	return Validate(workflow.Steps, workflow.Transitions)
}

func checkTerminals(steps []*models.Step) []Issue {
	var hasStart, hasEnd bool

	for _, s := range steps {
		if s.IsStart() {
			hasStart = true
		}

		if s.IsEnd() {
			hasEnd = true
		}
	}

	issues := make([]Issue, 0, 2)

	if !hasStart {
		issues = append(issues, Issue{
			Kind:     IssueMissingStart,
			Severity: SeverityError,
			Message:  "workflow has no start step",
		})
	}

	if !hasEnd {
		issues = append(issues, Issue{
			Kind:     IssueMissingEnd,
			Severity: SeverityError,
			Message:  "workflow has no end step",
		})
	}

	return issues
}

func checkDuplicateNames(steps []*models.Step) []Issue {
	issues := make([]Issue, 0)
	seen := make(map[string]bool, len(steps))

	for _, s := range steps {
		if seen[s.Name] {
			issues = append(issues, Issue{
				Kind:     IssueDuplicateStepName,
				Severity: SeverityError,
				StepID:   s.ID,
				Message:  fmt.Sprintf("step name %q is used more than once", s.Name),
			})

			continue
		}

		seen[s.Name] = true
	}

	return issues
}

// checkReachability walks the graph twice: forward from the start steps, and
// backward from the end steps. Self-loop edges contribute nothing to either
// walk.
func checkReachability(steps []*models.Step, edges []*models.Transition) []Issue {
	forward := make(map[string][]string, len(steps))
	backward := make(map[string][]string, len(steps))

	for _, t := range edges {
		if t.IsSelfLoop() {
			continue
		}

		forward[t.FromStepID] = append(forward[t.FromStepID], t.ToStepID)
		backward[t.ToStepID] = append(backward[t.ToStepID], t.FromStepID)
	}

	var starts, ends []string

	for _, s := range steps {
		if s.IsStart() {
			starts = append(starts, s.ID)
		}

		if s.IsEnd() {
			ends = append(ends, s.ID)
		}
	}

	fromStart := walk(starts, forward)
	toEnd := walk(ends, backward)

	issues := make([]Issue, 0)

	for _, s := range steps {
		// Without terminals the whole graph would be flagged; the
		// missing-start/missing-end issues already cover that case.
		if len(starts) > 0 && !s.IsStart() && !fromStart[s.ID] {
			issues = append(issues, Issue{
				Kind:     IssueUnreachableStep,
				Severity: SeverityError,
				StepID:   s.ID,
				Message:  fmt.Sprintf("step %q is not reachable from any start step", s.Name),
			})
		}

		if len(ends) > 0 && !s.IsEnd() && !toEnd[s.ID] {
			issues = append(issues, Issue{
				Kind:     IssueNoPathToEnd,
				Severity: SeverityError,
				StepID:   s.ID,
				Message:  fmt.Sprintf("step %q has no path to an end step", s.Name),
			})
		}
	}

	return issues
}

// walk performs a breadth-first traversal from the given roots and returns
// the set of visited step ids, roots included.
func walk(roots []string, adjacency map[string][]string) map[string]bool {
	visited := make(map[string]bool, len(adjacency))
	queue := make([]string, 0, len(roots))

	for _, root := range roots {
		visited[root] = true
		queue = append(queue, root)
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, next := range adjacency[current] {
			if visited[next] {
				continue
			}

			visited[next] = true
			queue = append(queue, next)
		}
	}

	return visited
}

func label(t *models.Transition) string {
	if t.Name != "" {
		return t.Name
	}

	return t.ID
}
