// Package config provides configuration loading for workflow seeding. A seed
// file describes workflows that must exist on startup, most importantly the
// practice's default workflow applied to services without an explicit
// assignment.
package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/praxisflow/praxis/pkg/models"
	"github.com/praxisflow/praxis/pkg/persistence"
)

// SeedFile is the structure of the workflows seed YAML.
type SeedFile struct {
	Workflows []SeedWorkflow `yaml:"workflows"`
}

// SeedWorkflow describes one workflow to ensure at startup. Transitions
// reference steps by name, not by id, so seed files stay hand-editable.
type SeedWorkflow struct {
	Name        string           `yaml:"name"`
	Description string           `yaml:"description"`
	IsDefault   bool             `yaml:"is_default"`
	Steps       []SeedStep       `yaml:"steps"`
	Transitions []SeedTransition `yaml:"transitions"`
}

type SeedStep struct {
	Name        string   `yaml:"name"`
	DisplayName string   `yaml:"display_name"`
	Type        string   `yaml:"type"`
	Color       string   `yaml:"color"`
	Roles       []string `yaml:"roles"`
	PositionX   float64  `yaml:"position_x"`
	PositionY   float64  `yaml:"position_y"`
}

type SeedTransition struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
	Name string `yaml:"name"`
}

// LoadSeedFile reads and parses a workflow seed YAML file.
func LoadSeedFile(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file %s: %w", path, err)
	}

	var seed SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}

	return &seed, nil
}

const seedPageSize = 100

// Apply creates every seeded workflow that does not already exist, matched by
// name. Existing workflows are left untouched so seeding stays idempotent and
// never clobbers edits.
func (s *SeedFile) Apply(ctx context.Context, logger *slog.Logger, store persistence.Persistence) error {
	repo := store.WorkflowRepository()

	byName := make(map[string]bool)
	offset := 0

	for {
		page, err := repo.ListWorkflows(ctx, persistence.ListWorkflowsOptions{
			Limit:  seedPageSize,
			Offset: offset,
		})
		if err != nil {
			return fmt.Errorf("failed to list workflows: %w", err)
		}

		for _, workflow := range page.Workflows {
			byName[workflow.Name] = true
		}

		if !page.HasNextPage {
			break
		}

		offset += seedPageSize
	}

	for _, seed := range s.Workflows {
		if byName[seed.Name] {
			continue
		}

		workflow, err := seed.build()
		if err != nil {
			return fmt.Errorf("invalid seed workflow %q: %w", seed.Name, err)
		}

		if err := repo.Save(ctx, workflow); err != nil {
			return fmt.Errorf("failed to seed workflow %q: %w", seed.Name, err)
		}

		logger.InfoContext(ctx, "seeded workflow",
			"workflow_id", workflow.ID,
			"workflow_name", workflow.Name,
			"is_default", workflow.IsDefault,
		)
	}

	return nil
}

func (s *SeedWorkflow) build() (*models.Workflow, error) {
	workflow := &models.Workflow{
		ID:          uuid.New().String(),
		Name:        s.Name,
		Description: s.Description,
		IsActive:    true,
		IsDefault:   s.IsDefault,
		Steps:       make([]*models.Step, 0, len(s.Steps)),
		Transitions: make([]*models.Transition, 0, len(s.Transitions)),
	}

	stepIDs := make(map[string]string, len(s.Steps))

	for _, seed := range s.Steps {
		name := models.NormalizeStepName(seed.Name)
		if _, dup := stepIDs[name]; dup {
			return nil, fmt.Errorf("duplicate step name %q", name)
		}

		stepType := models.StepType(seed.Type)
		if !models.ValidStepType(stepType) {
			return nil, fmt.Errorf("step %q has invalid type %q", seed.Name, seed.Type)
		}

		color := models.StepColor(seed.Color)
		if !models.ValidStepColor(color) {
			return nil, fmt.Errorf("step %q has invalid color %q", seed.Name, seed.Color)
		}

		roles := make([]models.Role, 0, len(seed.Roles))
		for _, role := range seed.Roles {
			roles = append(roles, models.Role(role))
		}

		if !models.ValidRoles(roles) {
			return nil, fmt.Errorf("step %q references unknown roles", seed.Name)
		}

		displayName := seed.DisplayName
		if displayName == "" {
			displayName = seed.Name
		}

		step := &models.Step{
			ID:           uuid.New().String(),
			Name:         name,
			DisplayName:  displayName,
			Type:         stepType,
			Color:        color,
			AllowedRoles: roles,
			PositionX:    seed.PositionX,
			PositionY:    seed.PositionY,
		}

		stepIDs[name] = step.ID
		workflow.Steps = append(workflow.Steps, step)
	}

	for _, seed := range s.Transitions {
		fromID, fromOK := stepIDs[models.NormalizeStepName(seed.From)]
		toID, toOK := stepIDs[models.NormalizeStepName(seed.To)]

		if !fromOK || !toOK {
			return nil, fmt.Errorf("transition %q -> %q references an unknown step", seed.From, seed.To)
		}

		name := seed.Name
		if name == "" {
			name = models.DefaultTransitionName
		}

		workflow.Transitions = append(workflow.Transitions, &models.Transition{
			ID:         uuid.New().String(),
			FromStepID: fromID,
			ToStepID:   toID,
			Name:       name,
		})
	}

	return workflow, nil
}
