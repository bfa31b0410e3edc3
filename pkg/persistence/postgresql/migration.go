package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			-- Create workflows table
			CREATE TABLE workflows (
				id UUID PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				is_active BOOLEAN NOT NULL DEFAULT true,
				is_default BOOLEAN NOT NULL DEFAULT false,
				service_count BIGINT NOT NULL DEFAULT 0,
				version BIGINT NOT NULL DEFAULT 0,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				deleted_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_workflows_is_active ON workflows(is_active);
			CREATE INDEX idx_workflows_created_at ON workflows(created_at);
			CREATE INDEX idx_workflows_deleted_at ON workflows(deleted_at);
			-- At most one (undeleted) default workflow
			CREATE UNIQUE INDEX idx_workflows_default ON workflows(is_default) WHERE is_default AND deleted_at IS NULL;

			-- Create workflow_steps table
			CREATE TABLE workflow_steps (
				workflow_id UUID NOT NULL REFERENCES workflows(id) ON DELETE CASCADE,
				id VARCHAR(255) NOT NULL,
				name VARCHAR(255) NOT NULL,
				display_name VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				step_type VARCHAR(50) NOT NULL CHECK (step_type IN ('start', 'normal', 'query', 'end')),
				color VARCHAR(50) NOT NULL DEFAULT '',
				allowed_roles JSONB NOT NULL DEFAULT '[]',
				required_fields JSONB NOT NULL DEFAULT '[]',
				auto_assign BOOLEAN NOT NULL DEFAULT false,
				notify_roles JSONB NOT NULL DEFAULT '[]',
				notify_client BOOLEAN NOT NULL DEFAULT false,
				position_x DOUBLE PRECISION NOT NULL DEFAULT 0,
				position_y DOUBLE PRECISION NOT NULL DEFAULT 0,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				PRIMARY KEY (workflow_id, id)
			);

			CREATE INDEX idx_workflow_steps_workflow_id ON workflow_steps(workflow_id);
			CREATE INDEX idx_workflow_steps_type ON workflow_steps(step_type);
			CREATE UNIQUE INDEX idx_workflow_steps_name ON workflow_steps(workflow_id, name);

			-- Create workflow_transitions table
			CREATE TABLE workflow_transitions (
				workflow_id UUID NOT NULL REFERENCES workflows(id) ON DELETE CASCADE,
				id VARCHAR(255) NOT NULL,
				from_step_id VARCHAR(255) NOT NULL,
				to_step_id VARCHAR(255) NOT NULL,
				name VARCHAR(255) NOT NULL DEFAULT '',
				description TEXT NOT NULL DEFAULT '',
				requires_invoice_raised BOOLEAN NOT NULL DEFAULT false,
				requires_invoice_paid BOOLEAN NOT NULL DEFAULT false,
				requires_assignment BOOLEAN NOT NULL DEFAULT false,
				allowed_roles JSONB NOT NULL DEFAULT '[]',
				send_notification BOOLEAN NOT NULL DEFAULT false,
				notification_template TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				PRIMARY KEY (workflow_id, id)
			);

			CREATE INDEX idx_workflow_transitions_workflow_id ON workflow_transitions(workflow_id);
			CREATE INDEX idx_workflow_transitions_from ON workflow_transitions(workflow_id, from_step_id);
			CREATE INDEX idx_workflow_transitions_to ON workflow_transitions(workflow_id, to_step_id);
		`,
	}
}
