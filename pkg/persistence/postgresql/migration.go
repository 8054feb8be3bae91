package postgresql

// migrations returns the schema migrations keyed by version.
func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE IF NOT EXISTS workflows (
				id UUID PRIMARY KEY,
				company_id UUID NOT NULL,
				name VARCHAR(255) NOT NULL,
				trigger_type VARCHAR(64) NOT NULL,
				enabled BOOLEAN NOT NULL DEFAULT FALSE,
				trigger_config JSONB NOT NULL DEFAULT '{}',
				nodes JSONB NOT NULL DEFAULT '[]',
				edges JSONB NOT NULL DEFAULT '[]',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS idx_workflows_dispatch
				ON workflows (company_id, trigger_type)
				WHERE enabled;
		`,
		2: `
			CREATE TABLE IF NOT EXISTS workflow_executions (
				id UUID PRIMARY KEY,
				workflow_id UUID NOT NULL REFERENCES workflows(id),
				company_id UUID NOT NULL,
				status VARCHAR(32) NOT NULL,
				triggered_by VARCHAR(255) NOT NULL DEFAULT '',
				triggered_by_id VARCHAR(255) NOT NULL DEFAULT '',
				trigger_data JSONB NOT NULL DEFAULT '{}',
				execution_data JSONB NOT NULL DEFAULT '{}',
				execution_time_ms BIGINT NOT NULL DEFAULT 0,
				error_message TEXT NOT NULL DEFAULT '',
				error_stack TEXT NOT NULL DEFAULT '',
				executed_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS idx_workflow_executions_workflow
				ON workflow_executions (workflow_id, executed_at DESC);
		`,
		3: `
			CREATE TABLE IF NOT EXISTS contacts (
				id UUID PRIMARY KEY,
				company_id UUID NOT NULL,
				name VARCHAR(255) NOT NULL,
				email VARCHAR(255),
				phone VARCHAR(64),
				tags TEXT[] NOT NULL DEFAULT '{}',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS idx_contacts_company
				ON contacts (company_id);

			CREATE TABLE IF NOT EXISTS deals (
				id UUID PRIMARY KEY,
				company_id UUID NOT NULL,
				contact_id UUID NOT NULL REFERENCES contacts(id),
				title VARCHAR(255) NOT NULL,
				stage VARCHAR(64) NOT NULL,
				value NUMERIC(14,2) NOT NULL DEFAULT 0,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS idx_deals_contact
				ON deals (contact_id);

			CREATE TABLE IF NOT EXISTS pipeline_stages (
				company_id UUID NOT NULL,
				stage VARCHAR(64) NOT NULL,
				position INT NOT NULL,
				PRIMARY KEY (company_id, stage)
			);
		`,
	}
}
