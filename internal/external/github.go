package external

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"surfalert/internal/config"
	"surfalert/internal/types"
)

// WorkflowDispatcher starts the price worker as a GitHub Actions
// workflow_dispatch run. GitHub returns no run id, so the job id only lives
// in the workflow inputs.
type WorkflowDispatcher struct {
	client   *BaseClient
	endpoint string
	ref      string
	token    types.SecretString
	logger   *slog.Logger
}

// NewWorkflowDispatcher creates a dispatcher from worker configuration.
func NewWorkflowDispatcher(client *BaseClient, cfg config.WorkerConfig, logger *slog.Logger) *WorkflowDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	endpoint := fmt.Sprintf("%s/repos/%s/actions/workflows/%s/dispatches",
		strings.TrimRight(cfg.GitHubAPIURL, "/"), cfg.GitHubRepo, cfg.GitHubWorkflow)
	return &WorkflowDispatcher{
		client:   client,
		endpoint: endpoint,
		ref:      cfg.GitHubRef,
		token:    cfg.GitHubToken,
		logger:   logger,
	}
}

// Name identifies the dispatcher in metrics.
func (d *WorkflowDispatcher) Name() string { return string(types.DispatchModeGitHub) }

type workflowDispatchRequest struct {
	Ref    string            `json:"ref"`
	Inputs map[string]string `json:"inputs"`
}

// Dispatch triggers one workflow run for job. GitHub answers 204 on success.
func (d *WorkflowDispatcher) Dispatch(ctx context.Context, job types.WorkerJob) error {
	payload, err := json.Marshal(workflowDispatchRequest{
		Ref: d.ref,
		Inputs: map[string]string{
			"rule_id":        job.AlertID,
			"trigger_reason": string(job.Reason),
			"job_id":         job.JobID,
		},
	})
	if err != nil {
		return fmt.Errorf("github: failed to marshal dispatch request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("github: failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+d.token.Unmask())
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return types.NewAppErrorWithDetails(types.ErrCodeUpstreamWorkerDispatch,
			fmt.Sprintf("workflow dispatch returned %d", resp.StatusCode), nil,
			map[string]any{"status": resp.StatusCode, "body": strings.TrimSpace(string(msg))})
	}

	d.logger.InfoContext(ctx, "worker workflow dispatched",
		"job_id", job.JobID,
		"alert_id", job.AlertID,
		"reason", job.Reason,
		"ref", d.ref,
	)
	return nil
}
