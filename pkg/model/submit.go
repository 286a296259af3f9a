package model

import "context"

// Submitter is the boundary to the deployment-submission API. Implementations
// own authentication, retries, and transport concerns; the core hands over a
// fully validated ExecutionContext and surfaces the returned error verbatim.
type Submitter interface {
	// Submit requests execution of the catalog item described by execCtx and
	// returns the backend-assigned deployment identifier.
	Submit(ctx context.Context, execCtx ExecutionContext) (string, error)
}
