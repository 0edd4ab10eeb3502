package factcheck

import "context"

// Client is the request/poll contract with the external fact-check service.
// The service is a black box: it accepts a URL and a mode, and eventually
// yields a verdict payload or an error. Implementations must be safe for
// concurrent use by multiple workers.
type Client interface {
	Submit(ctx context.Context, req SubmitRequest) (*SubmitResponse, error)
	Status(ctx context.Context, jobID string) (*StatusResponse, error)
	Result(ctx context.Context, jobID string) (*Result, error)
	Cancel(ctx context.Context, jobID string) error
}

var _ Client = (*HTTPClient)(nil)
