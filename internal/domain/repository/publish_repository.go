package repository

import "context"

// PublishRepository promotes gated artifacts to where presentation
// collaborators read them.
type PublishRepository interface {
	Name() string
	Publish(ctx context.Context, fiscalYear int, artifacts []string) ([]string, error)
}
