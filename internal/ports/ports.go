package ports

import "context"

// EmailFetcher retrieves the body of the first email linked to a ticket.
// Implementations wrap the external service-desk automation; a fetch that
// yields nothing returns an empty string, and errors are treated by callers
// as nothing-to-extract rather than propagated.
type EmailFetcher interface {
	FetchBody(ctx context.Context, ticket string) (string, error)
}
