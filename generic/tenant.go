package generic

import "context"

type tenantKey struct{}

// WithOrganization returns a context scoped to the organization.
func WithOrganization(ctx context.Context, orgID OrganizationID) context.Context {
	return context.WithValue(ctx, tenantKey{}, orgID)
}

// OrganizationFrom returns the organization the context is scoped to, or
// ErrMissingOrganization.
func OrganizationFrom(ctx context.Context) (OrganizationID, error) {
	orgID, ok := ctx.Value(tenantKey{}).(OrganizationID)
	if !ok || orgID == "" {
		return "", ErrMissingOrganization
	}
	return orgID, nil
}
