package authorize

import (
	"context"
	"log/slog"
	"time"
)

// AuditedAuthorization wraps an IAuthorization implementation with audit logging.
type AuditedAuthorization struct {
	inner  IAuthorization
	logger *slog.Logger
}

func NewAuditedAuthorization(inner IAuthorization, logger *slog.Logger) IAuthorization {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditedAuthorization{inner: inner, logger: logger}
}

func (a *AuditedAuthorization) Enforce(ctx context.Context, role Role, domain Domain, object Resource, action Action) (bool, error) {
	start := time.Now()
	allowed, err := a.inner.Enforce(ctx, role, domain, object, action)

	attrs := []any{
		"role", string(role),
		"domain", string(domain),
		"resource", string(object),
		"action", string(action),
		"allowed", allowed,
		"duration_ms", time.Since(start).Milliseconds(),
	}

	switch {
	case err != nil:
		attrs = append(attrs, "error", err.Error())
		a.logger.ErrorContext(ctx, "authz_decision", attrs...)
	case allowed:
		a.logger.InfoContext(ctx, "authz_decision", attrs...)
	default:
		a.logger.WarnContext(ctx, "authz_decision", attrs...)
	}

	return allowed, err
}

func (a *AuditedAuthorization) MustEnforce(ctx context.Context, role Role, domain Domain, object Resource, action Action) error {
	ok, err := a.Enforce(ctx, role, domain, object, action)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}

func (a *AuditedAuthorization) AddPermissions(ctx context.Context, policies ...PermissionPolicy) (bool, error) {
	added, err := a.inner.AddPermissions(ctx, policies...)

	attrs := []any{
		"operation", "add_permissions",
		"count", len(policies),
		"added", added,
	}
	if err != nil {
		attrs = append(attrs, "error", err.Error())
		a.logger.ErrorContext(ctx, "authz_permission_change", attrs...)
	} else {
		a.logger.InfoContext(ctx, "authz_permission_change", attrs...)
	}

	return added, err
}
