// Package auth provides JWT authentication and role-based authorization for
// the steady service.
//
// Tokens carry a roles claim; RBAC maps roles to permissions checked by the
// authorization middleware.
//
// Usage:
//
//	svc, err := auth.NewService(&cfg)
//	token, err := svc.Generate("user-123", []string{"user"})
//	claims, err := svc.Parse(token)
//	if !auth.HasPermission(claims.Roles, auth.PermissionWrite) { ... }
package auth
