// Package auth provides authorization for role → action mapping.
// Deny-by-default: absence of permission is denial.
package auth

import (
	"context"
	"fmt"
	"sync"

	"github.com/cordonlabs/cordon/internal/errors"
)

// Actions a role can be granted. Screening reads feeds and classifies;
// seeding writes demo tables; report reads run history.
const (
	ActionScreen     = "screen"
	ActionSeed       = "seed"
	ActionReportRead = "report:read"
)

// RoleAdmin holds every action implicitly.
const RoleAdmin = "admin"

// AuthorizationService manages role → action grants.
type AuthorizationService struct {
	mu     sync.RWMutex
	grants map[string]map[string]bool // role → action → granted
}

// NewAuthorizationService creates a new authorization service with
// deny-by-default.
func NewAuthorizationService() *AuthorizationService {
	return &AuthorizationService{
		grants: make(map[string]map[string]bool),
	}
}

// DefaultAuthorizationService returns the standard grant table:
// operators screen and read reports, admins get everything.
func DefaultAuthorizationService() *AuthorizationService {
	s := NewAuthorizationService()
	s.Grant("operator", ActionScreen)
	s.Grant("operator", ActionReportRead)
	s.Grant("auditor", ActionReportRead)
	return s
}

// Grant grants an action to a role. Explicit grants only.
func (s *AuthorizationService) Grant(role, action string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.grants[role] == nil {
		s.grants[role] = make(map[string]bool)
	}
	s.grants[role][action] = true
}

// Revoke removes an action from a role.
func (s *AuthorizationService) Revoke(role, action string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.grants[role] != nil {
		delete(s.grants[role], action)
	}
}

// Authorize checks if the user may perform the action.
// Returns nil if authorized, error if denied.
func (s *AuthorizationService) Authorize(ctx context.Context, user *User, action string) error {
	if user == nil {
		return errors.NewAccessDenied(action, "no user context")
	}
	if !s.hasGrant(user.Roles, action) {
		return errors.NewAccessDenied(action,
			fmt.Sprintf("role(s) %v lack the %s permission", user.Roles, action))
	}
	return nil
}

// HasAccess is a convenience wrapper for Authorize without the error.
func (s *AuthorizationService) HasAccess(user *User, action string) bool {
	if user == nil {
		return false
	}
	return s.hasGrant(user.Roles, action)
}

func (s *AuthorizationService) hasGrant(roles []string, action string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, role := range roles {
		if role == RoleAdmin {
			return true
		}
		if s.grants[role][action] {
			return true
		}
	}
	return false // deny by default
}

// GetGrants returns all actions granted to a role (for debugging).
func (s *AuthorizationService) GetGrants(role string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	actions := make([]string, 0, len(s.grants[role]))
	for action, granted := range s.grants[role] {
		if granted {
			actions = append(actions, action)
		}
	}
	return actions
}
