// Package auth implements the role-based authorization collaborator.
//
// Every core operation takes an explicit actor id — there is no ambient
// "current user" state. The engine and the assignment coordinator call in
// here before mutating anything.
package auth

import (
	"context"
	"errors"
	"fmt"

	"zepul/pipeline-service/internal/pipeline"
)

// Role of a marketplace actor.
type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RoleManager   Role = "MANAGER"
	RoleRecruiter Role = "RECRUITER"
)

// Actor is the identity record the authorizer reasons about. Managers and
// recruiters belong to a company; recruiters additionally report to a
// manager.
type Actor struct {
	ID        string
	Role      Role
	CompanyID string
	ManagerID string
}

// ErrActorNotFound is returned by Directory lookups for unknown ids.
var ErrActorNotFound = errors.New("actor not found")

// Directory resolves actor ids to identity records.
type Directory interface {
	GetActor(ctx context.Context, id string) (Actor, error)
}

// AssignmentChecker answers whether a recruiter is assigned to a job.
type AssignmentChecker interface {
	IsAssigned(ctx context.Context, jobID, recruiterID string) (bool, error)
}

// RoleAuthorizer grants candidate mutation to admins, to managers of the
// owning company, and to recruiters assigned to the candidate's job.
// Recruiter-set management is restricted to admins and company managers.
type RoleAuthorizer struct {
	directory   Directory
	assignments AssignmentChecker
}

// New returns a RoleAuthorizer.
func New(directory Directory, assignments AssignmentChecker) *RoleAuthorizer {
	return &RoleAuthorizer{directory: directory, assignments: assignments}
}

// CanMutateCandidate implements pipeline.Authorizer.
func (a *RoleAuthorizer) CanMutateCandidate(ctx context.Context, actorID, jobID, companyID string) error {
	actor, err := a.directory.GetActor(ctx, actorID)
	if err != nil {
		if errors.Is(err, ErrActorNotFound) {
			// Unknown actors are denied, not reported as missing.
			return pipeline.ErrForbidden
		}
		return fmt.Errorf("resolve actor %s: %w", actorID, err)
	}

	switch actor.Role {
	case RoleAdmin:
		return nil
	case RoleManager:
		if actor.CompanyID == companyID {
			return nil
		}
	case RoleRecruiter:
		assigned, err := a.assignments.IsAssigned(ctx, jobID, actor.ID)
		if err != nil {
			return fmt.Errorf("check assignment of %s to job %s: %w", actor.ID, jobID, err)
		}
		if assigned {
			return nil
		}
	}
	return pipeline.ErrForbidden
}

// CanAssignRecruiters implements assignment.Authorizer.
func (a *RoleAuthorizer) CanAssignRecruiters(ctx context.Context, actorID, jobID, companyID string) error {
	actor, err := a.directory.GetActor(ctx, actorID)
	if err != nil {
		if errors.Is(err, ErrActorNotFound) {
			return pipeline.ErrForbidden
		}
		return fmt.Errorf("resolve actor %s: %w", actorID, err)
	}

	if actor.Role == RoleAdmin {
		return nil
	}
	if actor.Role == RoleManager && actor.CompanyID == companyID {
		return nil
	}
	return pipeline.ErrForbidden
}
