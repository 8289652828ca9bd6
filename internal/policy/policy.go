// Package policy decides, per request, whether an authenticated identity
// may perform an action on a resource, and which row filter applies to
// list actions. It owns no data of its own: the single cross-reference it
// needs (the caller's own patient profile) is resolved through ProfileFinder.
package policy

import (
	"context"

	"ehr-backend/internal/models"
)

// Identity is the authenticated caller, extracted from a verified token
// by the auth middleware and passed into every handler.
type Identity struct {
	UserID string
	Role   string
}

// ProfileFinder resolves a user's own patient profile id. The second
// return value reports whether a profile exists; absence of a profile is
// not an error.
type ProfileFinder interface {
	ProfileIDByUser(ctx context.Context, userID string) (string, bool, error)
}

// Decision is the outcome of a policy check.
type Decision struct {
	Allowed bool
	Reason  string
}

var allowed = Decision{Allowed: true}

func deny(reason string) Decision {
	return Decision{Reason: reason}
}

// RecordListScope narrows a medical-record list query.
type RecordListScope struct {
	// PatientID restricts the query to one patient when non-empty.
	PatientID string
	// Empty forces an empty result set without touching the store. Used
	// when a patient caller has no profile: they get [] rather than an
	// error, so no existence information leaks.
	Empty bool
}

// Engine implements the role × action permission table.
type Engine struct {
	profiles ProfileFinder
}

func NewEngine(profiles ProfileFinder) *Engine {
	return &Engine{profiles: profiles}
}

// CanListUsers: admin and doctor only.
func (e *Engine) CanListUsers(id Identity) Decision {
	if id.Role == models.RoleAdmin || id.Role == models.RoleDoctor {
		return allowed
	}
	return deny("only doctors and admins can view users")
}

// CanCreatePatient: every role may create a profile; the handler always
// attaches it to the caller's own user id, so patients can only create
// as themselves.
func (e *Engine) CanCreatePatient(id Identity) Decision {
	switch id.Role {
	case models.RoleAdmin, models.RoleDoctor, models.RolePatient:
		return allowed
	}
	return deny("not authorized")
}

// CanListPatients: admin and doctor only.
func (e *Engine) CanListPatients(id Identity) Decision {
	if id.Role == models.RoleAdmin || id.Role == models.RoleDoctor {
		return allowed
	}
	return deny("only doctors and admins can view all patients")
}

// CanReadOwnProfile: the /patients/me endpoint is patient-only.
func (e *Engine) CanReadOwnProfile(id Identity) Decision {
	if id.Role == models.RolePatient {
		return allowed
	}
	return deny("only patients can access this endpoint")
}

// PatientReadRestrictedToOwner reports whether a read-by-id of a patient
// profile must be constrained to rows owned by the caller. For patient
// callers the handler queries (id AND user_id), so someone else's profile
// looks absent (404) rather than forbidden.
func (e *Engine) PatientReadRestrictedToOwner(id Identity) bool {
	return id.Role == models.RolePatient
}

// CanCreateRecord: doctors and admins only.
func (e *Engine) CanCreateRecord(id Identity) Decision {
	if id.Role == models.RoleAdmin || id.Role == models.RoleDoctor {
		return allowed
	}
	return deny("only doctors can create medical records")
}

// ScopeRecordList computes the row filter for a medical-record list.
// Doctors and admins get the requested patient_id filter as-is (possibly
// none). Patients get the filter forced to their own profile id, whatever
// was requested; with no profile the scope is empty.
func (e *Engine) ScopeRecordList(ctx context.Context, id Identity, requestedPatientID string) (RecordListScope, error) {
	if id.Role != models.RolePatient {
		return RecordListScope{PatientID: requestedPatientID}, nil
	}
	ownID, ok, err := e.profiles.ProfileIDByUser(ctx, id.UserID)
	if err != nil {
		return RecordListScope{}, err
	}
	if !ok {
		return RecordListScope{Empty: true}, nil
	}
	return RecordListScope{PatientID: ownID}, nil
}

// CanReadRecord decides read access to a single medical record. Patients
// may only read records attached to their own profile; here the denial is
// a plain forbidden, not a masked absence.
func (e *Engine) CanReadRecord(ctx context.Context, id Identity, recordPatientID string) (Decision, error) {
	if id.Role != models.RolePatient {
		return allowed, nil
	}
	ownID, ok, err := e.profiles.ProfileIDByUser(ctx, id.UserID)
	if err != nil {
		return Decision{}, err
	}
	if !ok || recordPatientID != ownID {
		return deny("not authorized to view this record"), nil
	}
	return allowed, nil
}
