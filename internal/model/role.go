package model

import "fmt"

// Permission grants one role to one user.
type Permission struct {
	ID   string
	User string
	Role Role
}

// Role is a permission role, possibly scoped to an organization or event.
//
// This is a sealed interface - only types in this package implement it.
//
// Roles:
//   - ServerAdmin: unscoped, satisfies everything
//   - OrganizationAdmin / OrganizationViewer: scoped to an organization
//   - EventAdmin / EventEditor / EventViewer: scoped to an event
//
// Name returns the stored role-column value (e.g. "ORGANIZATION_ADMIN").
type Role interface {
	role() // Marker method - seals interface to this package

	Name() string
}

// Stored role-column values.
const (
	RoleServerAdmin        = "SERVER_ADMIN"
	RoleOrganizationAdmin  = "ORGANIZATION_ADMIN"
	RoleOrganizationViewer = "ORGANIZATION_VIEWER"
	RoleEventAdmin         = "EVENT_ADMIN"
	RoleEventEditor        = "EVENT_EDITOR"
	RoleEventViewer        = "EVENT_VIEWER"
)

// ServerAdmin administers the whole deployment. Carries no scope.
type ServerAdmin struct{}

func (ServerAdmin) role()        {}
func (ServerAdmin) Name() string { return RoleServerAdmin }

// OrganizationAdmin administers one organization and everything under it.
type OrganizationAdmin struct {
	Organization string
}

func (OrganizationAdmin) role()        {}
func (OrganizationAdmin) Name() string { return RoleOrganizationAdmin }

// OrganizationViewer has read access to one organization and its events.
type OrganizationViewer struct {
	Organization string
}

func (OrganizationViewer) role()        {}
func (OrganizationViewer) Name() string { return RoleOrganizationViewer }

// EventAdmin administers one event.
type EventAdmin struct {
	Event string
}

func (EventAdmin) role()        {}
func (EventAdmin) Name() string { return RoleEventAdmin }

// EventEditor edits one event's schema and registrations.
type EventEditor struct {
	Event string
}

func (EventEditor) role()        {}
func (EventEditor) Name() string { return RoleEventEditor }

// EventViewer has read access to one event.
type EventViewer struct {
	Event string
}

func (EventViewer) role()        {}
func (EventViewer) Name() string { return RoleEventViewer }

// Satisfies reports whether a stored grant satisfies a requested role.
// eventOwners maps event id to owning organization id; it supplies the
// events-to-organization join the store-side check performs in SQL. The two
// implementations must agree, and the permission store tests hold them to
// that.
//
// Implication rules:
//   - ServerAdmin satisfies every request.
//   - OrganizationAdmin(org) satisfies admin and viewer requests on org and
//     every event role on events owned by org.
//   - OrganizationViewer(org) satisfies viewer requests on org and
//     EventViewer on events owned by org.
//   - Event roles satisfy requests on the same event at or below their
//     level (Admin > Editor > Viewer).
func Satisfies(granted, requested Role, eventOwners map[string]string) bool {
	if _, ok := granted.(ServerAdmin); ok {
		return true
	}

	switch req := requested.(type) {
	case ServerAdmin:
		return false

	case OrganizationAdmin:
		g, ok := granted.(OrganizationAdmin)
		return ok && g.Organization == req.Organization

	case OrganizationViewer:
		switch g := granted.(type) {
		case OrganizationAdmin:
			return g.Organization == req.Organization
		case OrganizationViewer:
			return g.Organization == req.Organization
		}
		return false

	case EventAdmin:
		switch g := granted.(type) {
		case OrganizationAdmin:
			return eventOwners[req.Event] == g.Organization
		case EventAdmin:
			return g.Event == req.Event
		}
		return false

	case EventEditor:
		switch g := granted.(type) {
		case OrganizationAdmin:
			return eventOwners[req.Event] == g.Organization
		case EventAdmin:
			return g.Event == req.Event
		case EventEditor:
			return g.Event == req.Event
		}
		return false

	case EventViewer:
		switch g := granted.(type) {
		case OrganizationAdmin:
			return eventOwners[req.Event] == g.Organization
		case OrganizationViewer:
			return eventOwners[req.Event] == g.Organization
		case EventAdmin:
			return g.Event == req.Event
		case EventEditor:
			return g.Event == req.Event
		case EventViewer:
			return g.Event == req.Event
		}
		return false
	}

	return false
}

// ParseRole builds a Role from its stored name and scope id. Scoped roles
// require a non-empty scope; ServerAdmin rejects one.
func ParseRole(name, scope string) (Role, error) {
	if name == RoleServerAdmin {
		if scope != "" {
			return nil, fmt.Errorf("role %s takes no scope id", name)
		}
		return ServerAdmin{}, nil
	}

	if scope == "" {
		return nil, fmt.Errorf("role %s requires a scope id", name)
	}

	switch name {
	case RoleOrganizationAdmin:
		return OrganizationAdmin{Organization: scope}, nil
	case RoleOrganizationViewer:
		return OrganizationViewer{Organization: scope}, nil
	case RoleEventAdmin:
		return EventAdmin{Event: scope}, nil
	case RoleEventEditor:
		return EventEditor{Event: scope}, nil
	case RoleEventViewer:
		return EventViewer{Event: scope}, nil
	}

	return nil, fmt.Errorf("unknown role %q", name)
}
