// Package rbac maps roles to the actions they may perform.
package rbac

// Action is an operation a role can be granted.
type Action string

const (
	Create Action = "Create"
	Edit   Action = "Edit"
	Delete Action = "Delete"
	View   Action = "View"
)

// Known role names.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Actions lists every action in a stable order.
var Actions = []Action{Create, Edit, Delete, View}

// IsKnownRole reports whether role is one of the role names the service assigns.
func IsKnownRole(role string) bool {
	return role == RoleAdmin || role == RoleUser
}

// Table is an immutable role to action-set mapping. The zero value grants nothing.
type Table struct {
	grants map[string]map[Action]struct{}
}

// NewTable builds a Table from role -> actions. The input is copied.
func NewTable(grants map[string][]Action) Table {
	t := Table{grants: make(map[string]map[Action]struct{}, len(grants))}
	for role, actions := range grants {
		set := make(map[Action]struct{}, len(actions))
		for _, a := range actions {
			set[a] = struct{}{}
		}
		t.grants[role] = set
	}
	return t
}

// DefaultTable is the permission table the service runs with.
func DefaultTable() Table {
	return NewTable(map[string][]Action{
		RoleAdmin: {Create, Edit, Delete, View},
		RoleUser:  {Create, Edit, View},
	})
}

// Has reports whether the table lists action for role. Unknown roles have
// no actions.
func (t Table) Has(role string, action Action) bool {
	set, ok := t.grants[role]
	if !ok {
		return false
	}
	_, ok = set[action]
	return ok
}

// Policy evaluates permission checks against a Table.
type Policy struct {
	table Table
}

// NewPolicy returns a Policy evaluating table.
func NewPolicy(table Table) *Policy {
	return &Policy{table: table}
}

// CanView reports whether role may read tasks.
func (p *Policy) CanView(role string) bool { return p.grantedOrAdmin(role, View) }

// CanCreate reports whether role may create tasks.
func (p *Policy) CanCreate(role string) bool { return p.grantedOrAdmin(role, Create) }

// CanEdit reports whether role may modify tasks and profile pictures.
func (p *Policy) CanEdit(role string) bool { return p.grantedOrAdmin(role, Edit) }

// CanDelete is admin only, whatever the table says.
func (p *Policy) CanDelete(role string) bool { return role == RoleAdmin }

// Allowed dispatches to the Can* predicate for action. Unknown actions are denied.
func (p *Policy) Allowed(role string, action Action) bool {
	switch action {
	case View:
		return p.CanView(role)
	case Create:
		return p.CanCreate(role)
	case Edit:
		return p.CanEdit(role)
	case Delete:
		return p.CanDelete(role)
	default:
		return false
	}
}

func (p *Policy) grantedOrAdmin(role string, action Action) bool {
	if role == RoleAdmin {
		return true
	}
	return p.table.Has(role, action)
}
