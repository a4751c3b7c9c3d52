package model

// Wing is a campus division with its own slot table.
type Wing struct {
	ID   string   `json:"id" yaml:"id"`
	Name string   `json:"name" yaml:"name"`
	Type WingType `json:"type" yaml:"type"`
}

// Grade groups sections of one level.
type Grade struct {
	ID     string `json:"id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
	WingID string `json:"wing_id" yaml:"wing_id"`
}

// Section is a class division within a grade, e.g. "IX-A".
type Section struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	GradeID  string `json:"grade_id" yaml:"grade_id"`
	WingID   string `json:"wing_id" yaml:"wing_id"`
	HomeRoom string `json:"home_room,omitempty" yaml:"home_room,omitempty"`
}

// Room is a name-only resource.
type Room struct {
	Name string `json:"name" yaml:"name"`
}

// Teacher carries the roles that decide wing eligibility.
type Teacher struct {
	ID             string   `json:"id" yaml:"id"`
	Name           string   `json:"name" yaml:"name"`
	PrimaryRole    string   `json:"primary_role" yaml:"primary_role"`
	SecondaryRoles []string `json:"secondary_roles,omitempty" yaml:"secondary_roles,omitempty"`
}

// Roles returns the primary role followed by the secondary ones.
func (t Teacher) Roles() []string {
	roles := make([]string, 0, 1+len(t.SecondaryRoles))
	if t.PrimaryRole != "" {
		roles = append(roles, t.PrimaryRole)
	}
	return append(roles, t.SecondaryRoles...)
}
