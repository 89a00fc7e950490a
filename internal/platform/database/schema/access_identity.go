package schema

// AccessIdentityTable represents the 'access.identity' table
type AccessIdentityTable struct {
	Table       string
	ID          string
	Email       string
	DisplayName string
	Role        string
	CreatedAt   string
}

// AccessIdentity is the schema definition for access.identity
var AccessIdentity = AccessIdentityTable{
	Table:       "access.identity",
	ID:          "id",
	Email:       "email",
	DisplayName: "displayname",
	Role:        "role",
	CreatedAt:   "createdat",
}

func (t AccessIdentityTable) Columns() []string {
	return []string{t.ID, t.Email, t.DisplayName, t.Role, t.CreatedAt}
}
