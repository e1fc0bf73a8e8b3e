package domain

// Member represents the identity bound to one live connection.
// No transport or lifecycle logic here.
type Member struct {
	User *User // nil for anonymous connections
}

// NewMember avoids raw literals in adapters and keeps construction obvious.
func NewMember(user *User) *Member {
	return &Member{User: user}
}

func (m *Member) UserID() UserID {
	if m == nil || m.User == nil {
		return ""
	}
	return m.User.ID
}

func (m *Member) Anonymous() bool { return m.UserID().IsAnonymous() }
