package domain

import "github.com/samber/lo"

// Chat is a named group of member identities sharing a message stream.
// Membership is read-only for the fan-out subsystem.
type Chat struct {
	ID      int
	Title   string
	Owner   string
	Members []string
}

func (c Chat) HasMember(identity string) bool {
	return lo.Contains(c.Members, identity)
}
