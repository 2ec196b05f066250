package domain

import "errors"

// Team is a group of users owned by its creator. CreatorEmail is filled
// on reads that join the creator row.
type Team struct {
	ID           int64
	Name         string
	CreatorID    int64
	CreatorEmail string
}

// Validate validates the team for persistence.
func (t *Team) Validate() error {
	if t.Name == "" {
		return errors.New("name is required")
	}
	if t.CreatorID == 0 {
		return errors.New("creator is required")
	}
	return nil
}
