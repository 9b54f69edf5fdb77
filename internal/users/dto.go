package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/packfinderz-payouts/pkg/db/models"
	"github.com/angelmondragon/packfinderz-payouts/pkg/enums"
)

// UserDTO is the transport shape of a user's trust state.
type UserDTO struct {
	ID            uuid.UUID      `json:"id"`
	Role          enums.UserRole `json:"role"`
	Blocked       bool           `json:"blocked"`
	BlockedAt     *time.Time     `json:"blocked_at,omitempty"`
	BlockedReason *string        `json:"blocked_reason,omitempty"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	ID   uuid.UUID
	Role enums.UserRole
}

// ToModel converts the DTO into a persistable user, minting an id when absent.
func (dto CreateUserDTO) ToModel() *models.User {
	id := dto.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	return &models.User{ID: id, Role: dto.Role}
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:            u.ID,
		Role:          u.Role,
		Blocked:       u.Blocked,
		BlockedAt:     u.BlockedAt,
		BlockedReason: u.BlockedReason,
	}
}
