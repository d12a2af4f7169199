package domain

type Role string

const (
	RoleOwner  Role = "owner"
	RoleMember Role = "member"
)

// Membership is the persisted relation between a user and a room.
// Presence (who is connected right now) is not stored here.
type Membership struct {
	RoomID RoomID `json:"roomId"`
	UserID UserID `json:"userId"`
	Role   Role   `json:"role"`
}
