package models

// User is a DormHop account. Nested references (room owner, knock sender)
// carry only the simple fields; CurrentRoom is set on the caller's own profile.
type User struct {
	ID           int    `json:"id"`
	Email        string `json:"email"`
	FullName     string `json:"full_name"`
	ClassYear    int    `json:"class_year"`
	Gender       string `json:"gender,omitempty"`
	CreatedAt    string `json:"created_at,omitempty"`
	CurrentRoom  *Room  `json:"current_room,omitempty"`
	IsRoomListed bool   `json:"is_room_listed"`
}

// NeedsProfile reports whether the user still has to describe their room.
func (u *User) NeedsProfile() bool {
	return u == nil || u.CurrentRoom == nil
}
