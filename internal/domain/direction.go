package domain

// Direction represents trade direction from a watched account's perspective.
type Direction string

const (
	DirectionBuy  Direction = "BUY"
	DirectionSell Direction = "SELL"

	// DirectionIndeterminate is a valid terminal classification, not an
	// error: it means no Trade is emitted for this account/event pair.
	DirectionIndeterminate Direction = "INDETERMINATE"
)

// String returns the string representation of Direction.
func (d Direction) String() string {
	return string(d)
}

// IsValid checks if the direction is a valid value.
func (d Direction) IsValid() bool {
	return d == DirectionBuy || d == DirectionSell || d == DirectionIndeterminate
}

// Role identifies which party of a swap a watched account is.
type Role string

const (
	RoleSender    Role = "SENDER"
	RoleRecipient Role = "RECIPIENT"
)

// String returns the string representation of Role.
func (r Role) String() string {
	return string(r)
}

// IsValid checks if the role is a valid value.
func (r Role) IsValid() bool {
	return r == RoleSender || r == RoleRecipient
}
