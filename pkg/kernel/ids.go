package kernel

import "strconv"

// UserID identifies a user in the directory. IDs are numeric, assigned by
// the store at creation, and stable for the lifetime of the record.
type UserID int64

func NewUserID(id int64) UserID { return UserID(id) }

// ParseUserID parses a string form of a user ID (e.g. a JWT subject claim).
func ParseUserID(raw string) (UserID, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	return UserID(id), nil
}

func (u UserID) String() string { return strconv.FormatInt(int64(u), 10) }
func (u UserID) Int64() int64   { return int64(u) }
func (u UserID) IsEmpty() bool  { return int64(u) == 0 }
