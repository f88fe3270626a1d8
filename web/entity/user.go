package entity

import (
	"github.com/dispatchhub/dispatch/database/model"
	"github.com/dispatchhub/dispatch/util/clock"
)

// UserCreate is the input for registering a user.
// Pointers tell a missing key apart from a zero value.
type UserCreate struct {
	TelegramID *int64  `json:"telegram_id" validate:"required"`
	Name       string  `json:"name" validate:"max=100"`
	Role       *string `json:"role" validate:"required,role"`
	Phone      *string `json:"phone" validate:"required,ruphone"`
}

// DecodeUserCreate parses a raw JSON body. The result still needs Validate.
func DecodeUserCreate(data []byte) (*UserCreate, error) {
	in := &UserCreate{}
	if err := Decode(data, in); err != nil {
		return nil, err
	}
	return in, nil
}

// Validate normalizes the phone in place and checks every field.
func (u *UserCreate) Validate() error {
	if u.Phone != nil {
		p := NormalizePhone(*u.Phone)
		u.Phone = &p
	}
	return check(u)
}

// NewRecord builds the row to insert. Call only after Validate succeeded.
func (u *UserCreate) NewRecord(clk clock.Clock) *model.User {
	return &model.User{
		TelegramID: *u.TelegramID,
		Name:       u.Name,
		Role:       model.Role(*u.Role),
		Phone:      *u.Phone,
		CreatedAt:  clk.Now(),
	}
}

// UserUpdate is a partial update. Empty name or role counts as not given;
// a given phone is always checked, so an empty phone is a format error.
type UserUpdate struct {
	Name  *string `json:"name"`
	Role  *string `json:"role"`
	Phone *string `json:"phone"`
}

type userUpdateFields struct {
	Name  string  `json:"name" validate:"omitempty,max=100"`
	Role  string  `json:"role" validate:"omitempty,role"`
	Phone *string `json:"phone" validate:"omitempty,ruphone"`
}

func DecodeUserUpdate(data []byte) (*UserUpdate, error) {
	in := &UserUpdate{}
	if err := Decode(data, in); err != nil {
		return nil, err
	}
	return in, nil
}

func (u *UserUpdate) Validate() error {
	if u.Phone != nil {
		p := NormalizePhone(*u.Phone)
		u.Phone = &p
	}
	fields := userUpdateFields{Name: deref(u.Name), Role: deref(u.Role), Phone: u.Phone}
	if err := check(&fields); err != nil {
		return err
	}
	if !present(u.Name) && !present(u.Role) && !present(u.Phone) {
		return emptyUpdateError()
	}
	return nil
}

// Changes returns the columns to write, keyed by column name.
func (u *UserUpdate) Changes() map[string]any {
	changes := make(map[string]any, 3)
	if present(u.Name) {
		changes["name"] = *u.Name
	}
	if present(u.Role) {
		changes["role"] = model.Role(*u.Role)
	}
	if present(u.Phone) {
		changes["phone"] = *u.Phone
	}
	return changes
}

// Apply copies the effective fields onto rec.
func (u *UserUpdate) Apply(rec *model.User) {
	if present(u.Name) {
		rec.Name = *u.Name
	}
	if present(u.Role) {
		rec.Role = model.Role(*u.Role)
	}
	if present(u.Phone) {
		rec.Phone = *u.Phone
	}
}

// UserResponse is the public projection of a stored user.
type UserResponse struct {
	Id         int    `json:"id"`
	TelegramID int64  `json:"telegram_id"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	Phone      string `json:"phone"`
}

func NewUserResponse(u *model.User) UserResponse {
	return UserResponse{
		Id:         u.Id,
		TelegramID: u.TelegramID,
		Name:       u.Name,
		Role:       string(u.Role),
		Phone:      u.Phone,
	}
}

func NewUserResponses(users []model.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, NewUserResponse(&users[i]))
	}
	return out
}

func present(s *string) bool {
	return s != nil && *s != ""
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
