package entity

import (
	"time"

	"github.com/dispatchhub/dispatch/database/model"
	"github.com/dispatchhub/dispatch/util/clock"
)

type DriverCreate struct {
	Name     string `json:"name" validate:"required,max=100"`
	Phone    string `json:"phone" validate:"required,max=12"`
	IsActive *bool  `json:"is_active"`
}

func DecodeDriverCreate(data []byte) (*DriverCreate, error) {
	in := &DriverCreate{}
	if err := Decode(data, in); err != nil {
		return nil, err
	}
	return in, nil
}

func (d *DriverCreate) Validate() error {
	d.Phone = NormalizePhone(d.Phone)
	return check(d)
}

// NewRecord builds the row to insert; drivers start active unless told otherwise.
func (d *DriverCreate) NewRecord(clk clock.Clock) *model.Driver {
	active := true
	if d.IsActive != nil {
		active = *d.IsActive
	}
	return &model.Driver{
		Name:      d.Name,
		Phone:     d.Phone,
		IsActive:  active,
		CreatedAt: clk.Now(),
	}
}

// DriverUpdate is a partial update. An explicit is_active=false is an
// effective change; empty name or phone is not.
type DriverUpdate struct {
	Name     *string `json:"name"`
	Phone    *string `json:"phone"`
	IsActive *bool   `json:"is_active"`
}

type driverUpdateFields struct {
	Name  string `json:"name" validate:"omitempty,max=100"`
	Phone string `json:"phone" validate:"omitempty,max=12"`
}

func DecodeDriverUpdate(data []byte) (*DriverUpdate, error) {
	in := &DriverUpdate{}
	if err := Decode(data, in); err != nil {
		return nil, err
	}
	return in, nil
}

func (d *DriverUpdate) Validate() error {
	if d.Phone != nil {
		p := NormalizePhone(*d.Phone)
		d.Phone = &p
	}
	if err := check(&driverUpdateFields{Name: deref(d.Name), Phone: deref(d.Phone)}); err != nil {
		return err
	}
	if !present(d.Name) && !present(d.Phone) && d.IsActive == nil {
		return emptyUpdateError()
	}
	return nil
}

func (d *DriverUpdate) Changes() map[string]any {
	changes := make(map[string]any, 3)
	if present(d.Name) {
		changes["name"] = *d.Name
	}
	if present(d.Phone) {
		changes["phone"] = *d.Phone
	}
	if d.IsActive != nil {
		changes["is_active"] = *d.IsActive
	}
	return changes
}

func (d *DriverUpdate) Apply(rec *model.Driver) {
	if present(d.Name) {
		rec.Name = *d.Name
	}
	if present(d.Phone) {
		rec.Phone = *d.Phone
	}
	if d.IsActive != nil {
		rec.IsActive = *d.IsActive
	}
}

type DriverResponse struct {
	Id        int       `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func NewDriverResponse(d *model.Driver) DriverResponse {
	return DriverResponse{
		Id:        d.Id,
		Name:      d.Name,
		Phone:     d.Phone,
		IsActive:  d.IsActive,
		CreatedAt: d.CreatedAt.UTC(),
	}
}

func NewDriverResponses(drivers []model.Driver) []DriverResponse {
	out := make([]DriverResponse, 0, len(drivers))
	for i := range drivers {
		out = append(out, NewDriverResponse(&drivers[i]))
	}
	return out
}
