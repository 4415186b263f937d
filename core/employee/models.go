package employee

import (
	"time"

	"github.com/trezcool/kazi/core"
)

// Employee is the minimal registry entry the presence/payroll pipeline
// needs: a badge UID for device events and a monthly base pay.
type Employee struct {
	ID        int       `db:"id" json:"id"`
	UID       string    `db:"uid" json:"uid"` // identity token reported by scanning devices
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	BasePay   float64   `db:"base_pay" json:"basePay"` // monthly base pay
	IsActive  bool      `db:"is_active" json:"isActive"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

type NewEmployee struct {
	UID     string  `json:"uid" validate:"required,alphanum_"`
	Name    string  `json:"name" validate:"required"`
	Email   string  `json:"email" validate:"omitempty,email"`
	BasePay float64 `json:"basePay" validate:"gte=0"`
}

func (ne *NewEmployee) Validate(svc *Service) error {
	ne.UID = core.CleanString(ne.UID)
	ne.Name = core.CleanString(ne.Name)
	ne.Email = core.CleanString(ne.Email, true /* lower */)

	if err := core.Validate.Struct(ne); err != nil {
		return err
	}
	return svc.checkUniqueness(ne.UID)
}
