package billing

import (
	"errors"
	"strings"

	"footwear-backend/internal/models"

	"gorm.io/gorm"
)

// CustomerInput identifies the buyer. Phone is the customer key: a known phone reuses
// the stored customer whatever name is typed, a new phone (or no phone) creates one.
type CustomerInput struct {
	Name  string `json:"customer_name"`
	Phone string `json:"customer_phone"`
}

func (in *CustomerInput) normalized() (name, phone string) {
	if in == nil {
		return "", ""
	}
	name = strings.Join(strings.Fields(in.Name), " ")
	phone = normalizePhone(in.Phone)
	return name, phone
}

// normalizePhone keeps digits and a leading '+'.
func normalizePhone(s string) string {
	s = strings.TrimSpace(s)
	var b strings.Builder
	for i, r := range s {
		if r >= '0' && r <= '9' || (r == '+' && i == 0) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// resolveCustomer runs inside the checkout transaction so a failed checkout leaves no
// customer behind. A concurrent insert of the same phone surfaces as
// gorm.ErrDuplicatedKey and the whole checkout is retried. With needName set, a
// phone alone is enough only when it belongs to a stored customer.
func resolveCustomer(tx *gorm.DB, in *CustomerInput, needName bool) (*uint, error) {
	name, phone := in.normalized()
	if name == "" && phone == "" {
		return nil, nil
	}

	if phone != "" {
		var existing models.Customer
		err := tx.Where("phone = ?", phone).First(&existing).Error
		if err == nil {
			return &existing.ID, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	if name == "" {
		if needName {
			return nil, validationf(0, "Credit sales need a customer name.")
		}
		name = phone
	}
	c := models.Customer{Name: name, Phone: phone}
	if err := tx.Create(&c).Error; err != nil {
		return nil, err
	}
	return &c.ID, nil
}
