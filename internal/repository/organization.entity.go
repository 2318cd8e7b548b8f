package repository

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shirapay/shirapay/internal/model"
	"gorm.io/gorm"
)

// StringList stores a []string as a JSON text column so the same entity
// works against postgres and the sqlite test database.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *StringList) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	}
	return fmt.Errorf("cannot scan %T into StringList", src)
}

type OrganizationEntity struct {
	ID           string     `db:"id"            gorm:"primaryKey;column:id"`
	Name         string     `db:"name"          gorm:"column:name;not null"`
	ContactEmail string     `db:"contact_email" gorm:"column:contact_email"`
	Departments  StringList `db:"departments"   gorm:"column:departments;type:text"`
	AdminIDs     StringList `db:"admin_ids"     gorm:"column:admin_ids;type:text"`
	CreatedAt    time.Time  `db:"created_at"    gorm:"column:created_at;autoCreateTime"`
}

func (OrganizationEntity) TableName() string {
	return "organizations"
}

func (e *OrganizationEntity) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

func toOrganizationEntity(o *model.Organization) *OrganizationEntity {
	if o == nil {
		return nil
	}
	return &OrganizationEntity{
		ID:           o.ID,
		Name:         o.Name,
		ContactEmail: o.ContactEmail,
		Departments:  StringList(o.Departments),
		AdminIDs:     StringList(o.AdminIDs),
		CreatedAt:    o.CreatedAt,
	}
}

func toOrganizationModel(e *OrganizationEntity) *model.Organization {
	if e == nil {
		return nil
	}
	return &model.Organization{
		ID:           e.ID,
		Name:         e.Name,
		ContactEmail: e.ContactEmail,
		Departments:  []string(e.Departments),
		AdminIDs:     []string(e.AdminIDs),
		CreatedAt:    e.CreatedAt,
	}
}
