package models

import (
	"fmt"
	"time"

	"github.com/merchantops/backend/internal/domain/audit"
)

// TrackedRecord is implemented by every model whose mutations are audited
type TrackedRecord interface {
	TableName() string
	audit.Record
}

// InsertUpdateMeta carries the legacy insert/update columns shared by all
// tracked tables.
type InsertUpdateMeta struct {
	InsertUser string    `gorm:"column:INSERTUSER;size:100" json:"INSERTUSER"`
	UpdateUser string    `gorm:"column:UPDATEUSER;size:100" json:"UPDATEUSER"`
	InsertDate time.Time `gorm:"column:INSERTDATE" json:"INSERTDATE"`
	UpdateDate time.Time `gorm:"column:UPDATEDATE" json:"UPDATEDATE"`
}

// StampCreated marks the row as inserted by actor
func (m *InsertUpdateMeta) StampCreated(actor string, at time.Time) {
	m.InsertUser = actor
	m.InsertDate = at
	m.UpdateUser = actor
	m.UpdateDate = at
}

// StampUpdated marks the row as last changed by actor
func (m *InsertUpdateMeta) StampUpdated(actor string, at time.Time) {
	m.UpdateUser = actor
	m.UpdateDate = at
}

// NewTrackedRecord returns an empty model for the table
func NewTrackedRecord(t audit.Table) (TrackedRecord, error) {
	switch t {
	case audit.TableAllowedCompanies:
		return &AllowedCompanyModel{}, nil
	case audit.TableBranches:
		return &BranchModel{}, nil
	case audit.TableMerchantUsers:
		return &MerchantUserModel{}, nil
	case audit.TableRoles:
		return &RoleModel{}, nil
	case audit.TablePromoAds:
		return &PromoAdModel{}, nil
	case audit.TableArifPayEndpoints:
		return &ArifPayEndpointModel{}, nil
	case audit.TableControllerConfigs:
		return &ControllerConfigModel{}, nil
	case audit.TableCoreIntegrationSettings:
		return &CoreIntegrationSettingModel{}, nil
	default:
		return nil, fmt.Errorf("models: no model for table %q", t)
	}
}

// TrackedModels returns one empty instance of every tracked model, for migrations
func TrackedModels() []any {
	out := make([]any, 0, len(audit.Tables()))
	for _, t := range audit.Tables() {
		rec, err := NewTrackedRecord(t)
		if err != nil {
			panic(err)
		}
		out = append(out, rec)
	}
	return out
}
