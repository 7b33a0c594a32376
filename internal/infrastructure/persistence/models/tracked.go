package models

import (
	"github.com/google/uuid"
	"github.com/merchantops/backend/internal/domain/audit"
	"gorm.io/datatypes"
)

// AllowedCompanyModel is a merchant allowed to transact
type AllowedCompanyModel struct {
	ID            uuid.UUID `gorm:"column:ID;type:uuid;primaryKey" json:"ID"`
	FieldName     string    `gorm:"column:FIELDNAME;size:200;not null" json:"FIELDNAME" binding:"required,max=200"`
	AccountNumber string    `gorm:"column:ACCOUNTNUMBER;size:50;not null;index" json:"ACCOUNTNUMBER" binding:"required,max=50"`
	Phone         string    `gorm:"column:PHONE;size:30" json:"PHONE" binding:"omitempty,max=30"`
	Status        string    `gorm:"column:STATUS;size:20" json:"STATUS" binding:"omitempty,oneof=ACTIVE INACTIVE"`
	InsertUpdateMeta
}

func (AllowedCompanyModel) TableName() string { return audit.TableAllowedCompanies.String() }
func (AllowedCompanyModel) AuditTable() audit.Table { return audit.TableAllowedCompanies }
func (m *AllowedCompanyModel) Identity() uuid.UUID { return m.ID }
func (m *AllowedCompanyModel) SetIdentity(id uuid.UUID) { m.ID = id }

// BranchModel is a physical or virtual branch
type BranchModel struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name      string     `gorm:"column:name;size:150;not null" json:"name" binding:"required,max=150"`
	Code      string     `gorm:"column:code;size:30;not null;index" json:"code" binding:"required,max=30"`
	Address   string     `gorm:"column:address;size:255" json:"address" binding:"max=255"`
	CompanyID *uuid.UUID `gorm:"column:companyId;type:uuid;index" json:"companyId"`
	IsActive  bool       `gorm:"column:isActive" json:"isActive"`
	InsertUpdateMeta
}

func (BranchModel) TableName() string { return audit.TableBranches.String() }
func (BranchModel) AuditTable() audit.Table { return audit.TableBranches }
func (m *BranchModel) Identity() uuid.UUID { return m.ID }
func (m *BranchModel) SetIdentity(id uuid.UUID) { m.ID = id }

// MerchantUserModel is an operator account on the merchant side
type MerchantUserModel struct {
	Oid       uuid.UUID  `gorm:"column:Oid;type:uuid;primaryKey" json:"Oid"`
	UserName  string     `gorm:"column:UserName;size:100;not null;index" json:"UserName" binding:"required,max=100"`
	FullName  string     `gorm:"column:FullName;size:200" json:"FullName" binding:"max=200"`
	Email     string     `gorm:"column:Email;size:200" json:"Email" binding:"omitempty,email"`
	Phone     string     `gorm:"column:Phone;size:30" json:"Phone" binding:"max=30"`
	BranchOid *uuid.UUID `gorm:"column:BranchOid;type:uuid;index" json:"BranchOid"`
	RoleID    *uuid.UUID `gorm:"column:RoleId;type:uuid" json:"RoleId"`
	IsActive  bool       `gorm:"column:IsActive" json:"IsActive"`
	InsertUpdateMeta
}

func (MerchantUserModel) TableName() string { return audit.TableMerchantUsers.String() }
func (MerchantUserModel) AuditTable() audit.Table { return audit.TableMerchantUsers }
func (m *MerchantUserModel) Identity() uuid.UUID { return m.Oid }
func (m *MerchantUserModel) SetIdentity(id uuid.UUID) { m.Oid = id }

// RoleModel groups dashboard capabilities. Permissions and capabilities are
// nested JSON blobs edited by the role screen.
type RoleModel struct {
	ID           uuid.UUID      `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name         string         `gorm:"column:name;size:100;not null" json:"name" binding:"required,max=100"`
	Description  string         `gorm:"column:description;size:500" json:"description" binding:"max=500"`
	Permissions  datatypes.JSON `gorm:"column:permissions" json:"permissions"`
	Capabilities datatypes.JSON `gorm:"column:capabilities" json:"capabilities"`
	InsertUpdateMeta
}

func (RoleModel) TableName() string { return audit.TableRoles.String() }
func (RoleModel) AuditTable() audit.Table { return audit.TableRoles }
func (m *RoleModel) Identity() uuid.UUID { return m.ID }
func (m *RoleModel) SetIdentity(id uuid.UUID) { m.ID = id }

// PromoAdModel is a banner shown in the customer app.
// ORDER is not unique at the database level.
type PromoAdModel struct {
	ID       uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Title    string    `gorm:"column:TITLE;size:200;not null" json:"TITLE" binding:"required,max=200"`
	ImageURL string    `gorm:"column:IMAGEURL;size:500" json:"IMAGEURL" binding:"omitempty,url,max=500"`
	LinkURL  string    `gorm:"column:LINKURL;size:500" json:"LINKURL" binding:"omitempty,url,max=500"`
	Order    int       `gorm:"column:ORDER" json:"ORDER" binding:"min=0"`
	IsActive bool      `gorm:"column:ISACTIVE" json:"ISACTIVE"`
	InsertUpdateMeta
}

func (PromoAdModel) TableName() string { return audit.TablePromoAds.String() }
func (PromoAdModel) AuditTable() audit.Table { return audit.TablePromoAds }
func (m *PromoAdModel) Identity() uuid.UUID { return m.ID }
func (m *PromoAdModel) SetIdentity(id uuid.UUID) { m.ID = id }

// ArifPayEndpointModel is a configured ArifPay API endpoint
type ArifPayEndpointModel struct {
	ID       uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name     string    `gorm:"column:name;size:100;not null" json:"name" binding:"required,max=100"`
	URL      string    `gorm:"column:url;size:500;not null" json:"url" binding:"required,url,max=500"`
	Method   string    `gorm:"column:method;size:10;not null" json:"method" binding:"required,oneof=GET POST PUT PATCH DELETE"`
	IsActive bool      `gorm:"column:isActive" json:"isActive"`
	InsertUpdateMeta
}

func (ArifPayEndpointModel) TableName() string { return audit.TableArifPayEndpoints.String() }
func (ArifPayEndpointModel) AuditTable() audit.Table { return audit.TableArifPayEndpoints }
func (m *ArifPayEndpointModel) Identity() uuid.UUID { return m.ID }
func (m *ArifPayEndpointModel) SetIdentity(id uuid.UUID) { m.ID = id }

// ControllerConfigModel is a key/value switch for a payment controller
type ControllerConfigModel struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ControllerName string    `gorm:"column:controllerName;size:100;not null;index" json:"controllerName" binding:"required,max=100"`
	ConfigKey      string    `gorm:"column:configKey;size:100;not null" json:"configKey" binding:"required,max=100"`
	ConfigValue    string    `gorm:"column:configValue;type:text" json:"configValue"`
	IsEnabled      bool      `gorm:"column:isEnabled" json:"isEnabled"`
	InsertUpdateMeta
}

func (ControllerConfigModel) TableName() string { return audit.TableControllerConfigs.String() }
func (ControllerConfigModel) AuditTable() audit.Table { return audit.TableControllerConfigs }
func (m *ControllerConfigModel) Identity() uuid.UUID { return m.ID }
func (m *ControllerConfigModel) SetIdentity(id uuid.UUID) { m.ID = id }

// CoreIntegrationSettingModel points the dashboard at a core banking system
type CoreIntegrationSettingModel struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	IntegrationName string    `gorm:"column:integrationName;size:100;not null" json:"integrationName" binding:"required,max=100"`
	BaseURL         string    `gorm:"column:baseUrl;size:500;not null" json:"baseUrl" binding:"required,url,max=500"`
	Username        string    `gorm:"column:username;size:100" json:"username" binding:"max=100"`
	TimeoutSeconds  int       `gorm:"column:timeoutSeconds" json:"timeoutSeconds" binding:"omitempty,min=1,max=300"`
	IsActive        bool      `gorm:"column:isActive" json:"isActive"`
	InsertUpdateMeta
}

func (CoreIntegrationSettingModel) TableName() string { return audit.TableCoreIntegrationSettings.String() }
func (CoreIntegrationSettingModel) AuditTable() audit.Table {
	return audit.TableCoreIntegrationSettings
}
func (m *CoreIntegrationSettingModel) Identity() uuid.UUID { return m.ID }
func (m *CoreIntegrationSettingModel) SetIdentity(id uuid.UUID) { m.ID = id }
