// Package audit holds the audit-log domain: the closed set of tracked tables,
// the actions recorded against them, JSON snapshots of rows and the rules for
// turning a deleted snapshot back into an insertable row.
package audit

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// Action is the kind of mutation an audit entry records
type Action string

const (
	ActionCreate  Action = "CREATE"
	ActionUpdate  Action = "UPDATE"
	ActionDelete  Action = "DELETE"
	ActionRestore Action = "RESTORE"
)

// AllActions returns every valid action
func AllActions() []Action {
	return []Action{ActionCreate, ActionUpdate, ActionDelete, ActionRestore}
}

// ParseAction parses a case-insensitive action name
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToUpper(strings.TrimSpace(s)))
	if !a.IsValid() {
		return "", fmt.Errorf("audit: unknown action %q", s)
	}
	return a, nil
}

// IsValid checks if the action is one of the known actions
func (a Action) IsValid() bool {
	switch a {
	case ActionCreate, ActionUpdate, ActionDelete, ActionRestore:
		return true
	default:
		return false
	}
}

// String returns the string representation of the action
func (a Action) String() string {
	return string(a)
}

// Scan implements the sql.Scanner interface
func (a *Action) Scan(value any) error {
	if value == nil {
		return nil
	}
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("audit: cannot scan type %T into Action", value)
	}
	parsed, err := ParseAction(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Value implements the driver.Valuer interface
func (a Action) Value() (driver.Value, error) {
	return string(a), nil
}

// Table is the closed set of tables whose mutations are audited.
// Every switch over Table must stay exhaustive; there is no lookup by
// arbitrary string beyond ParseTable and ParseResource.
type Table string

const (
	TableAllowedCompanies        Table = "allowed_companies"
	TableBranches                Table = "branches"
	TableMerchantUsers           Table = "merchant_users"
	TableRoles                   Table = "roles"
	TablePromoAds                Table = "promo_adds"
	TableArifPayEndpoints        Table = "arifpay_endpoints"
	TableControllerConfigs       Table = "controller_configs"
	TableCoreIntegrationSettings Table = "core_integration_settings"
)

// Tables returns every tracked table
func Tables() []Table {
	return []Table{
		TableAllowedCompanies,
		TableBranches,
		TableMerchantUsers,
		TableRoles,
		TablePromoAds,
		TableArifPayEndpoints,
		TableControllerConfigs,
		TableCoreIntegrationSettings,
	}
}

// ParseTable resolves a stored table name
func ParseTable(name string) (Table, error) {
	t := Table(name)
	if !t.IsValid() {
		return "", fmt.Errorf("audit: unknown table %q", name)
	}
	return t, nil
}

// ParseResource resolves the URL segment used by the HTTP API
func ParseResource(resource string) (Table, error) {
	for _, t := range Tables() {
		if t.Resource() == resource {
			return t, nil
		}
	}
	return "", fmt.Errorf("audit: unknown resource %q", resource)
}

// IsValid reports whether t is a tracked table
func (t Table) IsValid() bool {
	switch t {
	case TableAllowedCompanies, TableBranches, TableMerchantUsers, TableRoles,
		TablePromoAds, TableArifPayEndpoints, TableControllerConfigs, TableCoreIntegrationSettings:
		return true
	default:
		return false
	}
}

// String returns the database table name
func (t Table) String() string {
	return string(t)
}

// Resource returns the URL segment for the table, e.g. "allowed-companies"
func (t Table) Resource() string {
	return strings.ReplaceAll(string(t), "_", "-")
}

// IdentityField returns the JSON key holding the row identity.
// The legacy schema is not uniform: companies use ID, merchant users use Oid.
func (t Table) IdentityField() string {
	switch t {
	case TableAllowedCompanies:
		return "ID"
	case TableMerchantUsers:
		return "Oid"
	default:
		return "id"
	}
}

// RestoreExclusions lists fields that must never be carried from a deleted
// snapshot into a restored row.
func (t Table) RestoreExclusions() []string {
	switch t {
	case TableRoles:
		return []string{"permissions", "capabilities"}
	default:
		return nil
	}
}
