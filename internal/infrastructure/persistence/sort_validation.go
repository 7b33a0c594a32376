package persistence

import (
	"strings"

	"github.com/merchantops/backend/internal/domain/audit"
	"gorm.io/gorm/clause"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// orderBy builds a quoted ORDER BY column. Column names on the legacy tables
// are mixed case, so they always go through the dialect quoter.
func orderBy(field, dir string) clause.OrderByColumn {
	return clause.OrderByColumn{
		Column: clause.Column{Name: field},
		Desc:   ValidateSortOrder(dir) == "DESC",
	}
}

// AuditLogSortFields contains allowed sort fields for audit logs
var AuditLogSortFields = map[string]bool{
	"changed_at": true,
	"table_name": true,
	"record_id":  true,
	"action":     true,
	"changed_by": true,
}

// TransactionSortFields contains allowed sort fields for transaction logs
var TransactionSortFields = map[string]bool{
	"transacted_at":  true,
	"amount":         true,
	"gateway":        true,
	"status":         true,
	"reference":      true,
	"account_number": true,
}

// BalanceSortFields contains allowed sort fields for daily balances
var BalanceSortFields = map[string]bool{
	"balance_date":    true,
	"account_number":  true,
	"closing_balance": true,
	"opening_balance": true,
}

// trackedQuery describes how a tracked table is listed: which columns can be
// sorted on, the default order and which columns free-text search covers.
type trackedQuery struct {
	sortFields   map[string]bool
	defaultSort  string
	searchFields []string
}

func trackedQueryFor(t audit.Table) trackedQuery {
	switch t {
	case audit.TableAllowedCompanies:
		return trackedQuery{
			sortFields:   fieldSet("ID", "FIELDNAME", "ACCOUNTNUMBER", "STATUS", "INSERTDATE", "UPDATEDATE"),
			defaultSort:  "FIELDNAME",
			searchFields: []string{"FIELDNAME", "ACCOUNTNUMBER", "PHONE"},
		}
	case audit.TableBranches:
		return trackedQuery{
			sortFields:   fieldSet("id", "name", "code", "isActive", "INSERTDATE", "UPDATEDATE"),
			defaultSort:  "name",
			searchFields: []string{"name", "code", "address"},
		}
	case audit.TableMerchantUsers:
		return trackedQuery{
			sortFields:   fieldSet("Oid", "UserName", "FullName", "Email", "IsActive", "INSERTDATE", "UPDATEDATE"),
			defaultSort:  "UserName",
			searchFields: []string{"UserName", "FullName", "Email", "Phone"},
		}
	case audit.TableRoles:
		return trackedQuery{
			sortFields:   fieldSet("id", "name", "INSERTDATE", "UPDATEDATE"),
			defaultSort:  "name",
			searchFields: []string{"name", "description"},
		}
	case audit.TablePromoAds:
		return trackedQuery{
			sortFields:   fieldSet("id", "TITLE", "ORDER", "ISACTIVE", "INSERTDATE", "UPDATEDATE"),
			defaultSort:  "ORDER",
			searchFields: []string{"TITLE"},
		}
	case audit.TableArifPayEndpoints:
		return trackedQuery{
			sortFields:   fieldSet("id", "name", "method", "isActive", "INSERTDATE", "UPDATEDATE"),
			defaultSort:  "name",
			searchFields: []string{"name", "url"},
		}
	case audit.TableControllerConfigs:
		return trackedQuery{
			sortFields:   fieldSet("id", "controllerName", "configKey", "isEnabled", "INSERTDATE", "UPDATEDATE"),
			defaultSort:  "controllerName",
			searchFields: []string{"controllerName", "configKey"},
		}
	case audit.TableCoreIntegrationSettings:
		return trackedQuery{
			sortFields:   fieldSet("id", "integrationName", "isActive", "INSERTDATE", "UPDATEDATE"),
			defaultSort:  "integrationName",
			searchFields: []string{"integrationName", "baseUrl"},
		}
	default:
		return trackedQuery{sortFields: fieldSet("INSERTDATE"), defaultSort: "INSERTDATE"}
	}
}

func fieldSet(fields ...string) map[string]bool {
	out := make(map[string]bool, len(fields))
	for _, f := range fields {
		out[f] = true
	}
	return out
}
