package model

// Tenant registry row, lives in the control schema. SchemaName is the
// MySQL schema holding that tenant's tables.
type Tenant struct {
	BaseModel
	TenantId   string `gorm:"column:tenant_id" json:"tenantId"`
	Slug       string `gorm:"column:slug" json:"slug"`
	SchemaName string `gorm:"column:schema_name" json:"schemaName"`
	IsActive   int    `gorm:"column:is_active" json:"isActive"`
}

func (Tenant) TableName() string {
	return "t_tenant"
}
