package transfer

// TableOrder is the fixed transfer order. It respects every foreign-key
// dependency in the destination schema: categories before parts, parts
// before equipment_parts, counterparties before orders, tasks before
// task_parts, knife_tracking before its logs.
var TableOrder = []string{
	"part_categories",
	"part_analog_groups",
	"parts",
	"equipment_categories",
	"equipment",
	"equipment_parts",
	"counterparties",
	"counterparty_addresses",
	"orders",
	"order_items",
	"replacements",
	"colleagues",
	"tasks",
	"task_parts",
	"knife_tracking",
	"knife_status_log",
	"knife_sharpen_log",
	"periodic_tasks",
	"app_settings",
}

// tableSpec drives per-table mapping and validation.
type tableSpec struct {
	// primaryKey columns; a row missing any of them is rejected.
	primaryKey []string
	// required columns; a null value is a warning, the null is preserved.
	required []string
	// foreignKeys maps a column to the table its value must point into; a
	// present value must look like a positive id, and the engine warns when
	// the target row was never transferred.
	foreignKeys map[string]string
	// noAudit disables the created_at/updated_at defaults.
	noAudit bool
}

var tableSpecs = map[string]tableSpec{
	"part_categories":   {primaryKey: []string{"id"}, required: []string{"name"}},
	"part_analog_groups": {primaryKey: []string{"id"}},
	"parts": {
		primaryKey:  []string{"id"},
		required:    []string{"name", "sku"},
		foreignKeys: map[string]string{"category_id": "part_categories", "analog_group_id": "part_analog_groups"},
	},
	"equipment_categories": {primaryKey: []string{"id"}, required: []string{"name"}},
	"equipment": {
		primaryKey:  []string{"id"},
		required:    []string{"name", "category_id"},
		foreignKeys: map[string]string{"category_id": "equipment_categories", "parent_id": "equipment"},
	},
	"equipment_parts": {
		primaryKey:  []string{"id"},
		required:    []string{"equipment_id", "part_id"},
		foreignKeys: map[string]string{"equipment_id": "equipment", "part_id": "parts"},
	},
	"counterparties": {primaryKey: []string{"id"}, required: []string{"name"}},
	"counterparty_addresses": {
		primaryKey:  []string{"id"},
		required:    []string{"counterparty_id", "address"},
		foreignKeys: map[string]string{"counterparty_id": "counterparties"},
	},
	"orders": {
		primaryKey:  []string{"id"},
		required:    []string{"counterparty_id", "invoice_date", "delivery_date"},
		foreignKeys: map[string]string{"counterparty_id": "counterparties"},
	},
	"order_items": {
		primaryKey:  []string{"id"},
		required:    []string{"order_id", "name"},
		foreignKeys: map[string]string{"order_id": "orders", "part_id": "parts"},
	},
	"replacements": {
		primaryKey:  []string{"id"},
		required:    []string{"date", "equipment_id", "part_id"},
		foreignKeys: map[string]string{"equipment_id": "equipment", "part_id": "parts"},
	},
	"colleagues": {primaryKey: []string{"id"}, required: []string{"name"}},
	"tasks": {
		primaryKey:  []string{"id"},
		required:    []string{"title"},
		foreignKeys: map[string]string{"assignee_id": "colleagues", "equipment_id": "equipment"},
	},
	"task_parts": {
		primaryKey:  []string{"id"},
		required:    []string{"task_id", "equipment_part_id", "part_id"},
		foreignKeys: map[string]string{"task_id": "tasks", "equipment_part_id": "equipment_parts", "part_id": "parts"},
	},
	"knife_tracking": {
		primaryKey:  []string{"part_id"},
		foreignKeys: map[string]string{"part_id": "parts"},
	},
	"knife_status_log": {
		primaryKey:  []string{"id"},
		required:    []string{"part_id", "changed_at", "to_status"},
		foreignKeys: map[string]string{"part_id": "knife_tracking"},
	},
	"knife_sharpen_log": {
		primaryKey:  []string{"id"},
		required:    []string{"part_id", "date"},
		foreignKeys: map[string]string{"part_id": "knife_tracking"},
	},
	"periodic_tasks": {
		primaryKey:  []string{"id"},
		required:    []string{"title", "period_days"},
		foreignKeys: map[string]string{"equipment_id": "equipment", "equipment_part_id": "equipment_parts"},
	},
	"app_settings": {
		primaryKey: []string{"key"},
		required:   []string{"value"},
		noAudit:    true,
	},
}

// columnRenames maps legacy column names onto the destination schema.
var columnRenames = map[string]string{
	"created":  "created_at",
	"modified": "updated_at",
}
