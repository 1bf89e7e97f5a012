package model

import "time"

type Admin struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type PartCategory struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Part struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	SKU           string    `json:"sku"`
	Qty           int       `json:"qty"`
	MinQty        int       `json:"min_qty"`
	Price         float64   `json:"price"`
	CategoryID    *int64    `json:"category_id,omitempty"`
	AnalogGroupID *int64    `json:"analog_group_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type Replacement struct {
	ID          int64     `json:"id"`
	Date        time.Time `json:"date"`
	EquipmentID int64     `json:"equipment_id"`
	PartID      int64     `json:"part_id"`
	Qty         int       `json:"qty"`
	Reason      *string   `json:"reason,omitempty"`
}

type Order struct {
	ID              int64       `json:"id"`
	CounterpartyID  int64       `json:"counterparty_id"`
	InvoiceNo       *string     `json:"invoice_no,omitempty"`
	InvoiceDate     time.Time   `json:"invoice_date"`
	DeliveryDate    time.Time   `json:"delivery_date"`
	DeliveryAddress *string     `json:"delivery_address,omitempty"`
	Status          string      `json:"status"`
	DriverNotified  bool        `json:"driver_notified"`
	Comment         *string     `json:"comment,omitempty"`
	Items           []OrderItem `json:"items,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

type OrderItem struct {
	ID      int64   `json:"id"`
	OrderID int64   `json:"order_id"`
	PartID  *int64  `json:"part_id,omitempty"`
	Name    string  `json:"name"`
	SKU     *string `json:"sku,omitempty"`
	Qty     int     `json:"qty"`
	Price   float64 `json:"price"`
}

type Task struct {
	ID            int64      `json:"id"`
	Title         string     `json:"title"`
	Description   *string    `json:"description,omitempty"`
	Priority      string     `json:"priority"`
	DueDate       *time.Time `json:"due_date,omitempty"`
	AssigneeID    *int64     `json:"assignee_id,omitempty"`
	EquipmentID   *int64     `json:"equipment_id,omitempty"`
	Status        string     `json:"status"`
	IsReplacement bool       `json:"is_replacement"`
	Parts         []TaskPart `json:"parts,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type TaskPart struct {
	ID              int64 `json:"id"`
	TaskID          int64 `json:"task_id"`
	EquipmentPartID int64 `json:"equipment_part_id"`
	PartID          int64 `json:"part_id"`
	Qty             int   `json:"qty"`
}

type KnifeTracking struct {
	PartID            int64      `json:"part_id"`
	Status            string     `json:"status"`
	SharpState        string     `json:"sharp_state"`
	InstallationState string     `json:"installation_state"`
	LastSharpenDate   *time.Time `json:"last_sharpen_date,omitempty"`
	WorkStartedAt     *time.Time `json:"work_started_at,omitempty"`
	LastIntervalDays  *int       `json:"last_interval_days,omitempty"`
	TotalSharpenings  int        `json:"total_sharpenings"`
}

type KnifeSharpenLog struct {
	ID      int64     `json:"id"`
	PartID  int64     `json:"part_id"`
	Date    time.Time `json:"date"`
	Comment *string   `json:"comment,omitempty"`
}
