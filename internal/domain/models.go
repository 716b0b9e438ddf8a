package domain

import (
	"time"
)

// Status values seeded into a default installation. The authoritative
// vocabulary lives in the order_statuses table and may be extended there
// without a client change; these constants are the seed and fallback set
// only.
const (
	StatusPending  = "Pending"
	StatusAccepted = "Accepted"
	StatusRejected = "Rejected"
)

// FallbackStatuses returns the default status vocabulary used when the
// backing store cannot be queried.
func FallbackStatuses() []string {
	return []string{StatusPending, StatusAccepted, StatusRejected}
}

// MaxSelectionLevel is the highest selection level an annotation can hold.
// Cycling past it wraps back to zero, giving 11 distinct levels.
const MaxSelectionLevel = 10

// Client represents the customer who submitted a quotation request.
type Client struct {
	ID    int64  `gorm:"primaryKey"`
	Name  string `gorm:"type:varchar(200);not null;index"`
	Phone string `gorm:"type:varchar(50);not null"`
	Email string `gorm:"type:varchar(255)"`
}

// TableName overrides the default table name
func (Client) TableName() string {
	return "clients"
}

// CustomGroup is a named, colored grouping staff assign orders to.
type CustomGroup struct {
	ID       int64  `gorm:"primaryKey"`
	Name     string `gorm:"type:varchar(100);not null"`
	Color    string `gorm:"type:varchar(20);not null;default:'#CCCCCC'"`
	IsActive bool   `gorm:"not null;default:true;column:is_active"`
}

// TableName overrides the default table name
func (CustomGroup) TableName() string {
	return "custom_groups"
}

// Project is the execution project created from an accepted quotation.
// It is a read-only join from the order's point of view.
type Project struct {
	ID          int64  `gorm:"primaryKey"`
	QuotationID int64  `gorm:"not null;index;column:quotation_id"`
	Name        string `gorm:"type:varchar(200);not null;column:project_name"`
	Number      string `gorm:"type:varchar(50);column:project_number"`
	Status      string `gorm:"type:varchar(50);column:status"`
}

// TableName overrides the default table name
func (Project) TableName() string {
	return "projects"
}

// Order represents one customer design-quotation request. The id is stable
// across refreshes; every other field is replaced wholesale on each fetch.
type Order struct {
	ID              int64     `gorm:"primaryKey"`
	ClientID        int64     `gorm:"not null;index;column:client_id"`
	Client          Client    `gorm:"foreignKey:ClientID"`
	LandAddress     string    `gorm:"type:varchar(500);column:land_address"`
	LandArea        string    `gorm:"type:varchar(100);column:land_area"`
	BasementArea    string    `gorm:"type:varchar(100);column:basement_area"`
	GroundFloorArea string    `gorm:"type:varchar(100);column:ground_floor_area"`
	Floor1Area      string    `gorm:"type:varchar(100);column:floor1_area"`
	Floor2Area      string    `gorm:"type:varchar(100);column:floor2_area"`
	RoofArea        string    `gorm:"type:varchar(100);column:roof_area"`
	ProjectType     string    `gorm:"type:varchar(100);column:project_type"`
	Details         string    `gorm:"type:text"`
	Offers          string    `gorm:"type:text"`
	Status          string    `gorm:"type:varchar(50);not null;default:'Pending';index"`
	SubmittedAt     time.Time `gorm:"not null;index;column:submitted_at"`
	ModifiedAt      time.Time `gorm:"not null;column:modified_at"`

	Groups  []CustomGroup `gorm:"many2many:order_group_assignments;joinForeignKey:order_id;joinReferences:group_id"`
	Project *Project      `gorm:"foreignKey:QuotationID;references:ID"`
}

// TableName overrides the default table name
func (Order) TableName() string {
	return "orders"
}

// PartialOrder is the lightweight record returned by the recently-changed
// poll: just enough to reconcile a status change without a full refresh.
type PartialOrder struct {
	ID           int64
	Status       string
	ModifiedAt   time.Time
	CustomerName string
}

// OrderStatusRecord is one entry of the backend-defined status vocabulary.
type OrderStatusRecord struct {
	Value     string `gorm:"primaryKey;type:varchar(50)"`
	SortOrder int    `gorm:"not null;default:0;column:sort_order"`
}

// TableName overrides the default table name
func (OrderStatusRecord) TableName() string {
	return "order_statuses"
}

// Annotation is client-local, per-order state that never reaches the
// backing store. ChangedAt is present exactly when SelectionLevel > 0.
type Annotation struct {
	SelectionLevel int        `json:"selection_level"`
	ChangedAt      *time.Time `json:"changed_at,omitempty"`
}

// Selected reports whether the annotation marks the order.
func (a Annotation) Selected() bool {
	return a.SelectionLevel > 0
}

// Cycle returns the annotation advanced one selection level, wrapping back
// to zero after MaxSelectionLevel and clearing the timestamp at zero.
func (a Annotation) Cycle(now time.Time) Annotation {
	next := Annotation{SelectionLevel: (a.SelectionLevel + 1) % (MaxSelectionLevel + 1)}
	if next.SelectionLevel > 0 {
		next.ChangedAt = &now
	}
	return next
}

// CachedOrder is an order joined with its annotation as held by the cache.
// PendingWrite marks an optimistic status change awaiting persistence.
type CachedOrder struct {
	Order        Order
	Annotation   Annotation
	PendingWrite bool
}

// StatusStyle is the display metadata configured for one status value.
type StatusStyle struct {
	Label      string `mapstructure:"label" json:"label"`
	Color      string `mapstructure:"color" json:"color"`
	LightColor string `mapstructure:"lightColor" json:"lightColor"`
}
