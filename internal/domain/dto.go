package domain

// GroupDTO is a custom-group membership as shown on an order card.
type GroupDTO struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// OrderViewDTO is one row of the projected order list.
type OrderViewDTO struct {
	ID                 int64      `json:"id"`
	CustomerName       string     `json:"customerName"`
	CustomerPhone      string     `json:"customerPhone"`
	CustomerEmail      string     `json:"customerEmail,omitempty"`
	Status             string     `json:"status"`
	PendingWrite       bool       `json:"pendingWrite,omitempty"`
	SubmittedAt        string     `json:"submittedAt"`
	ModifiedAt         string     `json:"modifiedAt"`
	Groups             []GroupDTO `json:"groups,omitempty"`
	SelectionLevel     int        `json:"selectionLevel"`
	SelectionChangedAt string     `json:"selectionChangedAt,omitempty"`
}

// ProjectDTO is the linked execution project on an order detail.
type ProjectDTO struct {
	Name   string `json:"name"`
	Number string `json:"number,omitempty"`
	Status string `json:"status,omitempty"`
}

// OrderDetailDTO is the full joined detail for a single order.
type OrderDetailDTO struct {
	ID                 int64       `json:"id"`
	CustomerName       string      `json:"customerName"`
	CustomerPhone      string      `json:"customerPhone"`
	CustomerEmail      string      `json:"customerEmail,omitempty"`
	LandAddress        string      `json:"landAddress,omitempty"`
	LandArea           string      `json:"landArea,omitempty"`
	BasementArea       string      `json:"basementArea,omitempty"`
	GroundFloorArea    string      `json:"groundFloorArea,omitempty"`
	Floor1Area         string      `json:"floor1Area,omitempty"`
	Floor2Area         string      `json:"floor2Area,omitempty"`
	RoofArea           string      `json:"roofArea,omitempty"`
	ProjectType        string      `json:"projectType,omitempty"`
	Details            string      `json:"details,omitempty"`
	Offers             string      `json:"offers,omitempty"`
	Status             string      `json:"status"`
	SubmittedAt        string      `json:"submittedAt"`
	ModifiedAt         string      `json:"modifiedAt"`
	Groups             []GroupDTO  `json:"groups,omitempty"`
	Project            *ProjectDTO `json:"project,omitempty"`
	SelectionLevel     int         `json:"selectionLevel"`
	SelectionChangedAt string      `json:"selectionChangedAt,omitempty"`
}

// StatusDTO is one vocabulary entry with its display metadata. Values the
// configuration does not know are served with the raw string as label and
// neutral colors, never rejected.
type StatusDTO struct {
	Value      string `json:"value"`
	Label      string `json:"label"`
	Color      string `json:"color"`
	LightColor string `json:"lightColor"`
}

// AnnotationDTO is the response to a selection-level change.
type AnnotationDTO struct {
	OrderID        int64  `json:"orderId"`
	SelectionLevel int    `json:"selectionLevel"`
	ChangedAt      string `json:"changedAt,omitempty"`
}

// StatusUpdateRequest is the body of a status-change request.
type StatusUpdateRequest struct {
	Status string `json:"status" validate:"required,max=50"`
}
