package models

import (
	"time"
)

// Region is the top level of the administrative hierarchy.
// Boundary holds the WKT geometry literal as stored in PostGIS; the
// geometry codec converts it to GeoJSON at the API surface.
type Region struct {
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Name      string    `json:"name"`
	Boundary  string    `json:"boundary,omitempty"`
	ID        int64     `json:"id"`
}

// Department is the second level of the hierarchy. Every department
// belongs to exactly one region; a department without one is a data
// integrity defect, not a valid state.
type Department struct {
	Name       string  `json:"name"`
	Boundary   string  `json:"boundary,omitempty"`
	RegionName *string `json:"regionName,omitempty"`
	ID         int64   `json:"id"`
	RegionID   int64   `json:"regionId"`
}

// Arrondissement is the third level of the hierarchy, below department.
type Arrondissement struct {
	Name           string  `json:"name"`
	Boundary       string  `json:"boundary,omitempty"`
	DepartmentName *string `json:"departmentName,omitempty"`
	RegionName     *string `json:"regionName,omitempty"`
	ID             int64   `json:"id"`
	DepartmentID   int64   `json:"departmentId"`
	RegionID       int64   `json:"regionId,omitempty"`
}

// DivisionUpdate carries a partial update for a division. Nil fields are
// left untouched; update never resets unspecified fields.
type DivisionUpdate struct {
	Name     *string `json:"name,omitempty"`
	Boundary *string `json:"boundary,omitempty"`
	ParentID *int64  `json:"parentId,omitempty"`
}
