package models

// LocationHierarchy is the full administrative resolution of a point:
// the region, department and arrondissement containing it.
type LocationHierarchy struct {
	RegionName         string `json:"regionName"`
	DepartmentName     string `json:"departmentName"`
	ArrondissementName string `json:"arrondissementName"`
	RegionID           int64  `json:"regionId"`
	DepartmentID       int64  `json:"departmentId"`
	ArrondissementID   int64  `json:"arrondissementId"`
}

// NearestDivision is the closest division center to a query point.
// Distance is geodesic meters, never planar degrees.
type NearestDivision struct {
	Name           string  `json:"name"`
	DistanceMeters float64 `json:"distanceMeters"`
	ID             int64   `json:"id"`
}

// RegionArea is a server-side area computation for one region.
type RegionArea struct {
	RegionName string  `json:"regionName"`
	AreaM2     float64 `json:"areaM2"`
	AreaKm2    float64 `json:"areaKm2"`
	RegionID   int64   `json:"regionId"`
}

// ParcelOverlap flags another active parcel whose boundary intersects
// the queried one. A registry conflict signal; never auto-resolved.
type ParcelOverlap struct {
	Matricule     string  `json:"matricule"`
	OverlapAreaM2 float64 `json:"overlapAreaM2"`
	ParcelID      int64   `json:"parcelId"`
}

// BorderParcel is a parcel lying within a given distance of a region
// boundary.
type BorderParcel struct {
	Matricule      string  `json:"matricule"`
	RegionName     string  `json:"regionName"`
	DistanceMeters float64 `json:"distanceMeters"`
	ParcelID       int64   `json:"parcelId"`
}

// MultiRegionParcel is a parcel whose boundary spans more than one
// region. A data-quality signal, not necessarily invalid.
type MultiRegionParcel struct {
	Matricule   string   `json:"matricule"`
	RegionNames []string `json:"regionNames"`
	ParcelID    int64    `json:"parcelId"`
	RegionCount int      `json:"regionCount"`
}

// IntegrityIssue is one finding from the server-side consistency sweep.
// Issues are data, never errors: the sweep reports and does not mutate.
type IntegrityIssue struct {
	Kind        string `json:"kind"`
	Entity      string `json:"entity"`
	Description string `json:"description"`
	EntityID    int64  `json:"entityId"`
}

// RegionStats is one row of the materialized region-statistics view.
type RegionStats struct {
	RegionName      string  `json:"regionName"`
	AreaKm2         float64 `json:"areaKm2"`
	RegionID        int64   `json:"regionId"`
	DepartmentCount int     `json:"departmentCount"`
	ParcelCount     int     `json:"parcelCount"`
}

// RegionDetailedStats is the full per-region breakdown served by the
// region detail endpoint. Parcel counts cover active parcels only.
type RegionDetailedStats struct {
	RegionName          string  `json:"regionName"`
	AreaKm2             float64 `json:"areaKm2"`
	AvgPricePerM2       float64 `json:"avgPricePerM2"`
	RegionID            int64   `json:"regionId"`
	DepartmentCount     int     `json:"departmentCount"`
	ArrondissementCount int     `json:"arrondissementCount"`
	ParcelCount         int     `json:"parcelCount"`
	TitledParcelCount   int     `json:"titledParcelCount"`
}

// GeographicReport is the consolidated hierarchy report.
type GeographicReport struct {
	Regions              []RegionStats `json:"regions"`
	TotalRegions         int           `json:"totalRegions"`
	TotalDepartments     int           `json:"totalDepartments"`
	TotalArrondissements int           `json:"totalArrondissements"`
	TotalParcels         int           `json:"totalParcels"`
}

// BoundingBox is a lat/lng-aligned query window. North must exceed
// south and east must exceed west; boxes crossing the antimeridian are
// rejected as unsupported.
type BoundingBox struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	West  float64 `json:"west"`
}
