package types

// PropertyType is the land-use category assigned to a generated property.
type PropertyType string

const (
	Residential  PropertyType = "Residential"
	Commercial   PropertyType = "Commercial"
	Industrial   PropertyType = "Industrial"
	Agricultural PropertyType = "Agricultural"
)

// PropertyTypes lists the closed set of categories in their catalogue order.
// Catalogue ids are 1-based positions in this slice.
var PropertyTypes = []PropertyType{Residential, Commercial, Industrial, Agricultural}

// Valid reports whether t is one of the known categories.
func (t PropertyType) Valid() bool {
	for _, known := range PropertyTypes {
		if t == known {
			return true
		}
	}
	return false
}

// PropertyRecord is one synthetic property. Records are built once and never
// mutated after being appended to a batch; Grid is a private copy of the
// entry it was sampled from.
type PropertyRecord struct {
	ID             int          `json:"id" bson:"id"`
	Value          float64      `json:"value" bson:"value"`
	Type           PropertyType `json:"type" bson:"type"`
	MunicipalityID int          `json:"municipalityId" bson:"municipalityId"`
	NeighborhoodID int          `json:"neighborhoodId" bson:"neighborhoodId"`
	SectorID       int          `json:"sectorId" bson:"sectorId"`
	GridID         any          `json:"gridId" bson:"gridId"`
	Grid           GridEntry    `json:"grid" bson:"grid"`
}

// GridKey returns the record's grid identifier as text.
func (p PropertyRecord) GridKey() string {
	return keyOf(p.GridID)
}
