package liege

// SearchResponse represents the response from the records search endpoint
type SearchResponse struct {
	NHits   int      `json:"nhits"`
	Records []Record `json:"records"`
}

// Record is one raw result row. Fields are kept loosely typed because the
// platform's datasets do not agree on the JSON type of the same attribute.
type Record struct {
	DatasetID       string         `json:"datasetid"`
	RecordID        string         `json:"recordid"`
	RecordTimestamp string         `json:"record_timestamp"`
	Fields          map[string]any `json:"fields"`
	Geometry        *Geometry      `json:"geometry"`
}

// Geometry is a GeoJSON point, coordinates are [longitude, latitude]
type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}
