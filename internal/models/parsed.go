package models

// ParsedResponseType identifies the typed shape of a transformed answer.
type ParsedResponseType string

const (
	ParsedResponseTypeText             ParsedResponseType = "text"
	ParsedResponseTypeNumber           ParsedResponseType = "number"
	ParsedResponseTypeBoolean          ParsedResponseType = "boolean"
	ParsedResponseTypeFile             ParsedResponseType = "file"
	ParsedResponseTypeAddress          ParsedResponseType = "address"
	ParsedResponseTypeMultiSelect      ParsedResponseType = "multi-select"
	ParsedResponseTypeAny              ParsedResponseType = "any"
	ParsedResponseTypeNone             ParsedResponseType = "none"
	ParsedResponseTypeCalloutComponent ParsedResponseType = "callout-component"
)

// FileAnswer is a typed file reply: the coarse file category plus the
// transport file identifier.
type FileAnswer struct {
	FileType string `json:"file_type"`
	FileID   string `json:"file_id"`
}

// AddressAnswer is a typed address reply. Coordinates default to 0 when the
// reply carried no location payload.
type AddressAnswer struct {
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ParsedResponse is a typed answer produced by the response transformer.
// Data holds a single value or, for multi-reply collections, an ordered
// []any. Replay retains the originating accepted results for audit.
type ParsedResponse struct {
	Type ParsedResponseType `json:"type"`
	// Key is the composite group key correlating this answer to its slide
	// and component, when the answer belongs to a callout form.
	Key    string           `json:"key,omitempty"`
	Data   any              `json:"data"`
	Replay []ReplayAccepted `json:"replay,omitempty"`
}
