package ocm

// POI is one raw charging location as returned by the upstream API.
// Nearly every field is optional; pointer types mark the tri-state flags
// whose absence means something different from false.
type POI struct {
	ID                   int64        `json:"ID"`
	UUID                 string       `json:"UUID,omitempty"`
	AddressInfo          *AddressInfo `json:"AddressInfo,omitempty"`
	Connections          []Connection `json:"Connections,omitempty"`
	UsageCost            *string      `json:"UsageCost,omitempty"`
	UsageType            *UsageType   `json:"UsageType,omitempty"`
	StatusType           *StatusType  `json:"StatusType,omitempty"`
	OperatorInfo         *Operator    `json:"OperatorInfo,omitempty"`
	GeneralComments      string       `json:"GeneralComments,omitempty"`
	DateLastStatusUpdate string       `json:"DateLastStatusUpdate,omitempty"`
	NumberOfPoints       *int         `json:"NumberOfPoints,omitempty"`
}

// AddressInfo holds the location fields of a POI.
type AddressInfo struct {
	Title           string  `json:"Title,omitempty"`
	AddressLine1    string  `json:"AddressLine1,omitempty"`
	Town            string  `json:"Town,omitempty"`
	StateOrProvince string  `json:"StateOrProvince,omitempty"`
	Postcode        string  `json:"Postcode,omitempty"`
	Latitude        float64 `json:"Latitude"`
	Longitude       float64 `json:"Longitude"`
}

// Connection is one physical connector on a POI.
type Connection struct {
	ConnectionType *ConnectionType `json:"ConnectionType,omitempty"`
	StatusType     *StatusType     `json:"StatusType,omitempty"`
	Level          *Level          `json:"Level,omitempty"`
	PowerKW        *float64        `json:"PowerKW,omitempty"`
	Quantity       *int            `json:"Quantity,omitempty"`
}

// ConnectionType names the connector standard.
type ConnectionType struct {
	Title      string `json:"Title,omitempty"`
	FormalName string `json:"FormalName,omitempty"`
}

// Level is the upstream charging-level metadata on a connection.
type Level struct {
	Title    string `json:"Title,omitempty"`
	Comments string `json:"Comments,omitempty"`
}

// StatusType carries operational status for a POI or a single connection.
// IsOperational is a pointer: nil means the upstream never said.
type StatusType struct {
	Title         string `json:"Title,omitempty"`
	IsOperational *bool  `json:"IsOperational,omitempty"`
}

// UsageType describes who may use the POI and how payment works.
type UsageType struct {
	Title                string `json:"Title,omitempty"`
	IsPayAtLocation      *bool  `json:"IsPayAtLocation,omitempty"`
	IsMembershipRequired *bool  `json:"IsMembershipRequired,omitempty"`
	IsAccessKeyRequired  *bool  `json:"IsAccessKeyRequired,omitempty"`
}

// Operator identifies the charging network running the POI.
type Operator struct {
	Title string `json:"Title,omitempty"`
}
