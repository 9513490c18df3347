package model

// RFM is the behavioral summary of one customer.
type RFM struct {
	CustomerID string  `json:"customer_id"`
	Recency    int     `json:"recency"`
	Frequency  int     `json:"frequency"`
	Monetary   float64 `json:"monetary"`
}

// CustomerLabel is the proxy label assigned to one customer by a labeling run.
type CustomerLabel struct {
	RFM
	Cluster    int  `json:"cluster"`
	IsHighRisk bool `json:"is_high_risk"`
}

// Label returns the binary target value.
func (c CustomerLabel) Label() int {
	if c.IsHighRisk {
		return 1
	}
	return 0
}
