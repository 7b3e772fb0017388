package model

// Specialist is one entry of the explicit specialist enumeration.
type Specialist struct {
	ID    int    `json:"id" mapstructure:"id"`
	Label string `json:"label" mapstructure:"label"`
}
