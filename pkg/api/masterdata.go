package api

// MasterItem is a row of the regional, daerah and tingkat reference tables
type MasterItem struct {
	ID         any    `json:"id,omitempty"`
	RegionalID any    `json:"regional_id,omitempty"`
	Kode       string `json:"kode"`
	Nama       string `json:"nama"`
}

// SortOrder направление сортировки списков
type SortOrder string

const (
	SortAsc  SortOrder = "ASC"
	SortDesc SortOrder = "DESC"
)
