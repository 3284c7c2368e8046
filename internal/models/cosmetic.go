package models

type CosmeticCategory string

const (
	CategoryFrame      CosmeticCategory = "frame"
	CategoryBackground CosmeticCategory = "background"
)

// CosmeticItem is static catalog data. Ownership and equip state live on StudentProfile.
type CosmeticItem struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Price    int              `json:"price"`
	Style    string           `json:"style"`
	Category CosmeticCategory `json:"category"`
}
