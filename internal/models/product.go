package models

// ProductOption is a purchasable variant parsed from the source page's option
// list. Stock is never negative; sold-out options are dropped during parsing
// and never reach this struct.
type ProductOption struct {
	Name  string `json:"name"`
	Stock int    `json:"stock"`
}

// ProductInfo is the normalized extraction result for a single product page.
// It is built once per run and read-only afterwards. Price is in currency
// minor units. Images are absolute URLs and the first entry is the
// representative image.
type ProductInfo struct {
	Title       string          `json:"title"`
	Price       int             `json:"price"`
	Description string          `json:"description"`
	Images      []string        `json:"images"`
	Options     []ProductOption `json:"options"`
	Origin      string          `json:"origin"`
}

func NewProductInfo() *ProductInfo {
	return &ProductInfo{
		Images:  make([]string, 0),
		Options: make([]ProductOption, 0),
	}
}
