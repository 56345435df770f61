package domain

import "strings"

// CatalogItem mirrors a Google Books volume. Only the fields the storefront
// renders or prices from are kept.
type CatalogItem struct {
	ID         string     `json:"id,omitempty" bson:"id,omitempty"`
	VolumeInfo VolumeInfo `json:"volumeInfo" bson:"volume_info"`
	SaleInfo   *SaleInfo  `json:"saleInfo,omitempty" bson:"sale_info,omitempty"`
}

type VolumeInfo struct {
	Title         string      `json:"title,omitempty" bson:"title,omitempty"`
	Subtitle      string      `json:"subtitle,omitempty" bson:"subtitle,omitempty"`
	Authors       []string    `json:"authors,omitempty" bson:"authors,omitempty"`
	Publisher     string      `json:"publisher,omitempty" bson:"publisher,omitempty"`
	PublishedDate string      `json:"publishedDate,omitempty" bson:"published_date,omitempty"`
	Description   string      `json:"description,omitempty" bson:"description,omitempty"`
	PageCount     int         `json:"pageCount,omitempty" bson:"page_count,omitempty"`
	PrintType     string      `json:"printType,omitempty" bson:"print_type,omitempty"`
	Categories    []string    `json:"categories,omitempty" bson:"categories,omitempty"`
	AverageRating float64     `json:"averageRating,omitempty" bson:"average_rating,omitempty"`
	RatingsCount  int         `json:"ratingsCount,omitempty" bson:"ratings_count,omitempty"`
	Language      string      `json:"language,omitempty" bson:"language,omitempty"`
	ImageLinks    *ImageLinks `json:"imageLinks,omitempty" bson:"image_links,omitempty"`
	PreviewLink   string      `json:"previewLink,omitempty" bson:"preview_link,omitempty"`
	InfoLink      string      `json:"infoLink,omitempty" bson:"info_link,omitempty"`
}

type ImageLinks struct {
	SmallThumbnail string `json:"smallThumbnail,omitempty" bson:"small_thumbnail,omitempty"`
	Thumbnail      string `json:"thumbnail,omitempty" bson:"thumbnail,omitempty"`
}

const SaleabilityForSale = "FOR_SALE"

type SaleInfo struct {
	Country     string  `json:"country,omitempty" bson:"country,omitempty"`
	Saleability string  `json:"saleability,omitempty" bson:"saleability,omitempty"`
	IsEbook     bool    `json:"isEbook,omitempty" bson:"is_ebook,omitempty"`
	ListPrice   *Amount `json:"listPrice,omitempty" bson:"list_price,omitempty"`
	RetailPrice *Amount `json:"retailPrice,omitempty" bson:"retail_price,omitempty"`
	BuyLink     string  `json:"buyLink,omitempty" bson:"buy_link,omitempty"`
}

type Amount struct {
	Amount       float64 `json:"amount,omitempty" bson:"amount,omitempty"`
	CurrencyCode string  `json:"currencyCode,omitempty" bson:"currency_code,omitempty"`
}

// Identity is the volume id, or title and published date joined when the
// catalog returned no id.
func (c CatalogItem) Identity() string {
	if id := strings.TrimSpace(c.ID); id != "" {
		return id
	}
	return c.VolumeInfo.Title + "|" + c.VolumeInfo.PublishedDate
}

// SaleOffer reports the retail price when the volume is for sale at a
// positive amount.
func (c CatalogItem) SaleOffer() (*Amount, bool) {
	if c.SaleInfo == nil || c.SaleInfo.Saleability != SaleabilityForSale {
		return nil, false
	}
	rp := c.SaleInfo.RetailPrice
	if rp == nil || rp.Amount <= 0 {
		return nil, false
	}
	return rp, true
}
