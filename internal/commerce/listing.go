package commerce

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/storelift/smartstore-lister/internal/models"
)

// Business defaults for compliance fields the source page cannot provide.
const (
	defaultCategoryID    = "50000803"
	defaultStockQuantity = 999
	defaultOrigin        = "수입산"
	defaultOriginCode    = "0200037"
	defaultImporter      = "주식회사 수입사"
	noticePlaceholder    = "상세페이지 참조"
	noticePackDate       = "2024-01"
	afterServiceContact  = "1234-5678"
	afterServiceGuide    = "구매자 단순변심 반품 가능"
)

// ListingPayload is the marketplace's nested listing schema. It is built once
// by AssembleListing and never mutated afterwards.
type ListingPayload struct {
	OriginProduct            OriginProduct  `json:"originProduct"`
	SmartstoreChannelProduct ChannelProduct `json:"smartstoreChannelProduct"`
}

type OriginProduct struct {
	ExcludeAdminAutoUpdate bool            `json:"excludeAdminAutoUpdate"`
	ExcludeSettle          bool            `json:"excludeSettle"`
	StatusType             string          `json:"statusType"`
	SaleType               string          `json:"saleType"`
	LeafCategoryID         string          `json:"leafCategoryId"`
	Name                   string          `json:"name"`
	DetailContent          string          `json:"detailContent"`
	Images                 ListingImages   `json:"images"`
	SalePrice              int             `json:"salePrice"`
	StockQuantity          int             `json:"stockQuantity"`
	DetailAttribute        DetailAttribute `json:"detailAttribute"`
}

type ListingImages struct {
	RepresentativeImage ListingImage   `json:"representativeImage"`
	OptionalImages      []ListingImage `json:"optionalImages"`
}

type ListingImage struct {
	URL string `json:"url"`
}

type DetailAttribute struct {
	HasManuallyEnteredProductInfo bool             `json:"hasManuallyEnteredProductInfo"`
	ProductInfoProvidedNotice     ProvidedNotice   `json:"productInfoProvidedNotice"`
	OriginAreaInfo                OriginAreaInfo   `json:"originAreaInfo"`
	MinorPurchasable              bool             `json:"minorPurchasable"`
	AfterServiceInfo              AfterServiceInfo `json:"afterServiceInfo"`
}

type ProvidedNotice struct {
	NoticeType string     `json:"productInfoProvidedNoticeType"`
	Wear       WearNotice `json:"wear"`
}

type WearNotice struct {
	Material             string `json:"material"`
	Color                string `json:"color"`
	Size                 string `json:"size"`
	Manufacturer         string `json:"manufacturer"`
	Caution              string `json:"caution"`
	PackDate             string `json:"packDate"`
	WarrantyPolicy       string `json:"warrantyPolicy"`
	AfterServiceDirector string `json:"afterServiceDirector"`
}

type OriginAreaInfo struct {
	OriginAreaCode string `json:"originAreaCode"`
	Content        string `json:"content"`
	Plural         bool   `json:"plural"`
	Importer       string `json:"importer"`
}

type AfterServiceInfo struct {
	TelephoneNumber string `json:"afterServiceTelephoneNumber"`
	GuideContent    string `json:"afterServiceGuideContent"`
}

type ChannelProduct struct {
	NaverShoppingRegistration bool   `json:"naverShoppingRegistration"`
	DisplayStatusType         string `json:"channelProductDisplayStatusType"`
}

// AssembleListing maps the extracted product and its relocated images into
// the marketplace schema. uploadedImages must be non-empty; the pipeline
// guarantees that before calling. The first uploaded image becomes the
// representative image, the remaining non-empty entries become optional
// images. detailHTML is pre-rendered by the caller.
func AssembleListing(info *models.ProductInfo, uploadedImages []string, detailHTML string) *ListingPayload {
	optional := make([]ListingImage, 0, len(uploadedImages))
	for _, img := range uploadedImages[1:] {
		if img == "" {
			continue
		}
		optional = append(optional, ListingImage{URL: img})
	}

	origin := info.Origin
	if origin == "" {
		origin = defaultOrigin
	}

	return &ListingPayload{
		OriginProduct: OriginProduct{
			ExcludeAdminAutoUpdate: true,
			ExcludeSettle:          true,
			StatusType:             "SALE",
			SaleType:               "NEW",
			LeafCategoryID:         defaultCategoryID,
			Name:                   info.Title,
			DetailContent:          detailHTML,
			Images: ListingImages{
				RepresentativeImage: ListingImage{URL: uploadedImages[0]},
				OptionalImages:      optional,
			},
			SalePrice:     info.Price,
			StockQuantity: defaultStockQuantity,
			DetailAttribute: DetailAttribute{
				HasManuallyEnteredProductInfo: true,
				ProductInfoProvidedNotice: ProvidedNotice{
					NoticeType: "WEAR",
					Wear: WearNotice{
						Material:             noticePlaceholder,
						Color:                noticePlaceholder,
						Size:                 noticePlaceholder,
						Manufacturer:         noticePlaceholder,
						Caution:              noticePlaceholder,
						PackDate:             noticePackDate,
						WarrantyPolicy:       noticePlaceholder,
						AfterServiceDirector: afterServiceContact,
					},
				},
				OriginAreaInfo: OriginAreaInfo{
					OriginAreaCode: defaultOriginCode,
					Content:        origin,
					Plural:         false,
					Importer:       defaultImporter,
				},
				MinorPurchasable: true,
				AfterServiceInfo: AfterServiceInfo{
					TelephoneNumber: afterServiceContact,
					GuideContent:    afterServiceGuide,
				},
			},
		},
		SmartstoreChannelProduct: ChannelProduct{
			NaverShoppingRegistration: true,
			DisplayStatusType:         "ON",
		},
	}
}

// CreateListing submits the assembled payload and returns the marketplace's
// response verbatim as the run result.
func (c *Client) CreateListing(ctx context.Context, payload *ListingPayload) (json.RawMessage, error) {
	token, err := c.GetToken(ctx)
	if err != nil {
		return nil, err
	}

	res, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post("/v2/products")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrListingSubmission, err)
	}
	if res.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%w: %s", ErrListingSubmission, res.String())
	}

	c.logger.Info("listing created", "name", payload.OriginProduct.Name)
	return json.RawMessage(res.Body()), nil
}
