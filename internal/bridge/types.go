// Package bridge hands the local cart off to the external checkout
// provider: it builds the provider's expected cart payload, performs
// the checkout-creation call, and drives the browser to the returned
// checkout URL.
package bridge

// === Provider Wire Types ===
//
// The payload mirrors, field for field, the cart body the provider
// accepts from a real storefront. The provider matches products by
// their numeric platform IDs. presentment_price is carried in major
// units while every other price field is minor units; both are kept
// as observed and no relationship between them is assumed.

// CheckoutRequest is the outer body POSTed to the provider.
type CheckoutRequest struct {
	Shop                  string      `json:"shop"`
	ShopifyInternalDomain string      `json:"shopify_internal_domain"`
	CartPayload           PayloadCart `json:"cart_payload"`
}

// PayloadCart is the provider's cart object.
type PayloadCart struct {
	Token                         string            `json:"token"`
	Note                          string            `json:"note"`
	Attributes                    map[string]string `json:"attributes"`
	OriginalTotalPrice            int64             `json:"original_total_price"`
	TotalPrice                    int64             `json:"total_price"`
	TotalDiscount                 int64             `json:"total_discount"`
	TotalWeight                   int64             `json:"total_weight"`
	ItemCount                     int               `json:"item_count"`
	Items                         []PayloadItem     `json:"items"`
	RequiresShipping              bool              `json:"requires_shipping"`
	Currency                      string            `json:"currency"`
	ItemsSubtotalPrice            int64             `json:"items_subtotal_price"`
	CartLevelDiscountApplications []any             `json:"cart_level_discount_applications"`
	DiscountCodes                 []string          `json:"discount_codes"`
}

// PayloadItem is one provider cart line. IDs must be numbers, not
// strings; key format is "{variantID}:{hash}".
type PayloadItem struct {
	ID                           int64          `json:"id"`
	VariantID                    int64          `json:"variant_id"`
	ProductID                    int64          `json:"product_id"`
	Quantity                     int            `json:"quantity"`
	Properties                   map[string]any `json:"properties"`
	Key                          string         `json:"key"`
	Title                        string         `json:"title"`
	Price                        int64          `json:"price"`
	OriginalPrice                int64          `json:"original_price"`
	PresentmentPrice             float64        `json:"presentment_price"`
	DiscountedPrice              int64          `json:"discounted_price"`
	LinePrice                    int64          `json:"line_price"`
	OriginalLinePrice            int64          `json:"original_line_price"`
	TotalDiscount                int64          `json:"total_discount"`
	Discounts                    []any          `json:"discounts"`
	SKU                          *string        `json:"sku"`
	Grams                        int            `json:"grams"`
	Vendor                       string         `json:"vendor"`
	Taxable                      bool           `json:"taxable"`
	ProductHasOnlyDefaultVariant bool           `json:"product_has_only_default_variant"`
	GiftCard                     bool           `json:"gift_card"`
	FinalPrice                   int64          `json:"final_price"`
	FinalLinePrice               int64          `json:"final_line_price"`
	URL                          string         `json:"url"`
	FeaturedImage                *FeaturedImage `json:"featured_image"`
	Image                        string         `json:"image"`
	Handle                       string         `json:"handle"`
	RequiresShipping             bool           `json:"requires_shipping"`
	ProductType                  string         `json:"product_type"`
	ProductTitle                 string         `json:"product_title"`
	ProductDescription           string         `json:"product_description"`
	VariantTitle                 *string        `json:"variant_title"`
	VariantOptions               []string       `json:"variant_options"`
	OptionsWithValues            []OptionValue  `json:"options_with_values"`
	LineLevelDiscountAllocations []any          `json:"line_level_discount_allocations"`
	LineLevelTotalDiscount       int64          `json:"line_level_total_discount"`
	HasComponents                bool           `json:"has_components"`
}

// FeaturedImage is the provider's media sub-object.
type FeaturedImage struct {
	AspectRatio float64 `json:"aspect_ratio"`
	Alt         string  `json:"alt"`
	Height      int     `json:"height"`
	URL         string  `json:"url"`
	Width       int     `json:"width"`
}

// OptionValue is one variant option name/value pair.
type OptionValue struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// CheckoutResponse is the provider's success envelope.
type CheckoutResponse struct {
	Data struct {
		Integration struct {
			Active bool `json:"active"`
		} `json:"integration"`
		CheckoutURL string `json:"checkout_url"`
	} `json:"data"`
	Message string `json:"message,omitempty"`
}
