package bridge

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/mygitvirtual012322/carrefourloja/internal/model"
)

// BuildRequest assembles the provider checkout request from a local
// cart. Validation happens here, before any network traffic: an empty
// cart or a line without a price means the stored data is broken and
// the provider would accept a worthless order. productMap associates
// product handles with the provider's own product IDs and may be nil.
func BuildRequest(cart model.Cart, shop, internalDomain, currency string, productMap map[string]string) (CheckoutRequest, error) {
	if len(cart.Items) == 0 {
		return CheckoutRequest{}, model.NewEmptyCartError()
	}
	for _, it := range cart.Items {
		if it.Price <= 0 {
			return CheckoutRequest{}, model.NewZeroPriceError(it.Title)
		}
	}

	token := newHash()
	items := make([]PayloadItem, 0, len(cart.Items))
	var total, weight int64
	var count int
	for _, it := range cart.Items {
		line := buildItem(it, productMap[it.Handle])
		// Re-check on the wire value: a sub-cent major-unit price
		// survives the gate above but rounds to zero minor units.
		if line.Price <= 0 {
			return CheckoutRequest{}, model.NewZeroPriceError(it.Title)
		}
		items = append(items, line)
		total += line.FinalLinePrice
		weight += int64(line.Grams) * int64(line.Quantity)
		count += line.Quantity
	}
	if total <= 0 {
		return CheckoutRequest{}, model.NewZeroPriceError("cart total")
	}

	return CheckoutRequest{
		Shop:                  shop,
		ShopifyInternalDomain: internalDomain,
		CartPayload: PayloadCart{
			Token:                         fmt.Sprintf("%s?key=%s", token, token),
			Note:                          "",
			Attributes:                    map[string]string{},
			OriginalTotalPrice:            total,
			TotalPrice:                    total,
			TotalDiscount:                 0,
			TotalWeight:                   weight,
			ItemCount:                     count,
			Items:                         items,
			RequiresShipping:              true,
			Currency:                      currency,
			ItemsSubtotalPrice:            total,
			CartLevelDiscountApplications: []any{},
			DiscountCodes:                 []string{},
		},
	}, nil
}

// buildItem converts one cart line to the provider's shape. The
// provider needs numeric IDs; non-numeric stored IDs become zero, the
// provider then falls back to matching by handle. providerID, when the
// product map knows the handle, pins the provider's own product record
// and removes that ambiguity. Fields the local cart does not track
// carry the neutral defaults a plain physical product would have.
func buildItem(it model.CartItem, providerID string) PayloadItem {
	qty := it.Quantity
	if qty < 1 {
		qty = 1
	}
	unit := model.MinorUnits(it.Price)
	line := unit * int64(qty)

	variantID := model.ParseNumericID(it.VariantID)
	productID := model.ParseNumericID(it.ID)
	if productID == 0 {
		productID = variantID
	}
	if variantID == 0 {
		variantID = productID
	}

	variantTitle := it.VariantTitle
	if variantTitle == "" {
		variantTitle = "Default Title"
	}
	vendor := it.Vendor
	if vendor == "" {
		vendor = "Loja"
	}
	title := it.Title
	if it.VariantTitle != "" {
		title = it.Title + " - " + it.VariantTitle
	}

	var sku *string
	if it.SKU != "" {
		sku = &it.SKU
	}

	props := map[string]any{}
	if providerID != "" {
		props["_provider_product_id"] = providerID
	}

	item := PayloadItem{
		ID:                           variantID,
		VariantID:                    variantID,
		ProductID:                    productID,
		Quantity:                     qty,
		Properties:                   props,
		Key:                          fmt.Sprintf("%d:%s", variantID, newHash()),
		Title:                        title,
		Price:                        unit,
		OriginalPrice:                unit,
		PresentmentPrice:             it.Price,
		DiscountedPrice:              unit,
		LinePrice:                    line,
		OriginalLinePrice:            line,
		TotalDiscount:                0,
		Discounts:                    []any{},
		SKU:                          sku,
		Grams:                        0,
		Vendor:                       vendor,
		Taxable:                      true,
		ProductHasOnlyDefaultVariant: it.VariantTitle == "",
		GiftCard:                     false,
		FinalPrice:                   unit,
		FinalLinePrice:               line,
		URL:                          productURL(it),
		Image:                        it.Image,
		Handle:                       it.Handle,
		RequiresShipping:             true,
		ProductType:                  it.ProductType,
		ProductTitle:                 it.Title,
		ProductDescription:           it.Description,
		VariantTitle:                 &variantTitle,
		VariantOptions:               []string{variantTitle},
		OptionsWithValues:            []OptionValue{{Name: "Title", Value: variantTitle}},
		LineLevelDiscountAllocations: []any{},
		LineLevelTotalDiscount:       0,
		HasComponents:                false,
	}
	if it.Image != "" {
		item.FeaturedImage = &FeaturedImage{
			AspectRatio: 1,
			Alt:         it.Title,
			Height:      600,
			URL:         it.Image,
			Width:       600,
		}
	}
	return item
}

// productURL yields the canonical relative product URL the provider
// displays on the checkout page.
func productURL(it model.CartItem) string {
	if it.Handle != "" {
		return "/products/" + it.Handle
	}
	return strings.TrimSuffix(it.URL, "/index.html")
}

// newHash mints a random 32-char lowercase hex token matching the
// shape of real storefront cart tokens.
func newHash() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
