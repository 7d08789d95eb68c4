package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/dunglas/httpsfv"
)

// Browser identifies the requesting browser from the Sec-CH-UA client
// hint, falling back to the classic User-Agent. Sec-CH-UA is an HTTP
// structured-field list of brand/version pairs padded with a GREASE
// brand; the first real brand wins.
func Browser(r *http.Request) string {
	hint := r.Header.Get("Sec-CH-UA")
	if hint == "" {
		return r.UserAgent()
	}

	list, err := httpsfv.UnmarshalList([]string{hint})
	if err != nil {
		return r.UserAgent()
	}

	for _, member := range list {
		item, ok := member.(httpsfv.Item)
		if !ok {
			continue
		}
		brand, ok := item.Value.(string)
		if !ok || isGreaseBrand(brand) {
			continue
		}
		if v, ok := item.Params.Get("v"); ok {
			if version, ok := v.(string); ok {
				return fmt.Sprintf("%s/%s", brand, version)
			}
		}
		return brand
	}
	return r.UserAgent()
}

// isGreaseBrand filters the intentionally-meaningless brands browsers
// inject to keep parsers honest, e.g. `"Not;A=Brand"`.
func isGreaseBrand(brand string) bool {
	lower := strings.ToLower(brand)
	return strings.Contains(lower, "not") && strings.Contains(lower, "brand")
}
