// Package mapping pairs mirrored products with the checkout provider's
// product records. The provider's dashboard exports one hosted
// checkout link per product; the UUID inside each link identifies the
// product on the provider side and is stored keyed by handle.
package mapping

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// MappingFile is the store-config file the product map lives in.
const MappingFile = "config.json"

var uuidPattern = regexp.MustCompile(`checkout/([0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12})`)

// ExtractIDs reads provider checkout links, one per line, and returns
// the product UUIDs in order of first appearance.
func ExtractIDs(r io.Reader) ([]string, error) {
	var ids []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		m := uuidPattern.FindStringSubmatch(line)
		if m == nil {
			return nil, fmt.Errorf("no checkout UUID in line %q", line)
		}
		if !seen[m[1]] {
			seen[m[1]] = true
			ids = append(ids, m[1])
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// Handles lists the mirrored product handles, sorted. Each product is
// a directory under products/ in the clone.
func Handles(siteFS afero.Fs) ([]string, error) {
	entries, err := afero.ReadDir(siteFS, "products")
	if err != nil {
		return nil, fmt.Errorf("listing mirrored products: %w", err)
	}

	var handles []string
	for _, e := range entries {
		if e.IsDir() {
			handles = append(handles, e.Name())
		}
	}
	sort.Strings(handles)
	return handles, nil
}

// Pair matches handles to provider IDs positionally. The pairing only
// makes sense 1:1; a count mismatch means the export and the mirror
// have drifted apart and pairing anyway would mislabel products.
func Pair(handles, ids []string) (map[string]string, error) {
	if len(handles) != len(ids) {
		return nil, fmt.Errorf("%d mirrored products but %d checkout links; re-export or re-mirror before mapping", len(handles), len(ids))
	}
	m := make(map[string]string, len(handles))
	for i, h := range handles {
		m[h] = ids[i]
	}
	return m, nil
}

// Write stores the product map in the store-config file, preserving
// whatever other keys the file already carries.
func Write(fs afero.Fs, productMap map[string]string) error {
	doc := make(map[string]json.RawMessage)
	if data, err := afero.ReadFile(fs, MappingFile); err == nil {
		if err := json.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parsing existing %s: %w", MappingFile, err)
		}
	}

	encoded, err := json.Marshal(productMap)
	if err != nil {
		return err
	}
	doc["productMapping"] = encoded

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return afero.WriteFile(fs, MappingFile, append(out, '\n'), 0o644)
}

// Read loads the product map from the store-config file. A missing
// file or key yields an empty map.
func Read(fs afero.Fs) (map[string]string, error) {
	data, err := afero.ReadFile(fs, MappingFile)
	if err != nil {
		return map[string]string{}, nil
	}

	var doc struct {
		ProductMapping map[string]string `json:"productMapping"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", MappingFile, err)
	}
	if doc.ProductMapping == nil {
		doc.ProductMapping = map[string]string{}
	}
	return doc.ProductMapping, nil
}
