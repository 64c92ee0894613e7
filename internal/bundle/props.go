package bundle

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shipfeedhq/shipfeed-backend/pkg/types"
)

// Known property-name vocabulary written by third-party bundle and
// subscription apps. Matching is case-sensitive exact, per app conventions.
var (
	groupKeyProps = []string{
		"_sb_bundle_id",
		"_bundle_id",
		"_bundle_key",
		"_bundle",
		"skio_bundle_id",
		"bundle_id",
	}

	parentFlagProps = []string{
		"_sb_parent",
		"_bundle_parent",
		"_bundle_root",
		"_sb_root",
		"skio_parent",
		"skio_root",
		"bundle_parent",
	}

	recipeProps = []string{
		"_sb_components",
		"_bundle_components",
		"_components",
		"components",
	}
)

// Props is a normalized view over a line item's property bag: first value wins
// when an app writes the same name twice.
type Props map[string]string

// PropsOf flattens the line item's ordered property list.
func PropsOf(li types.LineItem) Props {
	props := make(Props, len(li.Properties))
	for _, p := range li.Properties {
		if p.Name == "" {
			continue
		}
		if _, exists := props[p.Name]; exists {
			continue
		}
		props[p.Name] = propValueString(p.Value)
	}
	return props
}

func propValueString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		if v {
			return "true"
		}
		return "false"
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// GroupKey returns the bundle grouping key, or "" when no alias is present.
func (p Props) GroupKey() string {
	for _, name := range groupKeyProps {
		if v := strings.TrimSpace(p[name]); v != "" {
			return v
		}
	}
	return ""
}

// ParentFlag reports whether any parent-flag alias carries a truthy value.
func (p Props) ParentFlag() bool {
	for _, name := range parentFlagProps {
		if truthy(p[name]) {
			return true
		}
	}
	return false
}

// RecipePayload returns the first inline recipe property value, if any.
func (p Props) RecipePayload() string {
	for _, name := range recipeProps {
		if v := strings.TrimSpace(p[name]); v != "" {
			return v
		}
	}
	return ""
}

func truthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes", "y":
		return true
	default:
		return false
	}
}
