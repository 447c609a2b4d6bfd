package steamtrade

// DescriptionFilter gets an AssetDescription and returns true if the
// item meets its condition, false otherwise
type DescriptionFilter func(*AssetDescription) bool

// IsTradable returns a DescriptionFilter for the tradable flag
func IsTradable(st bool) DescriptionFilter {
	return func(desc *AssetDescription) bool {
		return (desc.Tradable == 1) == st
	}
}

// IsMarketable returns a DescriptionFilter for the marketable flag
func IsMarketable(st bool) DescriptionFilter {
	return func(desc *AssetDescription) bool {
		return (desc.Marketable == 1) == st
	}
}

// HasTag returns a DescriptionFilter matching a tag category and its
// localized tag name
func HasTag(category, localizedName string) DescriptionFilter {
	return func(desc *AssetDescription) bool {
		for _, tag := range desc.Tags {
			if tag.Category == category && tag.LocalizedTagName == localizedName {
				return true
			}
		}

		return false
	}
}

// FilterDescriptions returns the descriptions passing all filters, in
// snapshot order.
func (inv *Inventory) FilterDescriptions(filters ...DescriptionFilter) []AssetDescription {
	results := []AssetDescription{}

	for _, desc := range inv.Descriptions {
		keep := true
		for _, filter := range filters {
			if !filter(&desc) {
				keep = false

				break
			}
		}

		if keep {
			results = append(results, desc)
		}
	}

	return results
}
