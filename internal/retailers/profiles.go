package retailers

import "time"

// profiles is the curated retailer table, in priority order. Rank gaps leave
// room for inserting retailers without renumbering.
var profiles = []*Profile{
	{
		ID:                     "tesco",
		DisplayName:            "Tesco",
		PriorityRank:           10,
		DefaultDelay:           8 * time.Second,
		DefaultTimeout:         25 * time.Second,
		NeedsBrowserFallback:   true,
		PreferExternalRenderer: true,
		StrictWindow:           true,
		StrictWindowRequests:   12,
		WarmupPaths:            []string{"/", "/groceries/en-GB/shop/fresh-food"},
	},
	{
		ID:                   "sainsburys",
		DisplayName:          "Sainsbury's",
		PriorityRank:         20,
		DefaultDelay:         6 * time.Second,
		DefaultTimeout:       25 * time.Second,
		NeedsBrowserFallback: true,
		Aliases:              []string{"sainsbury's", "sainsbury", "sainsburys.co.uk"},
	},
	{
		ID:                     "asda",
		DisplayName:            "Asda",
		PriorityRank:           30,
		DefaultDelay:           6 * time.Second,
		DefaultTimeout:         25 * time.Second,
		NeedsBrowserFallback:   true,
		PreferExternalRenderer: true,
	},
	{
		ID:             "morrisons",
		DisplayName:    "Morrisons",
		PriorityRank:   40,
		DefaultDelay:   5 * time.Second,
		DefaultTimeout: 20 * time.Second,
		Aliases:        []string{"wm morrisons", "morrisons.com"},
	},
	{
		ID:                   "ocado",
		DisplayName:          "Ocado",
		PriorityRank:         50,
		DefaultDelay:         5 * time.Second,
		DefaultTimeout:       25 * time.Second,
		NeedsBrowserFallback: true,
		SkipExternalRenderer: true,
		WarmupPaths:          []string{"/", "/browse/fresh-20002"},
	},
	{
		ID:             "waitrose",
		DisplayName:    "Waitrose",
		PriorityRank:   60,
		DefaultDelay:   5 * time.Second,
		DefaultTimeout: 20 * time.Second,
		Aliases:        []string{"waitrose & partners", "waitrose and partners"},
	},
	{
		ID:             "aldi",
		DisplayName:    "Aldi",
		PriorityRank:   70,
		DefaultDelay:   4 * time.Second,
		DefaultTimeout: 20 * time.Second,
		SkipBrowser:    true,
	},
	{
		ID:             "lidl",
		DisplayName:    "Lidl",
		PriorityRank:   80,
		DefaultDelay:   4 * time.Second,
		DefaultTimeout: 20 * time.Second,
	},
	{
		ID:             "iceland",
		DisplayName:    "Iceland",
		PriorityRank:   90,
		DefaultDelay:   4 * time.Second,
		DefaultTimeout: 20 * time.Second,
		Aliases:        []string{"iceland foods"},
	},
	{
		ID:             "coop",
		DisplayName:    "Co-op",
		PriorityRank:   100,
		DefaultDelay:   4 * time.Second,
		DefaultTimeout: 20 * time.Second,
		Aliases:        []string{"co-op", "co op", "the co-operative"},
	},
	{
		ID:               "boots",
		DisplayName:      "Boots",
		PriorityRank:     110,
		DefaultDelay:     4 * time.Second,
		DefaultTimeout:   20 * time.Second,
		URLHasCategories: true,
	},
	{
		ID:               "superdrug",
		DisplayName:      "Superdrug",
		PriorityRank:     120,
		DefaultDelay:     4 * time.Second,
		DefaultTimeout:   20 * time.Second,
		URLHasCategories: true,
	},
	{
		ID:               "savers",
		DisplayName:      "Savers",
		PriorityRank:     130,
		DefaultDelay:     3 * time.Second,
		DefaultTimeout:   20 * time.Second,
		URLHasCategories: true,
		Aliases:          []string{"savers health & beauty"},
	},
	{
		ID:             "wilko",
		DisplayName:    "Wilko",
		PriorityRank:   140,
		DefaultDelay:   3 * time.Second,
		DefaultTimeout: 20 * time.Second,
	},
	{
		ID:             "bmstores",
		DisplayName:    "B&M",
		PriorityRank:   150,
		DefaultDelay:   3 * time.Second,
		DefaultTimeout: 20 * time.Second,
		Aliases:        []string{"b&m", "b and m", "b&m stores"},
	},
	{
		ID:             "homebargains",
		DisplayName:    "Home Bargains",
		PriorityRank:   160,
		DefaultDelay:   3 * time.Second,
		DefaultTimeout: 20 * time.Second,
		Aliases:        []string{"home bargains"},
	},
	{
		ID:             "poundland",
		DisplayName:    "Poundland",
		PriorityRank:   170,
		DefaultDelay:   3 * time.Second,
		DefaultTimeout: 20 * time.Second,
	},
	{
		ID:                   "amazon",
		DisplayName:          "Amazon",
		PriorityRank:         180,
		DefaultDelay:         10 * time.Second,
		DefaultTimeout:       25 * time.Second,
		SkipBrowser:          true,
		SkipExternalRenderer: true,
		Aliases:              []string{"amazon uk", "amazon.co.uk"},
	},
}
