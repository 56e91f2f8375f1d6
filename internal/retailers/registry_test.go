package retailers

import (
	"testing"

	"github.com/aislescout/aislescout/internal/types"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want types.RetailerID
	}{
		{"tesco", "tesco"},
		{"Tesco", "tesco"},
		{"  Tesco  ", "tesco"},
		{"Sainsbury's", "sainsburys"},
		{"sainsbury's", "sainsburys"},
		{"Sainsburys", "sainsburys"},
		{"Co-op", "coop"},
		{"The Co-operative", "coop"},
		{"B&M", "bmstores"},
		{"Home Bargains", "homebargains"},
		{"ASDA", "asda"},
		{"Some New Shop", "somenewshop"},
	}
	for _, tc := range cases {
		if got := Normalize(tc.in); got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestGet(t *testing.T) {
	t.Run("curated profile", func(t *testing.T) {
		p := Get("tesco")
		if p.DisplayName != "Tesco" {
			t.Errorf("DisplayName = %q", p.DisplayName)
		}
		if !p.NeedsBrowserFallback {
			t.Error("tesco should have the browser fallback")
		}
	})

	t.Run("unknown retailer gets defaults", func(t *testing.T) {
		p := Get("cornershop")
		if p.ID != "cornershop" {
			t.Errorf("ID = %q", p.ID)
		}
		if p.DefaultDelay <= 0 || p.DefaultTimeout <= 0 {
			t.Error("default profile must carry usable delay and timeout")
		}
		if Known("cornershop") {
			t.Error("unknown retailer reported as known")
		}
	})
}

func TestSortByPriority(t *testing.T) {
	got := SortByPriority([]types.RetailerID{"aldi", "unknownshop", "tesco", "asda"})
	want := []types.RetailerID{"tesco", "asda", "aldi", "unknownshop"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestProfileInvariants(t *testing.T) {
	seen := make(map[int]types.RetailerID)
	for _, p := range All() {
		if p.DefaultDelay <= 0 {
			t.Errorf("%s: non-positive delay", p.ID)
		}
		if p.DefaultTimeout <= 0 {
			t.Errorf("%s: non-positive timeout", p.ID)
		}
		if other, dup := seen[p.PriorityRank]; dup {
			t.Errorf("%s and %s share priority rank %d", p.ID, other, p.PriorityRank)
		}
		seen[p.PriorityRank] = p.ID
		if p.StrictWindow && p.StrictWindowRequests <= 0 {
			t.Errorf("%s: strict window without a request budget", p.ID)
		}
		if p.SkipBrowser && p.NeedsBrowserFallback {
			t.Errorf("%s: browser both required and skipped", p.ID)
		}
	}
}
