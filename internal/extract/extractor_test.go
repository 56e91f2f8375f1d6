package extract

import (
	"testing"
)

const tescoJSONLD = `<!DOCTYPE html>
<html>
<head>
    <title>Whole Milk 2L - Tesco Groceries</title>
    <script type="application/ld+json">
    {"@context":"https://schema.org","@type":"BreadcrumbList","itemListElement":[
        {"@type":"ListItem","position":1,"name":"Home","item":"https://www.tesco.com/"},
        {"@type":"ListItem","position":2,"name":"Groceries","item":"https://www.tesco.com/groceries"},
        {"@type":"ListItem","position":3,"name":"Fresh Food","item":"https://www.tesco.com/groceries/fresh-food"},
        {"@type":"ListItem","position":4,"name":"Dairy","item":"https://www.tesco.com/groceries/fresh-food/dairy"},
        {"@type":"ListItem","position":5,"name":"Milk","item":"https://www.tesco.com/groceries/fresh-food/dairy/milk"}
    ]}
    </script>
</head>
<body><h1>Whole Milk 2L</h1></body>
</html>`

func TestExtractJSONLD(t *testing.T) {
	t.Run("breadcrumb list", func(t *testing.T) {
		result, err := Extract([]byte(tescoJSONLD), "https://www.tesco.com/groceries/en-GB/products/254656543", "tesco")
		if err != nil {
			t.Fatalf("Extract returned error: %v", err)
		}
		if result == nil {
			t.Fatal("expected a result")
		}
		want := []string{"Home", "Fresh Food", "Dairy", "Milk"}
		if !equalStrings(result.Breadcrumbs, want) {
			t.Errorf("breadcrumbs = %v, want %v", result.Breadcrumbs, want)
		}
		if result.Method != MethodJSONLD {
			t.Errorf("method = %q, want %q", result.Method, MethodJSONLD)
		}
		if result.Score < 70 {
			t.Errorf("score = %d, want >= 70", result.Score)
		}
	})

	t.Run("graph wrapper", func(t *testing.T) {
		html := `<html><head><script type="application/ld+json">
		{"@context":"https://schema.org","@graph":[
			{"@type":"WebSite","name":"Shop"},
			{"@type":"BreadcrumbList","itemListElement":[
				{"@type":"ListItem","position":1,"name":"Fresh Food"},
				{"@type":"ListItem","position":2,"name":"Dairy"},
				{"@type":"ListItem","position":3,"name":"Cheese"}
			]}
		]}</script></head><body></body></html>`
		result, err := Extract([]byte(html), "https://example.com/p/1", "sainsburys")
		if err != nil {
			t.Fatalf("Extract returned error: %v", err)
		}
		if result == nil || !equalStrings(result.Breadcrumbs, []string{"Fresh Food", "Dairy", "Cheese"}) {
			t.Errorf("got %+v, want Fresh Food > Dairy > Cheese", result)
		}
	})

	t.Run("positions out of order", func(t *testing.T) {
		html := `<html><head><script type="application/ld+json">
		{"@type":"BreadcrumbList","itemListElement":[
			{"@type":"ListItem","position":3,"name":"Milk"},
			{"@type":"ListItem","position":1,"name":"Fresh Food"},
			{"@type":"ListItem","position":2,"name":"Dairy"}
		]}</script></head><body></body></html>`
		result, err := Extract([]byte(html), "https://example.com/p/1", "tesco")
		if err != nil {
			t.Fatalf("Extract returned error: %v", err)
		}
		if result == nil || !equalStrings(result.Breadcrumbs, []string{"Fresh Food", "Dairy", "Milk"}) {
			t.Errorf("got %+v, want position order", result)
		}
	})

	t.Run("product category string", func(t *testing.T) {
		html := `<html><head><script type="application/ld+json">
		{"@type":"Product","name":"Cheddar","category":"Fresh Food > Dairy > Cheese"}
		</script></head><body></body></html>`
		result, err := Extract([]byte(html), "https://example.com/p/1", "waitrose")
		if err != nil {
			t.Fatalf("Extract returned error: %v", err)
		}
		if result == nil || !equalStrings(result.Breadcrumbs, []string{"Fresh Food", "Dairy", "Cheese"}) {
			t.Errorf("got %+v, want split category", result)
		}
	})
}

func TestExtractMicrodata(t *testing.T) {
	html := `<html><body>
	<nav itemscope itemtype="https://schema.org/BreadcrumbList">
		<span itemprop="itemListElement"><a><span itemprop="name">Home</span></a></span>
		<span itemprop="itemListElement"><a><span itemprop="name">Bakery</span></a></span>
		<span itemprop="itemListElement"><a><span itemprop="name">Bread</span></a></span>
	</nav></body></html>`
	result, err := Extract([]byte(html), "https://example.com/p/1", "iceland")
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if result == nil || !equalStrings(result.Breadcrumbs, []string{"Home", "Bakery", "Bread"}) {
		t.Errorf("got %+v, want Home > Bakery > Bread", result)
	}
}

func TestExtractDOM(t *testing.T) {
	t.Run("breadcrumb nav", func(t *testing.T) {
		html := `<html><body>
		<nav aria-label="Breadcrumb">
			<a href="/">Home</a>
			<a href="/frozen">Frozen</a>
			<a href="/frozen/pizza">Pizza</a>
		</nav></body></html>`
		result, err := Extract([]byte(html), "https://example.com/p/1", "iceland")
		if err != nil {
			t.Fatalf("Extract returned error: %v", err)
		}
		if result == nil || !equalStrings(result.Breadcrumbs, []string{"Home", "Frozen", "Pizza"}) {
			t.Errorf("got %+v, want Home > Frozen > Pizza", result)
		}
	})

	t.Run("single stray link rejected", func(t *testing.T) {
		html := `<html><body><nav aria-label="Breadcrumb"><a href="/">Back</a></nav></body></html>`
		result, err := Extract([]byte(html), "https://example.com/p/1", "iceland")
		if err != nil {
			t.Fatalf("Extract returned error: %v", err)
		}
		if result != nil {
			t.Errorf("expected no result, got %+v", result)
		}
	})
}

func TestExtractEmbeddedJS(t *testing.T) {
	html := `<html><body><script>
	window.app = {"product":{"breadcrumbs":[{"name":"Food Cupboard"},{"name":"Pasta"},{"name":"Spaghetti"}]}};
	</script></body></html>`
	result, err := Extract([]byte(html), "https://example.com/p/1", "morrisons")
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if result == nil || !equalStrings(result.Breadcrumbs, []string{"Food Cupboard", "Pasta", "Spaghetti"}) {
		t.Errorf("got %+v, want Food Cupboard > Pasta > Spaghetti", result)
	}
}

func TestExtractWindowState(t *testing.T) {
	html := `<html><body><script>
	window.__INITIAL_STATE__ = {"bop":{"details":{"data":{"breadcrumbs":[
		{"name":"Fresh"},{"name":"Meat & Poultry"},{"name":"Chicken"}
	]}}}};
	</script></body></html>`
	result, err := Extract([]byte(html), "https://groceries.morrisons.com/products/1", "morrisons")
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if result == nil || !equalStrings(result.Breadcrumbs, []string{"Fresh", "Meat & Poultry", "Chicken"}) {
		t.Errorf("got %+v, want window state breadcrumbs", result)
	}
	if result.Method != MethodWindowState {
		t.Errorf("method = %q, want %q", result.Method, MethodWindowState)
	}
}

func TestExtractTitle(t *testing.T) {
	html := `<html><head><title>Spaghetti 500g | Pasta | Food Cupboard | Example Shop</title></head>
	<body><p>something</p></body></html>`
	result, err := Extract([]byte(html), "https://example.com/p/1", "lidl")
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if result == nil {
		t.Fatal("expected a result from the title heuristic")
	}
	if !equalStrings(result.Breadcrumbs, []string{"Pasta", "Food Cupboard"}) {
		t.Errorf("got %v, want middle title segments", result.Breadcrumbs)
	}
}

func TestExtractURLPath(t *testing.T) {
	t.Run("opted in retailer", func(t *testing.T) {
		result, err := Extract([]byte("<html><body></body></html>"),
			"https://www.boots.com/health-beauty/cough-cold-flu/day-night-capsules-10203045", "boots")
		if err != nil {
			t.Fatalf("Extract returned error: %v", err)
		}
		if result == nil {
			t.Fatal("expected URL-derived breadcrumbs")
		}
		want := []string{"Health & Beauty", "Cough, Cold & Flu"}
		if !equalStrings(result.Breadcrumbs, want) {
			t.Errorf("breadcrumbs = %v, want %v", result.Breadcrumbs, want)
		}
		if result.Method != MethodURLPath {
			t.Errorf("method = %q, want %q", result.Method, MethodURLPath)
		}
	})

	t.Run("not opted in", func(t *testing.T) {
		result, err := Extract([]byte("<html><body></body></html>"),
			"https://www.tesco.com/groceries/fresh-food/dairy/milk-12345", "tesco")
		if err != nil {
			t.Fatalf("Extract returned error: %v", err)
		}
		if result != nil {
			t.Errorf("tesco must never get URL-inferred breadcrumbs, got %+v", result)
		}
	})
}

func TestExtractNothing(t *testing.T) {
	result, err := Extract([]byte("<html><body><p>hello</p></body></html>"), "https://example.com/p/1", "asda")
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if result != nil {
		t.Errorf("expected nil result for a page with no breadcrumbs, got %+v", result)
	}
}

func equalStrings(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func BenchmarkExtractJSONLD(b *testing.B) {
	body := []byte(tescoJSONLD)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Extract(body, "https://www.tesco.com/groceries/en-GB/products/254656543", "tesco"); err != nil {
			b.Fatal(err)
		}
	}
}
