package parser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shelfsync/backend/internal/domain"
)

const productPageHTML = `<!DOCTYPE html>
<html>
<head>
<script type="application/ld+json">
[{"@context":"https://schema.org","@type":"Product","name":"Nivea Soft крем 200 мл",
  "brand":{"@type":"Brand","name":"Nivea"},"sku":"8825","gtin13":"4005900009463",
  "image":["https://benu.bg/media/cache/product_view_default/images/products/1/nivea.jpg","/uploads/images/products/1/nivea-2.jpg"],
  "offers":[{"@type":"Offer","price":"5.10","priceCurrency":"EUR","availability":"https://schema.org/InStock"}]},
 {"@type":"BreadcrumbList","itemListElement":[
   {"@type":"ListItem","position":1,"name":"Начало"},
   {"@type":"ListItem","position":2,"name":"Козметика"},
   {"@type":"ListItem","position":3,"item":{"name":"Грижа за тяло"}},
   {"@type":"ListItem","position":4,"name":"Nivea Soft крем 200 мл"}]}]
</script>
<script>var dl4Objects = [{"event":"view"},{"item_name":"Nivea Soft крем 200 мл","item_brand":"Nivea","item_id":8825,"price":5.1,"item_category":"Козметика","item_stock_status":"in stock"}];</script>
</head>
<body>
<nav aria-label="breadcrumb"><a href="/">Начало</a><a href="/kozmetika">Козметика</a><a href="/grizha">Грижа за тяло</a></nav>
<h1>Nivea Soft крем 200 мл</h1>
<div class="product-info"><div class="product-prices">9,97 лв. 5,10 €</div></div>
<div class="site-gallery"><img src="/media/cache/product_view_default/images/products/1/nivea.jpg"><img data-src="/images/icons/heart.svg"></div>
<add-to-cart :product="{&quot;price&quot;: 6.00, &quot;variants&quot;: [{&quot;price&quot;: 6.00, &quot;discountedPrice&quot;: 5.10}]}"></add-to-cart>
<div itemprop="description"><ul><li>Интензивно хидратира кожата</li><li>къс</li></ul></div>
<table class="additional-attributes"><tr><th>Тегло</th><td>200 мл</td></tr></table>
<div class="tabs">
<h2>Какво представлява</h2>
<p>Лек овлажняващ крем за лице, ръце и тяло. Подходящ за ежедневна употреба.</p>
<h2>Активни съставки</h2>
<p>Aqua, Glycerin, Jojoba oil</p>
<h2>Дозировка и начин на употреба</h2>
<p>Нанесете върху чиста кожа.</p>
<p>Попитай магистър-фармацевт</p>
<h2>Допълнителна информация</h2>
<p>Баркод : 4005900009463</p>
<h2>Все още няма ревюта</h2>
</div>
<p>В наличност</p>
</body>
</html>`

func loadPage(t *testing.T, rawHTML string) *Page {
	t.Helper()
	raw, err := domain.NewRawPage("https://benu.bg/nivea-soft-krem-200-ml", rawHTML)
	require.NoError(t, err)
	page, err := Load(raw)
	require.NoError(t, err)
	return page
}

type stubBrands map[string]string

func (s stubBrands) MatchFromTitle(title string) string {
	return s[title]
}
