package api

import (
	"fmt"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi/v5"

	"github.com/shakilemon73/Tni-news-sub001/internal/article"
	"github.com/shakilemon73/Tni-news-sub001/internal/render"
	"github.com/shakilemon73/Tni-news-sub001/internal/store/memory"
)

func ExamplePreviewHandler_Get() {
	s := memory.New(article.Article{
		ID:      "1",
		Slug:    "pm-visits-dhaka",
		Title:   "PM visits Dhaka",
		Excerpt: "The prime minister opened a bridge.",
		Status:  article.StatusPublished,
	})
	h := NewPreviewHandler(article.NewResolver(s, nil), nil, render.New(render.Options{SiteName: "TNI"}), "https://site", nil)

	r := chi.NewRouter()
	r.Get("/api/preview/{identifier}", h.Get)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/preview/pm-visits-dhaka", nil))

	fmt.Println(rec.Code)
	fmt.Print(rec.Body.String())
	// Output:
	// 200
	// {"preview":{"id":"1","slug":"pm-visits-dhaka","title":"PM visits Dhaka","page_title":"PM visits Dhaka | TNI","description":"The prime minister opened a bridge.","canonical_url":"https://site/article/pm-visits-dhaka","image":"https://site/og-default.png","image_type":"image/png","site_name":"TNI"}}
}
