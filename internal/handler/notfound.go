package handler

import "net/http"

// NotFound renders the 404 page for any unregistered path.
func (rd *Renderer) NotFound(w http.ResponseWriter, r *http.Request) {
	rd.Render(w, r, "notfound", http.StatusNotFound, notFoundView{
		Base: rd.Base(w, r, "Page Not Found"),
		Path: r.URL.Path,
	})
}

type notFoundView struct {
	Base
	Path string
}
