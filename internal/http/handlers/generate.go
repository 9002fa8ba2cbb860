package handlers

import "net/http"

// Generate is reserved for text-to-image generation and answers with a fixed
// placeholder URL.
func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, urlResponse{URL: "TODO"})
}
