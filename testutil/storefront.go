package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/iksnae/genie/internal"
)

// Book is a catalog entry of the fake storefront
type Book struct {
	Title  string
	Author string
	Price  float64
}

// DefaultCatalog is the catalog every fake storefront starts with
var DefaultCatalog = []Book{
	{Title: "Dune", Author: "Frank Herbert", Price: 449},
	{Title: "Emma", Author: "Jane Austen", Price: 299.5},
	{Title: "Ulysses", Author: "James Joyce", Price: 0},
}

type cannedResponse struct {
	status int
	body   string
}

// Storefront is an in-memory stand-in for the BookGenie service
type Storefront struct {
	Server *httptest.Server

	mu         sync.Mutex
	catalog    map[string]Book
	items      []internal.CartItem
	nextID     int
	authorized bool
	returnItem bool
	calls      map[string]int
	canned     map[string]cannedResponse
	holds      map[string]chan struct{}
	chat       func(message string) (int, string)
}

// NewStorefront starts a fake storefront that is shut down with the test
func NewStorefront(t *testing.T) *Storefront {
	t.Helper()
	s := &Storefront{
		catalog:    make(map[string]Book),
		nextID:     40,
		authorized: true,
		calls:      make(map[string]int),
		canned:     make(map[string]cannedResponse),
		holds:      make(map[string]chan struct{}),
	}
	for _, b := range DefaultCatalog {
		s.catalog[b.Title] = b
	}

	r := chi.NewRouter()
	r.Use(s.intercept)
	r.Post("/api/cart/add", s.handleAdd)
	r.Post("/api/cart/remove", s.handleRemove)
	r.Get("/api/cart/count", s.handleCount)
	r.Get("/api/cart/items", s.handleItems)
	r.Post("/api/cart/buy", s.handleBuy)
	r.Post("/api/cart/clear", s.handleClear)
	r.Post("/api/chatbot", s.handleChat)

	s.Server = httptest.NewServer(r)
	t.Cleanup(func() {
		s.releaseAll()
		s.Server.Close()
	})
	return s
}

// URL returns the base URL of the fake
func (s *Storefront) URL() string {
	return s.Server.URL
}

// SetAuthorized toggles whether requests carry a logged-in session
func (s *Storefront) SetAuthorized(ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authorized = ok
}

// ReturnItems makes add replies include the created item
func (s *Storefront) ReturnItems(ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.returnItem = ok
}

// Seed places items in the cart
func (s *Storefront) Seed(items ...internal.CartItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, items...)
}

// Items returns the cart as the server sees it
func (s *Storefront) Items() []internal.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]internal.CartItem(nil), s.items...)
}

// Calls returns how many requests reached path
func (s *Storefront) Calls(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[path]
}

// Respond replaces the handler of path with a fixed reply
func (s *Storefront) Respond(path string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.canned[path] = cannedResponse{status: status, body: body}
}

// Hold blocks requests to path until the returned release is called
func (s *Storefront) Hold(path string) (release func()) {
	ch := make(chan struct{})
	s.mu.Lock()
	s.holds[path] = ch
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.holds[path] == ch {
			delete(s.holds, path)
			close(ch)
		}
	}
}

// OnChat overrides the assistant
func (s *Storefront) OnChat(fn func(message string) (status int, body string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chat = fn
}

func (s *Storefront) releaseAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for path, ch := range s.holds {
		close(ch)
		delete(s.holds, path)
	}
}

func (s *Storefront) intercept(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls[r.URL.Path]++
		hold := s.holds[r.URL.Path]
		canned, hasCanned := s.canned[r.URL.Path]
		s.mu.Unlock()

		if hold != nil {
			select {
			case <-hold:
			case <-r.Context().Done():
				return
			}
		}
		if hasCanned {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(canned.status)
			_, _ = w.Write([]byte(canned.body))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Storefront) handleAdd(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid request"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.authorized {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "Unauthorized"})
		return
	}
	book, ok := s.catalog[req.Title]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "Book not found"})
		return
	}

	s.nextID++
	item := internal.CartItem{ID: strconv.Itoa(s.nextID), Title: book.Title, Author: book.Author}
	p := book.Price
	if p == 0 {
		p = 449
	}
	amount := internal.AmountFromFloat(p)
	item.Price = &amount
	s.items = append(s.items, item)

	resp := map[string]any{"success": true}
	if s.returnItem {
		resp["item"] = item
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Storefront) handleRemove(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.authorized {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "Unauthorized"})
		return
	}
	if req.ID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "No item id provided"})
		return
	}
	for i, it := range s.items {
		if it.ID == req.ID {
			s.items = append(s.items[:i], s.items[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]any{"success": true})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]any{"error": "Item not found"})
}

func (s *Storefront) handleCount(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.authorized {
		writeJSON(w, http.StatusOK, map[string]any{"count": 0})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(s.items)})
}

func (s *Storefront) handleItems(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.authorized {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "Unauthorized"})
		return
	}
	items := append([]internal.CartItem{}, s.items...)
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Storefront) handleBuy(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.authorized {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "Login required"})
		return
	}
	if len(s.items) == 0 {
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "message": "Cart is empty"})
		return
	}
	s.items = nil
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Storefront) handleClear(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.authorized {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "Unauthorized"})
		return
	}
	s.items = nil
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Storefront) handleChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	s.mu.Lock()
	authorized, chat := s.authorized, s.chat
	s.mu.Unlock()

	if chat != nil {
		status, body := chat(req.Message)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
		return
	}
	if !authorized {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"reply": "Please login first!"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reply": "You said: " + req.Message + ". (Genie replying!)"})
}
