package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"handmade/internal/domain"
	"handmade/internal/services"
)

func addToCart(t *testing.T, ta *testApp, sid, pid string) *http.Response {
	t.Helper()
	return ta.do(t, http.MethodPost, "/api/v1/cart", `{"productId":"`+pid+`"}`, sid)
}

func TestCartRequiresLogin(t *testing.T) {
	ta := newTestApp(t, testConfig())
	assert.Equal(t, http.StatusUnauthorized, ta.do(t, http.MethodGet, "/api/v1/cart", "", "").StatusCode)
	assert.Equal(t, http.StatusUnauthorized, addToCart(t, ta, "", "p-vase").StatusCode)
	assert.Equal(t, http.StatusUnauthorized, ta.do(t, http.MethodPost, "/api/v1/checkout", "", "").StatusCode)
}

func TestCheckoutTotalsUseCartPrices(t *testing.T) {
	ta := newTestApp(t, testConfig())
	alice := ta.login(t, "alice@handmade.test")

	require.Equal(t, http.StatusCreated, addToCart(t, ta, alice, "p-vase").StatusCode)
	require.Equal(t, http.StatusCreated, addToCart(t, ta, alice, "p-vase").StatusCode)
	require.Equal(t, http.StatusCreated, addToCart(t, ta, alice, "p-bowl").StatusCode)

	cv := decode[services.CartView](t, ta.do(t, http.MethodGet, "/api/v1/cart", "", alice))
	assert.Equal(t, 1280.0, cv.Total)
	assert.Equal(t, 3, cv.Count)

	av := decode[domain.Availability](t, ta.do(t, http.MethodGet, "/api/v1/availability?productId=p-vase", "", ""))
	assert.Equal(t, 4, av.Qty)

	// a later price change does not touch what is already in the cart
	_, err := ta.db.Exec(`UPDATE products SET price = 999 WHERE id = 'p-vase'`)
	require.NoError(t, err)

	resp := ta.do(t, http.MethodPost, "/api/v1/checkout", `{"name":"Alice A.","email":"alice@handmade.test"}`, alice)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	order := decode[domain.Order](t, resp)
	assert.Equal(t, 1280.0, order.Total)
	assert.Equal(t, domain.OrderPlaced, order.Status)
	assert.Equal(t, "Alice A.", order.CustomerName)
	assert.Len(t, order.Items, 2)

	empty := decode[services.CartView](t, ta.do(t, http.MethodGet, "/api/v1/cart", "", alice))
	assert.Empty(t, empty.Items)

	orders := decode[[]domain.Order](t, ta.do(t, http.MethodGet, "/api/v1/orders", "", alice))
	require.Len(t, orders, 1)
	assert.Equal(t, order.ID, orders[0].ID)

	again := ta.do(t, http.MethodPost, "/api/v1/checkout", "", alice)
	assert.Equal(t, http.StatusConflict, again.StatusCode)
}

func TestCartRejectsUnavailableProducts(t *testing.T) {
	ta := newTestApp(t, testConfig())
	alice := ta.login(t, "alice@handmade.test")

	assert.Equal(t, http.StatusConflict, addToCart(t, ta, alice, "p-ring").StatusCode)
	assert.Equal(t, http.StatusNotFound, addToCart(t, ta, alice, "p-scarf").StatusCode)
	assert.Equal(t, http.StatusNotFound, addToCart(t, ta, alice, "p-nope").StatusCode)

	// p-mug has two left
	require.Equal(t, http.StatusCreated, addToCart(t, ta, alice, "p-mug").StatusCode)
	require.Equal(t, http.StatusCreated, addToCart(t, ta, alice, "p-mug").StatusCode)
	resp := addToCart(t, ta, alice, "p-mug")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.NotEmpty(t, errorOf(t, resp))
}

func TestCartRemoveRestoresStock(t *testing.T) {
	ta := newTestApp(t, testConfig())
	bob := ta.login(t, "bob@handmade.test")

	require.Equal(t, http.StatusCreated, addToCart(t, ta, bob, "p-bowl").StatusCode)
	assert.Equal(t, http.StatusNoContent, ta.do(t, http.MethodDelete, "/api/v1/cart/p-bowl", "", bob).StatusCode)
	assert.Equal(t, http.StatusNotFound, ta.do(t, http.MethodDelete, "/api/v1/cart/p-bowl", "", bob).StatusCode)

	av := decode[domain.Availability](t, ta.do(t, http.MethodGet, "/api/v1/availability?productId=p-bowl", "", ""))
	assert.Equal(t, 8, av.Qty)
	assert.Equal(t, domain.InStock, av.Status)
}

func TestFavoritesAndFeedback(t *testing.T) {
	ta := newTestApp(t, testConfig())
	carol := ta.login(t, "carol@handmade.test")

	on := decode[map[string]any](t, ta.do(t, http.MethodPost, "/api/v1/favorites/p-bowl/toggle", "", carol))
	assert.Equal(t, true, on["favorite"])
	favs := decode[[]domain.Favorite](t, ta.do(t, http.MethodGet, "/api/v1/favorites", "", carol))
	require.Len(t, favs, 1)
	assert.Equal(t, "Olive Wood Bowl", favs[0].Title)

	card := decode[domain.ProductCard](t, ta.do(t, http.MethodGet, "/api/v1/products/p-bowl", "", carol))
	assert.True(t, card.Favorite)
	assert.Equal(t, 3.0, card.AverageRating)

	off := decode[map[string]any](t, ta.do(t, http.MethodPost, "/api/v1/favorites/p-bowl/toggle", "", carol))
	assert.Equal(t, false, off["favorite"])

	resp := ta.do(t, http.MethodPost, "/api/v1/products/p-bowl/feedback", `{"rating":4,"comment":"Lovely grain"}`, carol)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	card = decode[domain.ProductCard](t, ta.do(t, http.MethodGet, "/api/v1/products/p-bowl", "", ""))
	assert.Equal(t, 3.5, card.AverageRating)

	rows := decode[[]domain.Feedback](t, ta.do(t, http.MethodGet, "/api/v1/products/p-bowl/feedback", "", ""))
	assert.Len(t, rows, 2)
}
