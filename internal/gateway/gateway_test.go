package gateway

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/borisrunfast/auction-house/internal/apperror"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeAPI stands in for the remote auction service.
func fakeAPI(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, "test-api-key", testLogger())
}

func writeData(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"data": data})
}

func TestLogin(t *testing.T) {
	client := fakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/login", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ada@stud.noroff.no", body["email"])

		writeData(w, http.StatusOK, map[string]any{
			"name":        "ada",
			"email":       "ada@stud.noroff.no",
			"credits":     1000,
			"accessToken": "jwt-token",
		})
	})

	data, err := client.Login(context.Background(), "ada@stud.noroff.no", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "ada", data.Name)
	assert.Equal(t, "jwt-token", data.AccessToken)
	assert.Equal(t, 1000, data.Credits)
}

func TestLoginRemoteErrorKeepsMessage(t *testing.T) {
	client := fakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{
			"errors": []map[string]string{{"message": "Invalid email or password"}},
			"status": "Unauthorized",
		})
	})

	_, err := client.Login(context.Background(), "ada@stud.noroff.no", "wrong")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrRemote)
	assert.Equal(t, "Invalid email or password", apperror.Message(err))

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusUnauthorized, appErr.Status)
}

func TestRemoteErrorWithoutBodyGetsFallback(t *testing.T) {
	client := fakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.GetListing(context.Background(), "abc")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrRemote)
	assert.Equal(t, "An error occurred", apperror.Message(err))
}

func TestNetworkFailure(t *testing.T) {
	// A server that is already closed refuses the connection.
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	client := New(srv.URL, "", testLogger())

	_, err := client.GetListing(context.Background(), "abc")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrNetwork)
	assert.Equal(t, "Could not reach the auction service. Please try again.", apperror.Message(err))
}

func TestMalformedResponses(t *testing.T) {
	t.Run("not json", func(t *testing.T) {
		client := fakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<html>gateway timeout</html>"))
		})
		_, err := client.GetListing(context.Background(), "abc")
		assert.ErrorIs(t, err, apperror.ErrMalformed)
	})

	t.Run("missing data envelope", func(t *testing.T) {
		client := fakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"meta": map[string]int{}})
		})
		_, err := client.GetListing(context.Background(), "abc")
		assert.ErrorIs(t, err, apperror.ErrMalformed)
	})

	t.Run("login without token", func(t *testing.T) {
		client := fakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
			writeData(w, http.StatusOK, map[string]any{"name": "ada"})
		})
		_, err := client.Login(context.Background(), "a@b.c", "pw")
		assert.ErrorIs(t, err, apperror.ErrMalformed)
	})
}

func TestListListingsPagination(t *testing.T) {
	client := fakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auction/listings", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "true", q.Get("_seller"))
		assert.Equal(t, "true", q.Get("_bids"))
		assert.Equal(t, "2", q.Get("page"))
		assert.Equal(t, "12", q.Get("limit"))
		// Anonymous browsing sends no credentials.
		assert.Empty(t, r.Header.Get("Authorization"))

		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"id": "l1", "title": "Clock"}},
			"meta": map[string]any{
				"currentPage": 2,
				"pageCount":   7,
				"totalCount":  80,
			},
		})
	})

	listings, meta, err := client.ListListings(context.Background(), 2, 12)
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "Clock", listings[0].Title)
	require.NotNil(t, meta)
	assert.Equal(t, 2, meta.CurrentPage)
	assert.Equal(t, 7, meta.PageCount)
}

func TestSearchListingsEscapesQuery(t *testing.T) {
	client := fakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auction/listings/search", r.URL.Path)
		assert.Equal(t, "old clock & key", r.URL.Query().Get("q"))
		writeData(w, http.StatusOK, []map[string]any{})
	})

	_, _, err := client.SearchListings(context.Background(), "old clock & key", 1, 12)
	require.NoError(t, err)
}

func TestCreateListingSendsAuthHeaders(t *testing.T) {
	endsAt := time.Now().Add(24 * time.Hour).Truncate(time.Second)

	client := fakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auction/listings", r.URL.Path)
		assert.Equal(t, "Bearer user-token", r.Header.Get("Authorization"))
		assert.Equal(t, "test-api-key", r.Header.Get("X-Noroff-API-Key"))

		var input ListingInput
		require.NoError(t, json.NewDecoder(r.Body).Decode(&input))
		assert.Equal(t, "Clock", input.Title)
		assert.Equal(t, []string{"vintage"}, input.Tags)

		writeData(w, http.StatusCreated, map[string]any{"id": "new-id", "title": "Clock"})
	})

	listing, err := client.CreateListing(context.Background(), "user-token", ListingInput{
		Title:  "Clock",
		Tags:   []string{"vintage"},
		EndsAt: endsAt,
	})
	require.NoError(t, err)
	assert.Equal(t, "new-id", listing.ID)
}

func TestDeleteListingNoContent(t *testing.T) {
	client := fakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/auction/listings/l1", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, client.DeleteListing(context.Background(), "user-token", "l1"))
}

func TestPlaceBid(t *testing.T) {
	client := fakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auction/listings/l1/bids", r.URL.Path)

		var body map[string]int
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, 42, body["amount"])

		writeData(w, http.StatusCreated, map[string]any{"id": "l1"})
	})

	_, err := client.PlaceBid(context.Background(), "user-token", "l1", 42)
	require.NoError(t, err)
}

func TestProfileCollections(t *testing.T) {
	client := fakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auction/profiles/ada":
			writeData(w, http.StatusOK, map[string]any{"name": "ada", "credits": 900})
		case "/auction/profiles/ada/listings":
			assert.Equal(t, "true", r.URL.Query().Get("_bids"))
			writeData(w, http.StatusOK, []map[string]any{{"id": "l1"}})
		case "/auction/profiles/ada/bids":
			assert.Equal(t, "true", r.URL.Query().Get("_listings"))
			writeData(w, http.StatusOK, []map[string]any{
				{"id": "b1", "amount": 10, "listing": map[string]any{"id": "l9", "title": "Vase"}},
			})
		case "/auction/profiles/ada/wins":
			writeData(w, http.StatusOK, []map[string]any{{"id": "l2"}, {"id": "l3"}})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})

	ctx := context.Background()

	profile, err := client.GetProfile(ctx, "tok", "ada")
	require.NoError(t, err)
	assert.Equal(t, 900, profile.Credits)

	listings, err := client.ProfileListings(ctx, "tok", "ada")
	require.NoError(t, err)
	assert.Len(t, listings, 1)

	bids, err := client.ProfileBids(ctx, "tok", "ada")
	require.NoError(t, err)
	require.Len(t, bids, 1)
	require.NotNil(t, bids[0].Listing)
	assert.Equal(t, "Vase", bids[0].Listing.Title)

	wins, err := client.ProfileWins(ctx, "tok", "ada")
	require.NoError(t, err)
	assert.Len(t, wins, 2)
}
