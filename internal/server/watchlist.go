package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"coindeck/internal/domain"
	"coindeck/internal/watchlist"
)

type watchlistEntryResponse struct {
	CoinID    string    `json:"coin_id"`
	Name      string    `json:"name"`
	Symbol    string    `json:"symbol"`
	ImageURL  string    `json:"image_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Server) getWatchlist(c *gin.Context) {
	entries, err := s.watch.ListWatchlist(c.Request.Context(), s.currentUserID(c))
	if err != nil {
		s.storageError(c, err)
		return
	}

	resp := make([]watchlistEntryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, watchlistEntryResponse{
			CoinID:    e.CoinID,
			Name:      e.Name,
			Symbol:    e.Symbol,
			ImageURL:  e.ImageURL,
			CreatedAt: e.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"watchlist": resp})
}

// toggleWatchlist flips one coin's membership. The response reports the
// resulting state so the UI can render the star without a refetch.
func (s *Server) toggleWatchlist(c *gin.Context) {
	var req struct {
		Name     string `json:"name"`
		Symbol   string `json:"symbol"`
		ImageURL string `json:"image_url"`
	}
	// Body is optional; metadata only matters when adding.
	_ = c.ShouldBindJSON(&req)

	userID := s.currentUserID(c)
	coinID := c.Param("coinID")

	entries, err := s.watch.ListWatchlist(c.Request.Context(), userID)
	if err != nil {
		s.storageError(c, err)
		return
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.CoinID)
	}
	current := watchlist.NewSet(ids...)
	next := watchlist.Toggle(coinID, current)

	if watchlist.IsWatched(coinID, next) {
		entry := domain.WatchlistEntry{
			UserID:   userID,
			CoinID:   coinID,
			Name:     req.Name,
			Symbol:   req.Symbol,
			ImageURL: req.ImageURL,
		}
		if err := s.watch.InsertWatchlistEntry(c.Request.Context(), entry); err != nil {
			s.storageError(c, err)
			return
		}
	} else {
		if _, err := s.watch.DeleteWatchlistEntry(c.Request.Context(), userID, coinID); err != nil {
			s.storageError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"coin_id": coinID, "watched": watchlist.IsWatched(coinID, next)})
}
