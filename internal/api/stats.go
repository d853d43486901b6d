package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/tracker/internal/dbpool"
)

// StatsHandler serves the tracker statistics endpoint.
type StatsHandler struct {
	pool *dbpool.Pool
	log  *logrus.Logger
}

// NewStatsHandler creates a StatsHandler with the given dependencies.
func NewStatsHandler(pool *dbpool.Pool, log *logrus.Logger) *StatsHandler {
	return &StatsHandler{pool: pool, log: log}
}

// statsResponse is the JSON payload returned by the stats endpoint.
type statsResponse struct {
	Issues   int            `json:"issues"`
	ByStatus map[string]int `json:"by_status"`
	Users    int            `json:"users"`
	Labels   int            `json:"labels"`
	Comments int            `json:"comments"`
	Pool     dbpool.Usage   `json:"pool"`
}

// GetStats handles GET /api/v1/stats. Counts come from one read-only snapshot.
func (h *StatsHandler) GetStats(c *gin.Context) {
	ctx := c.Request.Context()

	tx, err := h.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		h.log.WithError(err).Error("stats: begin tx")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
		return
	}
	defer tx.Rollback(ctx) //nolint:errcheck // read-only tx, rollback is cleanup.

	resp := statsResponse{ByStatus: map[string]int{}}

	rows, err := tx.Query(ctx, `SELECT status, COUNT(*) FROM issues GROUP BY status`)
	if err != nil {
		h.log.WithError(err).Error("stats: status counts")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
		return
	}

	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			rows.Close()
			h.log.WithError(err).Error("stats: scanning status counts")
			respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
			return
		}

		resp.ByStatus[status] = n
		resp.Issues += n
	}
	rows.Close()

	if err := rows.Err(); err != nil {
		h.log.WithError(err).Error("stats: status counts")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
		return
	}

	if err := tx.QueryRow(ctx,
		`SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM labels),
			(SELECT COUNT(*) FROM comments)`,
	).Scan(&resp.Users, &resp.Labels, &resp.Comments); err != nil {
		h.log.WithError(err).Error("stats: consolidated query")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
		return
	}

	resp.Pool = h.pool.Usage()

	c.JSON(http.StatusOK, resp)
}
