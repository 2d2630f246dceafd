package endpoint

import (
	"github.com/gin-gonic/gin"

	"github.com/kbukum/kubeping/discovery"
	apperrors "github.com/kbukum/kubeping/errors"
)

// RoundSource exposes the most recent discovery round.
type RoundSource interface {
	LastRound() (discovery.Round, bool)
}

// LastRound returns a handler that reports the summary of the most recent
// round, or 404 before the first round has run.
func LastRound(src RoundSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		round, ok := src.LastRound()
		if !ok {
			RespondWithError(c, apperrors.NotFound("discovery round"))
			return
		}
		RespondOK(c, round)
	}
}
