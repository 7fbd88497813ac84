package helpers

import (
	"errors"
	"fmt"
	"net/http"

	"auction-engine/internal/biddingerrors"
	model "auction-engine/internal/models"
	"auction-engine/utils"

	"github.com/gin-gonic/gin"
)

// ActorKey is the gin context key under which the actor middleware stores the ActorContext
const ActorKey = "actor"

// ActorFromContext returns the acting user; requests without one are unauthenticated
func ActorFromContext(c *gin.Context) model.ActorContext {
	if v, ok := c.Get(ActorKey); ok {
		if actor, ok := v.(model.ActorContext); ok {
			return actor
		}
	}
	return model.ActorContext{}
}

// HandleBindError sends a standardized JSON error for binding failures
func HandleBindError(c *gin.Context, handlerName string, err error) {
	wrappedErr := fmt.Errorf("invalid request payload: %w", err)
	utils.JSONError(c, http.StatusBadRequest, wrappedErr, "invalid request payload")
	utils.Warn(handlerName+": binding error", map[string]any{"error": err.Error()})
}

var rejectionMessages = map[biddingerrors.Reason]string{
	biddingerrors.ReasonUnauthenticated:       "sign in to continue",
	biddingerrors.ReasonOwnerCannotBid:        "you cannot bid on your own auction",
	biddingerrors.ReasonAuctionNotLive:        "auction is not accepting bids",
	biddingerrors.ReasonBelowMinimumIncrement: "bid is below the minimum accepted amount",
	biddingerrors.ReasonAlreadyTerminal:       "auction is already closed",
	biddingerrors.ReasonInvalidTransition:     "auction cannot change state right now",
	biddingerrors.ReasonNoLeadingBid:          "auction has no bids to sell to",
	biddingerrors.ReasonBuyerNotLeader:        "buyer is not the leading bidder",
}

// MapErrorToHTTP maps domain/service errors to HTTP status code and message
func MapErrorToHTTP(err error) (int, string) {
	if rej, ok := biddingerrors.AsRejection(err); ok {
		message := rejectionMessages[rej.Reason]
		switch {
		case rej.Reason == biddingerrors.ReasonUnauthenticated:
			return http.StatusUnauthorized, message
		case rej.Class() == biddingerrors.ClassInput:
			return http.StatusUnprocessableEntity, message
		default:
			return http.StatusConflict, message
		}
	}

	switch {
	case errors.Is(err, biddingerrors.ErrAuctionNotFound):
		return http.StatusNotFound, "auction not found"
	case errors.Is(err, biddingerrors.ErrBidderNotFound):
		return http.StatusNotFound, "bidder not found"
	case errors.Is(err, biddingerrors.ErrNoBids):
		return http.StatusNotFound, "no bids found for auction"
	case errors.Is(err, biddingerrors.ErrUserNoBids):
		return http.StatusNotFound, "bidder has not placed any bids"
	case errors.Is(err, biddingerrors.ErrNotSeller):
		return http.StatusForbidden, "only the seller can change the auction state"
	case errors.Is(err, biddingerrors.ErrInvalidBid):
		return http.StatusBadRequest, "invalid bid details"
	case errors.Is(err, biddingerrors.ErrInvalidAuction):
		return http.StatusBadRequest, "invalid auction details"
	case errors.Is(err, biddingerrors.ErrInvalidBidder):
		return http.StatusBadRequest, "invalid bidder details"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// RespondError writes the mapped error response. Rejections carry their reason code and context.
func RespondError(c *gin.Context, handlerName string, err error, fields map[string]any) {
	status, message := MapErrorToHTTP(err)

	if rej, ok := biddingerrors.AsRejection(err); ok {
		var ctx any
		if rej.RequiredMinimum != nil || rej.CurrentPhase != nil {
			ctx = RejectionContext{RequiredMinimum: rej.RequiredMinimum, CurrentPhase: rej.CurrentPhase}
		}
		utils.JSONRejection(c, status, err, message, string(rej.Reason), ctx)
	} else {
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
	}

	if fields == nil {
		fields = map[string]any{}
	}
	fields["handler"] = handlerName
	fields["status"] = status
	fields["error"] = err.Error()
	if status >= http.StatusInternalServerError {
		utils.Error(handlerName+": request failed", fields)
		return
	}
	utils.Warn(handlerName+": request rejected", fields)
}

// LogSuccess is a small helper to standardize logging of successful operations
func LogSuccess(handlerName, message string, ctx map[string]any) {
	utils.Info(handlerName+": "+message, ctx)
}
