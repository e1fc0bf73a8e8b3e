package http

import (
	"errors"
	nethttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/VoiceRoom/internal/domain"
	"github.com/dkeye/VoiceRoom/internal/protocol"
)

type roomResponse struct {
	*domain.Room
	Members int `json:"members"`
}

func (h *handlers) createRoom(c *gin.Context) {
	u := h.Identity.Resolve(c)
	if u == nil {
		abortError(c, nethttp.StatusUnauthorized, protocol.CodeUnauthenticated, "login required to create a room")
		return
	}
	room, err := h.Rooms.Create(c.Request.Context(), u.ID)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Str("user", string(u.ID)).Msg("create room")
		abortError(c, nethttp.StatusInternalServerError, protocol.CodeInternal, "could not create room")
		return
	}
	c.JSON(nethttp.StatusCreated, roomResponse{Room: room})
}

func (h *handlers) getRoom(c *gin.Context) {
	room, err := h.Rooms.Get(c.Request.Context(), c.Param("id"))
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrInvalidRoomID):
		abortError(c, nethttp.StatusBadRequest, protocol.CodeInvalidRoomID, "invalid room id")
		return
	case errors.Is(err, domain.ErrRoomNotFound):
		abortError(c, nethttp.StatusNotFound, protocol.CodeRoomNotFound, "room not found")
		return
	default:
		log.Error().Err(err).Str("module", "adapters.http").Msg("get room")
		abortError(c, nethttp.StatusInternalServerError, protocol.CodeInternal, "lookup failed")
		return
	}
	c.JSON(nethttp.StatusOK, roomResponse{Room: room, Members: len(h.Rooms.Members(room.ID))})
}
