package relay

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"pcaplink/internal/logger"
	"pcaplink/pkg/errors"
)

const captureContentType = "application/vnd.tcpdump.pcap"

type Handler struct {
	Service *Service
	Logger  logger.Logger
}

func NewHandler(svc *Service, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
	}
}

func (h *Handler) RegisterRoutes(router gin.IRouter) {
	router.GET("/attachments/:channel_id/:message_id", h.GetAttachment)
	router.GET("/api/discord/channels/:channel_id/messages/:message_id/attachments", h.GetAttachment)
}

// GetAttachment godoc
// @Summary      Download a capture
// @Description  Returns the first .pcap or .pcapng attachment of a Discord message
// @Tags         attachments
// @Produce      application/vnd.tcpdump.pcap
// @Produce      json
// @Param        channel_id  path      string  true  "Channel snowflake"
// @Param        message_id  path      string  true  "Message snowflake"
// @Success      200         {file}    binary
// @Failure      400         {object}  errors.ErrorResponse
// @Failure      401         {object}  errors.ErrorResponse
// @Failure      403         {object}  errors.ErrorResponse
// @Failure      404         {object}  errors.ErrorResponse
// @Failure      500         {object}  errors.ErrorResponse
// @Router       /attachments/{channel_id}/{message_id} [get]
func (h *Handler) GetAttachment(c *gin.Context) {
	capture, err := h.Service.Retrieve(c.Request.Context(), c.Param("channel_id"), c.Param("message_id"))
	if err != nil {
		status, message := errors.ToResponse(err)
		c.JSON(status, errors.ErrorResponse{Error: message})
		return
	}

	c.Header("Content-Disposition", contentDisposition(capture.Filename))
	c.Data(http.StatusOK, captureContentType, capture.Data)
}

// contentDisposition drops characters that would break out of the quoted
// filename parameter.
func contentDisposition(filename string) string {
	clean := strings.Map(func(r rune) rune {
		if r == '"' || r == '\\' || r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, filename)
	return `attachment; filename="` + clean + `"`
}
