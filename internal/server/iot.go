package server

import (
	"io"
	"net/http"
	"strings"

	devicedomain "github.com/agrilink/agrilink/internal/device/domain"
	ingestdomain "github.com/agrilink/agrilink/internal/ingest/domain"
	"github.com/gin-gonic/gin"
)

const headerAPIKey = "X-API-Key"

// IngestReading accepts one sensor reading authenticated by the x-api-key header.
func (s *Server) IngestReading(c *gin.Context) {
	apiKey := strings.TrimSpace(c.GetHeader(headerAPIKey))
	if apiKey == "" {
		AbortWithError(c, ingestdomain.ErrUnauthorized)
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxJSONBodyBytes))
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.ingestSvc.Submit(c.Request.Context(), ingestdomain.SourceHTTP, apiKey, body)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Set(contextLotPublicIDKey, result.Event.LotPublicID)
	c.JSON(http.StatusOK, result)
}

func (s *Server) ListDevices(c *gin.Context) {
	devices, err := s.deviceSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, devices)
}

// RegisterDevice returns the raw API key; it is never retrievable again.
func (s *Server) RegisterDevice(c *gin.Context) {
	req, ok := bindJSON[devicedomain.RegisterRequest](c)
	if !ok {
		return
	}

	resp, err := s.deviceSvc.Register(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}
