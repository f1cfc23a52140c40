package server

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const pilotTemplate = "pilot_request"

// SubmitPilotRequest records a pilot sign-up and notifies the configured inbox.
func (s *Server) SubmitPilotRequest(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxJSONBodyBytes))
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	fields := map[string]any{}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &fields); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
	}

	s.log.Info("pilot request received", zap.Any("fields", fields))

	if to := s.cfg.Email.PilotNotifyTo; len(to) > 0 && s.mailer != nil {
		data := map[string]any{
			"fields":     fields,
			"receivedAt": s.clock.Now().UTC().Format(time.RFC3339),
		}
		if err := s.mailer.SendTemplate(c.Request.Context(), to, pilotTemplate, data); err != nil {
			s.log.Warn("pilot notification failed", zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}
