package server

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"

	farmdomain "github.com/agrilink/agrilink/internal/farm/domain"
	loteventdomain "github.com/agrilink/agrilink/internal/lotevent/domain"
	"github.com/agrilink/agrilink/internal/realtime"
	"github.com/agrilink/agrilink/pkg/validation"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type publicLotResponse struct {
	*farmdomain.Lot
	Events []loteventdomain.Event `json:"events"`
}

func (s *Server) CreateLot(c *gin.Context) {
	req, ok := bindJSON[farmdomain.CreateLotRequest](c)
	if !ok {
		return
	}

	lot, err := s.farmSvc.CreateLot(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, lot)
}

func (s *Server) ListLotEvents(c *gin.Context) {
	lot, err := s.lotFromParam(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	events, err := s.eventSvc.ListByLot(c.Request.Context(), lot.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, events)
}

// CreateLotEvent records a manual event and pushes it to realtime subscribers.
func (s *Server) CreateLotEvent(c *gin.Context) {
	lot, err := s.lotFromParam(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	req, ok := bindJSON[loteventdomain.CreateRequest](c)
	if !ok {
		return
	}

	appendReq := loteventdomain.AppendRequest{
		LotID: lot.ID,
		Type:  req.Type,
		Temp:  req.Temp,
		Hum:   req.Hum,
		Note:  req.Note,
		Place: req.Place,
	}
	if strings.TrimSpace(req.At) != "" {
		at, err := validation.ParseTime(req.At)
		if err != nil {
			AbortWithError(c, validation.NewError("at", "isotime", "at must be an ISO-8601 datetime"))
			return
		}
		appendReq.At = &at
	}

	ctx := c.Request.Context()
	event, err := s.eventSvc.Append(ctx, appendReq)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	res := s.hub.Publish(realtime.NewSensorUpdate(lot, event, "", s.clock.Now()))
	s.obsMetrics.RecordBroadcast(ctx, realtime.EventSensorUpdate, res.Delivered, res.Dropped)
	if res.Dropped > 0 {
		s.log.Warn("realtime subscribers skipped",
			zap.String("lot_public_id", lot.PublicID),
			zap.Int("dropped", res.Dropped),
		)
	}

	c.Set(contextLotPublicIDKey, lot.PublicID)
	c.JSON(http.StatusCreated, event)
}

// ExportLotEvents streams the lot's events as an XLSX workbook.
func (s *Server) ExportLotEvents(c *gin.Context) {
	lot, err := s.lotFromParam(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := s.eventSvc.ExportLot(c.Request.Context(), lot.ID, lot.PublicID, &buf); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s-events.xlsx"`, lot.PublicID))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// GetPublicLot serves the unauthenticated traceability view of a lot.
func (s *Server) GetPublicLot(c *gin.Context) {
	ctx := c.Request.Context()
	lot, err := s.farmSvc.GetLotByPublicID(ctx, c.Param("publicId"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	events, err := s.eventSvc.ListByLot(ctx, lot.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, publicLotResponse{Lot: lot, Events: events})
}

// lotFromParam resolves :id as an internal id first and a public id second.
func (s *Server) lotFromParam(c *gin.Context) (*farmdomain.Lot, error) {
	raw := strings.TrimSpace(c.Param("id"))
	if raw == "" {
		return nil, farmdomain.ErrLotNotFound
	}

	ctx := c.Request.Context()
	if id, err := snowflake.ParseString(raw); err == nil {
		lot, err := s.farmSvc.GetLot(ctx, id)
		if err == nil {
			return lot, nil
		}
		if !errors.Is(err, farmdomain.ErrLotNotFound) {
			return nil, err
		}
	}
	return s.farmSvc.GetLotByPublicID(ctx, raw)
}
