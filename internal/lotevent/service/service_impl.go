package service

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/agrilink/agrilink/internal/clock"
	lotevent "github.com/agrilink/agrilink/internal/lotevent/domain"
	"github.com/agrilink/agrilink/internal/lotevent/export"
	"github.com/agrilink/agrilink/pkg/repository"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock

	eventrepo repository.Repository[lotevent.Event]
}

func New(p Params) lotevent.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("lotevent.service"),
		genID: p.GenID,
		clock: p.Clock,

		eventrepo: repository.ProvideStore[lotevent.Event](p.DB),
	}
}

func (s *Service) Append(ctx context.Context, req lotevent.AppendRequest) (*lotevent.Event, error) {
	if req.LotID == 0 {
		return nil, lotevent.ErrInvalidLot
	}
	eventType := strings.ToUpper(strings.TrimSpace(req.Type))
	if eventType == "" {
		return nil, lotevent.ErrInvalidType
	}

	now := s.clock.Now()
	at := now
	if req.At != nil && !req.At.IsZero() {
		at = req.At.UTC()
	}

	event := &lotevent.Event{
		ID:        s.genID.Generate(),
		LotID:     req.LotID,
		Type:      eventType,
		Temp:      req.Temp,
		Hum:       req.Hum,
		At:        at,
		Note:      strings.TrimSpace(req.Note),
		Place:     strings.TrimSpace(req.Place),
		CreatedAt: now,
	}
	if err := s.eventrepo.Create(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

func (s *Service) ListByLot(ctx context.Context, lotID snowflake.ID) ([]lotevent.Event, error) {
	rows, err := s.eventrepo.Find(ctx, nil,
		repository.WithWhere("lot_id = ?", lotID),
		repository.WithOrder("at ASC, id ASC"),
	)
	if err != nil {
		return nil, err
	}
	return flatten(rows), nil
}

func (s *Service) ListReadings(ctx context.Context, lotIDs []snowflake.ID, from, to time.Time) ([]lotevent.Event, error) {
	if len(lotIDs) == 0 {
		return []lotevent.Event{}, nil
	}
	rows, err := s.eventrepo.Find(ctx, nil,
		repository.WithWhere("lot_id IN ?", lotIDs),
		repository.WithWhere("temp IS NOT NULL"),
		repository.WithWhere("at >= ? AND at <= ?", from.UTC(), to.UTC()),
		repository.WithOrder("at ASC, id ASC"),
	)
	if err != nil {
		return nil, err
	}
	return flatten(rows), nil
}

func (s *Service) ExportLot(ctx context.Context, lotID snowflake.ID, lotPublicID string, w io.Writer) error {
	events, err := s.ListByLot(ctx, lotID)
	if err != nil {
		return err
	}
	return export.WriteXLSX(w, lotPublicID, events)
}

func flatten(rows []*lotevent.Event) []lotevent.Event {
	out := make([]lotevent.Event, 0, len(rows))
	for _, row := range rows {
		out = append(out, *row)
	}
	return out
}
