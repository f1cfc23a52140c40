package realtime

import (
	"time"

	farmdomain "github.com/agrilink/agrilink/internal/farm/domain"
	lotevent "github.com/agrilink/agrilink/internal/lotevent/domain"
	"github.com/bwmarrin/snowflake"
)

const EventSensorUpdate = "sensor:update"

// Message is the frame delivered to every subscriber.
type Message struct {
	Event string       `json:"event"`
	Data  SensorUpdate `json:"data"`
}

type SensorUpdate struct {
	LotID       snowflake.ID `json:"lotId"`
	LotPublicID string       `json:"lotPublicId"`
	FarmName    string       `json:"farmName"`
	Produce     string       `json:"produce"`
	Event       EventPayload `json:"event"`
	DeviceName  string       `json:"deviceName,omitempty"`
	Timestamp   time.Time    `json:"timestamp"`
}

type EventPayload struct {
	ID    snowflake.ID `json:"id"`
	Type  string       `json:"type"`
	Temp  *float64     `json:"temp"`
	Hum   *float64     `json:"hum"`
	At    time.Time    `json:"at"`
	Place string       `json:"place"`
	Note  string       `json:"note"`
}

// NewSensorUpdate builds the broadcast frame for an event recorded on lot.
func NewSensorUpdate(lot *farmdomain.Lot, ev *lotevent.Event, deviceName string, now time.Time) Message {
	return Message{
		Event: EventSensorUpdate,
		Data: SensorUpdate{
			LotID:       lot.ID,
			LotPublicID: lot.PublicID,
			FarmName:    lot.FarmName(),
			Produce:     lot.Produce,
			Event: EventPayload{
				ID:    ev.ID,
				Type:  ev.Type,
				Temp:  ev.Temp,
				Hum:   ev.Hum,
				At:    ev.At,
				Place: ev.Place,
				Note:  ev.Note,
			},
			DeviceName: deviceName,
			Timestamp:  now,
		},
	}
}
