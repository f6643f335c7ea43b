package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type RoomStatus string

const (
	RoomInService   RoomStatus = "in-service"
	RoomMaintenance RoomStatus = "maintenance"
	RoomRetired     RoomStatus = "retired"
)

type Room struct {
	ID          uuid.UUID       `json:"id"`
	Number      string          `json:"number"`
	RoomType    string          `json:"room_type"`
	NightlyRate decimal.Decimal `json:"nightly_rate"`
	Currency    string          `json:"currency"`
	Status      RoomStatus      `json:"status"`
}

func (r *Room) IsBookable() bool {
	return r.Status == RoomInService
}
