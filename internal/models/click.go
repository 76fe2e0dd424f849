package models

import (
	"time"

	"github.com/google/uuid"
)

// Click - один сохранённый переход по короткой ссылке. Записи append-only:
// никогда не изменяются и не удаляются, в том числе после удаления ссылки.
type Click struct {
	ID        uuid.UUID `json:"id"`
	LinkID    uuid.UUID `json:"link_id"`
	ClickedAt time.Time `json:"clicked_at"`
	IPAddress *string   `json:"ip_address"`
	City      *string   `json:"city"`
	Country   *string   `json:"country"`
	UserAgent *string   `json:"user_agent"`
}

// ClickEvent - событие для очереди обработки кликов. Город и страна
// заполняются только если их прислал доверенный прокси.
type ClickEvent struct {
	LinkID    uuid.UUID
	IPAddress string
	UserAgent string
	City      string
	Country   string
}

type DailyCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type NameCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// StatsReport - агрегированная статистика по всем ссылкам владельца.
type StatsReport struct {
	TotalLinks   int64        `json:"total_links"`
	TotalClicks  int64        `json:"total_clicks"`
	TimeSeries   []DailyCount `json:"time_series"`
	TopCountries []NameCount  `json:"top_countries"`
	TopCities    []NameCount  `json:"top_cities"`
	TopDevices   []NameCount  `json:"top_devices"`
}
