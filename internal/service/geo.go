package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/SergeiKhy/linktrack/internal/config"
	"go.uber.org/zap"
)

// Стратегии геолокации
const (
	GeoHeadersOnly    = "headers-only"
	GeoHeadersThenAPI = "headers-then-api"
	GeoAPIOnly        = "api-only"
)

// GeoResult - результат определения локации. Пустые поля допустимы:
// лукап best-effort и никогда не ломает вызывающую сторону.
type GeoResult struct {
	City    string
	Country string
}

// GeoHints - город и страна, проставленные доверенным прокси.
type GeoHints struct {
	City    string
	Country string
}

// GeoLocator определяет локацию по IP. Реализация обязана не
// возвращать ошибок: любой сбой деградирует до пустого результата.
type GeoLocator interface {
	Locate(ctx context.Context, ip string, hints GeoHints) GeoResult
}

type GeoService struct {
	cfg    config.GeoConfig
	client *http.Client
	logger *zap.Logger
}

func NewGeoService(cfg config.GeoConfig, logger *zap.Logger) *GeoService {
	return &GeoService{
		cfg: cfg,
		// Таймаут клиента ограничивает весь запрос, включая чтение тела:
		// медленный геосервис не должен задерживать редирект
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// HintsFromHeader извлекает гео-заголовки доверенного прокси.
func (g *GeoService) HintsFromHeader(h http.Header) GeoHints {
	return GeoHints{
		City:    strings.TrimSpace(h.Get(g.cfg.CityHeader)),
		Country: strings.TrimSpace(h.Get(g.cfg.CountryHeader)),
	}
}

// Locate определяет город и страну по приоритету: заголовки прокси,
// затем (если стратегия позволяет) один внешний запрос для публичных
// адресов. Сбой сети, не-2xx статус или поле error в ответе дают
// частичный либо пустой результат.
func (g *GeoService) Locate(ctx context.Context, ip string, hints GeoHints) GeoResult {
	var result GeoResult

	if g.cfg.Strategy != GeoAPIOnly {
		if hints.City != "" || hints.Country != "" {
			return GeoResult{City: hints.City, Country: hints.Country}
		}
	}

	if g.cfg.Strategy == GeoHeadersOnly {
		return result
	}

	if ip == "" || ip == UnknownIP || !isPublicIP(ip) {
		return result
	}

	apiResult, err := g.lookup(ctx, ip)
	if err != nil {
		g.logger.Debug("Геолукап не удался",
			zap.String("ip", ip),
			zap.Error(err),
		)
		return result
	}

	return apiResult
}

// geoResponse - формат ответа ipapi-совместимого сервиса.
type geoResponse struct {
	IP          string `json:"ip"`
	City        string `json:"city"`
	CountryName string `json:"country_name"`
	Country     string `json:"country"`
	Error       bool   `json:"error"`
	Reason      string `json:"reason"`
}

func (g *GeoService) lookup(ctx context.Context, ip string) (GeoResult, error) {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	url := fmt.Sprintf("%s/%s/json/", strings.TrimRight(g.cfg.Endpoint, "/"), ip)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return GeoResult{}, err
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return GeoResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return GeoResult{}, fmt.Errorf("geo service returned status %d", resp.StatusCode)
	}

	var body geoResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return GeoResult{}, err
	}

	// Сервис отвечает 200 с error=true для зарезервированных диапазонов
	if body.Error {
		return GeoResult{}, fmt.Errorf("geo service error: %s", body.Reason)
	}

	country := body.CountryName
	if country == "" {
		country = body.Country
	}

	return GeoResult{City: body.City, Country: country}, nil
}
