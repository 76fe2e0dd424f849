package service

import (
	"context"
	"sort"
	"time"

	"github.com/SergeiKhy/linktrack/internal/models"
	"github.com/SergeiKhy/linktrack/internal/repository"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

const topListLimit = 5

// TimeRange - закрытый слева, открытый справа интервал [Start, End)
// с таймзоной для разбивки по календарным дням.
type TimeRange struct {
	Start time.Time
	End   time.Time
	Loc   *time.Location
}

// WeekRange - интервал с понедельника текущей недели по конец
// сегодняшнего дня.
func WeekRange(now time.Time, loc *time.Location) TimeRange {
	now = now.In(loc)
	// Weekday: воскресенье = 0, сдвигаем так, чтобы неделя начиналась с понедельника
	offset := (int(now.Weekday()) + 6) % 7
	start := time.Date(now.Year(), now.Month(), now.Day()-offset, 0, 0, 0, 0, loc)
	end := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, loc)
	return TimeRange{Start: start, End: end, Loc: loc}
}

// MonthRange - полный календарный месяц.
func MonthRange(year int, month time.Month, loc *time.Location) TimeRange {
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	end := start.AddDate(0, 1, 0)
	return TimeRange{Start: start, End: end, Loc: loc}
}

// AnalyticsService - агрегация кликов по ссылкам владельца. Чистое
// чтение без побочных эффектов: повторный вызов с теми же аргументами
// обязан дать идентичный результат.
type AnalyticsService interface {
	Aggregate(ctx context.Context, ownerID string, tr TimeRange) (*models.StatsReport, error)
}

type analyticsService struct {
	linkRepo  repository.LinkRepository
	clickRepo repository.ClickRepository
	logger    *zap.Logger
}

func NewAnalyticsService(linkRepo repository.LinkRepository, clickRepo repository.ClickRepository, logger *zap.Logger) AnalyticsService {
	return &analyticsService{
		linkRepo:  linkRepo,
		clickRepo: clickRepo,
		logger:    logger,
	}
}

// Aggregate собирает отчёт: общие счётчики, беспробельный дневной ряд
// и топ-5 по странам, городам и классам устройств.
func (s *analyticsService) Aggregate(ctx context.Context, ownerID string, tr TimeRange) (*models.StatsReport, error) {
	links, err := s.linkRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	linkIDs := lo.Map(links, func(l models.Link, _ int) uuid.UUID { return l.ID })

	clicks, err := s.clickRepo.ListByLinkIDs(ctx, linkIDs, tr.Start, tr.End)
	if err != nil {
		return nil, err
	}

	report := &models.StatsReport{
		TotalLinks:  int64(len(links)),
		TotalClicks: int64(len(clicks)),
		TimeSeries:  buildTimeSeries(clicks, tr),
	}

	report.TopCountries = topList(clicks, func(c models.Click) string {
		return deref(c.Country)
	})
	report.TopCities = topList(clicks, func(c models.Click) string {
		return deref(c.City)
	})
	// Класс устройства выводится из сырого user agent на каждом вызове:
	// правила классификации применяются ретроактивно ко всей истории
	report.TopDevices = topList(clicks, func(c models.Click) string {
		return DeviceFromUserAgent(deref(c.UserAgent))
	})

	return report, nil
}

// buildTimeSeries раскладывает клики по календарным дням интервала.
// Дни без кликов присутствуют с нулём - ряд без пробелов.
func buildTimeSeries(clicks []models.Click, tr TimeRange) []models.DailyCount {
	counts := make(map[string]int64)
	for _, click := range clicks {
		day := click.ClickedAt.In(tr.Loc).Format("2006-01-02")
		counts[day]++
	}

	series := make([]models.DailyCount, 0)
	// Шаг через конструктор даты, а не Add(24h): DST-переходы дают
	// дни длиной не ровно 24 часа
	for d := tr.Start.In(tr.Loc); d.Before(tr.End); d = time.Date(d.Year(), d.Month(), d.Day()+1, 0, 0, 0, 0, tr.Loc) {
		day := d.Format("2006-01-02")
		series = append(series, models.DailyCount{Date: day, Count: counts[day]})
	}

	return series
}

// topList группирует клики по значению extract, сортирует по убыванию
// счётчика и обрезает до пяти. Пустые значения не участвуют. Стабильная
// сортировка: при равенстве порядок первого появления.
func topList(clicks []models.Click, extract func(models.Click) string) []models.NameCount {
	counts := make(map[string]int64)
	order := make([]string, 0)

	for _, click := range clicks {
		name := extract(click)
		if name == "" {
			continue
		}
		if _, seen := counts[name]; !seen {
			order = append(order, name)
		}
		counts[name]++
	}

	list := make([]models.NameCount, 0, len(order))
	for _, name := range order {
		list = append(list, models.NameCount{Name: name, Count: counts[name]})
	}

	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Count > list[j].Count
	})

	if len(list) > topListLimit {
		list = list[:topListLimit]
	}
	return list
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
