package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/SergeiKhy/linktrack/internal/models"
	"github.com/SergeiKhy/linktrack/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrGeoRequired возвращается синхронным трекингом, когда конфиг требует
// геоданные, а лукап их не дал. Запись клика при этом не выполняется.
var ErrGeoRequired = errors.New("геолокация обязательна, но недоступна")

// Константы worker pool
const (
	maxRetries     = 3               // Максимальное количество попыток записи
	processTimeout = 5 * time.Second // Бюджет на обработку одного события
)

// ClickProcessor - асинхронная запись кликов. Enqueue никогда не
// блокирует редирект: при переполненном буфере событие теряется.
type ClickProcessor interface {
	Start()
	Stop()
	Record(ctx context.Context, event *models.ClickEvent) error
	Track(ctx context.Context, event *models.ClickEvent) (*models.Click, error)
	GetLinkStats(ctx context.Context, linkID uuid.UUID) (*models.LinkStats, error)
}

// clickProcessor реализация на Worker Pool
type clickProcessor struct {
	clickRepo    repository.ClickRepository
	geo          GeoLocator
	logger       *zap.Logger
	geoRequired  bool
	clickChannel chan *models.ClickEvent
	workerCount  int
	wg           sync.WaitGroup
	ctx          context.Context
	cancel       context.CancelFunc
}

func NewClickProcessor(
	clickRepo repository.ClickRepository,
	geo GeoLocator,
	logger *zap.Logger,
	workers int,
	bufferSize int,
	geoRequired bool,
) ClickProcessor {
	if workers <= 0 {
		workers = 3
	}
	if bufferSize <= 0 {
		bufferSize = 1000
	}
	return &clickProcessor{
		clickRepo:    clickRepo,
		geo:          geo,
		logger:       logger,
		geoRequired:  geoRequired,
		clickChannel: make(chan *models.ClickEvent, bufferSize),
		workerCount:  workers,
	}
}

// Start запускает worker pool
func (p *clickProcessor) Start() {
	p.ctx, p.cancel = context.WithCancel(context.Background())

	p.logger.Info("Запуск воркеров процессора кликов", zap.Int("count", p.workerCount))

	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop корректно останавливает worker pool
func (p *clickProcessor) Stop() {
	p.logger.Info("Остановка процессора кликов...")
	p.cancel()
	p.wg.Wait()
	p.logger.Info("Процессор кликов остановлен")
}

// Record отправляет событие в пул (неблокирующая операция).
// Потеря события при полном буфере - осознанная цена: доступность
// редиректа важнее полноты статистики.
func (p *clickProcessor) Record(ctx context.Context, event *models.ClickEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	select {
	case p.clickChannel <- event:
		return nil
	default:
		p.logger.Warn("Буфер канала кликов заполнен, событие потеряно",
			zap.String("link_id", event.LinkID.String()),
		)
		return nil
	}
}

// Track - синхронный вариант для POST /api/track: лукап и запись в
// рамках запроса. Единственный путь, где сбой геолокации может стать
// ошибкой - и только при geoRequired.
func (p *clickProcessor) Track(ctx context.Context, event *models.ClickEvent) (*models.Click, error) {
	click := p.buildClick(ctx, event)

	if p.geoRequired && click.City == nil && click.Country == nil {
		return nil, ErrGeoRequired
	}

	if err := p.clickRepo.Insert(ctx, click); err != nil {
		return nil, err
	}
	return click, nil
}

func (p *clickProcessor) GetLinkStats(ctx context.Context, linkID uuid.UUID) (*models.LinkStats, error) {
	return p.clickRepo.GetLinkStats(ctx, linkID)
}

// worker обрабатывает события кликов из канала
func (p *clickProcessor) worker(id int) {
	defer p.wg.Done()

	p.logger.Debug("Воркер кликов запущен", zap.Int("id", id))

	for {
		select {
		case <-p.ctx.Done():
			p.logger.Debug("Воркер кликов остановлен", zap.Int("id", id))
			return

		case event, ok := <-p.clickChannel:
			if !ok {
				return
			}
			p.processClick(event)
		}
	}
}

// processClick обрабатывает одно событие с retry-логикой. Любой исход
// здесь терминальный: ошибки логируются и проглатываются.
func (p *clickProcessor) processClick(event *models.ClickEvent) {
	ctx, cancel := context.WithTimeout(p.ctx, processTimeout)
	defer cancel()

	click := p.buildClick(ctx, event)

	var err error
	for i := 0; i < maxRetries; i++ {
		if err = p.clickRepo.Insert(ctx, click); err == nil {
			return
		}
		if i < maxRetries-1 {
			p.logger.Debug("Повторная попытка записи клика",
				zap.String("link_id", event.LinkID.String()),
				zap.Int("attempt", i+1),
				zap.Error(err),
			)
			time.Sleep(time.Duration(i+1) * 100 * time.Millisecond)
		}
	}

	p.logger.Error("Не удалось записать клик после всех попыток",
		zap.String("link_id", event.LinkID.String()),
		zap.Error(err),
	)
}

// buildClick обогащает событие геоданными и готовит запись.
// Метку времени проставит сервер БД при вставке.
func (p *clickProcessor) buildClick(ctx context.Context, event *models.ClickEvent) *models.Click {
	geo := p.geo.Locate(ctx, event.IPAddress, GeoHints{
		City:    event.City,
		Country: event.Country,
	})

	ip := event.IPAddress
	if ip == UnknownIP {
		ip = ""
	}

	return &models.Click{
		LinkID:    event.LinkID,
		IPAddress: nullable(ip),
		City:      nullable(geo.City),
		Country:   nullable(geo.Country),
		UserAgent: nullable(event.UserAgent),
	}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
