package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"time"

	"github.com/SergeiKhy/linktrack/internal/models"
	"github.com/SergeiKhy/linktrack/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Ошибки сервиса
var (
	ErrInvalidURL  = errors.New("невалидный URL")
	ErrInvalidSlug = errors.New("невалидный кастомный слаг")
	ErrNotOwner    = errors.New("ссылка принадлежит другому владельцу")
)

// Константы сервиса
const (
	cacheTTL   = 24 * time.Hour
	codeLength = 6
	// URL-safe алфавит для генерируемых кодов
	charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789_-"
	// Количество попыток при коллизии сгенерированного кода
	maxGenerateAttempts = 5
)

var (
	urlPattern  = regexp.MustCompile(`^https?://[^\s]+$`)
	slugPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{4,32}$`)
)

// LinkService - жизненный цикл коротких ссылок и горячий путь резолва.
type LinkService interface {
	CreateLink(ctx context.Context, ownerID string, input *models.CreateLinkInput) (*models.Link, error)
	Resolve(ctx context.Context, code string) (*models.Link, error)
	ListLinks(ctx context.Context, ownerID string) ([]models.Link, error)
	UpdateLink(ctx context.Context, ownerID string, id uuid.UUID, input *models.UpdateLinkInput) (*models.Link, error)
	DeleteLink(ctx context.Context, ownerID string, id uuid.UUID) error
}

type linkService struct {
	linkRepo  repository.LinkRepository
	cacheRepo repository.CacheRepository
	logger    *zap.Logger
}

func NewLinkService(linkRepo repository.LinkRepository, cacheRepo repository.CacheRepository, logger *zap.Logger) LinkService {
	return &linkService{
		linkRepo:  linkRepo,
		cacheRepo: cacheRepo,
		logger:    logger,
	}
}

// CreateLink создаёт короткую ссылку. Кастомный слаг проверяется на
// уникальность чтением перед записью: гонка двух одновременных создании
// с одним слагом известна и принята, страхует уникальный индекс БД.
func (s *linkService) CreateLink(ctx context.Context, ownerID string, input *models.CreateLinkInput) (*models.Link, error) {
	if !urlPattern.MatchString(input.OriginalURL) {
		return nil, ErrInvalidURL
	}

	custom := input.CustomSlug != nil && *input.CustomSlug != ""
	if custom {
		if !slugPattern.MatchString(*input.CustomSlug) {
			return nil, ErrInvalidSlug
		}
		if _, err := s.linkRepo.GetByShortCode(ctx, *input.CustomSlug); err == nil {
			return nil, repository.ErrCodeExists
		} else if !errors.Is(err, repository.ErrLinkNotFound) {
			return nil, err
		}
	}

	for attempt := 0; attempt < maxGenerateAttempts; attempt++ {
		code := ""
		if custom {
			code = *input.CustomSlug
		} else {
			generated, err := generateShortCode()
			if err != nil {
				return nil, fmt.Errorf("failed to generate code: %w", err)
			}
			code = generated
		}

		link := &models.Link{
			ShortCode:   code,
			OriginalURL: input.OriginalURL,
			OwnerID:     ownerID,
		}

		err := s.linkRepo.Create(ctx, link)
		if err == nil {
			s.cacheLink(ctx, link)
			return link, nil
		}
		if errors.Is(err, repository.ErrCodeExists) && !custom {
			// Коллизия сгенерированного кода - пробуем новый
			continue
		}
		return nil, err
	}

	return nil, fmt.Errorf("failed to create link: %w", repository.ErrCodeExists)
}

// Resolve - горячий путь. Пустой код сразу даёт ErrLinkNotFound без
// похода в хранилище, дальше кэш, затем БД.
func (s *linkService) Resolve(ctx context.Context, code string) (*models.Link, error) {
	if code == "" {
		return nil, repository.ErrLinkNotFound
	}

	if link, err := s.cacheRepo.Get(ctx, code); err == nil {
		return link, nil
	}

	link, err := s.linkRepo.GetByShortCode(ctx, code)
	if err != nil {
		return nil, err
	}

	s.cacheLink(ctx, link)
	return link, nil
}

func (s *linkService) ListLinks(ctx context.Context, ownerID string) ([]models.Link, error) {
	return s.linkRepo.ListByOwner(ctx, ownerID)
}

// UpdateLink меняет URL и/или код. Кэш инвалидируется и по старому,
// и по новому коду.
func (s *linkService) UpdateLink(ctx context.Context, ownerID string, id uuid.UUID, input *models.UpdateLinkInput) (*models.Link, error) {
	link, err := s.linkRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if link.OwnerID != ownerID {
		return nil, ErrNotOwner
	}

	oldCode := link.ShortCode

	if input.OriginalURL != nil {
		if !urlPattern.MatchString(*input.OriginalURL) {
			return nil, ErrInvalidURL
		}
		link.OriginalURL = *input.OriginalURL
	}

	if input.ShortCode != nil && *input.ShortCode != oldCode {
		if !slugPattern.MatchString(*input.ShortCode) {
			return nil, ErrInvalidSlug
		}
		link.ShortCode = *input.ShortCode
	}

	if err := s.linkRepo.Update(ctx, link); err != nil {
		return nil, err
	}

	s.invalidate(ctx, oldCode)
	if link.ShortCode != oldCode {
		s.invalidate(ctx, link.ShortCode)
	}

	return link, nil
}

// DeleteLink удаляет ссылку владельца. Клики не трогаем: события
// ссылаются на ссылку слабо и переживают её.
func (s *linkService) DeleteLink(ctx context.Context, ownerID string, id uuid.UUID) error {
	link, err := s.linkRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if link.OwnerID != ownerID {
		return ErrNotOwner
	}

	s.invalidate(ctx, link.ShortCode)
	return s.linkRepo.Delete(ctx, id)
}

func (s *linkService) cacheLink(ctx context.Context, link *models.Link) {
	if err := s.cacheRepo.Set(ctx, link.ShortCode, link, cacheTTL); err != nil {
		s.logger.Debug("Не удалось закэшировать ссылку",
			zap.String("short_code", link.ShortCode),
			zap.Error(err),
		)
	}
}

func (s *linkService) invalidate(ctx context.Context, code string) {
	if err := s.cacheRepo.Delete(ctx, code); err != nil {
		s.logger.Debug("Не удалось инвалидировать кэш",
			zap.String("short_code", code),
			zap.Error(err),
		)
	}
}

// generateShortCode генерирует случайный URL-safe код из 6 символов
func generateShortCode() (string, error) {
	result := make([]byte, codeLength)
	for i := 0; i < codeLength; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[num.Int64()]
	}
	return string(result), nil
}
