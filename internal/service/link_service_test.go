package service_test

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/SergeiKhy/linktrack/internal/models"
	"github.com/SergeiKhy/linktrack/internal/repository"
	"github.com/SergeiKhy/linktrack/internal/service"
	"github.com/SergeiKhy/linktrack/internal/service/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testOwner = "owner-123"

// setupTestService создаёт тестовое окружение с моковыми репозиториями
func setupTestService() (service.LinkService, *mocks.MockLinkRepository, *mocks.MockCacheRepository) {
	linkRepo := mocks.NewMockLinkRepository()
	cacheRepo := mocks.NewMockCacheRepository()
	logger := zap.NewNop()
	linkService := service.NewLinkService(linkRepo, cacheRepo, logger)
	return linkService, linkRepo, cacheRepo
}

// TestLinkService_CreateLink_Success проверяет создание ссылки со сгенерированным кодом
func TestLinkService_CreateLink_Success(t *testing.T) {
	linkService, _, _ := setupTestService()

	input := &models.CreateLinkInput{
		OriginalURL: "https://example.com/test",
	}

	ctx := context.Background()
	link, err := linkService.CreateLink(ctx, testOwner, input)

	require.NoError(t, err)
	assert.Len(t, link.ShortCode, 6)
	assert.Equal(t, input.OriginalURL, link.OriginalURL)
	assert.Equal(t, testOwner, link.OwnerID)
	assert.NotZero(t, link.ID)
	assert.NotZero(t, link.CreatedAt)
}

// TestLinkService_CreateLink_GeneratedCodeCharset проверяет алфавит генерируемых кодов
func TestLinkService_CreateLink_GeneratedCodeCharset(t *testing.T) {
	linkService, _, _ := setupTestService()
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		link, err := linkService.CreateLink(ctx, testOwner, &models.CreateLinkInput{
			OriginalURL: "https://example.com/test",
		})
		require.NoError(t, err)

		for _, r := range link.ShortCode {
			valid := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
				(r >= '0' && r <= '9') || r == '_' || r == '-'
			assert.True(t, valid, "недопустимый символ %q в коде %s", r, link.ShortCode)
		}
	}
}

// TestLinkService_CreateLink_WithCustomSlug проверяет создание с кастомным слагом
func TestLinkService_CreateLink_WithCustomSlug(t *testing.T) {
	linkService, _, _ := setupTestService()

	slug := "my-custom"
	input := &models.CreateLinkInput{
		OriginalURL: "https://example.com/test",
		CustomSlug:  &slug,
	}

	ctx := context.Background()
	link, err := linkService.CreateLink(ctx, testOwner, input)

	require.NoError(t, err)
	assert.Equal(t, slug, link.ShortCode)
}

// TestLinkService_CreateLink_DuplicateSlug проверяет отказ до записи при занятом слаге
func TestLinkService_CreateLink_DuplicateSlug(t *testing.T) {
	linkService, _, _ := setupTestService()
	ctx := context.Background()

	slug := "taken"
	_, err := linkService.CreateLink(ctx, testOwner, &models.CreateLinkInput{
		OriginalURL: "https://example.com/first",
		CustomSlug:  &slug,
	})
	require.NoError(t, err)

	link, err := linkService.CreateLink(ctx, "another-owner", &models.CreateLinkInput{
		OriginalURL: "https://example.com/second",
		CustomSlug:  &slug,
	})

	assert.ErrorIs(t, err, repository.ErrCodeExists)
	assert.Nil(t, link)
}

// TestLinkService_CreateLink_InvalidURL проверяет отклонение невалидного URL
func TestLinkService_CreateLink_InvalidURL(t *testing.T) {
	linkService, _, _ := setupTestService()
	ctx := context.Background()

	invalidURLs := []string{
		"not-a-url",
		"ftp://example.com",
		"",
		"example.com",
		"https://bad url.com",
	}

	for _, url := range invalidURLs {
		link, err := linkService.CreateLink(ctx, testOwner, &models.CreateLinkInput{
			OriginalURL: url,
		})
		assert.ErrorIs(t, err, service.ErrInvalidURL, "URL должен быть отклонён: %s", url)
		assert.Nil(t, link)
	}
}

// TestLinkService_CreateLink_InvalidSlug проверяет валидацию кастомного слага
func TestLinkService_CreateLink_InvalidSlug(t *testing.T) {
	linkService, _, _ := setupTestService()
	ctx := context.Background()

	// Слишком короткий, с недопустимыми символами, с пробелом
	invalidSlugs := []string{"ab", "inv@lid", "with space"}

	for _, slug := range invalidSlugs {
		s := slug
		link, err := linkService.CreateLink(ctx, testOwner, &models.CreateLinkInput{
			OriginalURL: "https://example.com/test",
			CustomSlug:  &s,
		})
		assert.ErrorIs(t, err, service.ErrInvalidSlug, "слаг должен быть отклонён: %s", slug)
		assert.Nil(t, link)
	}
}

// TestLinkService_Resolve_ReturnsOriginalURL проверяет, что резолв
// возвращает именно сохранённый URL до удаления ссылки
func TestLinkService_Resolve_ReturnsOriginalURL(t *testing.T) {
	linkService, _, _ := setupTestService()
	ctx := context.Background()

	created, err := linkService.CreateLink(ctx, testOwner, &models.CreateLinkInput{
		OriginalURL: "https://example.com/target",
	})
	require.NoError(t, err)

	resolved, err := linkService.Resolve(ctx, created.ShortCode)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/target", resolved.OriginalURL)
	assert.Equal(t, created.ID, resolved.ID)
}

// TestLinkService_Resolve_EmptyCode проверяет короткий путь для пустого кода:
// ошибка NotFound без похода в хранилище
func TestLinkService_Resolve_EmptyCode(t *testing.T) {
	linkService, linkRepo, _ := setupTestService()
	ctx := context.Background()

	// Хранилище недоступно: при коротком пути это не должно мешать
	linkRepo.FailAll = true
	linkRepo.FailErr = assert.AnError

	link, err := linkService.Resolve(ctx, "")

	assert.ErrorIs(t, err, repository.ErrLinkNotFound)
	assert.Nil(t, link)
}

// TestLinkService_Resolve_NotFound проверяет резолв несуществующего кода
func TestLinkService_Resolve_NotFound(t *testing.T) {
	linkService, _, _ := setupTestService()
	ctx := context.Background()

	link, err := linkService.Resolve(ctx, "nonexistent")

	assert.ErrorIs(t, err, repository.ErrLinkNotFound)
	assert.Nil(t, link)
}

// TestLinkService_Resolve_FromCache проверяет попадание в кэш после создания
func TestLinkService_Resolve_FromCache(t *testing.T) {
	linkService, linkRepo, cacheRepo := setupTestService()
	ctx := context.Background()

	created, err := linkService.CreateLink(ctx, testOwner, &models.CreateLinkInput{
		OriginalURL: "https://example.com/cached",
	})
	require.NoError(t, err)

	cached, err := cacheRepo.Get(ctx, created.ShortCode)
	require.NoError(t, err)
	assert.Equal(t, created.ShortCode, cached.ShortCode)

	// Даже при недоступной БД резолв обслуживается из кэша
	linkRepo.FailAll = true
	linkRepo.FailErr = assert.AnError

	resolved, err := linkService.Resolve(ctx, created.ShortCode)
	require.NoError(t, err)
	assert.Equal(t, created.OriginalURL, resolved.OriginalURL)
}

// TestLinkService_UpdateLink_ChangesCodeAndInvalidatesCache проверяет
// смену кода с инвалидацией кэша по старому и новому коду
func TestLinkService_UpdateLink_ChangesCodeAndInvalidatesCache(t *testing.T) {
	linkService, _, cacheRepo := setupTestService()
	ctx := context.Background()

	created, err := linkService.CreateLink(ctx, testOwner, &models.CreateLinkInput{
		OriginalURL: "https://example.com/old",
	})
	require.NoError(t, err)
	oldCode := created.ShortCode

	newCode := "newcode"
	newURL := "https://example.com/new"
	updated, err := linkService.UpdateLink(ctx, testOwner, created.ID, &models.UpdateLinkInput{
		OriginalURL: &newURL,
		ShortCode:   &newCode,
	})
	require.NoError(t, err)
	assert.Equal(t, newCode, updated.ShortCode)
	assert.Equal(t, newURL, updated.OriginalURL)

	// Старый код больше не резолвится
	_, err = linkService.Resolve(ctx, oldCode)
	assert.ErrorIs(t, err, repository.ErrLinkNotFound)

	// Кэш по старому коду пуст
	_, err = cacheRepo.Get(ctx, oldCode)
	assert.Error(t, err)

	// Новый код резолвится в новый URL
	resolved, err := linkService.Resolve(ctx, newCode)
	require.NoError(t, err)
	assert.Equal(t, newURL, resolved.OriginalURL)
}

// TestLinkService_UpdateLink_NotOwner проверяет запрет изменения чужой ссылки
func TestLinkService_UpdateLink_NotOwner(t *testing.T) {
	linkService, _, _ := setupTestService()
	ctx := context.Background()

	created, err := linkService.CreateLink(ctx, testOwner, &models.CreateLinkInput{
		OriginalURL: "https://example.com/test",
	})
	require.NoError(t, err)

	newURL := "https://evil.example.com"
	link, err := linkService.UpdateLink(ctx, "intruder", created.ID, &models.UpdateLinkInput{
		OriginalURL: &newURL,
	})

	assert.ErrorIs(t, err, service.ErrNotOwner)
	assert.Nil(t, link)
}

// TestLinkService_DeleteLink_Success проверяет удаление ссылки владельцем
func TestLinkService_DeleteLink_Success(t *testing.T) {
	linkService, linkRepo, cacheRepo := setupTestService()
	ctx := context.Background()

	created, err := linkService.CreateLink(ctx, testOwner, &models.CreateLinkInput{
		OriginalURL: "https://example.com/test",
	})
	require.NoError(t, err)

	err = linkService.DeleteLink(ctx, testOwner, created.ID)
	require.NoError(t, err)

	_, err = cacheRepo.Get(ctx, created.ShortCode)
	assert.Error(t, err)

	_, err = linkRepo.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, repository.ErrLinkNotFound)

	_, err = linkService.Resolve(ctx, created.ShortCode)
	assert.ErrorIs(t, err, repository.ErrLinkNotFound)
}

// TestLinkService_DeleteLink_NotOwner проверяет запрет удаления чужой ссылки
func TestLinkService_DeleteLink_NotOwner(t *testing.T) {
	linkService, _, _ := setupTestService()
	ctx := context.Background()

	created, err := linkService.CreateLink(ctx, testOwner, &models.CreateLinkInput{
		OriginalURL: "https://example.com/test",
	})
	require.NoError(t, err)

	err = linkService.DeleteLink(ctx, "intruder", created.ID)
	assert.ErrorIs(t, err, service.ErrNotOwner)
}
