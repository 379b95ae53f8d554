package service

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/shenikar/critter_connect/internal/models"
	"github.com/shenikar/critter_connect/internal/service/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var pngBytes = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x01}

func pngDataURL() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes)
}

func newTestMediaService(t *testing.T) (*mediaService, *mocks.MockObjectStorage, *mocks.MockImageRepository) {
	ctrl := gomock.NewController(t)
	storageMock := mocks.NewMockObjectStorage(ctrl)
	imagesMock := mocks.NewMockImageRepository(ctrl)

	svc := NewMediaService(storageMock, imagesMock, "https://api.example.org/", newSilentLogger()).(*mediaService)
	return svc, storageMock, imagesMock
}

func TestStoreImage_UploadsToStorage(t *testing.T) {
	svc, storageMock, _ := newTestMediaService(t)
	ctx := context.Background()

	storageMock.EXPECT().
		Upload(ctx, gomock.Any(), pngBytes, "image/png").
		DoAndReturn(func(_ context.Context, name string, _ []byte, _ string) (string, error) {
			assert.True(t, strings.HasPrefix(name, "incident-images/"))
			assert.True(t, strings.HasSuffix(name, ".jpg"))
			return "https://storage.googleapis.com/bucket/" + name, nil
		})

	stored, err := svc.StoreImage(ctx, pngDataURL())

	require.NoError(t, err)
	assert.Equal(t, "https://storage.googleapis.com/bucket/"+stored.Filename, stored.URL)
	assert.Empty(t, stored.Note)
}

func TestStoreImage_FallbackRoundTrip(t *testing.T) {
	svc, storageMock, imagesMock := newTestMediaService(t)
	ctx := context.Background()
	var saved *models.FallbackImage

	storageMock.EXPECT().Upload(ctx, gomock.Any(), gomock.Any(), gomock.Any()).Return("", errors.New("bucket unavailable"))
	imagesMock.EXPECT().
		SaveFallback(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, img *models.FallbackImage) error {
			img.ID = "fb-1"
			saved = img
			return nil
		})

	stored, err := svc.StoreImage(ctx, pngDataURL())

	require.NoError(t, err)
	assert.Equal(t, "https://api.example.org/api/v1/reports/images/fb-1", stored.URL)
	assert.Equal(t, "fallback-fb-1.jpg", stored.Filename)
	assert.Equal(t, fallbackNote, stored.Note)
	require.NotNil(t, saved)
	assert.Equal(t, len(pngBytes), saved.Size)

	imagesMock.EXPECT().GetFallback(ctx, "fb-1").Return(saved, nil)

	payload, err := svc.GetFallbackImage(ctx, "fb-1")

	require.NoError(t, err)
	assert.Equal(t, "image/png", payload.ContentType)
	assert.Equal(t, pngBytes, payload.Data)
}

func TestStoreImage_NoStorageUsesFallback(t *testing.T) {
	ctrl := gomock.NewController(t)
	imagesMock := mocks.NewMockImageRepository(ctrl)
	svc := NewMediaService(nil, imagesMock, "", newSilentLogger())

	imagesMock.EXPECT().SaveFallback(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, img *models.FallbackImage) error {
			img.ID = "fb-2"
			return nil
		})

	stored, err := svc.StoreImage(context.Background(), base64.StdEncoding.EncodeToString(pngBytes))

	require.NoError(t, err)
	assert.Equal(t, "/api/v1/reports/images/fb-2", stored.URL)
}

func TestStoreImage_BothPathsFail(t *testing.T) {
	svc, storageMock, imagesMock := newTestMediaService(t)

	storageMock.EXPECT().Upload(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return("", errors.New("bucket unavailable"))
	imagesMock.EXPECT().SaveFallback(gomock.Any(), gomock.Any()).Return(errors.New("quota exceeded"))

	stored, err := svc.StoreImage(context.Background(), pngDataURL())

	assert.Nil(t, stored)
	assert.ErrorIs(t, err, ErrStorageUnavailable)
	assert.NotErrorIs(t, err, ErrValidation)
}

func TestStoreImage_InvalidPayload(t *testing.T) {
	svc, _, _ := newTestMediaService(t)

	for _, payload := range []string{"", "   ", "data:image/png;base64,@@@not-base64@@@"} {
		_, err := svc.StoreImage(context.Background(), payload)
		assert.ErrorIs(t, err, ErrValidation, payload)
	}
}

func TestGetFallbackImage_NotFound(t *testing.T) {
	svc, _, imagesMock := newTestMediaService(t)
	imagesMock.EXPECT().GetFallback(gomock.Any(), "missing").Return(nil, ErrNotFound)

	_, err := svc.GetFallbackImage(context.Background(), "missing")

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetFallbackImage_DefaultsToJPEG(t *testing.T) {
	svc, _, imagesMock := newTestMediaService(t)
	imagesMock.EXPECT().GetFallback(gomock.Any(), "fb-3").
		Return(&models.FallbackImage{ID: "fb-3", ImageData: base64.StdEncoding.EncodeToString(pngBytes)}, nil)

	payload, err := svc.GetFallbackImage(context.Background(), "fb-3")

	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", payload.ContentType)
}
