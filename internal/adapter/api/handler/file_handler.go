package handler

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/labstack/echo/v4"

	"chatwave/internal/domain/entity"
	"chatwave/internal/domain/repository"
	"chatwave/internal/infrastructure/storage"
	"chatwave/internal/usecase"
	"chatwave/pkg/errors"
	"chatwave/pkg/logger"
	"chatwave/pkg/response"
	"chatwave/pkg/utils"
)

// MediaStore is the slice of the storage client the file endpoints need.
type MediaStore interface {
	UploadChatMedia(ctx context.Context, file io.Reader, contentType, chatID string) (url, objectName string, err error)
	UploadAvatar(ctx context.Context, file io.Reader, contentType, userID string) (string, error)
	DeleteObject(ctx context.Context, objectName string) error
}

type FileHandler struct {
	mediaStore       MediaStore
	fileMetadataRepo repository.FileMetadataRepository
	chatUseCase      *usecase.ChatUseCase
	userUseCase      *usecase.UserUseCase
	maxFileSize      int64
}

func NewFileHandler(mediaStore MediaStore, fileMetadataRepo repository.FileMetadataRepository, chatUseCase *usecase.ChatUseCase, userUseCase *usecase.UserUseCase) *FileHandler {
	return &FileHandler{
		mediaStore:       mediaStore,
		fileMetadataRepo: fileMetadataRepo,
		chatUseCase:      chatUseCase,
		userUseCase:      userUseCase,
		maxFileSize:      25 * 1024 * 1024,
	}
}

// UploadChatMedia stores a media file for a conversation the caller belongs
// to and returns the URL to reference from a subsequent message.
func (h *FileHandler) UploadChatMedia(c echo.Context) error {
	userID := c.Get("uid").(string)

	chatID := c.FormValue("chat_id")
	if chatID == "" {
		return response.Error(c, errors.BadRequest("chat_id is required", nil))
	}

	if err := h.chatUseCase.CanSubscribe(c.Request().Context(), userID, chatID); err != nil {
		return response.Error(c, err)
	}

	file, err := c.FormFile("file")
	if err != nil {
		return response.Error(c, errors.BadRequest("Missing or invalid file", err))
	}

	if file.Size > h.maxFileSize {
		return response.Error(c, errors.BadRequest(fmt.Sprintf("File size exceeds maximum allowed (%dMB)", h.maxFileSize/(1024*1024)), nil))
	}

	contentType := file.Header.Get("Content-Type")
	if !storage.AllowedContentType(contentType) {
		return response.Error(c, errors.BadRequest("File type not supported", nil))
	}

	src, err := file.Open()
	if err != nil {
		return response.Error(c, errors.Internal("Failed to open uploaded file", err))
	}
	defer src.Close()

	url, objectName, err := h.mediaStore.UploadChatMedia(c.Request().Context(), src, contentType, chatID)
	if err != nil {
		logger.Error("Upload failed for user %s on chat %s: %v", userID, chatID, err)
		return response.Error(c, errors.Internal("Failed to upload file", err))
	}

	meta := &entity.FileMetadata{
		URL:        url,
		ObjectName: objectName,
		ChatID:     chatID,
		UploadedBy: userID,
		Filename:   file.Filename,
		FileType:   contentType,
		FileSize:   file.Size,
	}
	if err := h.fileMetadataRepo.Create(c.Request().Context(), meta); err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, meta)
}

// UploadAvatar stores a new profile picture for the caller and points their
// profile at it.
func (h *FileHandler) UploadAvatar(c echo.Context) error {
	userID := c.Get("uid").(string)

	file, err := c.FormFile("file")
	if err != nil {
		return response.Error(c, errors.BadRequest("Missing or invalid file", err))
	}

	if file.Size > h.maxFileSize {
		return response.Error(c, errors.BadRequest(fmt.Sprintf("File size exceeds maximum allowed (%dMB)", h.maxFileSize/(1024*1024)), nil))
	}

	contentType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") || !storage.AllowedContentType(contentType) {
		return response.Error(c, errors.BadRequest("Avatar must be an image", nil))
	}

	src, err := file.Open()
	if err != nil {
		return response.Error(c, errors.Internal("Failed to open uploaded file", err))
	}
	defer src.Close()

	url, err := h.mediaStore.UploadAvatar(c.Request().Context(), src, contentType, userID)
	if err != nil {
		logger.Error("Avatar upload failed for user %s: %v", userID, err)
		return response.Error(c, errors.Internal("Failed to upload avatar", err))
	}

	user, err := h.userUseCase.UpdateProfile(c.Request().Context(), userID, usecase.UpdateProfileInput{AvatarURL: url})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, user)
}

func (h *FileHandler) ListMyUploads(c echo.Context) error {
	userID := c.Get("uid").(string)
	params := utils.GetPaginationParams(c)

	files, total, err := h.fileMetadataRepo.ListByUploader(c.Request().Context(), userID, params.PageSize, params.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, files, total, params.Page, params.PageSize)
}

// DeleteUpload removes both the stored object and its metadata. Only the
// uploader can remove a file.
func (h *FileHandler) DeleteUpload(c echo.Context) error {
	userID := c.Get("uid").(string)

	meta, err := h.fileMetadataRepo.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	if meta.UploadedBy != userID {
		return response.Error(c, errors.Forbidden("You can only delete your own uploads", nil))
	}

	if err := h.mediaStore.DeleteObject(c.Request().Context(), meta.ObjectName); err != nil {
		logger.Error("Failed to delete object %s: %v", meta.ObjectName, err)
	}
	if err := h.fileMetadataRepo.Delete(c.Request().Context(), meta.ID); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"status": "deleted"})
}
