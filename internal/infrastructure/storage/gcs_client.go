package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

// extensions maps the accepted media content types to object name suffixes.
// Anything outside this map is rejected before a byte is uploaded.
var extensions = map[string]string{
	"image/jpeg":      ".jpg",
	"image/jpg":       ".jpg",
	"image/png":       ".png",
	"image/gif":       ".gif",
	"image/webp":      ".webp",
	"audio/mpeg":      ".mp3",
	"audio/ogg":       ".ogg",
	"video/mp4":       ".mp4",
	"video/webm":      ".webm",
	"application/pdf": ".pdf",
}

// AllowedContentType reports whether contentType may be uploaded as chat media.
func AllowedContentType(contentType string) bool {
	_, ok := extensions[contentType]
	return ok
}

type CloudStorageClient struct {
	client     *storage.Client
	bucketName string
}

func NewCloudStorageClient(ctx context.Context, bucketName, credentialsPath string) (*CloudStorageClient, error) {
	var opts []option.ClientOption
	if credentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsPath))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %v", err)
	}

	return &CloudStorageClient{
		client:     client,
		bucketName: bucketName,
	}, nil
}

// UploadChatMedia stores one media object under the chat's folder and
// returns its public URL together with the object name used for deletion.
func (c *CloudStorageClient) UploadChatMedia(ctx context.Context, file io.Reader, contentType, chatID string) (url, objectName string, err error) {
	ext, ok := extensions[contentType]
	if !ok {
		return "", "", fmt.Errorf("unsupported content type %q", contentType)
	}

	objectName = fmt.Sprintf("chats/%s/%s-%s%s", chatID, uuid.New().String(), time.Now().Format("20060102150405"), ext)

	obj := c.client.Bucket(c.bucketName).Object(objectName)
	wc := obj.NewWriter(ctx)
	wc.ContentType = contentType
	wc.CacheControl = "public, max-age=86400"

	if _, err := io.Copy(wc, file); err != nil {
		wc.Close()
		return "", "", fmt.Errorf("failed to copy file to GCS: %v", err)
	}
	if err := wc.Close(); err != nil {
		return "", "", fmt.Errorf("failed to close writer: %v", err)
	}

	if err := obj.ACL().Set(ctx, storage.AllUsers, storage.RoleReader); err != nil {
		return "", "", fmt.Errorf("failed to set ACL: %v", err)
	}

	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", c.bucketName, objectName), objectName, nil
}

// UploadAvatar stores a profile picture for the user, replacing nothing.
// Old avatars are cleaned up lazily by a bucket lifecycle rule.
func (c *CloudStorageClient) UploadAvatar(ctx context.Context, file io.Reader, contentType, userID string) (string, error) {
	ext, ok := extensions[contentType]
	if !ok || !strings.HasPrefix(contentType, "image/") {
		return "", fmt.Errorf("unsupported content type %q", contentType)
	}

	objectName := fmt.Sprintf("avatars/%s/%s%s", userID, uuid.New().String(), ext)

	obj := c.client.Bucket(c.bucketName).Object(objectName)
	wc := obj.NewWriter(ctx)
	wc.ContentType = contentType
	wc.CacheControl = "public, max-age=86400"

	if _, err := io.Copy(wc, file); err != nil {
		wc.Close()
		return "", fmt.Errorf("failed to copy file to GCS: %v", err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("failed to close writer: %v", err)
	}

	if err := obj.ACL().Set(ctx, storage.AllUsers, storage.RoleReader); err != nil {
		return "", fmt.Errorf("failed to set ACL: %v", err)
	}

	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", c.bucketName, objectName), nil
}

// DeleteObject removes an object by the name recorded at upload time.
func (c *CloudStorageClient) DeleteObject(ctx context.Context, objectName string) error {
	if err := c.client.Bucket(c.bucketName).Object(objectName).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete object %s: %v", objectName, err)
	}
	return nil
}

func (c *CloudStorageClient) Close() error {
	return c.client.Close()
}
