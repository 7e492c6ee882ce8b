package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"chatwave/internal/domain/entity"
	"chatwave/internal/domain/repository"
	"chatwave/pkg/errors"
)

type firestoreFileMetadataRepository struct {
	client *firestore.Client
}

func NewFirestoreFileMetadataRepository(client *firestore.Client) repository.FileMetadataRepository {
	return &firestoreFileMetadataRepository{
		client: client,
	}
}

func (r *firestoreFileMetadataRepository) Create(ctx context.Context, meta *entity.FileMetadata) error {
	if meta.ID == "" {
		meta.ID = uuid.New().String()
	}
	meta.CreatedAt = time.Now()

	_, err := r.client.Collection("files").Doc(meta.ID).Set(ctx, meta)
	if err != nil {
		return errors.Internal("Failed to create file metadata", err)
	}

	return nil
}

func (r *firestoreFileMetadataRepository) GetByID(ctx context.Context, id string) (*entity.FileMetadata, error) {
	doc, err := r.client.Collection("files").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("File", err)
		}
		return nil, errors.Internal("Failed to get file metadata", err)
	}

	var meta entity.FileMetadata
	if err := doc.DataTo(&meta); err != nil {
		return nil, errors.Internal("Failed to parse file metadata", err)
	}

	return &meta, nil
}

func (r *firestoreFileMetadataRepository) ListByUploader(ctx context.Context, userID string, limit, offset int) ([]*entity.FileMetadata, int64, error) {
	query := r.client.Collection("files").
		Where("uploadedBy", "==", userID).
		OrderBy("createdAt", firestore.Desc)

	allDocs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, 0, errors.Internal("Failed to list files", err)
	}

	total := int64(len(allDocs))

	start := offset
	if start > len(allDocs) {
		start = len(allDocs)
	}
	end := len(allDocs)
	if limit > 0 && start+limit < end {
		end = start + limit
	}

	var files []*entity.FileMetadata
	for i := start; i < end; i++ {
		var meta entity.FileMetadata
		if err := allDocs[i].DataTo(&meta); err != nil {
			continue // Skip malformed documents
		}
		files = append(files, &meta)
	}

	return files, total, nil
}

func (r *firestoreFileMetadataRepository) Delete(ctx context.Context, id string) error {
	_, err := r.client.Collection("files").Doc(id).Delete(ctx)
	if err != nil {
		return errors.Internal("Failed to delete file metadata", err)
	}

	return nil
}
