package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"video-intel-be/internal/dto"
	"video-intel-be/internal/entity"
	"video-intel-be/internal/model"
	"video-intel-be/internal/repository/specification"
	"video-intel-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

type IVideoService interface {
	Upload(ctx context.Context, userId uuid.UUID, title, originalName string, file io.Reader) (*dto.UploadVideoResponse, error)
	Status(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.VideoStatusResponse, error)
	List(ctx context.Context, userId uuid.UUID) ([]*dto.VideoListItemResponse, error)
	Delete(ctx context.Context, userId uuid.UUID, id uuid.UUID) error
}

type videoService struct {
	uowFactory       unitofwork.RepositoryFactory
	publisherService IPublisherService
	uploadDir        string
}

func NewVideoService(
	uowFactory unitofwork.RepositoryFactory,
	publisherService IPublisherService,
	uploadDir string,
) IVideoService {
	return &videoService{
		uowFactory:       uowFactory,
		publisherService: publisherService,
		uploadDir:        uploadDir,
	}
}

// Upload stores the media file, registers the video as queued and hands it
// to the ingestion consumer. The response returns immediately; progress is
// observed via Status or the websocket feed.
func (s *videoService) Upload(ctx context.Context, userId uuid.UUID, title, originalName string, file io.Reader) (*dto.UploadVideoResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	videoId := uuid.New()
	ext := strings.ToLower(filepath.Ext(originalName))
	storedName := videoId.String() + ext

	if err := os.MkdirAll(s.uploadDir, 0755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	dst, err := os.Create(filepath.Join(s.uploadDir, storedName))
	if err != nil {
		return nil, fmt.Errorf("create upload file: %w", err)
	}
	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return nil, fmt.Errorf("store upload: %w", err)
	}
	if err := dst.Close(); err != nil {
		return nil, err
	}

	if title == "" {
		title = strings.TrimSuffix(originalName, ext)
	}

	video := &entity.Video{
		Id:        videoId,
		UserId:    userId,
		Title:     title,
		FileName:  storedName,
		Status:    model.VideoStatusQueued,
		Progress:  0,
		CreatedAt: time.Now(),
	}

	if err := uow.VideoRepository().Create(ctx, video); err != nil {
		os.Remove(filepath.Join(s.uploadDir, storedName))
		return nil, err
	}

	msgPayload := dto.PublishIngestVideoMessage{
		VideoId: video.Id,
		UserId:  userId,
	}
	msgJson, err := json.Marshal(msgPayload)
	if err != nil {
		return nil, err
	}
	if err := s.publisherService.Publish(ctx, msgJson); err != nil {
		return nil, err
	}

	return &dto.UploadVideoResponse{
		Id:     video.Id,
		Status: video.Status,
	}, nil
}

func (s *videoService) Status(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.VideoStatusResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	video, err := uow.VideoRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if video == nil {
		return nil, errors.New("video not found or access denied")
	}

	return &dto.VideoStatusResponse{
		Id:           video.Id,
		Title:        video.Title,
		Status:       video.Status,
		Progress:     video.Progress,
		StatusDetail: video.StatusDetail,
		DurationSec:  video.DurationSec,
	}, nil
}

func (s *videoService) List(ctx context.Context, userId uuid.UUID) ([]*dto.VideoListItemResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	videos, err := uow.VideoRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	response := make([]*dto.VideoListItemResponse, 0, len(videos))
	for _, v := range videos {
		item := &dto.VideoListItemResponse{
			Id:          v.Id,
			Title:       v.Title,
			Status:      v.Status,
			DurationSec: v.DurationSec,
			CreatedAt:   v.CreatedAt,
			UpdatedAt:   v.UpdatedAt,
		}
		if v.Status == model.VideoStatusReady {
			item.PlaybackUrl = "/media/" + v.FileName
		}
		response = append(response, item)
	}

	return response, nil
}

func (s *videoService) Delete(ctx context.Context, userId uuid.UUID, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	video, err := uow.VideoRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return err
	}
	if video == nil {
		return errors.New("video not found or access denied")
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.TranscriptChunkRepository().DeleteByVideoId(ctx, id); err != nil {
		return err
	}
	if err := uow.VideoRepository().Delete(ctx, id); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return err
	}

	// Media file removal is best effort; the row is already gone.
	os.Remove(filepath.Join(s.uploadDir, video.FileName))

	return nil
}
