package mapper

import (
	"time"

	"video-intel-be/internal/entity"
	"video-intel-be/internal/model"
)

type VideoMapper struct{}

func NewVideoMapper() *VideoMapper {
	return &VideoMapper{}
}

func (m *VideoMapper) ToEntity(v *model.Video) *entity.Video {
	if v == nil {
		return nil
	}

	var deletedAt *time.Time
	if v.DeletedAt.Valid {
		t := v.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !v.UpdatedAt.IsZero() {
		t := v.UpdatedAt
		updatedAt = &t
	}

	return &entity.Video{
		Id:           v.Id,
		UserId:       v.UserId,
		Title:        v.Title,
		FileName:     v.FileName,
		Status:       v.Status,
		Progress:     v.Progress,
		StatusDetail: v.StatusDetail,
		DurationSec:  v.DurationSec,
		CreatedAt:    v.CreatedAt,
		UpdatedAt:    updatedAt,
		DeletedAt:    deletedAt,
	}
}

func (m *VideoMapper) ToModel(e *entity.Video) *model.Video {
	if e == nil {
		return nil
	}

	v := &model.Video{
		Id:           e.Id,
		UserId:       e.UserId,
		Title:        e.Title,
		FileName:     e.FileName,
		Status:       e.Status,
		Progress:     e.Progress,
		StatusDetail: e.StatusDetail,
		DurationSec:  e.DurationSec,
		CreatedAt:    e.CreatedAt,
	}
	if e.UpdatedAt != nil {
		v.UpdatedAt = *e.UpdatedAt
	}
	return v
}
