package service

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"video-intel-be/internal/dto"
	"video-intel-be/internal/entity"
	"video-intel-be/internal/model"
	"video-intel-be/internal/repository/specification"
	"video-intel-be/internal/repository/unitofwork"
	"video-intel-be/internal/websocket"
	"video-intel-be/pkg/embedding"
	"video-intel-be/pkg/events"
	pktNats "video-intel-be/pkg/nats"
	"video-intel-be/pkg/transcription"
	"video-intel-be/pkg/utils"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

// Chunk sizing for transcript segments. 1500 chars is roughly 375 tokens,
// well inside embedding context limits; one segment of overlap keeps
// sentence continuity across chunk boundaries.
const (
	chunkSizeChars  = 1500
	chunkOverlapSeg = 1
)

type IIngestConsumerService interface {
	Consume(ctx context.Context) error
}

type ingestConsumerService struct {
	pubSub            *gochannel.GoChannel
	topicName         string
	uowFactory        unitofwork.RepositoryFactory
	transcriber       transcription.Provider
	embeddingProvider embedding.EmbeddingProvider
	hub               *websocket.Hub
	eventPublisher    *pktNats.Publisher
	uploadDir         string
}

func NewIngestConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	transcriber transcription.Provider,
	embeddingProvider embedding.EmbeddingProvider,
	hub *websocket.Hub,
	eventPublisher *pktNats.Publisher,
	uploadDir string,
) IIngestConsumerService {
	return &ingestConsumerService{
		pubSub:            pubSub,
		topicName:         topicName,
		uowFactory:        uowFactory,
		transcriber:       transcriber,
		embeddingProvider: embeddingProvider,
		hub:               hub,
		eventPublisher:    eventPublisher,
		uploadDir:         uploadDir,
	}
}

func (cs *ingestConsumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *ingestConsumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishIngestVideoMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal ingest message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	log.Printf("[INFO] Processing video ingestion for VideoId: %s", payload.VideoId)

	uow := cs.uowFactory.NewUnitOfWork(ctx)

	video, err := uow.VideoRepository().FindOne(ctx, specification.ByID{ID: payload.VideoId})
	if err != nil {
		log.Printf("[ERROR] Failed to get video %s: %v", payload.VideoId, err)
		msg.Nack()
		return
	}
	if video == nil {
		log.Printf("[ERROR] Video not found: %s", payload.VideoId)
		msg.Ack() // Video deleted? Ack.
		return
	}

	// Phase 1: transcription
	cs.updateStatus(ctx, uow, video, model.VideoStatusTranscribing, 10, "")

	mediaPath := filepath.Join(cs.uploadDir, video.FileName)
	media, err := os.Open(mediaPath)
	if err != nil {
		cs.fail(ctx, uow, video, "media file unavailable: "+err.Error())
		msg.Ack()
		return
	}

	transcript, err := cs.transcriber.Transcribe(ctx, video.FileName, media)
	media.Close()
	if err != nil {
		cs.fail(ctx, uow, video, "transcription failed: "+err.Error())
		msg.Ack()
		return
	}

	// Phase 2: chunking + embedding
	cs.updateStatus(ctx, uow, video, model.VideoStatusEmbedding, 40, "")

	chunks := utils.ChunkSegments(timedSegments(transcript), chunkSizeChars, chunkOverlapSeg)
	log.Printf("[INFO] Transcript split into %d chunks for video %s", len(chunks), video.Id)

	var newChunks []*entity.TranscriptChunk
	for i, chunk := range chunks {
		res, err := cs.embeddingProvider.Generate(chunk.Text, "RETRIEVAL_DOCUMENT")
		if err != nil {
			cs.fail(ctx, uow, video, "embedding failed: "+err.Error())
			msg.Ack()
			return
		}

		newChunks = append(newChunks, &entity.TranscriptChunk{
			Id:             uuid.New(),
			VideoId:        video.Id,
			Text:           chunk.Text,
			StartOffset:    chunk.Start,
			EndOffset:      chunk.End,
			ChunkIndex:     i,
			EmbeddingValue: res.Embedding.Values,
			CreatedAt:      time.Now(),
		})
	}

	// Phase 3: index swap
	if err := uow.Begin(ctx); err != nil {
		log.Printf("[ERROR] Failed to begin transaction: %v", err)
		msg.Nack()
		return
	}
	defer uow.Rollback()

	if err := uow.TranscriptChunkRepository().DeleteByVideoId(ctx, video.Id); err != nil {
		log.Printf("[ERROR] Failed to delete old chunks: %v", err)
		msg.Nack()
		return
	}
	if len(newChunks) > 0 {
		if err := uow.TranscriptChunkRepository().CreateBulk(ctx, newChunks); err != nil {
			log.Printf("[ERROR] Failed to create bulk chunks: %v", err)
			msg.Nack()
			return
		}
	}

	video.Status = model.VideoStatusReady
	video.Progress = 100
	video.StatusDetail = ""
	video.DurationSec = transcript.DurationSec
	if err := uow.VideoRepository().Update(ctx, video); err != nil {
		log.Printf("[ERROR] Failed to mark video ready: %v", err)
		msg.Nack()
		return
	}

	if err := uow.Commit(); err != nil {
		log.Printf("[ERROR] Failed to commit transaction: %v", err)
		msg.Nack()
		return
	}

	cs.notify(video, model.VideoStatusReady, 100, "")
	if cs.eventPublisher != nil {
		evt := events.NewVideoReady(video.Id.String(), video.UserId.String(), len(newChunks))
		if err := cs.eventPublisher.Publish(ctx, evt); err != nil {
			log.Printf("[WARN] Failed to publish video ready event: %v", err)
		}
	}

	log.Printf("[SUCCESS] Video processed: %d chunks for VideoId: %s", len(newChunks), video.Id)
	msg.Ack()
}

// updateStatus persists a phase transition and pushes it to connected clients.
func (cs *ingestConsumerService) updateStatus(ctx context.Context, uow unitofwork.UnitOfWork, video *entity.Video, status string, progress int, detail string) {
	if err := uow.VideoRepository().UpdateStatus(ctx, video.Id, status, progress, detail); err != nil {
		log.Printf("[WARN] Failed to update status for video %s: %v", video.Id, err)
	}
	cs.notify(video, status, progress, detail)
	if cs.eventPublisher != nil {
		evt := events.NewVideoStatusChanged(video.Id.String(), video.UserId.String(), status, progress)
		if err := cs.eventPublisher.Publish(ctx, evt); err != nil {
			log.Printf("[WARN] Failed to publish status event: %v", err)
		}
	}
}

// fail marks the video terminally failed. The message is Acked by the
// caller: the error status on the row is the record of what happened, and
// a re-upload is the retry path.
func (cs *ingestConsumerService) fail(ctx context.Context, uow unitofwork.UnitOfWork, video *entity.Video, detail string) {
	log.Printf("[ERROR] Ingestion failed for video %s: %s", video.Id, detail)
	if err := uow.VideoRepository().UpdateStatus(ctx, video.Id, model.VideoStatusError, video.Progress, detail); err != nil {
		log.Printf("[WARN] Failed to record error status for video %s: %v", video.Id, err)
	}
	cs.notify(video, model.VideoStatusError, video.Progress, detail)
	if cs.eventPublisher != nil {
		evt := events.NewVideoFailed(video.Id.String(), video.UserId.String(), detail)
		if err := cs.eventPublisher.Publish(ctx, evt); err != nil {
			log.Printf("[WARN] Failed to publish failure event: %v", err)
		}
	}
}

// timedSegments converts the transcript into chunkable segments. Some
// transcription servers return the text without segment timing; in that
// case the text is split directly and offsets are spread proportionally
// over the known duration, so citations stay roughly seekable.
func timedSegments(transcript *transcription.Transcript) []utils.TimedSegment {
	if len(transcript.Segments) > 1 {
		segments := make([]utils.TimedSegment, 0, len(transcript.Segments))
		for _, seg := range transcript.Segments {
			segments = append(segments, utils.TimedSegment{
				Text:  seg.Text,
				Start: seg.Start,
				End:   seg.End,
			})
		}
		return segments
	}

	if strings.TrimSpace(transcript.Text) == "" {
		return nil
	}

	parts := utils.SplitText(transcript.Text, chunkSizeChars, 0)
	totalRunes := len([]rune(transcript.Text))

	segments := make([]utils.TimedSegment, 0, len(parts))
	pos := 0
	for _, part := range parts {
		partRunes := len([]rune(part))
		var start, end float64
		if totalRunes > 0 && transcript.DurationSec > 0 {
			start = transcript.DurationSec * float64(pos) / float64(totalRunes)
			end = transcript.DurationSec * float64(pos+partRunes) / float64(totalRunes)
		}
		segments = append(segments, utils.TimedSegment{
			Text:  part,
			Start: start,
			End:   end,
		})
		pos += partRunes
	}
	return segments
}

func (cs *ingestConsumerService) notify(video *entity.Video, status string, progress int, detail string) {
	if cs.hub == nil {
		return
	}
	cs.hub.Send(video.UserId, websocket.ProgressMessage{
		VideoId:  video.Id.String(),
		Status:   status,
		Progress: progress,
		Detail:   detail,
	})
}
