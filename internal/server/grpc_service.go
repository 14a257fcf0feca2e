package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/contacts-extractor/internal/common"
	"github.com/joseph-ayodele/contacts-extractor/internal/core"
	"github.com/joseph-ayodele/contacts-extractor/internal/core/async"
	"github.com/joseph-ayodele/contacts-extractor/internal/entity"
	"github.com/joseph-ayodele/contacts-extractor/internal/repository"
	"github.com/joseph-ayodele/contacts-extractor/internal/utils"
)

// Processor is the pipeline the services drive.
type Processor interface {
	ProcessFile(ctx context.Context, path string) (*core.Result, error)
	ProcessText(ctx context.Context, source, text string) (*core.Result, error)
}

// ContactService implements ContactExtractorServer.
type ContactService struct {
	proc   Processor
	runs   repository.RunRepository // optional
	queue  async.Queue              // optional; enables async ProcessFile
	logger *slog.Logger
}

var _ ContactExtractorServer = (*ContactService)(nil)

func NewContactService(proc Processor, runs repository.RunRepository, queue async.Queue, logger *slog.Logger) *ContactService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ContactService{proc: proc, runs: runs, queue: queue, logger: logger}
}

func (s *ContactService) ExtractText(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	text := req.GetFields()["text"].GetStringValue()
	if text == "" {
		return nil, common.InvalidArgumentError("text is required")
	}
	source := utils.StructString(req, "source")
	if source == "" {
		source = "grpc"
	}

	res, err := s.proc.ProcessText(ctx, source, text)
	if err != nil {
		s.logger.Error("extract text failed", "source", source, "error", err)
		return nil, common.ToStatus(err)
	}
	return utils.NewStruct(resultMap(res))
}

func (s *ContactService) ProcessFile(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	path := utils.StructString(req, "path")
	if path == "" {
		return nil, common.InvalidArgumentError("path is required")
	}

	if utils.StructBool(req, "async") {
		if s.queue == nil {
			return nil, common.InvalidArgumentError("async processing is not enabled")
		}
		job := async.Job{Path: path, SubmittedAt: time.Now(), TraceID: common.RequestIDFromContext(ctx)}
		if err := s.queue.Enqueue(ctx, job); err != nil {
			return nil, common.UnavailableError(err.Error())
		}
		s.logger.Info("file queued", "path", path)
		return utils.NewStruct(map[string]any{"queued": true, "path": path})
	}

	s.logger.Info("processing file", "path", path)
	res, err := s.proc.ProcessFile(ctx, path)
	if err != nil {
		s.logger.Error("process file failed", "path", path, "error", err)
		return nil, common.ToStatus(err)
	}
	return utils.NewStruct(resultMap(res))
}

func (s *ContactService) GetRun(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	runID, err := s.runID(req)
	if err != nil {
		return nil, err
	}
	run, err := s.runs.GetRun(ctx, runID)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	return utils.NewStruct(utils.RunMap(run))
}

func (s *ContactService) ListContacts(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	runID, err := s.runID(req)
	if err != nil {
		return nil, err
	}
	stored, err := s.runs.ListContacts(ctx, runID)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	contacts := make([]entity.Contact, len(stored))
	for i, sc := range stored {
		contacts[i] = sc.Contact
	}
	return utils.NewStruct(map[string]any{
		"run_id":   runID.String(),
		"count":    len(contacts),
		"contacts": utils.ContactsList(contacts),
	})
}

func (s *ContactService) runID(req *structpb.Struct) (uuid.UUID, error) {
	if s.runs == nil {
		return uuid.Nil, common.UnavailableError("run store is not configured")
	}
	raw := utils.StructString(req, "run_id")
	id, err := uuid.Parse(raw)
	if err != nil || raw == "" {
		return uuid.Nil, common.InvalidArgumentError("run_id must be a UUID")
	}
	return id, nil
}

func resultMap(res *core.Result) map[string]any {
	warnings := make([]any, len(res.Warnings))
	for i, w := range res.Warnings {
		warnings[i] = w
	}
	m := map[string]any{
		"source":      res.SourcePath,
		"source_type": res.SourceType,
		"method":      res.Method,
		"pages":       res.Pages,
		"count":       len(res.Contacts),
		"contacts":    utils.ContactsList(res.Contacts),
		"warnings":    warnings,
		"duration_ms": res.Duration.Milliseconds(),
	}
	if res.RunID != uuid.Nil {
		m["run_id"] = res.RunID.String()
	}
	return m
}
