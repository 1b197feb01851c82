package generation

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/tvnz/video-generator/internal/model"
	"github.com/tvnz/video-generator/internal/port/inbound"
	"github.com/tvnz/video-generator/internal/port/outbound"
	apperrors "github.com/tvnz/video-generator/internal/utils/errors"
	"github.com/tvnz/video-generator/internal/utils/metrics"
	"github.com/tvnz/video-generator/internal/utils/requestctx"
)

// Domain implements the generation gateway.
type Domain struct {
	policy  *MediaPolicy
	scratch outbound.ScratchStorePort
	api     outbound.GenerationAPIPort
	params  model.GenerationParameters
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewDomain creates a new generation domain. m may be nil.
func NewDomain(
	policy *MediaPolicy,
	scratch outbound.ScratchStorePort,
	api outbound.GenerationAPIPort,
	params model.GenerationParameters,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Domain {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Domain{
		policy:  policy,
		scratch: scratch,
		api:     api,
		params:  params,
		metrics: m,
		logger:  logger,
	}
}

// SubmitImage implements inbound.GenerationDomain.
func (d *Domain) SubmitImage(ctx context.Context, upload *inbound.UploadInput, promptText *string) ([]byte, error) {
	log := d.logger.With(zap.String("request_id", requestctx.RequestID(ctx)))

	body, err := d.submitImage(ctx, log, upload, promptText)
	if err != nil {
		logFailure(log, "submit", err)
	}
	return body, err
}

func (d *Domain) submitImage(ctx context.Context, log *zap.Logger, upload *inbound.UploadInput, promptText *string) ([]byte, error) {
	image, err := d.validate(upload)
	if err != nil {
		return nil, err
	}

	src, err := upload.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	path, err := d.scratch.Save(ctx, image.Filename, src)
	_ = src.Close()
	if err != nil {
		return nil, err
	}
	defer d.removeScratch(ctx, log, path)

	data, err := d.scratch.Read(ctx, path)
	if err != nil {
		return nil, err
	}

	image.DetectedType = mimetype.Detect(data).String()
	d.recordUpload(metrics.UploadAccepted, int64(len(data)))
	log.Info("Image received",
		zap.String("filename", image.Filename),
		zap.String("mime_type", image.MIMEType),
		zap.String("detected_type", image.DetectedType),
		zap.Int("bytes", len(data)))
	if !mimetype.EqualsAny(image.DetectedType, image.MIMEType) {
		log.Debug("Content does not match extension",
			zap.String("extension", image.Extension),
			zap.String("detected_type", image.DetectedType))
	}

	if !d.api.Configured() {
		return nil, TokenNotConfigured()
	}

	req := model.NewGenerationRequest(model.DataURL(image.MIMEType, data), promptText, d.params)
	resp, err := d.api.SubmitImageToVideo(ctx, req)
	if err != nil {
		return nil, err
	}

	log.Info("Generation submitted", zap.Int("upstream_status", resp.StatusCode))
	return relay(resp)
}

// CheckStatus implements inbound.GenerationDomain.
func (d *Domain) CheckStatus(ctx context.Context, taskID string) ([]byte, error) {
	log := d.logger.With(
		zap.String("request_id", requestctx.RequestID(ctx)),
		zap.String("task_id", taskID))

	body, err := d.checkStatus(ctx, log, taskID)
	if err != nil {
		logFailure(log, "status", err)
	}
	return body, err
}

func (d *Domain) checkStatus(ctx context.Context, log *zap.Logger, taskID string) ([]byte, error) {
	if !d.api.Configured() {
		return nil, TokenNotConfigured()
	}

	resp, err := d.api.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	log.Debug("Task status fetched", zap.Int("upstream_status", resp.StatusCode))
	return relay(resp)
}

// validate applies the upload checks in order: field present, filename
// present, extension allowed.
func (d *Domain) validate(upload *inbound.UploadInput) (*model.UploadedImage, error) {
	switch {
	case upload == nil:
		d.recordUpload(metrics.UploadMissing, 0)
		return nil, apperrors.MissingInput("No image file provided")
	case upload.Filename == "":
		d.recordUpload(metrics.UploadMissing, 0)
		return nil, apperrors.MissingInput("No file selected")
	}

	mime, ok := d.policy.MIMEFor(upload.Filename)
	if !ok {
		d.recordUpload(metrics.UploadUnsupported, 0)
		return nil, apperrors.UnsupportedMediaType("")
	}

	return &model.UploadedImage{
		Filename:  upload.Filename,
		Extension: Extension(upload.Filename),
		MIMEType:  mime,
		Size:      upload.Size,
	}, nil
}

// removeScratch deletes a scratch file. Failures are logged only.
func (d *Domain) removeScratch(ctx context.Context, log *zap.Logger, path string) {
	if err := d.scratch.Remove(context.WithoutCancel(ctx), path); err != nil {
		log.Warn("Failed to remove scratch file", zap.String("path", path), zap.Error(err))
	}
}

// logFailure logs err at a level matching its class. Client mistakes stay
// at debug.
func logFailure(log *zap.Logger, operation string, err error) {
	fields := []zap.Field{zap.String("operation", operation), zap.Error(err)}
	switch {
	case apperrors.IsMissingInput(err), apperrors.IsUnsupportedMediaType(err):
		log.Debug("Upload rejected", fields...)
	case apperrors.IsConfiguration(err):
		log.Error("Generation API not configured", fields...)
	case apperrors.IsUpstream(err):
		log.Warn("Upstream returned an error", fields...)
	case apperrors.IsTimeout(err):
		log.Warn("Upstream timed out", fields...)
	default:
		log.Error("Generation request failed", fields...)
	}
}

func (d *Domain) recordUpload(outcome string, size int64) {
	if d.metrics != nil {
		d.metrics.RecordUpload(outcome, size)
	}
}

// relay returns a 200 body unchanged and turns any other status into an
// upstream error carrying the raw text.
func relay(resp *model.UpstreamResponse) ([]byte, error) {
	if !resp.OK() {
		return nil, apperrors.Upstream(resp.StatusCode, resp.Text())
	}
	if !json.Valid(resp.Body) {
		return nil, apperrors.Internal("Upstream returned invalid JSON", nil)
	}
	return resp.Body, nil
}

var _ inbound.GenerationDomain = (*Domain)(nil)
