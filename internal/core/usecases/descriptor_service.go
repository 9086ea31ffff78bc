package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/samirrijal/multimap/internal/core/domain"
	"github.com/samirrijal/multimap/internal/core/ports"
	"github.com/samirrijal/multimap/internal/pkg/logging"
	"github.com/samirrijal/multimap/internal/pkg/metrics"
	"github.com/samirrijal/multimap/internal/pkg/telemetry"
)

// ErrBuildFailed wraps every error that prevents a descriptor from being emitted.
var ErrBuildFailed = errors.New("descriptor build failed")

// ImageResolver maps an attachment id to an image URL.
type ImageResolver interface {
	ResolveMedium(ctx context.Context, attachmentID int64) (string, error)
}

// DescriptorService turns raw pin settings into map instance descriptors.
type DescriptorService struct {
	images    ImageResolver
	publisher ports.EventPublisher
	now       func() time.Time
}

// NewDescriptorService creates a DescriptorService. images and publisher may be nil.
func NewDescriptorService(images ImageResolver, publisher ports.EventPublisher) *DescriptorService {
	return &DescriptorService{images: images, publisher: publisher, now: time.Now}
}

// Build normalizes rawPins into a descriptor for instance id.
// Malformed input never fails the build: a non-sequence yields no pins,
// unusable coordinates become 0, and failed image lookups drop the image.
func (s *DescriptorService) Build(ctx context.Context, rawPins any, id domain.InstanceID) (*domain.MapInstanceDescriptor, error) {
	start := s.now()
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanDescriptorBuild)
	defer span.End()
	span.SetAttributes(attribute.String(telemetry.AttrInstanceID, string(id)))

	log := logging.FromContext(ctx).With("instance_id", string(id))

	settings, ok := domain.DecodePins(rawPins)
	if !ok {
		log.Debug("pins setting is not a list, rendering an empty map", "type", fmt.Sprintf("%T", rawPins))
	}

	desc := &domain.MapInstanceDescriptor{
		InstanceID: id,
		Pins:       make([]domain.Pin, 0, len(settings)),
	}
	for i, ps := range settings {
		pin, err := s.buildPin(ctx, log.With("pin", i), ps)
		if err != nil {
			metrics.DescriptorBuildFailures.Inc()
			span.RecordError(err)
			span.SetStatus(codes.Error, "pin build failed")
			return nil, fmt.Errorf("%w: pin %d: %v", ErrBuildFailed, i, err)
		}
		desc.Pins = append(desc.Pins, pin)
	}

	span.SetAttributes(attribute.Int(telemetry.AttrPinCount, len(desc.Pins)))
	metrics.DescriptorsBuilt.Inc()
	metrics.PinsPerDescriptor.Observe(float64(len(desc.Pins)))
	metrics.DescriptorBuildDuration.Observe(s.now().Sub(start).Seconds())

	s.publish(ctx, desc)
	return desc, nil
}

func (s *DescriptorService) buildPin(ctx context.Context, log *slog.Logger, ps domain.PinSettings) (domain.Pin, error) {
	pin := domain.Pin{Name: ps.Name, Address: ps.Address}

	if lat, ok := domain.Coordinate(ps.Lat); ok {
		pin.Lat = lat
	} else {
		metrics.CoordinateFallbacks.WithLabelValues("lat").Inc()
		log.Debug("latitude is not numeric, using 0", "value", ps.Lat)
	}
	if lng, ok := domain.Coordinate(ps.Lng); ok {
		pin.Lng = lng
	} else {
		metrics.CoordinateFallbacks.WithLabelValues("lng").Inc()
		log.Debug("longitude is not numeric, using 0", "value", ps.Lng)
	}

	if ps.Image.HasID() && s.images != nil {
		url, err := s.images.ResolveMedium(ctx, ps.Image.ID)
		if err != nil {
			log.Debug("image lookup failed, omitting image", "attachment_id", ps.Image.ID, "error", err)
		} else if url != "" {
			pin.Image = &url
		}
	}

	if ps.Link.URL != "" {
		link := ps.Link.URL
		pin.URL = &link
	}

	html, err := RenderPopover(pin.Name, pin.Address, pin.Image, pin.URL)
	if err != nil {
		return domain.Pin{}, err
	}
	pin.HTML = html
	return pin, nil
}

// Encode serializes a descriptor into its wire format. The output escapes
// <, > and & so it can be embedded in an inline script.
func (s *DescriptorService) Encode(desc *domain.MapInstanceDescriptor) ([]byte, error) {
	if desc == nil {
		return nil, fmt.Errorf("%w: nil descriptor", ErrBuildFailed)
	}
	data, err := json.Marshal(desc)
	if err != nil {
		metrics.DescriptorBuildFailures.Inc()
		return nil, fmt.Errorf("%w: encode: %v", ErrBuildFailed, err)
	}
	return data, nil
}

// BuildJSON builds and encodes in one step. No bytes are returned on failure.
func (s *DescriptorService) BuildJSON(ctx context.Context, rawPins any, id domain.InstanceID) ([]byte, error) {
	desc, err := s.Build(ctx, rawPins, id)
	if err != nil {
		return nil, err
	}
	return s.Encode(desc)
}

func (s *DescriptorService) publish(ctx context.Context, desc *domain.MapInstanceDescriptor) {
	if s.publisher == nil {
		return
	}
	event := &domain.DescriptorBuilt{Descriptor: *desc, BuiltAt: s.now().Unix()}
	if err := s.publisher.PublishDescriptorBuilt(ctx, event); err != nil {
		logging.FromContext(ctx).Warn("publish descriptor failed", "instance_id", string(desc.InstanceID), "error", err)
	}
}
