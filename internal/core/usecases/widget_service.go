package usecases

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/url"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/multimap/internal/core/domain"
	"github.com/samirrijal/multimap/internal/pkg/logging"
	"github.com/samirrijal/multimap/internal/pkg/metrics"
	"github.com/samirrijal/multimap/internal/pkg/telemetry"
)

// Client globals shared with the bootstrap asset.
const (
	ClientInitFunc     = "multiMapInit"
	ClientCallbackData = "multiMapCallbackData"
)

// headTemplate holds the page-level style and scripts. It is emitted once
// per page. The map library is only loaded when it is not already present.
var headTemplate = template.Must(template.New("head").Parse(`<style>
.multiMapWrapper{position:relative;height:0;}
.multiMap{position:absolute;top:0;left:0;width:100%;height:100%;}
@media only screen and (max-width: 600px){.multiMapWrapper{padding-top:calc(16 / 9 * 100%) !important;}}
</style>
<script>
if (!(window.google && window.google.maps && window.google.maps.Map)) {
  var multiMapLibrary = document.createElement("script");
  multiMapLibrary.src = {{.LoaderSrc}};
  multiMapLibrary.async = true;
  document.head.append(multiMapLibrary);
}
</script>
<script src="{{.AssetURL}}"></script>
`))

var widgetTemplate = template.Must(template.New("widget").Parse(`<div class="multiMapWrapper" style="padding-top:calc({{.Height}} / {{.Width}} * 100%);">
<div class="multiMap" id="{{.ContainerID}}"></div>
</div>
<script>
if (!window.multiMapInit) {
  window.multiMapCallbackData = window.multiMapCallbackData || [];
  window.multiMapCallbackData.push({{.Descriptor}});
} else {
  window.multiMapInit({{.Descriptor}});
}
</script>
`))

// ErrDuplicateInstance is reported for a second widget with the same instance id.
var ErrDuplicateInstance = errors.New("duplicate instance id on page")

// WidgetConfig configures the rendered scripts.
type WidgetConfig struct {
	APIKey             string
	LoaderURL          string
	AssetURL           string
	DefaultAspectRatio string
}

// WidgetRequest is one widget to render on a page.
type WidgetRequest struct {
	InstanceID domain.InstanceID
	Settings   domain.WidgetSettings
}

// WidgetError reports a widget that was left out of a page.
type WidgetError struct {
	InstanceID domain.InstanceID
	Err        error
}

func (e WidgetError) Error() string {
	return fmt.Sprintf("widget %s: %v", e.InstanceID, e.Err)
}

func (e WidgetError) Unwrap() error { return e.Err }

// WidgetService renders map widgets as HTML fragments.
type WidgetService struct {
	descriptors *DescriptorService
	cfg         WidgetConfig
}

// NewWidgetService creates a WidgetService.
func NewWidgetService(descriptors *DescriptorService, cfg WidgetConfig) *WidgetService {
	if cfg.DefaultAspectRatio == "" {
		cfg.DefaultAspectRatio = domain.DefaultAspectRatio.String()
	}
	return &WidgetService{descriptors: descriptors, cfg: cfg}
}

// LoaderSrc is the map library script URL, with the API key when configured.
func (s *WidgetService) LoaderSrc() string {
	if s.cfg.APIKey == "" {
		return s.cfg.LoaderURL
	}
	sep := "?"
	if strings.Contains(s.cfg.LoaderURL, "?") {
		sep = "&"
	}
	return s.cfg.LoaderURL + sep + "key=" + url.QueryEscape(s.cfg.APIKey)
}

// HeadFragment renders the shared style and scripts.
func (s *WidgetService) HeadFragment() (string, error) {
	var b strings.Builder
	err := headTemplate.Execute(&b, struct {
		LoaderSrc string
		AssetURL  string
	}{s.LoaderSrc(), s.cfg.AssetURL})
	if err != nil {
		return "", fmt.Errorf("render head: %w", err)
	}
	return b.String(), nil
}

// RenderWidget renders one widget. The shared head fragment is prepended
// the first time reg is used. When the descriptor cannot be built nothing
// is rendered and the error wraps ErrBuildFailed.
func (s *WidgetService) RenderWidget(ctx context.Context, id domain.InstanceID, settings domain.WidgetSettings, reg *ScriptRegistry) (string, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanWidgetRender)
	defer span.End()
	span.SetAttributes(attribute.String(telemetry.AttrInstanceID, string(id)))

	data, err := s.descriptors.BuildJSON(ctx, settings.Pins, id)
	if err != nil {
		metrics.WidgetsRendered.WithLabelValues("failed").Inc()
		span.RecordError(err)
		return "", err
	}

	ratioSetting := settings.AspectRatio
	if ratioSetting == "" {
		ratioSetting = s.cfg.DefaultAspectRatio
	}
	ratio := domain.ParseAspectRatio(ratioSetting)

	var widget strings.Builder
	err = widgetTemplate.Execute(&widget, struct {
		Width       string
		Height      string
		ContainerID string
		Descriptor  template.JS
	}{
		Width:       strconv.FormatFloat(ratio.Width, 'f', -1, 64),
		Height:      strconv.FormatFloat(ratio.Height, 'f', -1, 64),
		ContainerID: id.ContainerID(),
		Descriptor:  template.JS(data),
	})
	if err != nil {
		metrics.WidgetsRendered.WithLabelValues("failed").Inc()
		return "", fmt.Errorf("%w: render widget: %v", ErrBuildFailed, err)
	}

	// The registry is consumed only after the widget itself has rendered.
	var head string
	var headErr error
	if reg != nil {
		reg.EnsureRegistered(func() {
			head, headErr = s.HeadFragment()
		})
	}
	if headErr != nil {
		metrics.WidgetsRendered.WithLabelValues("failed").Inc()
		return "", headErr
	}

	metrics.WidgetsRendered.WithLabelValues("ok").Inc()
	return head + widget.String(), nil
}

// RenderPage renders several widgets sharing one script registry. Widgets
// that fail, or that repeat an instance id, are skipped and reported.
func (s *WidgetService) RenderPage(ctx context.Context, widgets []WidgetRequest) (string, []WidgetError) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanPageRender)
	defer span.End()
	span.SetAttributes(attribute.Int(telemetry.AttrWidgetCount, len(widgets)))

	log := logging.FromContext(ctx)
	reg := NewScriptRegistry()
	seen := make(map[domain.InstanceID]bool, len(widgets))

	var b strings.Builder
	var failed []WidgetError
	for _, w := range widgets {
		if seen[w.InstanceID] {
			failed = append(failed, WidgetError{InstanceID: w.InstanceID, Err: ErrDuplicateInstance})
			continue
		}
		seen[w.InstanceID] = true

		html, err := s.RenderWidget(ctx, w.InstanceID, w.Settings, reg)
		if err != nil {
			log.Warn("widget skipped", "instance_id", string(w.InstanceID), "error", err)
			failed = append(failed, WidgetError{InstanceID: w.InstanceID, Err: err})
			continue
		}
		b.WriteString(html)
	}
	return b.String(), failed
}
