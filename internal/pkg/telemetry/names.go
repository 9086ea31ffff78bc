package telemetry

// Span names used for instrumentation.
const (
	SpanDescriptorBuild = "multimap.descriptor.build"
	SpanMediaResolve    = "multimap.media.resolve"
	SpanWidgetRender    = "multimap.widget.render"
	SpanPageRender      = "multimap.page.render"
	SpanMapInitialize   = "multimap.map.initialize"
	SpanPreviewRender   = "multimap.preview.render"
)

// Attribute keys.
const (
	AttrInstanceID   = "multimap.instance_id"
	AttrPinCount     = "multimap.pin_count"
	AttrAttachmentID = "multimap.attachment_id"
	AttrCacheHit     = "multimap.cache_hit"
	AttrWidgetCount  = "multimap.widget_count"
)
