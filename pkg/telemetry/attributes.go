package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Стандартные ключи атрибутов
const (
	// Входные данные
	AttrAlgorithm       = "sim.algorithm"
	AttrFrames          = "sim.frames"
	AttrReferenceLength = "sim.reference_length"

	// Результат
	AttrFaults  = "sim.faults"
	AttrHits    = "sim.hits"
	AttrHitRate = "sim.hit_rate"

	// Сессия
	AttrSessionID = "session.id"
	AttrCursor    = "session.cursor"
	AttrState     = "session.state"

	// Пояснения и отчёты
	AttrExplainKind   = "explainer.kind"
	AttrExplainCached = "explainer.cached"
	AttrCacheRemoved  = "explainer.cache_removed"
	AttrReportFormat  = "report.format"
	AttrReportBytes   = "report.bytes"

	// Resource
	AttrDefaultAlgorithm = "sim.default_algorithm"
	AttrMinFrames        = "sim.min_frames"
	AttrMaxFrames        = "sim.max_frames"
	AttrMaxReferences    = "sim.max_reference_length"
)

// InputAttributes атрибуты входа симуляции
func InputAttributes(algorithm string, frames, refs int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrAlgorithm, algorithm),
		attribute.Int(AttrFrames, frames),
		attribute.Int(AttrReferenceLength, refs),
	}
}

// ResultAttributes атрибуты результата симуляции
func ResultAttributes(faults, hits int) []attribute.KeyValue {
	rate := 0.0
	if total := faults + hits; total > 0 {
		rate = float64(hits) / float64(total)
	}
	return []attribute.KeyValue{
		attribute.Int(AttrFaults, faults),
		attribute.Int(AttrHits, hits),
		attribute.Float64(AttrHitRate, rate),
	}
}

// SessionAttributes атрибуты сессии
func SessionAttributes(id string, cursor int, state string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrSessionID, id),
		attribute.Int(AttrCursor, cursor),
		attribute.String(AttrState, state),
	}
}
