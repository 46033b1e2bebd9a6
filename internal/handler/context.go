package handler

type ContextKey string

var (
	TimelineCtx         ContextKey = "timeline"
	RotationTemplateCtx ContextKey = "rotationTemplate"
	VacancyCtx          ContextKey = "vacancy"
)
