package handler

// Response bodies are part of the public contract and must not change.
const (
	overlayNotFoundText     = "Strava imagery not found"
	internalServerErrorText = "Something went wrong"
)
