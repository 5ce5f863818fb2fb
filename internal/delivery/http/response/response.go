package response

type Error struct {
	Error string `json:"error"`
}

// Health reports each dependency as "healthy" or "unhealthy".
type Health struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}
