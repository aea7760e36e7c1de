package types

type ProjectRecord struct {
	Name        string `json:"name"`
	Entity      string `json:"entity"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
	URL         string `json:"url"`
}

// Status is the payload of the wandb://status resource.
type Status struct {
	Status        string   `json:"status"`
	APIAvailable  bool     `json:"api_available"`
	Username      string   `json:"username,omitempty"`
	Teams         []string `json:"teams"`
	ClientVersion string   `json:"client_version"`
	Message       string   `json:"message"`
}
