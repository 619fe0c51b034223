package servers

// Record is one entry of the public server listing.
type Record struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Type        string   `json:"type"`
	Software    string   `json:"software"`
	Host        string   `json:"host"`
	Port        string   `json:"port"`
	WebsiteURL  *string  `json:"website_url,omitempty"`
	DiscordURL  *string  `json:"discord_url,omitempty"`
	Players     *Players `json:"players,omitempty"`
}

type Players struct {
	Count     int    `json:"count"`
	UpdatedAt string `json:"updated_at"`
	Age       string `json:"age"` // e.g. "5 minutes ago"
}

// Match is a resolved record with the similarity that selected it
// (1.0 for an exact match).
type Match struct {
	Record Record
	Score  float64
	Exact  bool
}
