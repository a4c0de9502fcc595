package renovi

// Panel is one ad slot returned by the campaigns endpoint.
type Panel struct {
	PanelName string     `json:"panelName"`
	Campaigns []Campaign `json:"campaigns"`
}

type Campaign struct {
	ID         string  `json:"id"`
	LayoutEnum string  `json:"layoutEnum,omitempty"`
	ImagePath  string  `json:"imagePath,omitempty"`
	ViewURL    string  `json:"viewUrl,omitempty"`
	WinURL     string  `json:"winUrl,omitempty"`
	Slides     []Slide `json:"slides,omitempty"`
}

type Slide struct {
	ID              string `json:"id"`
	Duration        int    `json:"duration,omitempty"`
	Position        int    `json:"position,omitempty"`
	ImagePath       string `json:"imagePath,omitempty"`
	BackgroundColor string `json:"backgroundColor,omitempty"`
}
