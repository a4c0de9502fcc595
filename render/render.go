package render

import (
	"bytes"
	"fmt"
	"html/template"
	"sort"
	"strings"

	"github.com/digital-lumenspei/renovi-web-sdk/config"
	"github.com/digital-lumenspei/renovi-web-sdk/renovi"
)

var panelTemplate = template.Must(template.New("panel").Parse(
	`{{range .Containers}}<div class="{{.Class}}" data-panel-name="{{.PanelName}}" data-view-url="{{.ViewURL}}" data-campaign-id="{{.CampaignID}}">` +
		`{{range .Slides}}<div class="{{.Class}}" data-slide-id="{{.ID}}"{{if .ImagePath}} data-image-path="{{.ImagePath}}"{{end}}{{if .Duration}} data-duration="{{.Duration}}"{{end}}{{if .BackgroundColor}} style="background-color: {{.BackgroundColor}}"{{end}}>` +
		`{{if .ImagePath}}<img src="{{.ImagePath}}" alt="">{{end}}` +
		`</div>{{end}}` +
		`</div>{{end}}`))

type panelData struct {
	Containers []containerData
}

type containerData struct {
	Class      string
	PanelName  string
	ViewURL    string
	CampaignID string
	Slides     []slideData
}

type slideData struct {
	Class           string
	ID              string
	ImagePath       string
	Duration        int
	BackgroundColor string
}

// Panel renders one container per campaign of panel. Campaigns with more than one slide
// are marked as sliders; the first slide of every container starts active.
func Panel(panel renovi.Panel, markers config.Markers) (string, error) {
	data := panelData{Containers: make([]containerData, 0, len(panel.Campaigns))}
	for _, campaign := range panel.Campaigns {
		data.Containers = append(data.Containers, container(panel.PanelName, campaign, markers))
	}

	var buf bytes.Buffer
	if err := panelTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering panel %q: %v", panel.PanelName, err)
	}
	return buf.String(), nil
}

func container(panelName string, campaign renovi.Campaign, markers config.Markers) containerData {
	slides := orderedSlides(campaign)

	classes := []string{markers.PanelClass}
	if len(slides) > 1 {
		classes = append(classes, markers.SliderClass)
	}

	c := containerData{
		Class:      strings.Join(classes, " "),
		PanelName:  panelName,
		ViewURL:    campaign.ViewURL,
		CampaignID: campaign.ID,
		Slides:     make([]slideData, 0, len(slides)),
	}
	for i, slide := range slides {
		class := markers.SlideClass
		if i == 0 {
			class += " " + markers.ActiveClass
		}
		c.Slides = append(c.Slides, slideData{
			Class:           class,
			ID:              slide.ID,
			ImagePath:       slide.ImagePath,
			Duration:        slide.Duration,
			BackgroundColor: slide.BackgroundColor,
		})
	}
	return c
}

// orderedSlides sorts slides by position. A campaign without slides is shown as a single
// slide built from its own image.
func orderedSlides(campaign renovi.Campaign) []renovi.Slide {
	if len(campaign.Slides) == 0 {
		if campaign.ImagePath == "" {
			return nil
		}
		return []renovi.Slide{{ID: campaign.ID, ImagePath: campaign.ImagePath}}
	}
	slides := append([]renovi.Slide(nil), campaign.Slides...)
	sort.SliceStable(slides, func(i, j int) bool {
		return slides[i].Position < slides[j].Position
	})
	return slides
}
