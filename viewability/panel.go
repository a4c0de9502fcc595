package viewability

import (
	"strconv"
	"time"

	"github.com/digital-lumenspei/renovi-web-sdk/config"
	"github.com/digital-lumenspei/renovi-web-sdk/dom"
	"github.com/digital-lumenspei/renovi-web-sdk/util/task"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	PanelNameAttr = "data-panel-name"
	ViewURLAttr   = "data-view-url"
	SlideIDAttr   = "data-slide-id"
	ImagePathAttr = "data-image-path"
	DurationAttr  = "data-duration"
)

// Slide is rendering data read once from a slide element.
type Slide struct {
	ID        string        `json:"id"`
	ImagePath string        `json:"imagePath,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
}

// PanelInstance is one rendered occurrence of a panel or slider in the document.
// It is only read and written from the tracker loop.
type PanelInstance struct {
	Name        string
	ViewURL     string
	Slides      []Slide
	ActiveIndex int
	Reported    bool
	Observed    bool

	node        *html.Node
	slideNodes  []*html.Node
	activeClass string
	panel       bool
	rotator     *task.TickerTask
}

func newPanelInstance(n *html.Node, markers config.Markers) *PanelInstance {
	inst := &PanelInstance{node: n, activeClass: markers.ActiveClass}
	inst.Name, _ = dom.Attr(n, PanelNameAttr)
	inst.ViewURL, _ = dom.Attr(n, ViewURLAttr)

	inst.slideNodes = dom.FindAll(n, func(c *html.Node) bool {
		return dom.HasClass(c, markers.SlideClass)
	})
	inst.Slides = make([]Slide, 0, len(inst.slideNodes))
	for _, s := range inst.slideNodes {
		inst.Slides = append(inst.Slides, readSlide(s))
	}
	return inst
}

func readSlide(n *html.Node) Slide {
	slide := Slide{}
	slide.ID, _ = dom.Attr(n, SlideIDAttr)
	if path, ok := dom.Attr(n, ImagePathAttr); ok {
		slide.ImagePath = path
	} else if img := dom.FindAll(n, isImage); len(img) > 0 {
		slide.ImagePath, _ = dom.Attr(img[0], "src")
	}
	if raw, ok := dom.Attr(n, DurationAttr); ok {
		if ms, err := strconv.Atoi(raw); err == nil && ms > 0 {
			slide.Duration = time.Duration(ms) * time.Millisecond
		}
	}
	return slide
}

func isImage(n *html.Node) bool {
	return n.Type == html.ElementNode && n.DataAtom == atom.Img
}

// Rotating reports whether a slide rotator is running for this instance.
func (p *PanelInstance) Rotating() bool {
	return p.rotator != nil
}

// activeSlide returns the index of the slide carrying the active marker. A panel wrapping
// a separately tracked slider never advances its own ActiveIndex, so the marker wins.
func (p *PanelInstance) activeSlide() int {
	if p.activeClass != "" {
		for i, n := range p.slideNodes {
			if dom.HasClass(n, p.activeClass) {
				return i
			}
		}
	}
	return p.ActiveIndex
}

// currentViewURL prefers the view url carried by the active slide over the container's.
func (p *PanelInstance) currentViewURL() string {
	if i := p.activeSlide(); i < len(p.slideNodes) {
		if url, ok := dom.Attr(p.slideNodes[i], ViewURLAttr); ok && url != "" {
			return url
		}
	}
	if url, ok := dom.Attr(p.node, ViewURLAttr); ok {
		return url
	}
	return p.ViewURL
}

// advance moves the active marker to the next slide, wrapping to the first.
func (p *PanelInstance) advance(activeClass string) {
	if len(p.slideNodes) == 0 {
		return
	}
	dom.RemoveClass(p.slideNodes[p.ActiveIndex], activeClass)
	p.ActiveIndex = (p.ActiveIndex + 1) % len(p.slideNodes)
	dom.AddClass(p.slideNodes[p.ActiveIndex], activeClass)
}
