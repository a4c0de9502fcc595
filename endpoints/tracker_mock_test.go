package endpoints

import (
	"github.com/digital-lumenspei/renovi-web-sdk/dom"
	"github.com/digital-lumenspei/renovi-web-sdk/viewability"
	"github.com/stretchr/testify/mock"
)

type trackerMock struct {
	mock.Mock
}

func (m *trackerMock) InsertHTML(parent dom.NodeID, fragment string) ([]dom.NodeID, error) {
	args := m.Called(parent, fragment)
	ids, _ := args.Get(0).([]dom.NodeID)
	return ids, args.Error(1)
}

func (m *trackerMock) Remove(id dom.NodeID) error {
	return m.Called(id).Error(0)
}

func (m *trackerMock) ReportIntersections(reports []viewability.IntersectionReport) ([]error, error) {
	args := m.Called(reports)
	warnings, _ := args.Get(0).([]error)
	return warnings, args.Error(1)
}

func (m *trackerMock) ReportGeometry(viewport viewability.Rect, targets []viewability.TargetRect) ([]error, error) {
	args := m.Called(viewport, targets)
	warnings, _ := args.Get(0).([]error)
	return warnings, args.Error(1)
}

func (m *trackerMock) Panels() ([]viewability.PanelStatus, error) {
	args := m.Called()
	panels, _ := args.Get(0).([]viewability.PanelStatus)
	return panels, args.Error(1)
}
