package endpoints

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/digital-lumenspei/renovi-web-sdk/errortypes"
	"github.com/digital-lumenspei/renovi-web-sdk/viewability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestIntersectionsEntries(t *testing.T) {
	tracker := &trackerMock{}
	tracker.On("ReportIntersections", []viewability.IntersectionReport{
		{ID: 4, IntersectionRatio: 0.6, IsIntersecting: true},
		{ID: 5, IntersectionRatio: 0.2, IsIntersecting: false},
		{ID: 6, IntersectionRatio: 0},
	}).Return([]error{&errortypes.Warning{Message: "node 6 is not in the document"}}, nil)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodPost, "/intersections", strings.NewReader(
		`{"entries":[{"id":4,"ratio":0.6},{"id":5,"ratio":0.2,"isIntersecting":false},{"id":6,"ratio":0}]}`))
	NewIntersectionsEndpoint(tracker)(recorder, request, nil)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"warnings":["node 6 is not in the document"]}`, recorder.Body.String())
	tracker.AssertExpectations(t)
}

func TestIntersectionsReturnsOnlyWarnings(t *testing.T) {
	tracker := &trackerMock{}
	tracker.On("ReportIntersections", mock.Anything).Return([]error{
		errors.New("internal detail"),
		&errortypes.Warning{Message: "node 7 is not in the document", WarningCode: errortypes.UnknownNodeWarningCode},
	}, nil)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodPost, "/intersections", strings.NewReader(`{"entries":[{"id":7,"ratio":1}]}`))
	NewIntersectionsEndpoint(tracker)(recorder, request, nil)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"warnings":["node 7 is not in the document"]}`, recorder.Body.String())
}

func TestIntersectionsGeometry(t *testing.T) {
	tracker := &trackerMock{}
	tracker.On("ReportGeometry",
		viewability.Rect{Width: 800, Height: 600},
		[]viewability.TargetRect{{ID: 4, Rect: viewability.Rect{X: 10, Y: 550, Width: 100, Height: 100}}},
	).Return(nil, nil)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodPost, "/intersections", strings.NewReader(
		`{"viewport":{"x":0,"y":0,"width":800,"height":600},"targets":[{"id":4,"rect":{"x":10,"y":550,"width":100,"height":100}}]}`))
	NewIntersectionsEndpoint(tracker)(recorder, request, nil)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{}`, recorder.Body.String())
	tracker.AssertExpectations(t)
}

func TestIntersectionsBadRequests(t *testing.T) {
	testCases := []struct {
		description string
		body        string
	}{
		{description: "malformed", body: `[`},
		{description: "ratio out of range", body: `{"entries":[{"id":4,"ratio":1.5}]}`},
		{description: "both shapes", body: `{"entries":[{"id":4,"ratio":1}],"viewport":{"width":1,"height":1}}`},
	}

	for _, test := range testCases {
		tracker := &trackerMock{}
		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodPost, "/intersections", strings.NewReader(test.body))
		NewIntersectionsEndpoint(tracker)(recorder, request, nil)

		assert.Equal(t, http.StatusBadRequest, recorder.Code, test.description)
		tracker.AssertNotCalled(t, "ReportIntersections", mock.Anything)
	}
}

func TestIntersectionsInternalError(t *testing.T) {
	tracker := &trackerMock{}
	tracker.On("ReportIntersections", mock.Anything).Return(nil, errors.New("boom"))

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodPost, "/intersections", strings.NewReader(`{"entries":[]}`))
	NewIntersectionsEndpoint(tracker)(recorder, request, nil)

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
}
