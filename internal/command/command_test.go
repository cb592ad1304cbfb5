package command

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"chargeamps/internal/models"
)

type apiMock struct {
	mock.Mock
}

func (m *apiMock) ListChargePoints(ctx context.Context) ([]models.ChargePoint, error) {
	args := m.Called(ctx)
	if resp, ok := args.Get(0).([]models.ChargePoint); ok {
		return resp, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *apiMock) GetStatus(ctx context.Context, chargePointID string) (*models.ChargePointStatus, error) {
	args := m.Called(ctx, chargePointID)
	if resp, ok := args.Get(0).(*models.ChargePointStatus); ok {
		return resp, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *apiMock) GetConnectorSettings(ctx context.Context, chargePointID string, connectorID int) (*models.ChargePointConnectorSettings, error) {
	args := m.Called(ctx, chargePointID, connectorID)
	if resp, ok := args.Get(0).(*models.ChargePointConnectorSettings); ok {
		return resp, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *apiMock) SetConnectorSettings(ctx context.Context, settings *models.ChargePointConnectorSettings) error {
	return m.Called(ctx, settings).Error(0)
}

func (m *apiMock) ListSessions(ctx context.Context, chargePointID string) ([]models.ChargingSession, error) {
	args := m.Called(ctx, chargePointID)
	if resp, ok := args.Get(0).([]models.ChargingSession); ok {
		return resp, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *apiMock) Logout(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type archiveMock struct {
	mock.Mock
}

func (m *archiveMock) Archive(ctx context.Context, chargePointID string) (int, error) {
	args := m.Called(ctx, chargePointID)
	return args.Int(0), args.Error(1)
}

func (m *archiveMock) History(ctx context.Context, chargePointID string, limit int) ([]models.ChargingSession, error) {
	args := m.Called(ctx, chargePointID, limit)
	if resp, ok := args.Get(0).([]models.ChargingSession); ok {
		return resp, args.Error(1)
	}
	return nil, args.Error(1)
}

type harness struct {
	api          *apiMock
	archive      *archiveMock
	out          *bytes.Buffer
	bootstrapped int
	closed       int
	exit         int
}

func newHarness() *harness {
	return &harness{api: &apiMock{}, archive: &archiveMock{}, out: &bytes.Buffer{}, exit: -1}
}

func (h *harness) run(args ...string) error {
	app := App(func(*cli.Context) (*Runtime, error) {
		h.bootstrapped++
		return &Runtime{
			API:     h.api,
			Archive: func(context.Context) (Archive, error) { return h.archive, nil },
			Close:   func() { h.closed++ },
		}, nil
	})
	app.Writer = h.out
	app.ErrWriter = &bytes.Buffer{}
	app.ExitErrHandler = func(_ *cli.Context, err error) {
		var coder cli.ExitCoder
		if errors.As(err, &coder) {
			h.exit = coder.ExitCode()
		}
	}
	return app.RunContext(context.Background(), append([]string{"chargeamps"}, args...))
}

func (h *harness) decode(t *testing.T, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(h.out.Bytes(), v))
}

func maxCurrent(v float64) *float64 { return &v }

func TestAppCommands(t *testing.T) {
	app := App(nil)
	names := map[string]bool{}
	for _, cmd := range app.Commands {
		names[cmd.Name] = true
	}
	for _, name := range []string{"chargepoints", "status", "sessions", "get", "set", "archive", "history", "logout"} {
		assert.True(t, names[name], "missing command %s", name)
	}
}

func TestChargePoints(t *testing.T) {
	h := newHarness()
	h.api.On("ListChargePoints", mock.Anything).Return([]models.ChargePoint{{ID: "cp-1", Name: "Garage"}}, nil)

	require.NoError(t, h.run("chargepoints"))

	var got []models.ChargePoint
	h.decode(t, &got)
	assert.Equal(t, []models.ChargePoint{{ID: "cp-1", Name: "Garage"}}, got)
	assert.Equal(t, 1, h.closed)
}

func TestChargePointsTable(t *testing.T) {
	h := newHarness()
	h.api.On("ListChargePoints", mock.Anything).Return([]models.ChargePoint{{ID: "cp-1", Name: "Garage", Type: "HALO"}}, nil)

	require.NoError(t, h.run("-o", "table", "chargepoints"))
	assert.Contains(t, h.out.String(), "ID    NAME    TYPE")
	assert.Contains(t, h.out.String(), "cp-1  Garage  HALO")
}

func TestStatusDefaultsToFirstChargePoint(t *testing.T) {
	h := newHarness()
	h.api.On("ListChargePoints", mock.Anything).Return([]models.ChargePoint{{ID: "first"}, {ID: "second"}}, nil)
	h.api.On("GetStatus", mock.Anything, "first").Return(&models.ChargePointStatus{
		ID: "first",
		ConnectorStatuses: []models.ChargePointConnectorStatus{
			{ChargePointID: "first", ConnectorID: 1, Status: "Charging"},
			{ChargePointID: "first", ConnectorID: 2, Status: "Available"},
		},
	}, nil)

	require.NoError(t, h.run("status", "--connector", "2"))

	var got models.ChargePointConnectorStatus
	h.decode(t, &got)
	assert.Equal(t, "Available", got.Status)
	h.api.AssertExpectations(t)
}

func TestStatusRendersWholeChargePoint(t *testing.T) {
	h := newHarness()
	h.api.On("GetStatus", mock.Anything, "cp").Return(&models.ChargePointStatus{
		ID:     "cp",
		Status: "Online",
		ConnectorStatuses: []models.ChargePointConnectorStatus{
			{ChargePointID: "cp", ConnectorID: 1, Status: "Charging", TotalConsumptionKwh: 3.5},
		},
	}, nil)

	require.NoError(t, h.run("status", "--chargepoint", "cp"))

	var got models.ChargePointStatus
	h.decode(t, &got)
	assert.Equal(t, "cp", got.ID)
	assert.Equal(t, "Online", got.Status)
	require.Len(t, got.ConnectorStatuses, 1)
	assert.Equal(t, "Charging", got.ConnectorStatuses[0].Status)
}

func TestStatusTable(t *testing.T) {
	h := newHarness()
	h.api.On("GetStatus", mock.Anything, "cp").Return(&models.ChargePointStatus{
		ID:                "cp",
		Status:            "Online",
		ConnectorStatuses: []models.ChargePointConnectorStatus{{ConnectorID: 1, Status: "Charging", TotalConsumptionKwh: 3.5}},
	}, nil)

	require.NoError(t, h.run("-o", "table", "status", "--chargepoint", "cp"))
	assert.Contains(t, h.out.String(), "CHARGEPOINT STATUS")
	assert.Contains(t, h.out.String(), "Online")
	assert.Contains(t, h.out.String(), "3.5")
}

func TestStatusUnknownConnector(t *testing.T) {
	h := newHarness()
	h.api.On("GetStatus", mock.Anything, "cp").Return(&models.ChargePointStatus{ID: "cp"}, nil)

	err := h.run("status", "--chargepoint", "cp", "--connector", "9")
	assert.ErrorContains(t, err, "reports no connector 9")
}

func TestNoChargePointsOwned(t *testing.T) {
	h := newHarness()
	h.api.On("ListChargePoints", mock.Anything).Return([]models.ChargePoint{}, nil)

	err := h.run("sessions")
	assert.ErrorContains(t, err, "no charge points")
}

func TestSessionsFilterByConnector(t *testing.T) {
	h := newHarness()
	h.api.On("ListSessions", mock.Anything, "cp").Return([]models.ChargingSession{
		{ID: 1, ConnectorID: 1},
		{ID: 2, ConnectorID: 2},
		{ID: 3, ConnectorID: 1},
	}, nil)

	require.NoError(t, h.run("sessions", "--cp", "cp", "--connector", "1"))

	var got []models.ChargingSession
	h.decode(t, &got)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, int64(3), got[1].ID)
}

func TestGetWalksAllConnectors(t *testing.T) {
	h := newHarness()
	h.api.On("GetStatus", mock.Anything, "cp").Return(&models.ChargePointStatus{
		ConnectorStatuses: []models.ChargePointConnectorStatus{{ConnectorID: 1}, {ConnectorID: 2}},
	}, nil)
	h.api.On("GetConnectorSettings", mock.Anything, "cp", 1).Return(&models.ChargePointConnectorSettings{ChargePointID: "cp", ConnectorID: 1, Mode: "On"}, nil)
	h.api.On("GetConnectorSettings", mock.Anything, "cp", 2).Return(&models.ChargePointConnectorSettings{ChargePointID: "cp", ConnectorID: 2, Mode: "Off"}, nil)

	require.NoError(t, h.run("get", "--chargepoint", "cp"))

	var got []models.ChargePointConnectorSettings
	h.decode(t, &got)
	require.Len(t, got, 2)
	assert.Equal(t, "Off", got[1].Mode)
}

func TestGetSingleConnectorSkipsStatus(t *testing.T) {
	h := newHarness()
	h.api.On("GetConnectorSettings", mock.Anything, "cp", 2).Return(&models.ChargePointConnectorSettings{ChargePointID: "cp", ConnectorID: 2}, nil)

	require.NoError(t, h.run("get", "--chargepoint", "cp", "--connector", "2"))
	h.api.AssertNotCalled(t, "GetStatus", mock.Anything, mock.Anything)
}

func TestSetReadModifyWrite(t *testing.T) {
	h := newHarness()
	current := &models.ChargePointConnectorSettings{ChargePointID: "cp", ConnectorID: 1, Mode: "On", CableLock: true, MaxCurrent: maxCurrent(16)}
	h.api.On("GetConnectorSettings", mock.Anything, "cp", 1).Return(current, nil)
	h.api.On("SetConnectorSettings", mock.Anything, mock.MatchedBy(func(s *models.ChargePointConnectorSettings) bool {
		return s.Mode == models.ModeOff && *s.MaxCurrent == 10 && s.CableLock
	})).Return(nil)

	require.NoError(t, h.run("set", "--chargepoint", "cp", "--connector", "1", "--disable", "--current", "10"))
	h.api.AssertExpectations(t)
}

func TestSetEnableOnly(t *testing.T) {
	h := newHarness()
	h.api.On("GetConnectorSettings", mock.Anything, "cp", 1).Return(&models.ChargePointConnectorSettings{ChargePointID: "cp", ConnectorID: 1, Mode: "Off", MaxCurrent: maxCurrent(16)}, nil)
	h.api.On("SetConnectorSettings", mock.Anything, mock.MatchedBy(func(s *models.ChargePointConnectorSettings) bool {
		return s.Mode == models.ModeOn && *s.MaxCurrent == 16
	})).Return(nil)

	require.NoError(t, h.run("set", "--chargepoint", "cp", "--connector", "1", "--enable"))
	h.api.AssertExpectations(t)
}

func TestSetUsageErrors(t *testing.T) {
	h := newHarness()
	err := h.run("set", "--chargepoint", "cp", "--connector", "1", "--enable", "--disable")
	assert.Error(t, err)
	assert.Equal(t, exitUsage, h.exit)

	h = newHarness()
	assert.Error(t, h.run("set", "--chargepoint", "cp", "--enable"))
	assert.Equal(t, exitUsage, h.exit)
	assert.Zero(t, h.bootstrapped)

	h.api.AssertNotCalled(t, "SetConnectorSettings", mock.Anything, mock.Anything)
}

func TestSetPropagatesAPIError(t *testing.T) {
	h := newHarness()
	apiErr := errors.New("http status 401")
	h.api.On("GetConnectorSettings", mock.Anything, "cp", 1).Return(nil, apiErr)

	err := h.run("set", "--chargepoint", "cp", "--connector", "1", "--enable")
	assert.ErrorIs(t, err, apiErr)
	h.api.AssertNotCalled(t, "SetConnectorSettings", mock.Anything, mock.Anything)
}

func TestArchiveAndHistory(t *testing.T) {
	h := newHarness()
	h.archive.On("Archive", mock.Anything, "cp").Return(4, nil)

	require.NoError(t, h.run("archive", "--chargepoint", "cp"))
	var summary map[string]interface{}
	h.decode(t, &summary)
	assert.Equal(t, float64(4), summary["archived"])

	h = newHarness()
	h.archive.On("History", mock.Anything, "cp", 5).Return([]models.ChargingSession{{ID: 8}}, nil)
	require.NoError(t, h.run("history", "--chargepoint", "cp", "--limit", "5"))
	var sessions []models.ChargingSession
	h.decode(t, &sessions)
	require.Len(t, sessions, 1)
}

func TestUnknownOutputFormatFailsBeforeBootstrap(t *testing.T) {
	h := newHarness()

	assert.Error(t, h.run("-o", "xml", "chargepoints"))
	assert.Equal(t, exitUsage, h.exit)
	assert.Zero(t, h.bootstrapped)
	h.api.AssertNotCalled(t, "ListChargePoints", mock.Anything)
}

func TestLogout(t *testing.T) {
	h := newHarness()
	h.api.On("Logout", mock.Anything).Return(nil).Once()

	require.NoError(t, h.run("logout"))
	assert.Empty(t, h.out.String())
	assert.Equal(t, 1, h.closed)
	h.api.AssertExpectations(t)
}
