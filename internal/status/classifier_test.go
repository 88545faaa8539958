package status

import (
	"testing"
	"time"

	"GoldPulse/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ts(t time.Time) *int64 {
	v := t.UnixMilli()
	return &v
}

func openAlways(time.Time) (bool, string) { return false, "" }

func closedAlways(time.Time) (bool, string) { return true, "weekend closure" }

var now = time.Date(2026, 10, 14, 15, 0, 0, 0, time.UTC)

func TestClassifyNoTimestampNoRemote(t *testing.T) {
	c := NewClassifier(DefaultThresholds())

	got := c.Classify(nil, now, nil, openAlways)

	assert.Equal(t, models.StyleStopped, got.StyleClass)
	require.NotNil(t, got.Tooltip)
	assert.Equal(t, "data unavailable", *got.Tooltip)
}

func TestClassifyFreshNoRemote(t *testing.T) {
	c := NewClassifier(DefaultThresholds())

	got := c.Classify(ts(now.Add(-time.Minute)), now, nil, openAlways)

	assert.Equal(t, models.StyleActive, got.StyleClass)
	assert.Equal(t, TextActive, got.Text)
	assert.Nil(t, got.Tooltip)
}

func TestClassifyStaleNoRemote(t *testing.T) {
	c := NewClassifier(DefaultThresholds())

	got := c.Classify(ts(now.Add(-20*time.Minute)), now, nil, openAlways)

	assert.Equal(t, models.StyleDelayed, got.StyleClass)
}

func TestClassifyVeryOldIsStoppedRegardlessOfSchedule(t *testing.T) {
	c := NewClassifier(DefaultThresholds())

	assert.Equal(t, models.StyleStopped, c.Classify(ts(now.Add(-3*time.Hour)), now, nil, openAlways).StyleClass)
	assert.Equal(t, models.StyleStopped, c.Classify(ts(now.Add(-3*time.Hour)), now, nil, nil).StyleClass)
	assert.Equal(t, models.StyleStopped, c.Classify(ts(now.Add(-3*time.Hour)), now, nil, closedAlways).StyleClass)
}

func TestClassifyScheduleClosed(t *testing.T) {
	c := NewClassifier(DefaultThresholds())

	got := c.Classify(ts(now.Add(-time.Minute)), now, nil, closedAlways)

	assert.Equal(t, models.StyleStopped, got.StyleClass)
	require.NotNil(t, got.Tooltip)
	assert.Equal(t, "weekend closure", *got.Tooltip)
}

func TestClassifyRemoteClosedWins(t *testing.T) {
	c := NewClassifier(DefaultThresholds())
	remote := &models.RemoteMarketStatus{State: models.MarketClosed, Detail: "forex closed"}

	got := c.Classify(ts(now.Add(-time.Minute)), now, remote, openAlways)

	assert.Equal(t, models.StyleStopped, got.StyleClass)
	require.NotNil(t, got.Tooltip)
	assert.Equal(t, "forex closed", *got.Tooltip)
}

func TestClassifyRemoteOpen(t *testing.T) {
	c := NewClassifier(DefaultThresholds())
	remote := &models.RemoteMarketStatus{State: models.MarketOpen}

	noQuote := c.Classify(nil, now, remote, closedAlways)
	assert.Equal(t, models.StyleDelayed, noQuote.StyleClass)
	require.NotNil(t, noQuote.Tooltip)
	assert.Equal(t, "trading, no valid quote yet", *noQuote.Tooltip)

	lagging := c.Classify(ts(now.Add(-50*time.Minute)), now, remote, openAlways)
	assert.Equal(t, models.StyleDelayed, lagging.StyleClass)

	// 20 minutes is stale without a remote signal but fine while the remote says open
	fresh := c.Classify(ts(now.Add(-20*time.Minute)), now, remote, closedAlways)
	assert.Equal(t, models.StyleActive, fresh.StyleClass)
}

func TestClassifyRemoteUnknownFallsThrough(t *testing.T) {
	c := NewClassifier(DefaultThresholds())
	remote := &models.RemoteMarketStatus{State: models.MarketUnknown}

	assert.Equal(t, models.StyleStopped, c.Classify(nil, now, remote, openAlways).StyleClass)
	assert.Equal(t, models.StyleDelayed, c.Classify(ts(now.Add(-20*time.Minute)), now, remote, openAlways).StyleClass)
}
