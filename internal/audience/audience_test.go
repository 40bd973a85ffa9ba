package audience_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/splitkit/splitkit/internal/audience"
	"github.com/splitkit/splitkit/internal/experiment"
	"github.com/splitkit/splitkit/internal/storage"
)

const (
	iphoneUA  = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15"
	desktopUA = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"
)

func TestDetectDevice(t *testing.T) {
	require.Equal(t, experiment.DeviceMobile, audience.DetectDevice(iphoneUA))
	require.Equal(t, experiment.DeviceMobile, audience.DetectDevice("Mozilla/5.0 (Linux; Android 14)"))
	require.Equal(t, experiment.DeviceDesktop, audience.DetectDevice(desktopUA))
	require.Equal(t, experiment.DeviceDesktop, audience.DetectDevice(""))
}

func TestMatches_NilAudienceMatchesEveryone(t *testing.T) {
	require.True(t, audience.Matches(nil, audience.ClientContext{}))
}

func TestMatches_UnsetFieldsConstrainNothing(t *testing.T) {
	aud := &experiment.Audience{Device: experiment.DeviceMobile}
	client := audience.ClientContext{UserAgent: iphoneUA, UserType: "worker", Location: "Seoul"}
	require.True(t, audience.Matches(aud, client))
}

func TestMatches_AllSpecifiedFieldsMustMatch(t *testing.T) {
	newUser := true
	aud := &experiment.Audience{
		UserType:  "worker",
		Device:    experiment.DeviceMobile,
		Locations: []string{"Seoul", "Incheon"},
		NewUser:   &newUser,
	}

	match := audience.ClientContext{
		UserType: "worker", UserAgent: iphoneUA, Location: "seoul", NewUser: true,
	}
	require.True(t, audience.Matches(aud, match))

	wrongDevice := match
	wrongDevice.UserAgent = desktopUA
	wrongDevice.Device = ""
	require.False(t, audience.Matches(aud, wrongDevice))

	wrongType := match
	wrongType.UserType = "employer"
	require.False(t, audience.Matches(aud, wrongType))

	wrongLocation := match
	wrongLocation.Location = "Busan"
	require.False(t, audience.Matches(aud, wrongLocation))

	returning := match
	returning.NewUser = false
	require.False(t, audience.Matches(aud, returning))
}

func TestContextFromStore_NewUserFlag(t *testing.T) {
	st := storage.NewMemoryStore()

	first, err := audience.ContextFromStore(st, "", desktopUA, "")
	require.NoError(t, err)
	require.True(t, first.NewUser)

	// The marker persists, so the next visit is a returning user.
	second, err := audience.ContextFromStore(st, "", desktopUA, "")
	require.NoError(t, err)
	require.False(t, second.NewUser)
}
