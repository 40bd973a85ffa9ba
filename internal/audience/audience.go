// Package audience evaluates experiment targeting predicates against the
// calling client's context.
package audience

import (
	"strings"

	"github.com/splitkit/splitkit/internal/experiment"
	"github.com/splitkit/splitkit/internal/storage"
)

// ClientContext carries the client signals targeting predicates evaluate
// against. Device is derived from UserAgent when unset.
type ClientContext struct {
	UserType  string
	UserAgent string
	Device    experiment.DeviceClass
	Location  string
	NewUser   bool
}

// mobile indicators checked against the user-agent string, lowercased
var mobileIndicators = []string{"mobile", "android", "iphone", "ipad", "ipod", "windows phone"}

// DetectDevice classifies a user-agent string as mobile or desktop.
func DetectDevice(userAgent string) experiment.DeviceClass {
	ua := strings.ToLower(userAgent)
	for _, ind := range mobileIndicators {
		if strings.Contains(ua, ind) {
			return experiment.DeviceMobile
		}
	}
	return experiment.DeviceDesktop
}

// ContextFromStore builds a ClientContext, inferring new-vs-returning from
// the returning-user marker and leaving a marker behind for next time.
func ContextFromStore(store storage.Store, userType, userAgent, location string) (ClientContext, error) {
	_, returning, err := store.Get(storage.KeyReturningUser)
	if err != nil {
		return ClientContext{}, err
	}
	if !returning {
		if err := store.Set(storage.KeyReturningUser, "1"); err != nil {
			return ClientContext{}, err
		}
	}

	return ClientContext{
		UserType:  userType,
		UserAgent: userAgent,
		Device:    DetectDevice(userAgent),
		Location:  location,
		NewUser:   !returning,
	}, nil
}

// Matches reports whether the client satisfies every predicate the audience
// specifies. An unset field constrains nothing; set fields are ANDed. A nil
// audience matches everyone.
func Matches(aud *experiment.Audience, client ClientContext) bool {
	if aud == nil {
		return true
	}

	if aud.UserType != "" && aud.UserType != client.UserType {
		return false
	}

	if aud.Device != "" {
		device := client.Device
		if device == "" {
			device = DetectDevice(client.UserAgent)
		}
		if aud.Device != device {
			return false
		}
	}

	if len(aud.Locations) > 0 {
		found := false
		for _, loc := range aud.Locations {
			if strings.EqualFold(loc, client.Location) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if aud.NewUser != nil && *aud.NewUser != client.NewUser {
		return false
	}

	return true
}
