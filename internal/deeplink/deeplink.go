// Package deeplink builds the scheme URLs that hand a bloco's location off to
// ride-hailing and navigation apps, with per-platform store fallbacks and a
// final generic web-maps fallback. Opening the links is the UI's job; the
// cascade order is decided here.
package deeplink

import (
	"fmt"
	"net/url"
)

// Platform selects which app store the fallback points at.
type Platform string

const (
	PlatformAndroid Platform = "android"
	PlatformIOS     Platform = "ios"
)

// App identifies a transport integration.
type App string

const (
	AppUber App = "uber"
	App99   App = "99"
	AppWaze App = "waze"
)

var storeURLs = map[App]map[Platform]string{
	AppUber: {
		PlatformAndroid: "https://play.google.com/store/apps/details?id=com.ubercab",
		PlatformIOS:     "https://apps.apple.com/app/uber/id368677368",
	},
	App99: {
		PlatformAndroid: "https://play.google.com/store/apps/details?id=com.taxis99",
		PlatformIOS:     "https://apps.apple.com/app/99/id553663691",
	},
	AppWaze: {
		PlatformAndroid: "https://play.google.com/store/apps/details?id=com.waze",
		PlatformIOS:     "https://apps.apple.com/app/waze/id323229106",
	},
}

// SchemeURL builds the native deep link for one app targeting (lat, lng).
// label rides along where the app supports a destination nickname.
func SchemeURL(app App, lat, lng float64, label string) string {
	switch app {
	case AppUber:
		return fmt.Sprintf(
			"uber://?action=setPickup&pickup=my_location&dropoff[latitude]=%f&dropoff[longitude]=%f&dropoff[nickname]=%s",
			lat, lng, url.QueryEscape(label))
	case App99:
		return fmt.Sprintf(
			"taxis99://call?dropoff_latitude=%f&dropoff_longitude=%f",
			lat, lng)
	case AppWaze:
		return fmt.Sprintf("waze://?ll=%f,%f&navigate=yes", lat, lng)
	default:
		return WebMapsURL(lat, lng)
	}
}

// StoreURL returns the app-store page for app on platform, or "" if unknown.
func StoreURL(app App, platform Platform) string {
	return storeURLs[app][platform]
}

// WebMapsURL is the final generic fallback that works in any browser.
func WebMapsURL(lat, lng float64) string {
	return fmt.Sprintf("https://www.google.com/maps/search/?api=1&query=%f,%f", lat, lng)
}

// Cascade returns the ordered candidate URLs the UI walks for one app:
// native scheme first, then the platform's store page, then web maps.
// Failure of the last candidate is not handled further.
func Cascade(app App, platform Platform, lat, lng float64, label string) []string {
	links := []string{SchemeURL(app, lat, lng, label)}
	if store := StoreURL(app, platform); store != "" {
		links = append(links, store)
	}
	return append(links, WebMapsURL(lat, lng))
}

// Links bundles the cascade for every supported app, keyed by app name.
// This mirrors the links_transporte object the backend's detail route serves.
func Links(platform Platform, lat, lng float64, label string) map[string][]string {
	return map[string][]string{
		string(AppUber): Cascade(AppUber, platform, lat, lng, label),
		string(App99):   Cascade(App99, platform, lat, lng, label),
		string(AppWaze): Cascade(AppWaze, platform, lat, lng, label),
	}
}
