package main

import (
	"fmt"
	"math"
	"strings"
)

// LocatorToLatLon converts a Maidenhead locator of 4 or 6 characters to the
// latitude and longitude of its grid square center.
func LocatorToLatLon(locator string) (lat, lon float64, err error) {
	locator = strings.ToUpper(locator)

	if len(locator) != 4 && len(locator) != 6 {
		return 0, 0, fmt.Errorf("invalid Maidenhead locator length: %d (must be 4 or 6)", len(locator))
	}
	if locator[0] < 'A' || locator[0] > 'R' || locator[1] < 'A' || locator[1] > 'R' {
		return 0, 0, fmt.Errorf("invalid field characters (must be A-R)")
	}
	if locator[2] < '0' || locator[2] > '9' || locator[3] < '0' || locator[3] > '9' {
		return 0, 0, fmt.Errorf("invalid square characters (must be 0-9)")
	}
	if len(locator) == 6 {
		if locator[4] < 'A' || locator[4] > 'X' || locator[5] < 'A' || locator[5] > 'X' {
			return 0, 0, fmt.Errorf("invalid subsquare characters (must be A-X)")
		}
	}

	lon = float64(locator[0]-'A') * 20.0
	lat = float64(locator[1]-'A') * 10.0
	lon += float64(locator[2]-'0') * 2.0
	lat += float64(locator[3]-'0') * 1.0

	if len(locator) == 6 {
		lon += float64(locator[4]-'A') * (2.0 / 24.0)
		lat += float64(locator[5]-'A') * (1.0 / 24.0)
		lon += 2.0 / 48.0
		lat += 1.0 / 48.0
	} else {
		lon += 1.0
		lat += 0.5
	}

	return lat - 90.0, lon - 180.0, nil
}

// DistanceAndBearing returns the great circle distance in km and the
// initial bearing in degrees from point 1 to point 2.
func DistanceAndBearing(lat1, lon1, lat2, lon2 float64) (distanceKm, bearingDeg float64) {
	const earthRadiusKm = 6371.0

	lat1Rad := lat1 * math.Pi / 180.0
	lon1Rad := lon1 * math.Pi / 180.0
	lat2Rad := lat2 * math.Pi / 180.0
	lon2Rad := lon2 * math.Pi / 180.0

	dLat := lat2Rad - lat1Rad
	dLon := lon2Rad - lon1Rad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	distanceKm = earthRadiusKm * c

	y := math.Sin(dLon) * math.Cos(lat2Rad)
	x := math.Cos(lat1Rad)*math.Sin(lat2Rad) -
		math.Sin(lat1Rad)*math.Cos(lat2Rad)*math.Cos(dLon)
	bearingDeg = math.Atan2(y, x) * 180.0 / math.Pi
	if bearingDeg < 0 {
		bearingDeg += 360.0
	}

	return distanceKm, bearingDeg
}

// DistanceFromLocators computes distance and bearing between two locators.
func DistanceFromLocators(locator1, locator2 string) (distanceKm, bearingDeg float64, err error) {
	lat1, lon1, err := LocatorToLatLon(locator1)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid locator1: %w", err)
	}
	lat2, lon2, err := LocatorToLatLon(locator2)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid locator2: %w", err)
	}
	distanceKm, bearingDeg = DistanceAndBearing(lat1, lon1, lat2, lon2)
	return distanceKm, bearingDeg, nil
}

// looksLikeLocator reports whether a message extra field is a grid square
// rather than a report or acknowledgement.
func looksLikeLocator(s string) bool {
	if len(s) != 4 {
		return false
	}
	if s == "RR73" {
		return false
	}
	return s[0] >= 'A' && s[0] <= 'R' && s[1] >= 'A' && s[1] <= 'R' &&
		s[2] >= '0' && s[2] <= '9' && s[3] >= '0' && s[3] <= '9'
}
