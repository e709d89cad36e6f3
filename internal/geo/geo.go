package geo

import "math"

// EarthRadiusM is the mean earth radius used for great-circle distances.
const EarthRadiusM = 6371000.0

// Haversine returns the great-circle distance in meters between two
// (latitude, longitude) pairs given in degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*
			math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusM * c
}

// RoundCoordinate rounds a latitude or longitude to 5 decimal places,
// roughly 1.1 m of precision.
func RoundCoordinate(v float64) float64 {
	return roundTo(v, 5)
}

// RoundElevation rounds an elevation in meters to 1 decimal place.
func RoundElevation(v float64) float64 {
	return roundTo(v, 1)
}

// roundTo rounds half away from zero at the given number of decimals.
func roundTo(v float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(v*pow) / pow
}
