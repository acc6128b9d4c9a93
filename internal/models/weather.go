package models

// Coordinates is a latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// HourlyForecast is one 3-hour forecast sample.
type HourlyForecast struct {
	Time          string  `json:"time"`
	Temperature   float64 `json:"temperature"`
	Condition     string  `json:"condition"`
	Precipitation float64 `json:"precipitation"`
}

// DailyForecast aggregates the forecast samples of one calendar day.
type DailyForecast struct {
	Day           string  `json:"day"`
	Date          string  `json:"date"`
	HighTemp      float64 `json:"highTemp"`
	LowTemp       float64 `json:"lowTemp"`
	Condition     string  `json:"condition"`
	Precipitation float64 `json:"precipitation"`
}

// WeatherData is the aggregated weather payload for one location.
type WeatherData struct {
	Location        string           `json:"location"`
	Temperature     float64          `json:"temperature"`
	Condition       string           `json:"condition"`
	FeelsLike       float64          `json:"feelsLike"`
	Humidity        float64          `json:"humidity"`
	WindSpeed       float64          `json:"windSpeed"`
	UvIndex         float64          `json:"uvIndex"`
	Pressure        float64          `json:"pressure"`
	Timezone        string           `json:"timezone"`
	LocalTime       string           `json:"localTime"`
	MapLocation     Coordinates      `json:"mapLocation"`
	HourlyForecasts []HourlyForecast `json:"hourlyForecasts"`
	DailyForecasts  []DailyForecast  `json:"dailyForecasts"`
	IsFavorite      bool             `json:"isFavorite"`
}

// Location is one geocoding search result.
type Location struct {
	Name        string      `json:"name"`
	Country     string      `json:"country"`
	Coordinates Coordinates `json:"coordinates"`
	Timezone    string      `json:"timezone"`
}

// LocationSearchResult wraps geocoding matches.
type LocationSearchResult struct {
	Locations []Location `json:"locations"`
}
