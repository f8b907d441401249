package model

// OpenWeatherMapCondition is one entry of the "weather" array.
type OpenWeatherMapCondition struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type OpenWeatherMapMain struct {
	Temp      float64 `json:"temp"`
	FeelsLike float64 `json:"feels_like"`
	TempMin   float64 `json:"temp_min"`
	TempMax   float64 `json:"temp_max"`
	Pressure  int     `json:"pressure"`
	Humidity  int     `json:"humidity"`
	SeaLevel  int     `json:"sea_level"`
	GrndLevel int     `json:"grnd_level"`
}

// OpenWeatherMapResponse is the body of GET /data/2.5/weather.
type OpenWeatherMapResponse struct {
	Name    string                    `json:"name"`
	Dt      int64                     `json:"dt"`
	Main    *OpenWeatherMapMain       `json:"main"`
	Weather []OpenWeatherMapCondition `json:"weather"`
	Wind    struct {
		Speed float64 `json:"speed"`
		Deg   int     `json:"deg"`
	} `json:"wind"`
}

// OpenWeatherMapForecastItem is one 3-hour step of the forecast list.
type OpenWeatherMapForecastItem struct {
	Dt      int64                     `json:"dt"`
	DtTxt   string                    `json:"dt_txt"`
	Main    OpenWeatherMapMain        `json:"main"`
	Weather []OpenWeatherMapCondition `json:"weather"`
}

// OpenWeatherMapForecastResponse is the body of GET /data/2.5/forecast.
type OpenWeatherMapForecastResponse struct {
	Cnt  int                          `json:"cnt"`
	List []OpenWeatherMapForecastItem `json:"list"`
	City struct {
		Name    string `json:"name"`
		Country string `json:"country"`
	} `json:"city"`
}

// OpenWeatherMapError is the body returned with non-2xx statuses,
// e.g. {"cod": "404", "message": "city not found"}.
type OpenWeatherMapError struct {
	Cod     interface{} `json:"cod"`
	Message string      `json:"message"`
}

// FirstDescription returns the description of the first condition or "".
func FirstDescription(conditions []OpenWeatherMapCondition) string {
	if len(conditions) == 0 {
		return ""
	}
	return conditions[0].Description
}
