package season

import "time"

// Default returns the calendar of NHL seasons the service ships with.
// New seasons are added here once the league publishes dates; end dates for
// an in-progress season are estimates until the schedule is final.
func Default() *Calendar {
	cal, err := NewCalendar(defaultSeasons())
	if err != nil {
		// The shipped table is validated by tests; a bad entry is a
		// programming error, not a runtime condition.
		panic(err)
	}
	return cal
}

func defaultSeasons() []Definition {
	return []Definition{
		{SeasonID: 20242025, StartDate: day(2024, 10, 4), RegularSeasonEnd: day(2025, 4, 18), PlayoffEnd: day(2025, 6, 30)},
		{SeasonID: 20232024, StartDate: day(2023, 10, 10), RegularSeasonEnd: day(2024, 4, 18), PlayoffEnd: day(2024, 6, 24)},
		{SeasonID: 20222023, StartDate: day(2022, 10, 7), RegularSeasonEnd: day(2023, 4, 14), PlayoffEnd: day(2023, 6, 13)},
		{SeasonID: 20212022, StartDate: day(2021, 10, 12), RegularSeasonEnd: day(2022, 4, 29), PlayoffEnd: day(2022, 6, 26)},
		// Covid-shortened season
		{SeasonID: 20202021, StartDate: day(2021, 1, 13), RegularSeasonEnd: day(2021, 5, 19), PlayoffEnd: day(2021, 7, 7)},
		// Covid-interrupted season; the bubble playoffs ran into late September
		{SeasonID: 20192020, StartDate: day(2019, 10, 2), RegularSeasonEnd: day(2020, 3, 10), PlayoffEnd: day(2020, 9, 28)},
		{SeasonID: 20182019, StartDate: day(2018, 10, 3), RegularSeasonEnd: day(2019, 4, 6), PlayoffEnd: day(2019, 6, 12)},
		{SeasonID: 20172018, StartDate: day(2017, 10, 4), RegularSeasonEnd: day(2018, 4, 8), PlayoffEnd: day(2018, 6, 7)},
		{SeasonID: 20162017, StartDate: day(2016, 10, 12), RegularSeasonEnd: day(2017, 4, 9), PlayoffEnd: day(2017, 6, 11)},
		{SeasonID: 20152016, StartDate: day(2015, 10, 7), RegularSeasonEnd: day(2016, 4, 10), PlayoffEnd: day(2016, 6, 12)},
		{SeasonID: 20142015, StartDate: day(2014, 10, 8), RegularSeasonEnd: day(2015, 4, 12), PlayoffEnd: day(2015, 6, 15)},
		{SeasonID: 20132014, StartDate: day(2013, 10, 1), RegularSeasonEnd: day(2014, 4, 13), PlayoffEnd: day(2014, 6, 15)},
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
