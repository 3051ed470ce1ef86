package star

import "time"

// BuildDateDimension generates one DateDim per calendar day from min to max
// inclusive. Fiscal years start October 1, so October 2023 belongs to
// fiscal year 2024 and is fiscal quarter 1.
func BuildDateDimension(min, max time.Time) []DateDim {
	min = truncateDay(min)
	max = truncateDay(max)
	if max.Before(min) {
		return nil
	}

	var dims []DateDim
	for d := min; !d.After(max); d = d.AddDate(0, 0, 1) {
		_, week := d.ISOWeek()

		fiscalYear := d.Year()
		if d.Month() >= time.October {
			fiscalYear++
		}
		fiscalQuarter := (int(d.Month())+2)%12/3 + 1

		dims = append(dims, DateDim{
			Key:           DateKey(d),
			FullDate:      d,
			Year:          d.Year(),
			Quarter:       (int(d.Month())-1)/3 + 1,
			Month:         int(d.Month()),
			MonthName:     d.Month().String(),
			Week:          week,
			DayOfMonth:    d.Day(),
			DayOfWeek:     int(d.Weekday()),
			DayName:       d.Weekday().String(),
			IsWeekend:     d.Weekday() == time.Saturday || d.Weekday() == time.Sunday,
			FiscalYear:    fiscalYear,
			FiscalQuarter: fiscalQuarter,
		})
	}
	return dims
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
