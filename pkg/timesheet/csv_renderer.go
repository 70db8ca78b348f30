package timesheet

import (
	"bytes"
	"encoding/csv"
	"strconv"

	log "github.com/sirupsen/logrus"
)

// RenderCSV writes the grid as projects x days with row and column totals.
// projectNames maps project ids to display names; unknown ids are printed as is.
func RenderCSV(g *Grid, projectNames map[string]string) (string, error) {
	header := make([]string, 0, DaysInWeek+2)
	header = append(header, "Project")
	for day := 0; day < DaysInWeek; day++ {
		header = append(header, FormatDate(DayOfWeek(g.WeekStart(), day)))
	}
	header = append(header, "Total")

	data := [][]string{header}
	for _, projectId := range g.ProjectIds() {
		name, ok := projectNames[projectId]
		if !ok || name == "" {
			name = projectId
		}
		row := make([]string, 0, DaysInWeek+2)
		row = append(row, name)
		for day := 0; day < DaysInWeek; day++ {
			row = append(row, hoursToString(g.GetHours(projectId, day)))
		}
		row = append(row, hoursToString(g.ProjectTotal(projectId)))
		data = append(data, row)
	}

	footer := make([]string, 0, DaysInWeek+2)
	footer = append(footer, "Daily total")
	for day := 0; day < DaysInWeek; day++ {
		footer = append(footer, hoursToString(g.DailyTotal(day)))
	}
	footer = append(footer, hoursToString(g.WeeklyTotal()))
	data = append(data, footer)

	var b bytes.Buffer
	writer := csv.NewWriter(&b)
	for _, row := range data {
		if err := writer.Write(row); err != nil {
			log.Errorf("Error writing to csv: %v", err)
			return "", err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		log.Errorf("Error writing to csv: %v", err)
		return "", err
	}
	return b.String(), nil
}

func hoursToString(hours float64) string {
	return strconv.FormatFloat(hours, 'f', 2, 64)
}
