package domain

// Schedule sheet layout: nine fixed columns, no header row.
// status_text, status_link, image_url_1..4, date, hour, state.
const (
	ColStatusText = 0
	ColStatusLink = 1
	ColImage1     = 2
	ColImage2     = 3
	ColImage3     = 4
	ColImage4     = 5
	ColDate       = 6
	ColHour       = 7
	ColState      = 8

	// ScheduleColumns is the minimum column count for a row to be
	// eligible for processing. Shorter rows pass through unchanged.
	ScheduleColumns = 9
)

// Schedule row states. Only StatePublished is semantically checked;
// any other value, including empty, means "not yet published".
const (
	StateDraft     = "draft"
	StatePublished = "published"
)

// Post is the payload built from a due schedule row, ready to publish.
type Post struct {
	StatusText string
	StatusLink string
	ImageURLs  []string
}

// Render flattens the post into a single status string, link appended
// on its own line. Platforms without structured link fields use this.
func (p Post) Render() string {
	if p.StatusLink == "" {
		return p.StatusText
	}
	if p.StatusText == "" {
		return p.StatusLink
	}
	return p.StatusText + "\n" + p.StatusLink
}

// PostFromRow builds a Post from the first six columns of a schedule
// row. Empty image slots are dropped.
func PostFromRow(row []string) Post {
	p := Post{
		StatusText: row[ColStatusText],
		StatusLink: row[ColStatusLink],
	}
	for _, col := range []int{ColImage1, ColImage2, ColImage3, ColImage4} {
		if row[col] != "" {
			p.ImageURLs = append(p.ImageURLs, row[col])
		}
	}
	return p
}
