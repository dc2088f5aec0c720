package models

// FeedEntry is one sample of a ThingSpeak channel feed.
// Field values arrive as strings or null; both null and absent decode to nil.
type FeedEntry struct {
	CreatedAt string  `json:"created_at"`
	EntryID   int64   `json:"entry_id"`
	Field1    *string `json:"field1"`
	Field2    *string `json:"field2"`
	Field3    *string `json:"field3"`
	Field4    *string `json:"field4"`
	Field5    *string `json:"field5"`
}

// FeedResponse is the body of GET /channels/{id}/feed.json.
type FeedResponse struct {
	Error string      `json:"error,omitempty"`
	Feeds []FeedEntry `json:"feeds"`
}

// Point is a localized timestamp with the raw field value as delivered.
type Point struct {
	Time string
	Raw  *string
}

// Series is the ordered sequence of points for one field.
type Series []Point

// Feed holds the localized timestamps and the five field series of one fetch.
// All slices are index-aligned with Times.
type Feed struct {
	Times  []string
	Fields [5][]*string
}

// Series returns the points of the given field index (0 for field1).
func (f *Feed) Series(idx int) Series {
	out := make(Series, len(f.Times))
	for i, t := range f.Times {
		out[i] = Point{Time: t, Raw: f.Fields[idx][i]}
	}
	return out
}

// Field maps a ThingSpeak field token to its chart label.
type Field struct {
	Name  string
	Index int
	Label string
}

// Fields is the fixed field table.
var Fields = []Field{
	{Name: "field1", Index: 0, Label: "BPM"},
	{Name: "field2", Index: 1, Label: "temperature"},
	{Name: "field3", Index: 2, Label: "humidity"},
	{Name: "field4", Index: 3, Label: "body_temperature"},
	{Name: "field5", Index: 4, Label: "ECG"},
}

// LookupField returns the field for a token such as "field3".
func LookupField(name string) (Field, bool) {
	for _, f := range Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// ChartArtifact is a rendered and resized chart image.
type ChartArtifact struct {
	Path   string `json:"path"`
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}
