package models

// PageResult is what the browsing/extraction engine hands back for one fetch.
type PageResult struct {
	URL         string
	CleanedHTML string
	Markdown    string
	// Text is the visible text of the cleaned page, entities decoded.
	Text string

	// ExtractedContent is the JSON array produced by the extraction
	// strategy. Empty for probe fetches.
	ExtractedContent string
}

// InsightReport holds the computed summary over the accepted sites of a run.
type InsightReport struct {
	TotalSites      int
	AverageRating   float64
	TotalReviews    int
	MostReviewed    *Site
	TopRated        []Site
	SitesByLocation map[string]int
}
